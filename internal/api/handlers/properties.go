package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Nyx-1992/hostease-backend/internal/api/middleware"
	"github.com/Nyx-1992/hostease-backend/internal/storage"
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

type FeedRequest struct {
	Platform string `json:"platform"`
	ICalURL  string `json:"ical_url"`
	IsActive bool   `json:"is_active"`
}

type PropertyRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Street       string        `json:"street"`
	City         string        `json:"city"`
	Province     string        `json:"province"`
	PostalCode   string        `json:"postal_code"`
	Country      string        `json:"country"`
	PropertyType string        `json:"property_type"`
	Bedrooms     int           `json:"bedrooms"`
	Bathrooms    int           `json:"bathrooms"`
	MaxGuests    int           `json:"max_guests"`
	BasePrice    float64       `json:"base_price"`
	Currency     string        `json:"currency"`
	CheckInTime  string        `json:"check_in_time"`
	CheckOutTime string        `json:"check_out_time"`
	IsActive     *bool         `json:"is_active"`
	Feeds        []FeedRequest `json:"feeds"`
}

func (req *PropertyRequest) apply(p *models.Property) error {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Street = req.Street
	p.City = req.City
	p.Province = req.Province
	p.PostalCode = req.PostalCode
	p.Country = req.Country
	p.PropertyType = req.PropertyType
	p.Bedrooms = req.Bedrooms
	p.Bathrooms = req.Bathrooms
	p.MaxGuests = req.MaxGuests
	p.BasePrice = req.BasePrice
	p.Currency = req.Currency
	p.CheckInTime = req.CheckInTime
	p.CheckOutTime = req.CheckOutTime
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if p.PropertyType == "" {
		p.PropertyType = models.PropertyTypeApartment
	}
	if p.Currency == "" {
		p.Currency = "ZAR"
	}
	if p.MaxGuests <= 0 {
		p.MaxGuests = 2
	}
	if p.CheckInTime == "" {
		p.CheckInTime = "14:00"
	}
	if p.CheckOutTime == "" {
		p.CheckOutTime = "10:00"
	}

	feeds := make([]models.FeedConfig, 0, len(req.Feeds))
	for _, f := range req.Feeds {
		platform, err := models.ParsePlatform(f.Platform)
		if err != nil {
			return err
		}
		feeds = append(feeds, models.FeedConfig{
			PropertyID: p.ID,
			Platform:   platform,
			ICalURL:    strings.TrimSpace(f.ICalURL),
			IsActive:   f.IsActive,
		})
	}
	p.Feeds = feeds
	return nil
}

// ListProperties returns all properties with their feed configurations.
func ListProperties(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := properties.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query properties")
			return
		}
		if list == nil {
			list = []models.Property{}
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// CreateProperty adds a new property.
func CreateProperty(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name is required")
			return
		}

		property := &models.Property{IsActive: true}
		if err := req.apply(property); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		existing, err := properties.GetByName(r.Context(), property.Name)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query properties")
			return
		}
		if existing != nil {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "A property with this name already exists")
			return
		}

		if err := properties.Create(r.Context(), property); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create property")
			return
		}

		middleware.WriteJSON(w, http.StatusCreated, property)
	}
}

// GetProperty returns a single property by ID.
func GetProperty(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, err := properties.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, property)
	}
}

// UpdateProperty updates an existing property and replaces its feeds.
func UpdateProperty(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, err := properties.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		var req PropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name is required")
			return
		}
		if err := req.apply(property); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := properties.Update(r.Context(), property); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update property")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, property)
	}
}

// DeactivateProperty soft-deletes a property. Its bookings are retained.
func DeactivateProperty(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		property, err := properties.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		if err := properties.Deactivate(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to deactivate property")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
