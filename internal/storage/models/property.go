// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Property represents a managed short-term rental property.
type Property struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Street       string     `json:"street"`
	City         string     `json:"city"`
	Province     string     `json:"province"`
	PostalCode   string     `json:"postal_code"`
	Country      string     `json:"country"`
	PropertyType string     `json:"property_type"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    int        `json:"bathrooms"`
	MaxGuests    int        `json:"max_guests"`
	BasePrice    float64    `json:"base_price"`
	Currency     string     `json:"currency"`
	CheckInTime  string     `json:"check_in_time"`  // "15:04"
	CheckOutTime string     `json:"check_out_time"` // "15:04"
	IsActive     bool       `json:"is_active"`
	Feeds        []FeedConfig `json:"feeds,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Property type constants.
const (
	PropertyTypeApartment = "apartment"
	PropertyTypeHouse     = "house"
	PropertyTypeStudio    = "studio"
	PropertyTypeVilla     = "villa"
	PropertyTypeOther     = "other"
)

// FeedConfig is one property-platform iCal feed subscription.
type FeedConfig struct {
	PropertyID string   `json:"property_id"`
	Platform   Platform `json:"platform"`
	ICalURL    string   `json:"ical_url"`
	IsActive   bool     `json:"is_active"`
}

// ActiveFeeds returns the feeds that have a URL and are enabled for syncing.
func (p *Property) ActiveFeeds() []FeedConfig {
	var active []FeedConfig
	for _, f := range p.Feeds {
		if f.IsActive && f.ICalURL != "" {
			active = append(active, f)
		}
	}
	return active
}
