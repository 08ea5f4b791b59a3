package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// PropertyRepository provides data access for properties and their feed configs.
type PropertyRepository struct {
	BaseRepository
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const propertyColumns = `
	id, name, description, street, city, province, postal_code, country,
	property_type, bedrooms, bathrooms, max_guests, base_price, currency,
	check_in_time, check_out_time, is_active, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (*models.Property, error) {
	p := &models.Property{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Street, &p.City, &p.Province,
		&p.PostalCode, &p.Country, &p.PropertyType, &p.Bedrooms, &p.Bathrooms,
		&p.MaxGuests, &p.BasePrice, &p.Currency, &p.CheckInTime, &p.CheckOutTime,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new property along with its feed configs.
func (r *PropertyRepository) Create(ctx context.Context, p *models.Property) error {
	p.ID = GenerateID()
	p.CreatedAt = r.Now()
	p.UpdatedAt = r.Now()

	return r.Transaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO properties (`+propertyColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			p.ID, p.Name, p.Description, p.Street, p.City, p.Province,
			p.PostalCode, p.Country, p.PropertyType, p.Bedrooms, p.Bathrooms,
			p.MaxGuests, p.BasePrice, p.Currency, p.CheckInTime, p.CheckOutTime,
			p.IsActive, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting property: %w", err)
		}
		return replaceFeeds(ctx, tx, p.ID, p.Feeds)
	})
}

// GetByID retrieves a property and its feed configs. Returns nil when not found.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying property: %w", err)
	}
	if p.Feeds, err = r.feedsFor(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a property by its exact name. Returns nil when not found.
func (r *PropertyRepository) GetByName(ctx context.Context, name string) (*models.Property, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE name = ?`, name)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying property: %w", err)
	}
	if p.Feeds, err = r.feedsFor(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves all properties, with feed configs attached.
func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	return r.list(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY name`)
}

// ListActive retrieves the properties eligible for calendar reconciliation.
func (r *PropertyRepository) ListActive(ctx context.Context) ([]models.Property, error) {
	return r.list(ctx, `SELECT `+propertyColumns+` FROM properties WHERE is_active = 1 ORDER BY name`)
}

func (r *PropertyRepository) list(ctx context.Context, query string) ([]models.Property, error) {
	rows, err := r.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range properties {
		feeds, err := r.feedsFor(ctx, properties[i].ID)
		if err != nil {
			return nil, err
		}
		properties[i].Feeds = feeds
	}
	return properties, nil
}

// Update updates a property and replaces its feed configs.
func (r *PropertyRepository) Update(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = r.Now()

	return r.Transaction(func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE properties SET
				name = ?, description = ?, street = ?, city = ?, province = ?,
				postal_code = ?, country = ?, property_type = ?, bedrooms = ?,
				bathrooms = ?, max_guests = ?, base_price = ?, currency = ?,
				check_in_time = ?, check_out_time = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`,
			p.Name, p.Description, p.Street, p.City, p.Province, p.PostalCode,
			p.Country, p.PropertyType, p.Bedrooms, p.Bathrooms, p.MaxGuests,
			p.BasePrice, p.Currency, p.CheckInTime, p.CheckOutTime, p.IsActive,
			p.UpdatedAt, p.ID,
		)
		if err != nil {
			return fmt.Errorf("updating property: %w", err)
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return fmt.Errorf("property not found: %s", p.ID)
		}
		return replaceFeeds(ctx, tx, p.ID, p.Feeds)
	})
}

// Deactivate soft-disables a property; bookings and history stay intact.
func (r *PropertyRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE properties SET is_active = 0, updated_at = ? WHERE id = ?
	`, r.Now(), id)
	if err != nil {
		return fmt.Errorf("deactivating property: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}
	return nil
}

func (r *PropertyRepository) feedsFor(ctx context.Context, propertyID string) ([]models.FeedConfig, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT property_id, platform, ical_url, is_active
		FROM property_feeds WHERE property_id = ? ORDER BY platform
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying property feeds: %w", err)
	}
	defer rows.Close()

	var feeds []models.FeedConfig
	for rows.Next() {
		var f models.FeedConfig
		if err := rows.Scan(&f.PropertyID, &f.Platform, &f.ICalURL, &f.IsActive); err != nil {
			return nil, fmt.Errorf("scanning feed config: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func replaceFeeds(ctx context.Context, tx *sql.Tx, propertyID string, feeds []models.FeedConfig) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM property_feeds WHERE property_id = ?", propertyID); err != nil {
		return fmt.Errorf("deleting feed configs: %w", err)
	}
	for _, f := range feeds {
		if !f.Platform.Valid() {
			return fmt.Errorf("invalid platform %q for property %s", f.Platform, propertyID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO property_feeds (property_id, platform, ical_url, is_active)
			VALUES (?, ?, ?, ?)
		`, propertyID, f.Platform, f.ICalURL, f.IsActive)
		if err != nil {
			return fmt.Errorf("inserting feed config: %w", err)
		}
	}
	return nil
}
