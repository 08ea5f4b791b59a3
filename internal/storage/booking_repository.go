package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// BookingRepository provides data access for bookings.
type BookingRepository struct {
	BaseRepository
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const bookingColumns = `
	id, property_id, platform, guest_first_name, guest_last_name, guest_email,
	guest_phone, number_of_guests, special_requests, check_in, check_out,
	nights, base_amount, total_amount, currency, status, reference_code,
	checkin_time_hint, source_event_uid, last_synced_at, removed_from_source,
	actual_check_in, actual_check_out, check_in_notes, check_out_notes,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.Platform, &b.Guest.FirstName, &b.Guest.LastName,
		&b.Guest.Email, &b.Guest.Phone, &b.Guest.NumberOfGuests,
		&b.Guest.SpecialRequests, &b.CheckIn, &b.CheckOut, &b.Nights,
		&b.BaseAmount, &b.TotalAmount, &b.Currency, &b.Status, &b.ReferenceCode,
		&b.CheckinTimeHint, &b.SourceEventUID, &b.LastSyncedAt,
		&b.RemovedFromSource, &b.ActualCheckIn, &b.ActualCheckOut,
		&b.CheckInNotes, &b.CheckOutNotes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CheckIn = b.CheckIn.UTC()
	b.CheckOut = b.CheckOut.UTC()
	return b, nil
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	b.ID = GenerateID()
	b.CreatedAt = r.Now()
	b.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.PropertyID, b.Platform, b.Guest.FirstName, b.Guest.LastName,
		b.Guest.Email, b.Guest.Phone, b.Guest.NumberOfGuests,
		b.Guest.SpecialRequests, b.CheckIn, b.CheckOut, b.Nights,
		b.BaseAmount, b.TotalAmount, b.Currency, b.Status, b.ReferenceCode,
		b.CheckinTimeHint, b.SourceEventUID, b.LastSyncedAt,
		b.RemovedFromSource, b.ActualCheckIn, b.ActualCheckOut,
		b.CheckInNotes, b.CheckOutNotes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its row id. Returns nil when not found.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	return b, nil
}

// GetBySourceUID finds the booking imported from a given feed event UID.
// UID matching is scoped to one property/platform because platforms only
// guarantee UID uniqueness inside their own feed.
func (r *BookingRepository) GetBySourceUID(ctx context.Context, propertyID string, platform models.Platform, uid string) (*models.Booking, error) {
	if uid == "" {
		return nil, nil
	}
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE property_id = ? AND platform = ? AND source_event_uid = ?
		ORDER BY removed_from_source ASC LIMIT 1
	`, propertyID, platform, uid)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking by source uid: %w", err)
	}
	return b, nil
}

// GetByIdentityKey finds the booking occupying a reconciliation identity key.
// Active rows win over tombstoned ones so a re-appearing span revives the
// original record instead of creating a twin.
func (r *BookingRepository) GetByIdentityKey(ctx context.Context, key models.IdentityKey) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE property_id = ? AND platform = ? AND check_in = ? AND check_out = ?
		ORDER BY removed_from_source ASC LIMIT 1
	`, key.PropertyID, key.Platform, key.CheckIn, key.CheckOut)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking by identity key: %w", err)
	}
	return b, nil
}

// Update rewrites a booking row.
func (r *BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET
			property_id = ?, platform = ?, guest_first_name = ?,
			guest_last_name = ?, guest_email = ?, guest_phone = ?,
			number_of_guests = ?, special_requests = ?, check_in = ?,
			check_out = ?, nights = ?, base_amount = ?, total_amount = ?,
			currency = ?, status = ?, reference_code = ?, checkin_time_hint = ?,
			source_event_uid = ?, last_synced_at = ?, removed_from_source = ?,
			actual_check_in = ?, actual_check_out = ?, check_in_notes = ?,
			check_out_notes = ?, updated_at = ?
		WHERE id = ?
	`,
		b.PropertyID, b.Platform, b.Guest.FirstName, b.Guest.LastName,
		b.Guest.Email, b.Guest.Phone, b.Guest.NumberOfGuests,
		b.Guest.SpecialRequests, b.CheckIn, b.CheckOut, b.Nights,
		b.BaseAmount, b.TotalAmount, b.Currency, b.Status, b.ReferenceCode,
		b.CheckinTimeHint, b.SourceEventUID, b.LastSyncedAt,
		b.RemovedFromSource, b.ActualCheckIn, b.ActualCheckOut,
		b.CheckInNotes, b.CheckOutNotes, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating booking: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", b.ID)
	}
	return nil
}

// BookingFilter narrows List results.
type BookingFilter struct {
	PropertyID     string
	Platform       models.Platform
	Status         models.BookingStatus
	IncludeRemoved bool
}

// List retrieves bookings matching the filter, newest check-in first.
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any

	if filter.PropertyID != "" {
		query += " AND property_id = ?"
		args = append(args, filter.PropertyID)
	}
	if filter.Platform != "" {
		query += " AND platform = ?"
		args = append(args, filter.Platform)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.IncludeRemoved {
		query += " AND removed_from_source = 0"
	}
	query += " ORDER BY check_in DESC"

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListActiveForFeed returns the non-tombstoned bookings a feed previously
// produced, used for removal reconciliation after a successful pull.
func (r *BookingRepository) ListActiveForFeed(ctx context.Context, propertyID string, platform models.Platform) ([]models.Booking, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE property_id = ? AND platform = ? AND removed_from_source = 0
	`, propertyID, platform)
	if err != nil {
		return nil, fmt.Errorf("querying feed bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// MarkRemovedFromSource tombstones a booking that disappeared from its feed.
// Status is left untouched; removal is provenance metadata, not a lifecycle
// transition.
func (r *BookingRepository) MarkRemovedFromSource(ctx context.Context, id string, at time.Time) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET removed_from_source = 1, last_synced_at = ?, updated_at = ?
		WHERE id = ?
	`, at, r.Now(), id)
	if err != nil {
		return fmt.Errorf("tombstoning booking: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", id)
	}
	return nil
}

// SetStatus applies a manual lifecycle transition (check-in, check-out,
// cancel) with its audit fields.
func (r *BookingRepository) SetStatus(ctx context.Context, id string, status models.BookingStatus, actualTime *time.Time, notes *string) error {
	var query string
	switch status {
	case models.BookingStatusCheckedIn:
		query = `UPDATE bookings SET status = ?, actual_check_in = ?, check_in_notes = ?, updated_at = ? WHERE id = ?`
	case models.BookingStatusCheckedOut:
		query = `UPDATE bookings SET status = ?, actual_check_out = ?, check_out_notes = ?, updated_at = ? WHERE id = ?`
	default:
		result, err := r.DB().ExecContext(ctx,
			`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
			status, r.Now(), id)
		if err != nil {
			return fmt.Errorf("updating booking status: %w", err)
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return fmt.Errorf("booking not found: %s", id)
		}
		return nil
	}

	result, err := r.DB().ExecContext(ctx, query, status, actualTime, notes, r.Now(), id)
	if err != nil {
		return fmt.Errorf("updating booking status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", id)
	}
	return nil
}

// CountByPlatform returns active booking counts grouped by platform.
func (r *BookingRepository) CountByPlatform(ctx context.Context) (map[models.Platform]int, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT platform, COUNT(*) FROM bookings
		WHERE removed_from_source = 0 GROUP BY platform
	`)
	if err != nil {
		return nil, fmt.Errorf("counting bookings: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Platform]int)
	for rows.Next() {
		var platform models.Platform
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, fmt.Errorf("scanning booking count: %w", err)
		}
		counts[platform] = n
	}
	return counts, rows.Err()
}
