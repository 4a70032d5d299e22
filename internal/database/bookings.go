package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendshare/internal/models"
)

const bookingColumns = `b.id, b.start_date, b.end_date, b.item_id, b.booker_id, b.status`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (start_date, end_date, item_id, booker_id, status)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		booking.Start, booking.End, booking.ItemID, booking.BookerID, booking.Status)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`

	booking := &models.Booking{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID, &booking.Start, &booking.End,
		&booking.ItemID, &booking.BookerID, &booking.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

// GetBookerBookings returns the booker's bookings matching filter,
// newest start first.
func (db *DB) GetBookerBookings(ctx context.Context, bookerID int64, filter string, now time.Time, from, size int) ([]*models.Booking, error) {
	cond, condArgs, err := bookingFilterClause(filter, now)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.booker_id = ?` + cond +
		` ORDER BY b.start_date DESC LIMIT ? OFFSET ?`
	args := append([]interface{}{bookerID}, condArgs...)
	args = append(args, size, from)
	return db.queryBookings(ctx, query, args...)
}

// GetOwnerBookings returns bookings on the owner's items matching filter,
// newest start first.
func (db *DB) GetOwnerBookings(ctx context.Context, ownerID int64, filter string, now time.Time, from, size int) ([]*models.Booking, error) {
	cond, condArgs, err := bookingFilterClause(filter, now)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN items i ON i.id = b.item_id WHERE i.owner_id = ?` + cond +
		` ORDER BY b.start_date DESC LIMIT ? OFFSET ?`
	args := append([]interface{}{ownerID}, condArgs...)
	args = append(args, size, from)
	return db.queryBookings(ctx, query, args...)
}

// GetItemBookings returns every booking of one item, oldest start first.
func (db *DB) GetItemBookings(ctx context.Context, itemID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.item_id = ?
              ORDER BY b.start_date`
	return db.queryBookings(ctx, query, itemID)
}

// GetOwnerItemsBookings returns every booking on any of the owner's items.
func (db *DB) GetOwnerItemsBookings(ctx context.Context, ownerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN items i ON i.id = b.item_id WHERE i.owner_id = ?
              ORDER BY b.start_date`
	return db.queryBookings(ctx, query, ownerID)
}

// GetCompletedBooking returns the earliest-ending non-rejected booking of
// the item by the booker. Used by the comment gate.
func (db *DB) GetCompletedBooking(ctx context.Context, bookerID, itemID int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              WHERE b.booker_id = ? AND b.item_id = ? AND b.status != ?
              ORDER BY b.end_date LIMIT 1`

	booking := &models.Booking{}
	err := db.QueryRowContext(ctx, query, bookerID, itemID, models.StatusRejected).Scan(
		&booking.ID, &booking.Start, &booking.End,
		&booking.ItemID, &booking.BookerID, &booking.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking by user %d of item %d: %w", bookerID, itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get completed booking: %w", err)
	}
	return booking, nil
}

func bookingFilterClause(filter string, now time.Time) (string, []interface{}, error) {
	nowStr := now.Format(models.DateTimeLayout)
	switch filter {
	case models.FilterAll:
		return "", nil, nil
	case models.StatusWaiting, models.StatusApproved, models.StatusRejected:
		return ` AND b.status = ?`, []interface{}{filter}, nil
	case models.FilterCurrent:
		return ` AND b.start_date < ? AND b.end_date > ?`, []interface{}{nowStr, nowStr}, nil
	case models.FilterPast:
		return ` AND b.end_date < ?`, []interface{}{nowStr}, nil
	case models.FilterFuture:
		return ` AND b.start_date > ?`, []interface{}{nowStr}, nil
	default:
		return "", nil, fmt.Errorf("unknown booking filter: %s", filter)
	}
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		err := rows.Scan(&b.ID, &b.Start, &b.End, &b.ItemID, &b.BookerID, &b.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
