package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lendshare/internal/models"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, available, owner_id, request_id)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		item.Name, item.Description, item.Available, item.OwnerID, item.RequestID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := scanItem(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) GetOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ?
              ORDER BY id LIMIT ? OFFSET ?`
	return db.queryItems(ctx, query, ownerID, size, from)
}

// SearchItems matches text case-insensitively against name or description.
// Only available items are returned. Blank text is handled by the caller.
func (db *DB) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	pattern := "%" + strings.ToLower(text) + "%"
	query := `SELECT ` + itemColumns + ` FROM items
              WHERE available = 1 AND (lower(name) LIKE ? OR lower(description) LIKE ?)
              ORDER BY id LIMIT ? OFFSET ?`
	return db.queryItems(ctx, query, pattern, pattern, size, from)
}

func (db *DB) GetItemsByRequestID(ctx context.Context, requestID int64) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE request_id = ? ORDER BY id`
	return db.queryItems(ctx, query, requestID)
}

func (db *DB) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(requestIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(requestIDs))
	for i, id := range requestIDs {
		args[i] = id
	}

	query := `SELECT ` + itemColumns + ` FROM items
              WHERE request_id IN (` + placeholders + `) ORDER BY id`
	return db.queryItems(ctx, query, args...)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var requestID sql.NullInt64
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Available,
		&item.OwnerID, &requestID)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		item.RequestID = &requestID.Int64
	}
	return item, nil
}
