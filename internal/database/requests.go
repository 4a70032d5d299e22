package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lendshare/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	query := `INSERT INTO requests (description, requestor_id, created) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		request.Description, request.RequestorID, request.Created)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created FROM requests WHERE id = ?`

	request := &models.ItemRequest{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&request.ID, &request.Description, &request.RequestorID, &request.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

// GetUserRequests returns the requestor's own requests, newest first.
func (db *DB) GetUserRequests(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created FROM requests
              WHERE requestor_id = ? ORDER BY created DESC`
	return db.queryRequests(ctx, query, requestorID)
}

// GetOtherRequests returns requests made by everyone except userID,
// newest first, paginated.
func (db *DB) GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created FROM requests
              WHERE requestor_id != ? ORDER BY created DESC LIMIT ? OFFSET ?`
	return db.queryRequests(ctx, query, userID, size, from)
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.ItemRequest
	for rows.Next() {
		r := &models.ItemRequest{}
		err := rows.Scan(&r.ID, &r.Description, &r.RequestorID, &r.Created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
