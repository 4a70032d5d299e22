package database

import (
	"context"
	"fmt"
	"strings"

	"lendshare/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		comment.Text, comment.ItemID, comment.AuthorID, comment.Created)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

func (db *DB) GetItemComments(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	query := `SELECT id, text, item_id, author_id, created FROM comments
              WHERE item_id = ? ORDER BY created`
	return db.queryComments(ctx, query, itemID)
}

func (db *DB) GetCommentsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(itemIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	query := `SELECT id, text, item_id, author_id, created FROM comments
              WHERE item_id IN (` + placeholders + `) ORDER BY created`
	return db.queryComments(ctx, query, args...)
}

func (db *DB) queryComments(ctx context.Context, query string, args ...interface{}) ([]*models.Comment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		err := rows.Scan(&c.ID, &c.Text, &c.ItemID, &c.AuthorID, &c.Created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
