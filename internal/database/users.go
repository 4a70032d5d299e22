package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lendshare/internal/models"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, email) VALUES (?, ?)`
	result, err := db.ExecContext(ctx, query, user.Name, user.Email)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("user email %s: %w", user.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = ?, email = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, user.Name, user.Email, user.ID)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("user email %s: %w", user.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, name, email FROM users WHERE id = ?`

	var user models.User
	err := db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, name, email FROM users ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = ?`
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
