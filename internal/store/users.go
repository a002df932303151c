// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/callograph/internal/models"
)

// GetUserByUsername returns the user with the given username, or ErrNotFound.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("get_user", time.Now())

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, name, created_at FROM users WHERE username = ?`, username)

	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// ListUsersWithUsername returns all users with a non-empty username, the
// population the bulk sync iterates. Ordered by id for deterministic runs.
func (db *DB) ListUsersWithUsername(ctx context.Context) ([]models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("list_users", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, email, name, created_at
		 FROM users
		 WHERE username IS NOT NULL AND username != ''
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// InsertUser creates a user row. The ingestion pipeline never calls this; it
// exists for the surrounding application and for tests.
func (db *DB) InsertUser(ctx context.Context, user *models.User) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert_user", time.Now())

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.Name, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user %q: %w", user.Username, err)
	}
	return nil
}
