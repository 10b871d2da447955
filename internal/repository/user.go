// Package repository provides persistence implementations for signup users.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/signupform/internal/models"
)

// ErrIDNumberTaken is returned by InsertUser when another user already holds
// the id number.
var ErrIDNumberTaken = errors.New("id number already registered")

// PostgresUserRepository stores users in a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance with the users table migrated.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// InsertUser writes u unless its id number is already taken. The check and the
// write are a single statement, so two concurrent signups with the same id
// number cannot both succeed. Returns the stored record id.
func (r *PostgresUserRepository) InsertUser(ctx context.Context, u models.User) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, first_name, last_name, id_number, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id_number) DO NOTHING
		RETURNING id
	`, u.ID, u.FirstName, u.LastName, u.IDNumber, u.PasswordHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrIDNumberTaken
	}
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// FindIDNumber returns idNumber if a user holds it, or an empty string if none does.
func (r *PostgresUserRepository) FindIDNumber(ctx context.Context, idNumber string) (string, error) {
	var found string
	err := r.DB.QueryRowContext(ctx,
		`SELECT id_number FROM users WHERE id_number = $1`,
		idNumber,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find id number: %w", err)
	}
	return found, nil
}
