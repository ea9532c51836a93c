package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository interface defines the methods that any client storage implementation must satisfy.
// Items are scoped by the browser's client id.
type Repository interface {
	GetItem(ctx context.Context, clientID, key string) (string, bool, error)
	SetItem(ctx context.Context, clientID, key, value string) error
	RemoveItem(ctx context.Context, clientID, key string) error
}

// storedItem is one row of client_storage
type storedItem struct {
	ClientID  string    `db:"client_id"`
	Key       string    `db:"item_key"`
	Value     string    `db:"item_value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

func (r *PostgresRepository) GetItem(ctx context.Context, clientID, key string) (string, bool, error) {
	query := `SELECT * FROM client_storage WHERE client_id = $1 AND item_key = $2`

	var item storedItem
	err := r.db.GetContext(ctx, &item, query, clientID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil // Item not found
		}
		return "", false, err
	}

	return item.Value, true, nil
}

func (r *PostgresRepository) SetItem(ctx context.Context, clientID, key, value string) error {
	query := `
		INSERT INTO client_storage (client_id, item_key, item_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, item_key)
		DO UPDATE SET item_value = EXCLUDED.item_value, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, clientID, key, value, time.Now().UTC())
	return err
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, clientID, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM client_storage WHERE client_id = $1 AND item_key = $2`, clientID, key)
	return err
}
