package push

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/faylit/appshell/internal/db"
)

// SQLStore persists subscriptions in SQLite.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a SQLStore backed by the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

// Add inserts sub; an existing endpoint is left untouched.
func (s *SQLStore) Add(ctx context.Context, sub Subscription) error {
	var exp sql.NullInt64
	if sub.ExpirationTime != nil {
		exp = sql.NullInt64{Int64: *sub.ExpirationTime, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (endpoint, expiration_time, p256dh, auth)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint) DO NOTHING`,
		sub.Endpoint, exp, sub.Keys.P256dh, sub.Keys.Auth,
	)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

// List returns all subscriptions, oldest first.
func (s *SQLStore) List(ctx context.Context) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT endpoint, expiration_time, p256dh, auth
		FROM push_subscriptions ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var (
			sub Subscription
			exp sql.NullInt64
		)
		if err := rows.Scan(&sub.Endpoint, &exp, &sub.Keys.P256dh, &sub.Keys.Auth); err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		if exp.Valid {
			v := exp.Int64
			sub.ExpirationTime = &v
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Remove deletes the subscription for endpoint, if any.
func (s *SQLStore) Remove(ctx context.Context, endpoint string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM push_subscriptions WHERE endpoint = ?", endpoint); err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	return nil
}
