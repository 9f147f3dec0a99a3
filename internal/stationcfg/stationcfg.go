// Package stationcfg persists each terminal's station responsibility: the
// set of menu category ids the terminal displays. The selection survives
// terminal restarts; everything else this daemon holds is rebuilt from the
// backend snapshot.
package stationcfg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool     *pgxpool.Pool
	terminal string
}

func Connect(ctx context.Context, host string, port int, user, pass, name string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", user, pass, host, port, name)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func New(pool *pgxpool.Pool, terminal string) *Store {
	return &Store{pool: pool, terminal: terminal}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS station_categories (
			terminal    text NOT NULL,
			category_id text NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (terminal, category_id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure station_categories: %w", err)
	}
	return nil
}

// Selected returns the terminal's category ids. An empty result means the
// terminal is unconfigured and shows everything.
func (s *Store) Selected(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT category_id FROM station_categories WHERE terminal=$1 ORDER BY category_id`, s.terminal)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Toggle flips one category for this terminal and reports whether it is now
// selected.
func (s *Store) Toggle(ctx context.Context, categoryID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO station_categories (terminal, category_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, s.terminal, categoryID)
	if err != nil {
		return false, fmt.Errorf("toggle insert: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM station_categories WHERE terminal=$1 AND category_id=$2`, s.terminal, categoryID); err != nil {
		return false, fmt.Errorf("toggle delete: %w", err)
	}
	return false, nil
}
