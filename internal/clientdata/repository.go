// Package clientdata caches collaborator responses (Yahoo, Newton) in
// client_data.db. Rows are JSON payloads with an expiry; expired rows stay
// readable as a fallback until the cleanup job evicts them.
package clientdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
)

// Cache tables in client_data.db
const (
	TableYahooESG       = "yahoo_esg"
	TableYahooProfile   = "yahoo_profile"
	TableYahooScreener  = "yahoo_screener"
	TableYahooNews      = "yahoo_news"
	TablePriceHistory   = "price_history"
	TableNewtonFrontier = "newton_frontier"
)

// AllTables lists the cache tables in eviction and reporting order.
var AllTables = []string{
	TableYahooESG,
	TableYahooProfile,
	TableYahooScreener,
	TableYahooNews,
	TablePriceHistory,
	TableNewtonFrontier,
}

// keyColumns maps each table to its primary key. Table names are only ever
// interpolated into SQL after a lookup here.
var keyColumns = map[string]string{
	TableYahooESG:       "ticker",
	TableYahooProfile:   "ticker",
	TableYahooScreener:  "query_key",
	TableYahooNews:      "ticker",
	TablePriceHistory:   "ticker",
	TableNewtonFrontier: "tickers",
}

// Entry is one cached payload.
type Entry struct {
	Data      json.RawMessage
	ExpiresAt time.Time
}

// FreshAt reports whether the entry has not yet expired at t.
func (e *Entry) FreshAt(t time.Time) bool {
	return e.ExpiresAt.After(t)
}

// Repository reads and writes cache rows.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a repository over client_data.db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func keyColumn(table string) (string, error) {
	col, ok := keyColumns[table]
	if !ok {
		return "", fmt.Errorf("invalid table name: %s", table)
	}
	return col, nil
}

// Put encodes value as JSON and stores it under key until now+ttl.
func (r *Repository) Put(ctx context.Context, table, key string, value interface{}, ttl time.Duration) error {
	col, err := keyColumn(table)
	if err != nil {
		return err
	}
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", table, key, err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(%s) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`, table, col, col)
	if _, err := r.db.ExecContext(ctx, q, key, string(body), r.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", table, key, err)
	}
	return nil
}

// Lookup returns the row under key whether or not it has expired, or nil
// when there is none.
func (r *Repository) Lookup(ctx context.Context, table, key string) (*Entry, error) {
	col, err := keyColumn(table)
	if err != nil {
		return nil, err
	}

	var (
		data    string
		expires int64
	)
	q := fmt.Sprintf("SELECT data, expires_at FROM %s WHERE %s = ?", table, col)
	err = r.db.QueryRowContext(ctx, q, key).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", table, key, err)
	}
	return &Entry{Data: json.RawMessage(data), ExpiresAt: time.Unix(expires, 0)}, nil
}

// Delete drops one row.
func (r *Repository) Delete(ctx context.Context, table, key string) error {
	col, err := keyColumn(table)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col), key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, key, err)
	}
	return nil
}

// DeleteAllExpired evicts expired rows from every table in one transaction
// and returns the number removed per table.
func (r *Repository) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	deleted := make(map[string]int64, len(AllTables))
	cutoff := r.now().Unix()

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		for _, table := range AllTables {
			res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE expires_at <= ?", table), cutoff)
			if err != nil {
				return fmt.Errorf("failed to evict %s: %w", table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			deleted[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Count returns the number of rows per table, fresh or not.
func (r *Repository) Count(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(AllTables))
	for _, table := range AllTables {
		var n int64
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return counts, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
