// Package idcache persists the GTIN-to-ASIN mapping in SQLite so repeat runs
// skip the portal resolution call for identifiers already seen.
package idcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is the resolution cache backed by SQLite.
type Cache struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS asin_mappings (
    gtin        TEXT NOT NULL,
    asin        TEXT NOT NULL,
    resolved_at TEXT NOT NULL,
    PRIMARY KEY (gtin, asin)
);
CREATE INDEX IF NOT EXISTS idx_asin_mappings_gtin ON asin_mappings (gtin);
`

// Open initializes or connects to the cache database at path.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &Cache{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached ASINs for a GTIN. found is false when the GTIN has
// never been resolved; a GTIN can legitimately cache to zero ASINs, which
// comes back found with an empty slice.
func (c *Cache) Get(ctx context.Context, gtin string) ([]string, bool, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT asin FROM asin_mappings WHERE gtin = ? ORDER BY asin`, gtin)
	if err != nil {
		return nil, false, fmt.Errorf("query cached asins: %w", err)
	}
	defer rows.Close()

	var asins []string
	for rows.Next() {
		var asin string
		if err := rows.Scan(&asin); err != nil {
			return nil, false, fmt.Errorf("scan cached asin: %w", err)
		}
		if asin != "" && asin != emptyMarker {
			asins = append(asins, asin)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(asins) == 0 {
		return c.getEmptyMarker(ctx, gtin)
	}
	return asins, true, nil
}

// Put records the resolved ASINs for a GTIN, replacing any earlier entry. An
// empty resolution is stored as a sentinel row so it still counts as a hit.
func (c *Cache) Put(ctx context.Context, gtin string, asins []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM asin_mappings WHERE gtin = ?`, gtin); err != nil {
		return fmt.Errorf("clear stale mappings: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(asins) == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO asin_mappings (gtin, asin, resolved_at) VALUES (?, ?, ?)`,
			gtin, emptyMarker, now,
		); err != nil {
			return fmt.Errorf("insert empty marker: %w", err)
		}
		return tx.Commit()
	}
	for _, asin := range asins {
		if strings.TrimSpace(asin) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO asin_mappings (gtin, asin, resolved_at) VALUES (?, ?, ?)`,
			gtin, asin, now,
		); err != nil {
			return fmt.Errorf("insert mapping: %w", err)
		}
	}
	return tx.Commit()
}

// Purge removes every cached mapping.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM asin_mappings`)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns the number of distinct GTINs cached.
func (c *Cache) Stats(ctx context.Context) (int, error) {
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT gtin) FROM asin_mappings`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("cache stats: %w", err)
	}
	return count, nil
}

const emptyMarker = "-"

func (c *Cache) getEmptyMarker(ctx context.Context, gtin string) ([]string, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT 1 FROM asin_mappings WHERE gtin = ? AND asin = ? LIMIT 1`, gtin, emptyMarker)
	var one int
	err := row.Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("check empty marker: %w", err)
	}
	return nil, true, nil
}
