package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CTAG07/Byblis/pkg/component"
)

// SQLCache is a SQLite-backed implementation of component.Cache. Several
// processes pointing at the same database file share a single cache, which
// covers the common single-host, multi-process deployment without a
// networked cache service.
type SQLCache struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtSet    *sql.Stmt
	stmtDelete *sql.Stmt
}

// NewSQLCache prepares the cache statements against a database that has had
// SetupSchema run on it.
func NewSQLCache(db *sql.DB) (*SQLCache, error) {
	c := &SQLCache{db: db}

	var err error
	if c.stmtGet, err = db.Prepare("SELECT value FROM cache_entries WHERE key = ?"); err != nil {
		return nil, fmt.Errorf("could not prepare cache get: %w", err)
	}
	if c.stmtSet, err = db.Prepare(
		"INSERT INTO cache_entries (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
	); err != nil {
		return nil, fmt.Errorf("could not prepare cache set: %w", err)
	}
	if c.stmtDelete, err = db.Prepare("DELETE FROM cache_entries WHERE key = ?"); err != nil {
		return nil, fmt.Errorf("could not prepare cache delete: %w", err)
	}

	return c, nil
}

// Get returns the stored value, or component.ErrCacheMiss if the key is
// absent.
func (c *SQLCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.stmtGet.QueryRowContext(ctx, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", component.ErrCacheMiss, key)
		}
		return nil, err
	}
	return value, nil
}

// Set stores value under key, replacing any existing entry.
func (c *SQLCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.stmtSet.ExecContext(ctx, key, value)
	return err
}

// Delete removes a key. Deleting an absent key is not an error.
func (c *SQLCache) Delete(ctx context.Context, key string) error {
	_, err := c.stmtDelete.ExecContext(ctx, key)
	return err
}

// Clear removes every key starting with prefix. An empty prefix clears the
// whole table.
func (c *SQLCache) Clear(ctx context.Context, prefix string) error {
	if prefix == "" {
		_, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries")
		return err
	}
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%",
	)
	return err
}

// Close releases the prepared statements. The database itself is owned by
// the caller and stays open.
func (c *SQLCache) Close() {
	_ = c.stmtGet.Close()
	_ = c.stmtSet.Close()
	_ = c.stmtDelete.Close()
}
