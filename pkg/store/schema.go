package store

import (
	"database/sql"
	"fmt"
)

// SetupSchema initializes the tables used by SQLCache and SQLStorage in the
// provided database. This function should be called once on a new database
// before any other operations are performed. It is idempotent and safe to
// call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaCache = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`
		schemaBlobs = `
CREATE TABLE IF NOT EXISTS blob_files (
    path TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    mtime INTEGER NOT NULL,
    size INTEGER NOT NULL
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaCache); err != nil {
		return fmt.Errorf("could not create cache schema: %w", err)
	}

	if _, err = tx.Exec(schemaBlobs); err != nil {
		return fmt.Errorf("could not create blob schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// escapeLike escapes the LIKE wildcards in a literal prefix so that keys
// containing "_" or "%" match themselves. Queries using the result must
// specify ESCAPE '\'.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
