package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/CTAG07/Byblis/pkg/component"
)

// SQLStorage is a SQLite-backed implementation of component.Storage. Blobs
// carry the modification time and size metadata the engine's staleness
// check compares against local files.
type SQLStorage struct {
	db        *sql.DB
	stmtStat  *sql.Stmt
	stmtOpen  *sql.Stmt
	stmtWrite *sql.Stmt
}

// NewSQLStorage prepares the storage statements against a database that has
// had SetupSchema run on it.
func NewSQLStorage(db *sql.DB) (*SQLStorage, error) {
	s := &SQLStorage{db: db}

	var err error
	if s.stmtStat, err = db.Prepare("SELECT mtime, size FROM blob_files WHERE path = ?"); err != nil {
		return nil, fmt.Errorf("could not prepare blob stat: %w", err)
	}
	if s.stmtOpen, err = db.Prepare("SELECT data FROM blob_files WHERE path = ?"); err != nil {
		return nil, fmt.Errorf("could not prepare blob open: %w", err)
	}
	if s.stmtWrite, err = db.Prepare(
		"INSERT INTO blob_files (path, data, mtime, size) VALUES (?, ?, ?, ?) " +
			"ON CONFLICT(path) DO UPDATE SET data = excluded.data, mtime = excluded.mtime, size = excluded.size",
	); err != nil {
		return nil, fmt.Errorf("could not prepare blob write: %w", err)
	}

	return s, nil
}

// Stat returns the metadata for a stored blob, or an error satisfying
// errors.Is(err, fs.ErrNotExist) if the path is absent.
func (s *SQLStorage) Stat(ctx context.Context, path string) (component.FileInfo, error) {
	var mtime, size int64
	err := s.stmtStat.QueryRowContext(ctx, path).Scan(&mtime, &size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return component.FileInfo{}, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
		}
		return component.FileInfo{}, err
	}
	return component.FileInfo{ModTime: time.Unix(mtime, 0), Size: size}, nil
}

// Open returns the blob's contents, or an error satisfying
// errors.Is(err, fs.ErrNotExist) if the path is absent.
func (s *SQLStorage) Open(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.stmtOpen.QueryRowContext(ctx, path).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
		}
		return nil, err
	}
	return data, nil
}

// Write stores a blob under path, stamping it with the current time.
func (s *SQLStorage) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.stmtWrite.ExecContext(ctx, path, data, time.Now().Unix(), int64(len(data)))
	return err
}

// WriteWithModTime stores a blob with an explicit modification time. Mirror
// tooling uses this to preserve source timestamps so the staleness check
// compares real edit times instead of upload times.
func (s *SQLStorage) WriteWithModTime(ctx context.Context, path string, data []byte, mtime time.Time) error {
	_, err := s.stmtWrite.ExecContext(ctx, path, data, mtime.Unix(), int64(len(data)))
	return err
}

// Close releases the prepared statements. The database itself is owned by
// the caller and stays open.
func (s *SQLStorage) Close() {
	_ = s.stmtStat.Close()
	_ = s.stmtOpen.Close()
	_ = s.stmtWrite.Close()
}
