package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/CTAG07/Byblis/pkg/component"
	_ "modernc.org/sqlite"
)

func setupTestDB(tb testing.TB) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", tb.Name()))
	if err != nil {
		tb.Fatalf("Failed to open in-memory database: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	if err = SetupSchema(db); err != nil {
		tb.Fatalf("Failed to set up schema: %v", err)
	}
	return db
}

func setupTestCache(tb testing.TB) *SQLCache {
	tb.Helper()
	c, err := NewSQLCache(setupTestDB(tb))
	if err != nil {
		tb.Fatalf("Failed to create cache: %v", err)
	}
	tb.Cleanup(c.Close)
	return c
}

func setupTestStorage(tb testing.TB) *SQLStorage {
	tb.Helper()
	s, err := NewSQLStorage(setupTestDB(tb))
	if err != nil {
		tb.Fatalf("Failed to create storage: %v", err)
	}
	tb.Cleanup(s.Close)
	return s
}

func TestSQLCacheRoundTrip(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "absent"); !errors.Is(err, component.ErrCacheMiss) {
		t.Fatalf("Get(absent) = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Get = %q, want v2", got)
	}

	if err = c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err = c.Get(ctx, "k"); !errors.Is(err, component.ErrCacheMiss) {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
	if err = c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

// Cache keys contain literal underscores, which are LIKE wildcards in
// SQLite. Clear must escape them so "ns_component_" does not also match
// "nsXcomponentY...".
func TestSQLCacheClearEscapesPrefix(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	keep := "nsXcomponentYsource:other"
	_ = c.Set(ctx, "ns_component_source:a", []byte("1"))
	_ = c.Set(ctx, "ns_component_bytecode:a", []byte("2"))
	_ = c.Set(ctx, keep, []byte("3"))

	if err := c.Clear(ctx, "ns_component_"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := c.Get(ctx, "ns_component_source:a"); !errors.Is(err, component.ErrCacheMiss) {
		t.Errorf("prefixed key survived Clear: %v", err)
	}
	if _, err := c.Get(ctx, keep); err != nil {
		t.Errorf("wildcard match deleted an unrelated key: %v", err)
	}

	if err := c.Clear(ctx, ""); err != nil {
		t.Fatalf("Clear(\"\") failed: %v", err)
	}
	if _, err := c.Get(ctx, keep); !errors.Is(err, component.ErrCacheMiss) {
		t.Errorf("key survived full clear: %v", err)
	}
}

func TestSQLStorageMissing(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	if _, err := s.Stat(ctx, "nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(missing) = %v, want fs.ErrNotExist", err)
	}
	if _, err := s.Open(ctx, "nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) = %v, want fs.ErrNotExist", err)
	}
}

func TestSQLStorageRoundTrip(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	data := []byte("hello world")
	if err := s.Write(ctx, "a/b.comp.html", data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := s.Stat(ctx, "a/b.comp.html")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size != int64(len(data)) {
		t.Errorf("Stat size = %d, want %d", info.Size, len(data))
	}
	if time.Since(info.ModTime) > time.Minute {
		t.Errorf("Stat mtime %v is not recent", info.ModTime)
	}

	got, err := s.Open(ctx, "a/b.comp.html")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Open = %q, want %q", got, data)
	}
}

func TestSQLStorageWriteWithModTime(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.WriteWithModTime(ctx, "card.comp.html", []byte("x"), stamp); err != nil {
		t.Fatalf("WriteWithModTime failed: %v", err)
	}
	info, err := s.Stat(ctx, "card.comp.html")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.ModTime.Equal(stamp) {
		t.Errorf("Stat mtime = %v, want %v", info.ModTime, stamp)
	}
}
