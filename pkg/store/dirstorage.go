package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Byblis/pkg/component"
	"github.com/natefinch/atomic"
)

// DirStorage serves a mirrored directory tree as a component.Storage. It
// suits deployments where components are synced onto a shared or secondary
// volume by external tooling (rsync, a release pipeline) and the engine
// should treat that volume as the durable copy.
//
// The opaque paths the engine passes are mapped under the root by making
// them relative: a leading volume name or path separator is stripped, so
// "/srv/app/components/card.comp.html" lands at
// "<root>/srv/app/components/card.comp.html".
type DirStorage struct {
	root string
}

// NewDirStorage creates a DirStorage rooted at the given directory.
func NewDirStorage(root string) *DirStorage {
	return &DirStorage{root: root}
}

func (d *DirStorage) resolve(path string) string {
	rel := strings.TrimLeft(filepath.ToSlash(path), "/")
	if vol := filepath.VolumeName(path); vol != "" {
		rel = strings.TrimLeft(strings.TrimPrefix(rel, filepath.ToSlash(vol)), "/")
	}
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

// Stat returns the mirrored file's metadata. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func (d *DirStorage) Stat(_ context.Context, path string) (component.FileInfo, error) {
	info, err := os.Stat(d.resolve(path))
	if err != nil {
		return component.FileInfo{}, err
	}
	return component.FileInfo{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// Open returns the mirrored file's contents.
func (d *DirStorage) Open(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(d.resolve(path))
}

// Write stores data in the mirror, creating parent directories as needed.
// The write is atomic, so a concurrent Stat/Open never observes a partial
// file.
func (d *DirStorage) Write(_ context.Context, path string, data []byte) error {
	target := d.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return atomic.WriteFile(target, bytes.NewReader(data))
}
