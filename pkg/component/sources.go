package component

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
)

// GetSource resolves a component name to its source text and path through
// the tiered chain: in-memory source cache, distributed cache, durable
// storage sync, then a direct filesystem read. Every hit on a slower tier
// populates the faster tiers on the way out.
//
// Failures in the cache and storage collaborators are logged and degrade to
// the next tier; the only errors a caller sees are ErrNotFound (nothing maps
// to the name) and a local filesystem read failing for a reason other than
// absence.
func (e *Engine) GetSource(ctx context.Context, name string) (string, string, error) {
	path, ok := e.lookupPath(name)
	if !ok {
		return "", "", &NotFoundError{Name: name}
	}

	// Tier 1: process memory, keyed by path.
	e.mu.RLock()
	text, ok := e.sources[path]
	e.mu.RUnlock()
	if ok {
		return text, path, nil
	}

	// Tier 2: distributed cache. A hit is written through to memory.
	if e.cache != nil {
		cctx, cancel := e.bound(ctx)
		data, err := e.cache.Get(cctx, e.sourceKey(path))
		cancel()
		switch {
		case err == nil:
			text = string(data)
			e.mu.Lock()
			e.sources[path] = text
			e.mu.Unlock()
			return text, path, nil
		case !errors.Is(err, ErrCacheMiss):
			e.logger.Warn("Source cache tier failed", "component", name, "error", err)
		}
	}

	// Tier 3: sync the local file from durable storage if the remote copy
	// is demonstrably newer.
	if e.storage != nil {
		if err := e.syncFromStorage(ctx, path); err != nil {
			e.logger.Warn("Storage sync failed, falling back to local file",
				"component", name, "path", path, "error", err)
		}
	}

	// Tier 4: the local filesystem.
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", &NotFoundError{Name: name}
		}
		return "", "", fmt.Errorf("failed to read component source %s: %w", path, err)
	}
	text = string(raw)

	e.mu.Lock()
	e.sources[path] = text
	e.mu.Unlock()

	// Back-fill the distributed tier so the next process skips the
	// storage/filesystem walk. Best effort only.
	if e.cache != nil {
		cctx, cancel := e.bound(ctx)
		if err = e.cache.Set(cctx, e.sourceKey(path), raw); err != nil {
			e.logger.Warn("Source cache back-fill failed", "component", name, "error", err)
		}
		cancel()
	}

	return text, path, nil
}

// syncFromStorage overwrites the local file with the durable-storage copy
// when the local file is strictly older AND differs in size. Requiring both
// conditions keeps clock skew alone from thrashing downloads; the flip side
// is that a same-size edit with a newer remote timestamp is never pulled,
// which callers opt into by using the storage tier at all.
func (e *Engine) syncFromStorage(ctx context.Context, path string) error {
	cctx, cancel := e.bound(ctx)
	remote, err := e.storage.Stat(cctx, path)
	cancel()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat of remote copy failed: %w", err)
	}

	local, err := os.Stat(path)
	if err == nil {
		stale := local.ModTime().Before(remote.ModTime) && local.Size() != remote.Size
		if !stale {
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat of local copy failed: %w", err)
	}

	cctx, cancel = e.bound(ctx)
	data, err := e.storage.Open(cctx, path)
	cancel()
	if err != nil {
		return fmt.Errorf("download of remote copy failed: %w", err)
	}

	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("overwrite of local copy failed: %w", err)
	}

	e.logger.Info("Pulled newer component source from storage",
		"path", path, "size", len(data))
	return nil
}

// PushToStorage uploads a component's current local source to the durable
// storage tier, making it visible to other hosts' sync checks. It is a
// convenience for deployment tooling and a no-op without a storage
// collaborator.
func (e *Engine) PushToStorage(ctx context.Context, name string) error {
	if e.storage == nil {
		return nil
	}
	path, ok := e.lookupPath(name)
	if !ok {
		return &NotFoundError{Name: name}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read component source %s: %w", path, err)
	}
	cctx, cancel := e.bound(ctx)
	defer cancel()
	if err = e.storage.Write(cctx, path, data); err != nil {
		return fmt.Errorf("upload of component source failed: %w", err)
	}
	return nil
}
