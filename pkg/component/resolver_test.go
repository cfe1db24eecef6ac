package component

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolverFirstRootWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	firstPath := writeComponent(t, first, "card", `first`)
	writeComponent(t, second, "card", `second`)

	r := NewResolver([]string{first, second}, ".comp.html")
	found, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if found["card"] != firstPath {
		t.Errorf("card resolved to %q, want the first root's copy %q", found["card"], firstPath)
	}
}

func TestResolverMissingRootSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeComponent(t, dir, "card", `x`)

	r := NewResolver([]string{filepath.Join(dir, "does-not-exist"), dir}, ".comp.html")
	found, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed on a missing root: %v", err)
	}
	if found["card"] != path {
		t.Errorf("card resolved to %q, want %q", found["card"], path)
	}
}

func TestResolverExclusions(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "card", `x`)
	writeComponent(t, dir, "_fragment", `hidden`)
	if err := os.WriteFile(filepath.Join(dir, ".editor.comp.html"), []byte(`x`), 0644); err != nil {
		t.Fatalf("failed to write dotfile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0644); err != nil {
		t.Fatalf("failed to write notes.txt: %v", err)
	}

	r := NewResolver([]string{dir}, ".comp.html")
	found, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Resolve found %v, want only card", found)
	}
	if _, ok := found["card"]; !ok {
		t.Error("card missing from resolution")
	}
}

func TestResolverRecursive(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "widgets", "forms")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}
	path := writeComponent(t, nested, "login", `x`)

	r := NewResolver([]string{dir}, ".comp.html")
	found, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if found["login"] != path {
		t.Errorf("login resolved to %q, want %q", found["login"], path)
	}
}

func TestResolverLookupFindsLateFiles(t *testing.T) {
	engine, dir := setupTestEngine(t, nil, nil)

	if _, ok := engine.lookupPath("late"); ok {
		t.Fatal("lookupPath found a component before its file existed")
	}
	path := writeComponent(t, dir, "late", `x`)
	got, ok := engine.lookupPath("late")
	if !ok || got != path {
		t.Errorf("lookupPath after file creation = (%q, %v), want (%q, true)", got, ok, path)
	}
}
