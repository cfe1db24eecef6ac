package component

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps logical component names to source files on disk.
//
// A component's name is its file base name with the configured extension
// removed. The search roots are scanned in order and the first root that
// contains a name wins; later roots cannot override it. This makes an
// ordered root list behave like a layered override chain, with the
// application's own directory typically listed first.
type Resolver struct {
	roots []string
	ext   string
}

// NewResolver creates a Resolver over the given ordered search roots.
func NewResolver(roots []string, ext string) *Resolver {
	return &Resolver{roots: roots, ext: ext}
}

// Resolve walks every search root recursively and returns the full
// name-to-path mapping. Roots that do not exist are skipped silently, so a
// deployment can list optional override directories without creating them.
// Files whose base name starts with "_" or "." are ignored; the underscore
// convention marks scratch files and shared fragments that are not
// components in their own right.
func (r *Resolver) Resolve() (map[string]string, error) {
	found := make(map[string]string)
	for _, root := range r.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			base := d.Name()
			if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
				return nil
			}
			if !strings.HasSuffix(base, r.ext) {
				return nil
			}
			name := strings.TrimSuffix(base, r.ext)
			if _, ok := found[name]; !ok {
				found[name] = path
			}
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}
	return found, nil
}

// Lookup resolves a single name to its source path, or reports false if no
// search root contains it.
func (r *Resolver) Lookup(name string) (string, bool) {
	found, err := r.Resolve()
	if err != nil {
		return "", false
	}
	path, ok := found[name]
	return path, ok
}
