package component

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	texttemplate "text/template"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// sourceComponent is a component compiled from a discovered source file.
// The source is parsed as a text/template; entry names the template within
// the parsed set that Render executes.
type sourceComponent struct {
	name  string
	path  string
	entry string
	tmpl  *texttemplate.Template
}

// Render executes the component's entry template with the RenderContext as
// its data. The template reaches variables and the cross-engine callables
// through the context's methods ({{.Var "x"}}, {{.Template ...}}).
func (c *sourceComponent) Render(_ context.Context, rc *RenderContext) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, c.entry, rc); err != nil {
		return "", fmt.Errorf("component %q render failed: %w", c.name, err)
	}
	return template.HTML(buf.String()), nil
}

// bytecodeRecord is the serialized form of a compiled component stored in
// the distributed cache. Parsed templates are not portable across
// processes, so the record carries the source plus the resolved entry
// point: a loader re-parses locally but skips discovery, the source tier
// walk, and entry-point selection. Digest is the xxhash of Source and
// guards against truncated or mismatched cache entries.
type bytecodeRecord struct {
	Name   string `msgpack:"name"`
	Path   string `msgpack:"path"`
	Entry  string `msgpack:"entry"`
	Source string `msgpack:"source"`
	Digest uint64 `msgpack:"digest"`
}

// GetComponent resolves a name to a renderable component. Resolution order:
// native registrations, the in-memory compiled cache, the distributed
// bytecode cache, and finally a full compile from source text obtained
// through the tiered source chain.
//
// The two failure modes are distinct: ErrNotFound means nothing maps to the
// name, a *CompileError means the source exists but is broken. Transient
// collaborator failures never surface here.
func (e *Engine) GetComponent(ctx context.Context, name string) (Renderable, error) {
	e.mu.RLock()
	if r, ok := e.registry[name]; ok {
		e.mu.RUnlock()
		return r, nil
	}
	if r, ok := e.compiled[name]; ok {
		e.mu.RUnlock()
		return r, nil
	}
	e.mu.RUnlock()

	if comp := e.loadBytecode(ctx, name); comp != nil {
		e.mu.Lock()
		e.compiled[name] = comp
		e.mu.Unlock()
		return comp, nil
	}

	source, path, err := e.GetSource(ctx, name)
	if err != nil {
		return nil, err
	}

	comp, err := compileSource(name, path, source)
	if err != nil {
		return nil, err
	}

	// Last writer wins; concurrent compiles of the same source produce
	// interchangeable components.
	e.mu.Lock()
	e.compiled[name] = comp
	e.mu.Unlock()

	e.storeBytecode(ctx, comp, source)
	return comp, nil
}

// compileSource parses component source text and selects its entry point.
// Selection is deterministic: a define named after the component wins, then
// the first non-empty define in name order, then the file's top-level body.
// A file yielding nothing renderable is a compile error, as is any parse
// failure.
func compileSource(name, path, source string) (*sourceComponent, error) {
	tmpl, err := texttemplate.New(name).Funcs(BaseFuncs()).Parse(source)
	if err != nil {
		return nil, &CompileError{Name: name, Path: path, Err: err}
	}

	entry := selectEntry(tmpl, name)
	if entry == "" {
		return nil, &CompileError{
			Name: name,
			Path: path,
			Err:  errors.New("no renderable template defined"),
		}
	}

	return &sourceComponent{name: name, path: path, entry: entry, tmpl: tmpl}, nil
}

// selectEntry picks the template within a parsed set that renders the
// component. Returns "" when every associated template is empty.
func selectEntry(tmpl *texttemplate.Template, name string) string {
	if sub := tmpl.Lookup(name); sub != nil && templateBody(sub) != "" {
		return name
	}
	var names []string
	for _, sub := range tmpl.Templates() {
		if templateBody(sub) == "" {
			continue
		}
		names = append(names, sub.Name())
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// templateBody returns the template's text with surrounding whitespace
// removed, or "" for an undefined or empty template.
func templateBody(t *texttemplate.Template) string {
	if t.Tree == nil || t.Tree.Root == nil {
		return ""
	}
	return strings.TrimSpace(t.Tree.Root.String())
}

// loadBytecode tries the distributed bytecode tier. Any failure (miss,
// collaborator error, corrupt record, stale digest, re-parse failure)
// returns nil and, where it indicates a bad entry, deletes it so the next
// writer replaces it. Errors never propagate: the caller simply compiles
// from source.
func (e *Engine) loadBytecode(ctx context.Context, name string) *sourceComponent {
	if e.cache == nil {
		return nil
	}
	path, ok := e.lookupPath(name)
	if !ok {
		return nil
	}
	key := e.bytecodeKey(path)

	cctx, cancel := e.bound(ctx)
	data, err := e.cache.Get(cctx, key)
	cancel()
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			e.logger.Warn("Bytecode cache tier failed", "component", name, "error", err)
		}
		return nil
	}

	var rec bytecodeRecord
	if err = msgpack.Unmarshal(data, &rec); err != nil {
		e.logger.Warn("Discarding undecodable bytecode entry", "component", name, "error", err)
		e.dropBytecode(ctx, key)
		return nil
	}
	if rec.Entry == "" || xxhash.Sum64String(rec.Source) != rec.Digest {
		e.logger.Warn("Discarding corrupt bytecode entry", "component", name)
		e.dropBytecode(ctx, key)
		return nil
	}

	tmpl, err := texttemplate.New(rec.Name).Funcs(BaseFuncs()).Parse(rec.Source)
	if err != nil || tmpl.Lookup(rec.Entry) == nil {
		e.logger.Warn("Discarding unparsable bytecode entry", "component", name, "error", err)
		e.dropBytecode(ctx, key)
		return nil
	}

	return &sourceComponent{name: rec.Name, path: rec.Path, entry: rec.Entry, tmpl: tmpl}
}

// storeBytecode writes a freshly compiled component into the distributed
// bytecode tier. Serialization or cache failures are logged and swallowed;
// the in-memory component is already usable.
func (e *Engine) storeBytecode(ctx context.Context, comp *sourceComponent, source string) {
	if e.cache == nil {
		return
	}
	rec := bytecodeRecord{
		Name:   comp.name,
		Path:   comp.path,
		Entry:  comp.entry,
		Source: source,
		Digest: xxhash.Sum64String(source),
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		e.logger.Warn("Bytecode serialization failed", "component", comp.name, "error", err)
		return
	}
	cctx, cancel := e.bound(ctx)
	defer cancel()
	if err = e.cache.Set(cctx, e.bytecodeKey(comp.path), data); err != nil {
		e.logger.Warn("Bytecode cache write failed", "component", comp.name, "error", err)
	}
}

func (e *Engine) dropBytecode(ctx context.Context, key string) {
	cctx, cancel := e.bound(ctx)
	defer cancel()
	_ = e.cache.Delete(cctx, key)
}
