package component

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
)

// Engine is the central controller for the component system. It discovers
// component sources, resolves them through the tiered cache chain, compiles
// them, and renders them. All methods are concurrent-safe.
//
// The in-process caches are guarded by a single RWMutex. The engine does not
// de-duplicate concurrent work: two requests that miss the memory cache for
// the same name may both read and compile, and the last writer wins. Both
// produce equivalent values, so this is wasted work under load spikes, not a
// correctness problem.
type Engine struct {
	logger   *slog.Logger
	config   *Config
	cache    Cache
	storage  Storage
	resolver *Resolver

	templates TemplateInvoker

	mu       sync.RWMutex
	paths    map[string]string     // component name -> source path
	sources  map[string]string     // source path -> source text
	compiled map[string]Renderable // component name -> compiled component
	registry map[string]Renderable // component name -> native registration
}

// NewEngine creates a component Engine. The cache and storage collaborators
// are both optional: passing nil disables the corresponding tier and the
// lookup chain simply skips it. An initial discovery pass runs immediately;
// a missing search root is not an error.
func NewEngine(logger *slog.Logger, config *Config, cache Cache, storage Storage) (*Engine, error) {
	e := &Engine{
		logger:   logger,
		config:   config,
		cache:    cache,
		storage:  storage,
		resolver: NewResolver(config.SearchPaths, config.Extension),
		paths:    map[string]string{},
		sources:  map[string]string{},
		compiled: map[string]Renderable{},
		registry: map[string]Renderable{},
	}
	if err := e.Refresh(); err != nil {
		return nil, err
	}
	logger.Info("Component engine initialized", "components", len(e.paths))
	return e, nil
}

// Refresh rescans the search roots and replaces the name-to-path mapping.
// Compiled components and cached source text are left alone; clear them
// explicitly if sources changed on disk.
func (e *Engine) Refresh() error {
	found, err := e.resolver.Resolve()
	if err != nil {
		return fmt.Errorf("component discovery failed: %w", err)
	}
	e.mu.Lock()
	e.paths = found
	e.mu.Unlock()
	return nil
}

// Register installs a native Go component under the given name. Registered
// components take precedence over discovered source files of the same name;
// registration is explicit and happens at load time, so a deliberate
// override beats ambient filesystem state. Registering a name twice
// replaces the earlier component.
func (e *Engine) Register(name string, r Renderable) {
	e.mu.Lock()
	e.registry[name] = r
	e.mu.Unlock()
}

// SetTemplates attaches the block-template engine that contexts built by
// this engine will expose through RenderContext.Template.
func (e *Engine) SetTemplates(t TemplateInvoker) {
	e.mu.Lock()
	e.templates = t
	e.mu.Unlock()
}

// Names returns the currently known component names: everything discovered
// at the last Refresh plus every native registration. Order is unspecified.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.paths)+len(e.registry))
	for name := range e.paths {
		names = append(names, name)
	}
	for name := range e.registry {
		if _, ok := e.paths[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// ClearSources drops the in-memory source text cache. The compiled cache is
// independent and untouched.
func (e *Engine) ClearSources() {
	e.mu.Lock()
	e.sources = map[string]string{}
	e.mu.Unlock()
}

// ClearCompiled drops the in-memory compiled component cache. The source
// text cache is independent and untouched. Native registrations survive.
func (e *Engine) ClearCompiled() {
	e.mu.Lock()
	e.compiled = map[string]Renderable{}
	e.mu.Unlock()
}

// ClearDistributed removes every source and bytecode entry this engine's
// namespace owns in the distributed cache. It is a no-op without a cache
// collaborator.
func (e *Engine) ClearDistributed(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	cctx, cancel := e.bound(ctx)
	defer cancel()
	return e.cache.Clear(cctx, e.config.CacheNamespace+"_component_")
}

// RenderComponent resolves, compiles, and renders a component in one call.
// The props map becomes the component's variable snapshot; it is copied, not
// retained. RenderComponent makes Engine satisfy ComponentInvoker.
func (e *Engine) RenderComponent(ctx context.Context, name string, props map[string]any) (template.HTML, error) {
	comp, err := e.GetComponent(ctx, name)
	if err != nil {
		return "", err
	}
	e.mu.RLock()
	templates := e.templates
	e.mu.RUnlock()
	rc := NewRenderContext(ctx, "component", props, templates, e)
	return comp.Render(ctx, rc)
}

// lookupPath resolves a name to a source path, falling back to a fresh
// filesystem scan on a miss so files added after the last Refresh are still
// found.
func (e *Engine) lookupPath(name string) (string, bool) {
	e.mu.RLock()
	path, ok := e.paths[name]
	e.mu.RUnlock()
	if ok {
		return path, true
	}
	if err := e.Refresh(); err != nil {
		e.logger.Warn("Component rescan failed", "component", name, "error", err)
		return "", false
	}
	e.mu.RLock()
	path, ok = e.paths[name]
	e.mu.RUnlock()
	return path, ok
}

// bound derives a child context for a single collaborator call. With a zero
// CollaboratorTimeout the caller's context is used as-is.
func (e *Engine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.CollaboratorTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.config.CollaboratorTimeout)
}

func (e *Engine) sourceKey(path string) string {
	return e.config.CacheNamespace + "_component_source:" + path
}

func (e *Engine) bytecodeKey(path string) string {
	return e.config.CacheNamespace + "_component_bytecode:" + path
}
