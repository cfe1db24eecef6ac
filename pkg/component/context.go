package component

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"maps"
)

// TemplateInvoker renders a named block template with the given data. The
// blocks package's Manager satisfies this interface; the component engine
// only ever sees the interface.
type TemplateInvoker interface {
	RenderTemplate(ctx context.Context, name string, data any) (template.HTML, error)
}

// ComponentInvoker renders a named component with the given props. The
// Engine satisfies this interface so that block templates (or anything
// else) can invoke components without importing the engine's internals.
type ComponentInvoker interface {
	RenderComponent(ctx context.Context, name string, props map[string]any) (template.HTML, error)
}

// Renderable is the capability contract every component satisfies, whether
// compiled from a discovered source file or registered natively in Go.
type Renderable interface {
	Render(ctx context.Context, rc *RenderContext) (template.HTML, error)
}

// RenderFunc adapts a plain function to the Renderable interface.
type RenderFunc func(ctx context.Context, rc *RenderContext) (template.HTML, error)

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, rc *RenderContext) (template.HTML, error) {
	return f(ctx, rc)
}

// RenderContext is the single mapping a render call sees. It carries a
// snapshot of the enclosing variables, identifies which engine is rendering,
// and exposes the two cross-engine callables. Contexts are never mutated in
// place: With and the invocation helpers always build fresh copies, so
// repeated renders cannot accumulate state across calls.
type RenderContext struct {
	ctx        context.Context
	engine     string
	vars       map[string]any
	templates  TemplateInvoker
	components ComponentInvoker
}

// NewRenderContext builds a RenderContext from a variable snapshot and the
// two engine callables. The vars map is copied; the caller's map is not
// retained. Either invoker may be nil, in which case the corresponding
// cross-engine call fails with a descriptive error.
func NewRenderContext(ctx context.Context, engine string, vars map[string]any, templates TemplateInvoker, components ComponentInvoker) *RenderContext {
	merged := make(map[string]any, len(vars))
	maps.Copy(merged, vars)
	return &RenderContext{
		ctx:        ctx,
		engine:     engine,
		vars:       merged,
		templates:  templates,
		components: components,
	}
}

// With returns a copy of the context whose variables are the receiver's
// overlaid with props. The receiver is unchanged.
func (rc *RenderContext) With(props map[string]any) *RenderContext {
	merged := make(map[string]any, len(rc.vars)+len(props))
	maps.Copy(merged, rc.vars)
	maps.Copy(merged, props)
	out := *rc
	out.vars = merged
	return &out
}

// Engine identifies which engine built this context ("component" or
// "blocks").
func (rc *RenderContext) Engine() string {
	return rc.engine
}

// Context returns the request context the render was started under.
func (rc *RenderContext) Context() context.Context {
	return rc.ctx
}

// Var returns a single variable, or nil if it is absent.
func (rc *RenderContext) Var(name string) any {
	return rc.vars[name]
}

// Has reports whether a variable is present.
func (rc *RenderContext) Has(name string) bool {
	_, ok := rc.vars[name]
	return ok
}

// Vars returns a copy of the variable snapshot.
func (rc *RenderContext) Vars() map[string]any {
	out := make(map[string]any, len(rc.vars))
	maps.Copy(out, rc.vars)
	return out
}

// Template renders a named block template, forwarding this context's
// variables overlaid with the given key/value pairs. This is the callable a
// component uses to invoke the other engine.
func (rc *RenderContext) Template(name string, pairs ...any) (template.HTML, error) {
	if rc.templates == nil {
		return "", errors.New("no block-template engine attached to this context")
	}
	overlay, err := Pairs(pairs)
	if err != nil {
		return "", err
	}
	sub := rc.With(overlay)
	sub.engine = "blocks"
	return rc.templates.RenderTemplate(rc.ctx, name, sub)
}

// Component renders a named component, forwarding this context's variables
// overlaid with the given key/value pairs.
func (rc *RenderContext) Component(name string, pairs ...any) (template.HTML, error) {
	if rc.components == nil {
		return "", errors.New("no component engine attached to this context")
	}
	overlay, err := Pairs(pairs)
	if err != nil {
		return "", err
	}
	props := rc.Vars()
	maps.Copy(props, overlay)
	return rc.components.RenderComponent(rc.ctx, name, props)
}

// Pairs turns alternating key/value arguments into a map. Keys must be
// strings. It backs the dict helper and the pair-style arguments accepted
// by the cross-engine callables.
func Pairs(pairs []any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("expected key/value pairs, got %d arguments", len(pairs))
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("pair key %d is %T, want string", i/2, pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}
