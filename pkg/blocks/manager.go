package blocks

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CTAG07/Byblis/pkg/component"
)

// Manager is the central controller for the block-template engine. It
// manages the template set, configuration, function map, and the optional
// bridge into the component engine. It is responsible for loading, parsing,
// and executing templates in a concurrent-safe manner.
// All methods are concurrent-safe.
type Manager struct {
	logger         *slog.Logger
	config         *Config
	templates      *template.Template
	cleanTemplates *template.Template
	templateNames  []string
	funcMap        template.FuncMap
	templateDir    string
	invoker        component.ComponentInvoker
	mu             sync.RWMutex
}

// NewManager creates, initializes, and returns a new Manager for the given
// template directory. It performs an initial Refresh to load all templates;
// an empty directory is not an error, only a warning.
func NewManager(logger *slog.Logger, config *Config, templateDir string) (*Manager, error) {
	m := &Manager{
		logger:      logger,
		config:      config,
		templateDir: templateDir,
	}
	m.funcMap = m.makeFuncMap()

	if err := m.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Block-template manager initialized")
	return m, nil
}

func (m *Manager) makeFuncMap() template.FuncMap {
	funcs := template.FuncMap{}
	for name, fn := range component.BaseFuncs() {
		funcs[name] = fn
	}
	funcs["safe"] = safeHTML
	funcs["component"] = m.componentFunc
	return funcs
}

// SetComponentInvoker attaches the component engine that the "component"
// template function renders through. Passing nil detaches it again, after
// which the function returns an error.
func (m *Manager) SetComponentInvoker(inv component.ComponentInvoker) {
	m.mu.Lock()
	m.invoker = inv
	m.mu.Unlock()
}

// Refresh reloads all templates and partials from the filesystem. This
// allows for updates to templates without restarting the application.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePattern := filepath.Join(m.templateDir, "*"+m.config.TemplateExt)
	m.logger.Info("Loading template files...")

	parsedFiles, err := template.New("").Funcs(m.funcMap).ParseGlob(filePattern)
	var names []string
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			m.logger.Error("failed to parse template files", "error", err)
			return err
		}
		// No template files, so we have to create the object without any
		parsedFiles = template.New("").Funcs(m.funcMap)
		names = []string{}
	} else {
		for _, t := range parsedFiles.Templates() {
			// By default, there is a root template with no name. We don't want to execute this
			if strings.Contains(t.Name(), m.config.TemplateExt) {
				names = append(names, t.Name())
			}
		}
	}

	filePattern = filepath.Join(m.templateDir, "*"+m.config.PartialExt)
	m.logger.Info("Loading partial files...")

	newParsedFiles, err := parsedFiles.ParseGlob(filePattern)
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			m.logger.Error("failed to parse partial files", "error", err)
			return err
		}
		newParsedFiles = parsedFiles
	}

	if len(names) == 0 {
		m.logger.Warn("No template files found matching pattern", "pattern", filePattern)
	}

	m.templates = newParsedFiles
	m.templateNames = names
	m.logger.Info("Loaded template and partial files", "count", len(newParsedFiles.Templates())-1)

	// Create a clean clone for string executions after all parsing is complete.
	m.cleanTemplates, err = m.templates.Clone()
	if err != nil {
		m.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}

	return nil
}

// Execute renders a specific template by name, writing the output to the
// provided io.Writer. The data argument is passed to the template; passing
// a *component.RenderContext gives the template access to the merged
// variable snapshot and both cross-engine callables.
func (m *Manager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.templates.ExecuteTemplate(w, name, data)
}

// RenderTemplate renders a named template to a string. It makes Manager
// satisfy component.TemplateInvoker, so components can invoke block
// templates through their RenderContext.
func (m *Manager) RenderTemplate(_ context.Context, name string, data any) (template.HTML, error) {
	var buf strings.Builder
	if err := m.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// TemplateNames returns a slice of the loaded template names, partials
// included.
func (m *Manager) TemplateNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, t := range m.templates.Templates() {
		if t.Name() != "" {
			names = append(names, t.Name())
		}
	}
	return names
}

// TemplateDir returns the template dir that the Manager loads from.
func (m *Manager) TemplateDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.templateDir
}

// ExecuteTemplateString parses and executes a raw template string using the
// manager's function map. This is ideal for testing or previewing templates
// without saving them to disk.
func (m *Manager) ExecuteTemplateString(w io.Writer, content string, data any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Clone the clean, unexecuted template set to avoid race conditions and execution state issues.
	tempSet, err := m.cleanTemplates.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for string execution: %w", err)
	}

	t, err := tempSet.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}

	return t.Execute(w, data)
}

// componentFunc is the "component" template function. Its first argument is
// the component name; an optional second argument seeds the component's
// variables (a map, or the template's own *component.RenderContext, usually
// written as {{component "name" .}}); any remaining arguments are key/value
// pairs overlaid on top.
//
// A RenderContext seed carries the originating request context forward as
// well; other forms render under a fresh background context.
func (m *Manager) componentFunc(name string, args ...any) (template.HTML, error) {
	ctx := context.Background()
	props := map[string]any{}
	rest := args
	if len(args) > 0 {
		switch seed := args[0].(type) {
		case *component.RenderContext:
			ctx = seed.Context()
			for k, v := range seed.Vars() {
				props[k] = v
			}
			rest = args[1:]
		case map[string]any:
			for k, v := range seed {
				props[k] = v
			}
			rest = args[1:]
		}
	}
	overlay, err := component.Pairs(rest)
	if err != nil {
		return "", err
	}
	for k, v := range overlay {
		props[k] = v
	}

	m.mu.RLock()
	inv := m.invoker
	m.mu.RUnlock()
	if inv == nil {
		return "", errors.New("no component engine attached to this manager")
	}
	return inv.RenderComponent(ctx, name, props)
}

// safeHTML marks a string as trusted HTML, bypassing the escaper. Component
// output is already template.HTML and does not need it; this is for block
// templates embedding trusted fragments from data.
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}
