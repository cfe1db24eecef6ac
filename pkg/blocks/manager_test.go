package blocks

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Byblis/pkg/component"
)

// setupTestManager creates a Manager over a temp template directory,
// pre-populated with one page template and one partial.
func setupTestManager(tb testing.TB) (*Manager, string) {
	tb.Helper()

	dir := tb.TempDir()
	page := filepath.Join(dir, "page.tmpl.html")
	if err := os.WriteFile(page, []byte(`Hello {{.Var "name"}}!`), 0644); err != nil {
		tb.Fatalf("failed to write page template: %v", err)
	}
	partial := filepath.Join(dir, "banner.part.html")
	if err := os.WriteFile(partial, []byte(`<h1>{{.Var "title"}}</h1>`), 0644); err != nil {
		tb.Fatalf("failed to write partial: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := DefaultConfig()
	m, err := NewManager(logger, &config, dir)
	if err != nil {
		tb.Fatalf("NewManager failed: %v", err)
	}
	return m, dir
}

// setupBridged wires a Manager and a component Engine together over temp
// directories and returns both plus the component dir.
func setupBridged(tb testing.TB) (*Manager, *component.Engine, string) {
	tb.Helper()

	m, _ := setupTestManager(tb)

	compDir := tb.TempDir()
	compCfg := component.DefaultConfig()
	compCfg.SearchPaths = []string{compDir}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := component.NewEngine(logger, &compCfg, nil, nil)
	if err != nil {
		tb.Fatalf("NewEngine failed: %v", err)
	}

	engine.SetTemplates(m)
	m.SetComponentInvoker(engine)
	return m, engine, compDir
}

func writeComponentFile(tb testing.TB, dir, name, content string) {
	tb.Helper()
	path := filepath.Join(dir, name+".comp.html")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("failed to write component %s: %v", name, err)
	}
}

func TestExecuteLoadedTemplate(t *testing.T) {
	m, _ := setupTestManager(t)

	rc := component.NewRenderContext(context.Background(), "blocks",
		map[string]any{"name": "World"}, m, nil)
	var buf bytes.Buffer
	if err := m.Execute(&buf, "page.tmpl.html", rc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if buf.String() != "Hello World!" {
		t.Errorf("Execute = %q, want %q", buf.String(), "Hello World!")
	}
}

func TestExecuteEmptyNameIsNoop(t *testing.T) {
	m, _ := setupTestManager(t)
	var buf bytes.Buffer
	if err := m.Execute(&buf, "", nil); err != nil {
		t.Fatalf("Execute(\"\") = %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Execute(\"\") wrote %q", buf.String())
	}
}

func TestRefreshPicksUpNewTemplates(t *testing.T) {
	m, dir := setupTestManager(t)

	extra := filepath.Join(dir, "extra.tmpl.html")
	if err := os.WriteFile(extra, []byte(`extra`), 0644); err != nil {
		t.Fatalf("failed to write extra template: %v", err)
	}
	if err := m.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	names := m.TemplateNames()
	found := false
	for _, name := range names {
		if name == "extra.tmpl.html" {
			found = true
		}
	}
	if !found {
		t.Errorf("TemplateNames() = %v, want extra.tmpl.html after Refresh", names)
	}
}

func TestRefreshEmptyDirIsNotAnError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := DefaultConfig()
	if _, err := NewManager(logger, &config, t.TempDir()); err != nil {
		t.Fatalf("NewManager on an empty dir failed: %v", err)
	}
}

func TestExecuteTemplateString(t *testing.T) {
	m, _ := setupTestManager(t)

	var buf bytes.Buffer
	err := m.ExecuteTemplateString(&buf, `{{add 1 2}}`, nil)
	if err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "3" {
		t.Errorf("ExecuteTemplateString = %q, want 3", buf.String())
	}
}

func TestBlockTemplateInvokesComponent(t *testing.T) {
	m, _, compDir := setupBridged(t)
	writeComponentFile(t, compDir, "greeting", `Hi {{.Var "who"}}`)

	var buf bytes.Buffer
	rc := component.NewRenderContext(context.Background(), "blocks",
		map[string]any{"who": "Ada"}, m, nil)
	err := m.ExecuteTemplateString(&buf, `<p>{{component "greeting" .}}</p>`, rc)
	if err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "<p>Hi Ada</p>" {
		t.Errorf("bridged render = %q, want %q", buf.String(), "<p>Hi Ada</p>")
	}
}

func TestBlockTemplateInvokesComponentWithPairs(t *testing.T) {
	m, _, compDir := setupBridged(t)
	writeComponentFile(t, compDir, "greeting", `Hi {{.Var "who"}}`)

	var buf bytes.Buffer
	err := m.ExecuteTemplateString(&buf, `{{component "greeting" "who" "Grace"}}`, nil)
	if err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "Hi Grace" {
		t.Errorf("bridged render = %q, want %q", buf.String(), "Hi Grace")
	}
}

func TestComponentInvokesBlockTemplate(t *testing.T) {
	_, engine, compDir := setupBridged(t)
	writeComponentFile(t, compDir, "header",
		`<header>{{.Template "banner.part.html" "title" "Welcome"}}</header>`)

	out, err := engine.RenderComponent(context.Background(), "header", nil)
	if err != nil {
		t.Fatalf("RenderComponent failed: %v", err)
	}
	if string(out) != "<header><h1>Welcome</h1></header>" {
		t.Errorf("cross-engine render = %q", out)
	}
}

func TestComponentContextFlowsBothWays(t *testing.T) {
	m, _, compDir := setupBridged(t)
	// The block passes its context to the component, the component passes
	// it onward to a partial; the variable survives both hops.
	writeComponentFile(t, compDir, "wrap", `{{.Template "banner.part.html"}}`)

	var buf bytes.Buffer
	rc := component.NewRenderContext(context.Background(), "blocks",
		map[string]any{"title": "Deep"}, m, nil)
	err := m.ExecuteTemplateString(&buf, `{{component "wrap" .}}`, rc)
	if err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "<h1>Deep</h1>" {
		t.Errorf("round-trip render = %q, want %q", buf.String(), "<h1>Deep</h1>")
	}
}

func TestComponentFuncWithoutEngine(t *testing.T) {
	m, _ := setupTestManager(t)

	var buf bytes.Buffer
	err := m.ExecuteTemplateString(&buf, `{{component "anything"}}`, nil)
	if err == nil {
		t.Error("component func succeeded with no engine attached")
	}
}

func TestComponentRenderErrorsSurface(t *testing.T) {
	m, _, compDir := setupBridged(t)
	writeComponentFile(t, compDir, "broken", `{{if}}`)

	var buf bytes.Buffer
	err := m.ExecuteTemplateString(&buf, `{{component "broken"}}`, nil)
	if err == nil {
		t.Fatal("rendering a broken component succeeded")
	}
	if !strings.Contains(err.Error(), "compilation failed") {
		t.Errorf("error %q does not identify a compile failure", err)
	}
}

func TestComponentOutputNotEscaped(t *testing.T) {
	m, _, compDir := setupBridged(t)
	writeComponentFile(t, compDir, "markup", `<em>ok</em>`)

	var buf bytes.Buffer
	err := m.ExecuteTemplateString(&buf, `{{component "markup"}}`, nil)
	if err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "<em>ok</em>" {
		t.Errorf("component output was escaped: %q", buf.String())
	}
}
