package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/CTAG07/Byblis/pkg/blocks"
	"github.com/CTAG07/Byblis/pkg/component"
	"github.com/CTAG07/Byblis/pkg/store"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run() error {
	var (
		configPath = flag.String("config", "./byblis.json", "path to the JSON config file")
		renderName = flag.String("render", "", "component name to render")
		tmplName   = flag.String("template", "", "block template name to render instead of a component")
		dataJSON   = flag.String("data", "{}", "render context variables as a JSON object")
		listNames  = flag.Bool("list", false, "list known components and templates, then exit")
		push       = flag.String("push", "", "upload a component's local source to durable storage, then exit")
		version    = flag.Bool("version", false, "print version information, then exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("byblis %s (%s, built %s)\n", Version, Commit, BuildDate)
		return nil
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(config.App.LogLevel),
	}))

	var cache component.Cache
	var storage component.Storage
	if config.App.DatabasePath != "" {
		var db *sql.DB
		db, err = initDB(config.App.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func(db *sql.DB) {
			_ = db.Close()
		}(db)

		if err = store.SetupSchema(db); err != nil {
			return fmt.Errorf("failed to set up schema: %w", err)
		}
		sqlCache, err := store.NewSQLCache(db)
		if err != nil {
			return err
		}
		defer sqlCache.Close()
		sqlStorage, err := store.NewSQLStorage(db)
		if err != nil {
			return err
		}
		defer sqlStorage.Close()
		cache, storage = sqlCache, sqlStorage
	}

	engine, err := component.NewEngine(logger, config.Components, cache, storage)
	if err != nil {
		return fmt.Errorf("failed to create component engine: %w", err)
	}

	manager, err := blocks.NewManager(logger, config.Blocks, config.App.TemplateDir)
	if err != nil {
		return fmt.Errorf("failed to create template manager: %w", err)
	}

	engine.SetTemplates(manager)
	manager.SetComponentInvoker(engine)

	ctx := context.Background()

	if *listNames {
		components := engine.Names()
		sort.Strings(components)
		templates := manager.TemplateNames()
		sort.Strings(templates)
		fmt.Println("components:")
		for _, name := range components {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("templates:")
		for _, name := range templates {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	if *push != "" {
		if storage == nil {
			return fmt.Errorf("cannot push %q: no database configured", *push)
		}
		return engine.PushToStorage(ctx, *push)
	}

	vars := map[string]any{}
	if err = json.Unmarshal([]byte(*dataJSON), &vars); err != nil {
		return fmt.Errorf("failed to parse -data: %w", err)
	}

	switch {
	case *renderName != "":
		html, err := engine.RenderComponent(ctx, *renderName, vars)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	case *tmplName != "":
		rc := component.NewRenderContext(ctx, "blocks", vars, manager, engine)
		html, err := manager.RenderTemplate(ctx, *tmplName, rc)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	default:
		return fmt.Errorf("nothing to do: pass -render, -template, -list, or -push")
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
