// IconStencil desktop editor.
//
// Usage:
//
//	iconstencil-desktop [--config config.json] [--backend http://localhost:8000/generate]
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/disintegration/imaging"

	"github.com/xob0t/IconStencil/clients/desktop"
	"github.com/xob0t/IconStencil/clients/server"
	"github.com/xob0t/IconStencil/pkg/config"
	"github.com/xob0t/IconStencil/pkg/editor"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/output"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("iconstencil-desktop", flag.ExitOnError)
	var (
		configPath string
		backend    string
		logLevel   string
	)
	fs.StringVar(&configPath, "config", "", "Path to config JSON (optional)")
	fs.StringVar(&backend, "backend", "", "Generate endpoint; renders locally when empty")
	fs.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetLogger(logging.NewStderr(logLevel))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	r, err := server.NewRenderer(cfg)
	if err != nil {
		return err
	}

	var store *output.Store
	if backend == "" {
		f, err := output.ParseFormat(cfg.Render.OutputFormat)
		if err != nil {
			return err
		}
		if store, err = output.NewStore(cfg.Server.OutputDir, f, cfg.Render.JPEGQuality); err != nil {
			return err
		}
	}

	var base image.Image
	if p := cfg.Server.DefaultImage; p != "" {
		if base, err = imaging.Open(p, imaging.AutoOrientation(true)); err != nil {
			return fmt.Errorf("open default image: %w", err)
		}
	} else {
		base = r.DefaultBase()
	}

	a := app.NewWithID("io.github.xob0t.iconstencil")
	desktop.NewEditor(a, r, desktop.Options{
		Editor:     editor.OptionsFromConfig(cfg),
		BackendURL: backend,
		Store:      store,
		Base:       base,
	}).ShowAndRun()
	return nil
}
