// IconStencil - Icon composition backend and offline renderer.
//
// Usage:
//
//	iconstencil serve [--config config.json] [--addr :8000]
//	iconstencil render --composition <path> -o <file> [--config config.json]
//	iconstencil validate --composition <path>
//	iconstencil init
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/xob0t/IconStencil/clients/server"
	"github.com/xob0t/IconStencil/pkg/config"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/output"
	"github.com/xob0t/IconStencil/pkg/submission"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	logging.SetLogger(logging.NewStderr(os.Getenv("ICONSTENCIL_LOG_LEVEL")))

	switch os.Args[1] {
	case "serve":
		if err := server.RunServe(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "render":
		if err := runRender(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "validate":
		if err := runValidate(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "init":
		if err := runInit(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var (
		compPath   string
		out        string
		configPath string
		quality    int
	)
	fs.StringVar(&compPath, "composition", "", "Path to composition JSON")
	fs.StringVar(&compPath, "c", "", "Path to composition JSON")
	fs.StringVar(&out, "o", "", "Output file (.jpg, .png or .bmp)")
	fs.StringVar(&out, "output", "", "Output file (.jpg, .png or .bmp)")
	fs.StringVar(&configPath, "config", "", "Path to config JSON (optional)")
	fs.IntVar(&quality, "quality", 0, "JPEG quality 1-100 (default from config)")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if compPath == "" || out == "" {
		printUsage()
		return fmt.Errorf("--composition and -o are required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if quality == 0 {
		quality = cfg.Render.JPEGQuality
	}

	sub, err := submission.ParseCompositionFile(compPath)
	if err != nil {
		return err
	}
	warnings, err := sub.Validate()
	if err != nil {
		return err
	}
	assets, more, err := sub.Decode()
	if err != nil {
		return err
	}
	for _, w := range append(warnings, more...) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	r, err := server.NewRenderer(cfg)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Rendering: %s\n", compPath)
	img, err := r.Render(ctx, assets)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := output.WriteFile(out, img, quality); err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", out)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var compPath string
	fs.StringVar(&compPath, "composition", "", "Path to composition JSON")
	fs.StringVar(&compPath, "c", "", "Path to composition JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if compPath == "" {
		return fmt.Errorf("--composition is required for validate command")
	}

	sub, err := submission.ParseCompositionFile(compPath)
	if err != nil {
		return err
	}
	warnings, err := sub.Validate()
	if err != nil {
		return err
	}
	_, more, err := sub.Decode()
	if err != nil {
		return err
	}
	warnings = append(warnings, more...)
	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	fmt.Printf("%s: %d warning(s)\n", compPath, len(warnings))
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var compOut, configOut string
	fs.StringVar(&compOut, "composition", "composition.json", "Output path for sample composition")
	fs.StringVar(&configOut, "config", "config.json", "Output path for default config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(compOut, []byte(submission.ExampleJSON()), 0o644); err != nil {
		return fmt.Errorf("write composition: %w", err)
	}
	if err := config.Default().Save(configOut); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Created: %s, %s\n", compOut, configOut)
	fmt.Println("Put a base.jpg next to the composition, then run:")
	fmt.Printf("    iconstencil render --composition %s -o icon.jpg --config %s\n", compOut, configOut)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`IconStencil - Icon composition backend (Pure Go)

USAGE:
    iconstencil serve [options]
    iconstencil render --composition <path> -o <file> [options]
    iconstencil validate --composition <path>
    iconstencil init [options]

SERVE:
    --config <path>        Config JSON (optional; defaults apply)
    --addr <addr>          Listen address (default: :8000)
    --output <dir>         Directory for generated icons (default: output)
    --open                 Open the backend in a browser

RENDER:
    -c, --composition <path>  Composition JSON (images referenced by path)
    -o, --output <path>       Output file (.jpg, .png or .bmp)
    --config <path>           Config JSON (fonts, emoji source)
    --quality <1-100>         JPEG quality (default: 95)

INIT:
    --composition <path>   Sample composition (default: composition.json)
    --config <path>        Default config (default: config.json)

ENVIRONMENT:
    ICONSTENCIL_LOG_LEVEL  debug, info, warn or error (default: info)

EXAMPLES:
    iconstencil init
    iconstencil serve --config config.json
    iconstencil render -c composition.json -o icon.jpg
    iconstencil validate -c composition.json
`)
}
