// Package server provides the IconStencil rendering backend over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/xob0t/IconStencil/pkg/config"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/output"
	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/submission"
)

// Fallback base image used when no default image is configured.
const (
	FallbackBaseWidth  = 520
	FallbackBaseHeight = 520
	fallbackBaseColor  = "#808080"
)

// ── Server ──

// Server is the HTTP backend.
type Server struct {
	cfg      *config.Config
	renderer *render.Renderer
	store    *output.Store
	// defaultImage is the encoded configured default image, served as is.
	defaultImage []byte
}

// New builds a server from cfg: the renderer, its emoji sources and the
// output store.
func New(cfg *config.Config) (*Server, error) {
	var defaultImage []byte
	if p := cfg.Server.DefaultImage; p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read default image: %w", err)
		}
		defaultImage = data
	}

	r, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}

	f, err := output.ParseFormat(cfg.Render.OutputFormat)
	if err != nil {
		return nil, err
	}
	store, err := output.NewStore(cfg.Server.OutputDir, f, cfg.Render.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, renderer: r, store: store, defaultImage: defaultImage}, nil
}

// NewRenderer builds the compositor described by cfg. Emoji artwork is read
// from the emoji directory first, then fetched from the URL template.
func NewRenderer(cfg *config.Config) (*render.Renderer, error) {
	var sources render.ChainSource
	if d := cfg.Render.EmojiDir; d != "" {
		sources = append(sources, render.DirSource{Dir: d})
	}
	if u := cfg.Render.EmojiURLTemplate; u != "" {
		sources = append(sources, render.NewHTTPSource(u, &http.Client{Timeout: 10 * time.Second}))
	}
	var emoji render.EmojiSource
	if len(sources) > 0 {
		emoji = sources
	}

	var base image.Image
	if p := cfg.Server.DefaultImage; p != "" {
		img, err := imaging.Open(p, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("open default image: %w", err)
		}
		base = img
	} else {
		base = render.NewSolidImage(FallbackBaseWidth, FallbackBaseHeight,
			render.HexColorOr(fallbackBaseColor, color.NRGBA{A: 255}))
	}

	return render.NewRenderer(render.Options{
		FontPath:            cfg.Render.FontPath,
		CJKFontPath:         cfg.Render.CJKFontPath,
		Emoji:               emoji,
		BackgroundTolerance: cfg.Render.BackgroundTolerance,
		DefaultBase:         base,
	})
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	mux.HandleFunc("GET /default-image", s.handleDefaultImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.cors(s.logRequests(mux))
}

// RunServe starts the backend. Flags override the config file.
func RunServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var (
		configPath string
		addr       string
		outputDir  string
		open       bool
	)
	fs.StringVar(&configPath, "config", "", "Path to config JSON")
	fs.StringVar(&addr, "addr", "", "Listen address (default from config, :8000)")
	fs.StringVar(&outputDir, "output", "", "Directory for generated icons")
	fs.BoolVar(&open, "open", false, "Open the health page in a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if outputDir != "" {
		cfg.Server.OutputDir = outputDir
	}

	s, err := New(cfg)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.Shutdown(shutdownCtx)
	}()

	url := "http://localhost" + cfg.Server.Addr
	if !strings.HasPrefix(cfg.Server.Addr, ":") {
		url = "http://" + cfg.Server.Addr
	}
	logging.Logger().Info("IconStencil backend listening", "url", url, "output", s.store.Dir())
	if open {
		go openBrowser(url + "/health")
	}

	if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ── Generate ──

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	log := logging.Logger()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())

	sub, warnings, err := submission.Parse(r, s.cfg.MaxUploadBytes())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	more, err := sub.Validate()
	warnings = append(warnings, more...)
	if errors.Is(err, submission.ErrEmpty) {
		writeError(w, http.StatusBadRequest, "Provide text, an emoji, a drawing or an overlay image")
		return
	}

	assets, more, err := sub.Decode()
	warnings = append(warnings, more...)
	for _, msg := range warnings {
		log.Warn("request warning", "msg", msg)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := s.renderer.Render(r.Context(), assets)
	if err != nil {
		log.Error("render failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name, path, err := s.store.Save(img)
	if err != nil {
		log.Error("save failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info("icon generated", "file", name,
		"text", sub.Text != nil, "emoji", sub.Emoji != nil,
		"overlays", len(sub.Overlays), "drawing", len(sub.Drawing) > 0)
	writeJSON(w, http.StatusOK, submission.Response{
		Success:     true,
		OutputPath:  path,
		DownloadURL: "/download/" + name,
	})
}

// ── Files ──

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	path, err := s.store.Lookup(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", output.ContentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleDefaultImage(w http.ResponseWriter, r *http.Request) {
	if s.defaultImage == nil {
		writeError(w, http.StatusNotFound, "Default image not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(s.defaultImage))
	w.Write(s.defaultImage)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "IconStencil API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"generated": s.store.Saved(),
		"format":    s.store.Format(),
	})
}

// ── Middleware ──

func (s *Server) cors(next http.Handler) http.Handler {
	allowed := s.cfg.Server.AllowedOrigins
	wildcard := slices.Contains(allowed, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (wildcard || slices.Contains(allowed, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Logger().LogAttrs(r.Context(), slog.LevelDebug, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, submission.ErrorResponse{Detail: detail})
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logging.Logger().Debug("open browser", "err", err)
	}
}
