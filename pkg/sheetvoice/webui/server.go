// Package webui serves the sheetvoice HTTP API and the static ask/admin
// pages (embedded via embed.FS).
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/script"
)

//go:embed static
var staticFS embed.FS

// Config holds web server configuration.
type Config struct {
	// Address is the listen address (default ":8080").
	Address string

	// MaxUploadBytes caps the multipart upload body (default 10MB).
	MaxUploadBytes int64
}

// Server is the HTTP front end over the script service.
type Server struct {
	cfg    Config
	svc    *script.Service
	logger *slog.Logger
	server *http.Server
}

// New creates a server. The service must already be wired to its store.
func New(cfg Config, svc *script.Service, logger *slog.Logger) *Server {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 10 * 1024 * 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger.With("component", "webui"),
	}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// ── API routes ──
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/script-links", s.handleScriptLinks)
	mux.HandleFunc("/process-speech/", s.handleProcessSpeech)
	mux.HandleFunc("/get-excel/", s.handleGetExcel)
	mux.HandleFunc("/update-excel", s.handleUpdateExcel)
	mux.HandleFunc("/delete/", s.handleDelete)

	// ── Static pages ──
	mux.HandleFunc("/ask/", s.staticPage("ask.html"))
	mux.HandleFunc("/script", s.staticPage("script.html"))
	mux.HandleFunc("/", s.staticPage("index.html"))

	return corsMiddleware(s.requestLog(mux))
}

// Start begins serving in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("web server starting", "address", s.cfg.Address)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
		s.logger.Info("web server stopped")
	}
}

// ── Middleware ──

// requestLog tags each request with an ID and logs it after completion.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// corsMiddleware allows browser clients on other origins to call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps service errors onto status codes; anything untyped is a
// server error.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var se *script.Error
	if errors.As(err, &se) {
		if se.HTTPStatus() == http.StatusInternalServerError {
			s.logger.Error("request failed", "error", err)
		}
		writeJSON(w, se.HTTPStatus(), map[string]string{"error": se.Message})
		return
	}
	s.logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// staticPage serves one embedded HTML page regardless of the sub-path.
func (s *Server) staticPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFS.ReadFile("static/" + name)
		if err != nil {
			s.logger.Error("static page missing", "page", name, "error", err)
			http.Error(w, "page not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	}
}
