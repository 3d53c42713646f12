// Package httpserver exposes plan generation over HTTP: a JSON API, the
// survey upload pages and artifact downloads.
package httpserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/fdg312/dietplan/internal/batch"
	"github.com/fdg312/dietplan/internal/blob"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/metrics"
	"github.com/fdg312/dietplan/internal/reports"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the collaborators the server needs. Planner and Store are required.
type Deps struct {
	Planner  batch.Generator
	Store    blob.Store
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Renderer *reports.Renderer
}

type Server struct {
	config  *config.Config
	mux     *http.ServeMux
	log     *logger.Logger
	metrics *metrics.Metrics
	planner batch.Generator
	store   blob.Store
	runner  *batch.Runner
	uploads *uploadStore
	pages   *template.Template
	http    *http.Server
}

func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Planner == nil || deps.Store == nil {
		return nil, errors.New("httpserver: planner and store are required")
	}
	pages, err := template.New("pages").Funcs(template.FuncMap{
		"seconds": func(d time.Duration) string { return fmt.Sprintf("%.1fs", d.Seconds()) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	log := logger.OrNop(deps.Log)
	s := &Server{
		config:  cfg,
		mux:     http.NewServeMux(),
		log:     log,
		metrics: deps.Metrics,
		planner: deps.Planner,
		store:   deps.Store,
		runner: batch.NewRunner(deps.Planner, deps.Store, batch.Options{
			Log:      log,
			Metrics:  deps.Metrics,
			Renderer: deps.Renderer,
		}),
		uploads: newUploadStore(uploadTTL, maxUploads),
		pages:   pages,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// Survey pages
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("GET /download/{runID}", s.handleDownloadBundle)
	s.mux.HandleFunc("GET /download/{runID}/{file}", s.handleDownloadFile)

	// JSON API
	s.mux.HandleFunc("POST /v1/plans", s.handleCreatePlan)
	s.mux.HandleFunc("GET /v1/runs/{runID}", s.handleGetRun)
}

// Handler returns the router wrapped in middleware, outermost first:
// metrics, CORS, rate limit.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = RateLimitMiddleware(s.config, h)
	h = CORSMiddleware(s.config, h)
	return observe(s.metrics, s.log, h)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start blocks serving on the configured port until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("server listening",
		"addr", "http://localhost"+addr,
		"health", "http://localhost"+addr+"/healthz",
		"ai_mode", s.config.AIMode,
		"blob_mode", s.config.Blob.Mode,
	)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
