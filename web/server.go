// Package web exposes the HTTP API. Handlers stay thin: parse, call a
// collaborator, encode.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/docsift/docsift/analyze"
	"github.com/docsift/docsift/config"
	"github.com/docsift/docsift/export"
	"github.com/docsift/docsift/filestore"
	"github.com/docsift/docsift/queue"
	"github.com/docsift/docsift/store"
	"github.com/docsift/docsift/varscan"
)

// Server wires the API handlers to their collaborators.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	files    *filestore.Store
	coord    *queue.Coordinator
	exports  *export.Service
	patterns []varscan.Pattern
	log      *slog.Logger
	router   chi.Router
}

// New builds the server and its routes.
func New(cfg *config.Config, st *store.Store, files *filestore.Store,
	coord *queue.Coordinator, exports *export.Service,
	patterns []varscan.Pattern, log *slog.Logger) *Server {

	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		store:    st,
		files:    files,
		coord:    coord,
		exports:  exports,
		patterns: patterns,
		log:      log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Get("/text", s.handleText)
				r.Get("/paragraphs", s.handleParagraphs)
				r.Get("/variables", s.handleVariables)
				r.Get("/analyze", s.handleAnalyze)
				r.Post("/reprocess", s.handleReprocess)
			})
		})
		r.Get("/status", s.handleStatus)
		r.Route("/queue", func(r chi.Router) {
			r.Post("/pause", s.handleQueuePause)
			r.Post("/resume", s.handleQueueResume)
			r.Post("/clear", s.handleQueueClear)
		})
		r.Route("/export", func(r chi.Router) {
			r.Get("/documents", s.handleExportDocuments)
			r.Get("/documents/{id}", s.handleExportDocument)
			r.Get("/variables", s.handleExportVariables)
			r.Get("/templates", s.handleExportTemplates)
		})
	})
	s.router = r
	return s
}

// Router returns the http.Handler for the API.
func (s *Server) Router() http.Handler { return s.router }

// engine builds an analysis engine from config, with an optional
// threshold override.
func (s *Server) engine(threshold float64) *analyze.Engine {
	cfg := analyze.Config{
		Threshold:      s.cfg.Similarity.Threshold,
		MaxComparisons: s.cfg.Similarity.MaxComparisons,
		SampleSize:     s.cfg.Similarity.SampleSize,
		MinPhraseLen:   s.cfg.Similarity.MinPhraseLen,
		MaxPhrases:     s.cfg.Similarity.MaxPhrases,
		Logger:         s.log,
	}
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	return analyze.New(cfg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeErr maps store failures onto HTTP statuses.
func (s *Server) storeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonErr(w, http.StatusNotFound, "document not found")
		return
	}
	s.log.Error("store failure", "error", err)
	jsonErr(w, http.StatusInternalServerError, "internal error")
}
