package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/entropyd/internal/decay"
	"github.com/lazypower/entropyd/internal/store"
)

// Server is the entropyd HTTP API server.
type Server struct {
	db       *store.DB
	reg      *registry
	decayCfg decay.Config
	router   chi.Router
	version  string
	started  time.Time
}

// New creates a new Server. decayCfg governs how values created through the
// API bind to the kernel device.
func New(db *store.DB, decayCfg decay.Config, version string) *Server {
	s := &Server{
		db:       db,
		reg:      newRegistry(),
		decayCfg: decayCfg,
		version:  version,
		started:  time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close finalizes all live values and stamps them closed in the ledger.
func (s *Server) Close() {
	for _, id := range s.reg.closeAll() {
		s.db.MarkClosed(id)
	}
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/values", s.handleCreateValue)
		r.Get("/values", s.handleListValues)
		r.Get("/values/{valueID}", s.handleReadValue)
		r.Delete("/values/{valueID}", s.handleCloseValue)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}
	open, _ := s.db.CountOpen()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"version":     s.version,
		"uptime":      time.Since(s.started).Seconds(),
		"db":          dbOK,
		"db_path":     s.db.Path,
		"open_values": open,
	})
}
