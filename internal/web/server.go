// Package web exposes the edit session state machine over HTTP and serves
// the single page that drives it.
package web

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/retouchlab/retouch"
	"github.com/retouchlab/retouch/ratelimiter"
)

//go:embed static/index.html
var indexHTML []byte

// Options configures the server. Editor is required; everything else has a
// usable zero value.
type Options struct {
	Editor     retouch.ImageEditor
	Logger     zerolog.Logger
	Limiter    ratelimiter.Limiter
	Storage    retouch.Storage
	EditConfig *retouch.EditConfig
}

// Server owns the session store and the HTTP surface.
type Server struct {
	editor retouch.ImageEditor
	store  *SessionStore
	logger zerolog.Logger
}

// NewServer wires a server around an injected editor.
func NewServer(opts Options) *Server {
	sessionOpts := []retouch.SessionOption{
		retouch.WithLogger(opts.Logger),
	}
	if opts.Limiter != nil {
		sessionOpts = append(sessionOpts, retouch.WithLimiter(opts.Limiter))
	}
	if opts.Storage != nil {
		sessionOpts = append(sessionOpts, retouch.WithStorage(opts.Storage))
	}
	if opts.EditConfig != nil {
		sessionOpts = append(sessionOpts, retouch.WithEditConfig(opts.EditConfig))
	}

	editor := opts.Editor
	return &Server{
		editor: editor,
		logger: opts.Logger,
		store: NewSessionStore(func() *retouch.Session {
			return retouch.NewSession(editor, sessionOpts...)
		}),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, RequestID, Logger(s.logger), chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/image", s.handleUpload)
				r.Post("/edits", s.handleGenerate)
				r.Post("/result/save", s.handleSaveResult)
			})
		})
	})

	r.Get("/", s.handleIndex)

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
