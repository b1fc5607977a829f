// Package admin serves a read-only view of the routing state.
package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stackdump/multidomain-router/internal/auth"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

// Inspector is the part of the router the admin API reads.
type Inspector interface {
	Registry(ctx context.Context) multidomain.Registry
	Explain(ctx context.Context, host, path string) multidomain.Decision
}

// Mapping is the JSON form of a registry entry.
type Mapping struct {
	Folder          string `json:"folder"`
	Domain          string `json:"domain"`
	ErrorPage       string `json:"errorPage,omitempty"`
	ErrorIdentifier string `json:"errorIdentifier"`
	Source          string `json:"source"`
}

// RegistryResponse is returned by GET /registry.
type RegistryResponse struct {
	Mappings []Mapping            `json:"mappings"`
	Problems []multidomain.Problem `json:"problems,omitempty"`
}

type server struct {
	inspector Inspector
	log       logger.Logger
}

// NewHandler returns the admin routes. Everything except /healthz requires
// a bearer token accepted by verifier.
func NewHandler(inspector Inspector, verifier *auth.Verifier, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &server{inspector: inspector, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		r.Get("/registry", s.handleRegistry)
		r.Get("/explain", s.handleExplain)
	})

	return r
}

func (s *server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	reg := s.inspector.Registry(r.Context())

	resp := RegistryResponse{Mappings: make([]Mapping, 0, len(reg))}
	entries := make([]multidomain.Entry, 0, len(reg))
	for _, m := range reg {
		out := Mapping{
			Folder:          m.Folder,
			Domain:          m.Domain,
			ErrorIdentifier: m.ErrorIdentifier(),
			Source:          m.Source,
		}
		if m.ErrorPage != nil {
			out.ErrorPage = m.ErrorPage.ID()
		}
		resp.Mappings = append(resp.Mappings, out)
		entries = append(entries, multidomain.Entry{Folder: m.Folder, Domain: m.Domain})
	}
	resp.Problems = multidomain.Validate(entries)

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleExplain(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	if host == "" {
		writeError(w, http.StatusBadRequest, "host is required")
		return
	}
	path := r.URL.Query().Get("path")

	d := s.inspector.Explain(r.Context(), host, path)
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		s.log.LogInfo("explain " + host + "/" + path + " for " + claims.Subject + ": " + d.Kind.String())
	}
	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
