package multidomain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stackdump/multidomain-router/internal/httputil"
	"github.com/stackdump/multidomain-router/internal/logger"
)

// Router is the catch-all HTTP handler of the installation.
type Router struct {
	config     ConfigProvider
	settings   SettingsSource
	content    ContentRepository
	log        logger.Logger
	trustProxy bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for routing decisions and failures.
func WithLogger(l logger.Logger) Option {
	return func(rt *Router) {
		if l != nil {
			rt.log = l
		}
	}
}

// WithTrustProxy makes the router read the host from X-Forwarded-Host.
func WithTrustProxy(trust bool) Option {
	return func(rt *Router) {
		rt.trustProxy = trust
	}
}

// NewRouter creates a router over the given mapping sources and content.
func NewRouter(cfg ConfigProvider, settings SettingsSource, content ContentRepository, opts ...Option) *Router {
	rt := &Router{
		config:   cfg,
		settings: settings,
		content:  content,
		log:      logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Registry loads the mappings in effect right now.
func (rt *Router) Registry(ctx context.Context) Registry {
	reg, err := Load(ctx, rt.config, rt.settings, rt.content)
	if err != nil {
		rt.log.LogError("failed to read multidomain settings", err)
	}
	return reg
}

// Explain classifies a hypothetical request without serving it.
func (rt *Router) Explain(ctx context.Context, host, path string) Decision {
	return Classify(host, strings.TrimPrefix(path, "/"), rt.Registry(ctx))
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := httputil.RequestHost(r, rt.trustProxy)
	path := strings.TrimPrefix(r.URL.Path, "/")

	ctx := httputil.WithBaseURL(r.Context(), httputil.GetBaseURL(r, rt.trustProxy, ""))
	r = r.WithContext(ctx)

	reg := rt.Registry(ctx)
	d := Classify(host, path, reg)

	switch d.Kind {
	case KindRedirect:
		rt.log.LogRoute(r, host, d.Kind.String(), d.Location)
		w.Header().Set("Location", d.Location)
		w.WriteHeader(http.StatusFound)
	case KindInternal:
		rt.log.LogRoute(r, host, d.Kind.String(), d.Identifier)
		rt.serveInternal(w, r, d, reg)
	default:
		rt.log.LogRoute(r, host, d.Kind.String(), d.Identifier)
		rt.serveDefault(w, r, d.Identifier)
	}
}

// serveInternal renders a page of the mapped folder under the visible URL.
func (rt *Router) serveInternal(w http.ResponseWriter, r *http.Request, d Decision, reg Registry) {
	ctx := r.Context()
	status := http.StatusOK
	id := d.Identifier

	if _, ok := rt.content.FindPage(ctx, id); !ok {
		status = http.StatusNotFound
		id = d.Mapping.ErrorIdentifier()
	}

	html, err := rt.render(ctx, id)
	if err != nil {
		rt.renderFailed(w, id, err)
		return
	}

	writeHTML(w, status, Rewrite(html, d.Mapping.Folder, reg))
}

// serveDefault renders id through plain content resolution. A missing page
// is answered with the top level error page, or a bare 404 without one.
func (rt *Router) serveDefault(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	html, err := rt.render(ctx, id)
	if errors.Is(err, ErrPageNotFound) {
		html, err = rt.render(ctx, "error")
		if err == nil {
			writeHTML(w, http.StatusNotFound, html)
			return
		}
	}
	if err != nil {
		rt.renderFailed(w, id, err)
		return
	}

	writeHTML(w, http.StatusOK, html)
}

func (rt *Router) render(ctx context.Context, id string) (string, error) {
	rc, err := rt.content.Visit(ctx, id)
	if err != nil {
		return "", err
	}
	return rt.content.Render(ctx, rc)
}

func (rt *Router) renderFailed(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, ErrPageNotFound) {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	rt.log.LogError(fmt.Sprintf("failed to render %q", id), err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, html)
}
