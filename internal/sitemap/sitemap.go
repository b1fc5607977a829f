// Package sitemap serves a sitemap.xml per domain. A mapped domain lists the
// pages of its folder under its own URL; any other host lists the pages
// outside every mapped folder.
package sitemap

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/stackdump/multidomain-router/internal/httputil"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URLSet represents a sitemap URL set (sitemap protocol)
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL represents a single URL entry in a sitemap
type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

// Page is a published page as listed by a Lister.
type Page struct {
	ID      string
	LastMod time.Time
}

// Lister lists the published pages below folder, or all pages when folder
// is empty, sorted by id.
type Lister interface {
	ListPages(ctx context.Context, folder string) ([]Page, error)
}

// RegistrySource provides the registry of the current request.
type RegistrySource interface {
	Registry(ctx context.Context) multidomain.Registry
}

// Generate renders urls as a sitemap document with XML header.
func Generate(urls []URL) ([]byte, error) {
	output, err := xml.MarshalIndent(&URLSet{Xmlns: Namespace, URLs: urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	result := []byte(xml.Header)
	result = append(result, output...)
	return result, nil
}

// Build lists the URLs visible on host. Pages of a mapped folder are
// addressed through the mapping's domain without the folder; on other hosts
// they are left out because they would only redirect.
func Build(host, baseURL string, reg multidomain.Registry, pages []Page) []URL {
	d := multidomain.Classify(host, "", reg)

	var urls []URL
	for _, p := range pages {
		var loc string
		switch d.Kind {
		case multidomain.KindInternal:
			m := d.Mapping
			if p.ID == m.ErrorIdentifier() {
				continue
			}
			rel, ok := strings.CutPrefix(p.ID, m.Folder)
			if !ok || (rel != "" && !strings.HasPrefix(rel, "/")) {
				continue
			}
			loc = m.Domain + rel
			if rel == "" {
				loc += "/"
			}
		default:
			if p.ID == "error" || mapped(reg, p.ID) {
				continue
			}
			loc = baseURL + "/" + p.ID
			if p.ID == "home" {
				loc = baseURL + "/"
			}
		}

		u := URL{Loc: loc, ChangeFreq: "weekly", Priority: 0.8}
		if strings.HasSuffix(loc, "/") {
			u.Priority = 1.0
		}
		if !p.LastMod.IsZero() {
			u.LastMod = p.LastMod.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	return urls
}

func mapped(reg multidomain.Registry, id string) bool {
	first, _, _ := strings.Cut(id, "/")
	for _, m := range reg {
		if m.Folder == first {
			return true
		}
	}
	return false
}

// Handler serves the sitemap of the requesting host.
func Handler(src RegistrySource, pages Lister, trustProxy bool, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		host := httputil.RequestHost(r, trustProxy)
		reg := src.Registry(ctx)

		folder := ""
		if d := multidomain.Classify(host, "", reg); d.Kind == multidomain.KindInternal {
			folder = d.Folder
		}

		list, err := pages.ListPages(ctx, folder)
		if err != nil {
			log.LogError("failed to list pages for sitemap", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := Generate(Build(host, httputil.GetBaseURL(r, trustProxy, ""), reg, list))
		if err != nil {
			log.LogError("failed to generate sitemap", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.Write(data)
	})
}
