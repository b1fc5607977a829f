package multidomain

import (
	"context"
	"errors"
)

// ErrPageNotFound is returned by a ContentRepository when an identifier does
// not resolve to a page.
var ErrPageNotFound = errors.New("page not found")

// Page is the part of a content page the router needs.
type Page interface {
	ID() string
	Slug() string
}

// RenderContext is produced by ContentRepository.Visit and consumed by
// ContentRepository.Render.
type RenderContext interface {
	Page() Page
}

// ContentRepository finds and renders pages. It is the storage and template
// layer of the installation; the router only decides what to ask it for.
type ContentRepository interface {
	PageResolver

	// FindPage looks up a page by its content identifier, e.g. "alpha/foo".
	FindPage(ctx context.Context, id string) (Page, bool)

	// Visit prepares a page for rendering. Missing pages yield ErrPageNotFound.
	Visit(ctx context.Context, idOrPath string) (RenderContext, error)

	// Render returns the full HTML document for a visited page.
	Render(ctx context.Context, rc RenderContext) (string, error)
}

// PageResolver resolves the error page references found in configuration.
// It returns nil when the reference is empty or unresolved.
type PageResolver interface {
	ResolvePageReference(ctx context.Context, ref string) Page
}

// Entry is one raw mapping record as written in a configuration source.
// Folder and Domain are empty when the record omits them.
type Entry struct {
	Folder string `yaml:"folder" json:"folder"`
	Domain string `yaml:"domain" json:"domain"`
	Error  string `yaml:"error,omitempty" json:"error,omitempty"`
}

// ConfigProvider is the primary mapping source: the static deploy time
// configuration.
type ConfigProvider interface {
	Sites() []Entry
}

// SettingsSource is the secondary mapping source: the structured multidomain
// list maintained in the site settings.
type SettingsSource interface {
	Multidomains(ctx context.Context) ([]Entry, error)
}
