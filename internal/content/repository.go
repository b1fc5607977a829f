// Package content serves pages from a directory of markdown files. It is the
// page store and template layer behind the multidomain router.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stackdump/multidomain-router/internal/httputil"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/markdown"
	"github.com/stackdump/multidomain-router/internal/multidomain"
	"github.com/stackdump/multidomain-router/internal/seal"
	"github.com/stackdump/multidomain-router/internal/sitemap"
)

// SettingsFile holds the site settings at the content root.
const SettingsFile = "site.yml"

// Settings is the structure of site.yml.
type Settings struct {
	Title        string              `yaml:"title,omitempty"`
	Multidomains []multidomain.Entry `yaml:"multidomains"`
}

// Repository is a content tree on disk. Page "a/b" is stored as a/b.md or
// a/b/index.md. Nothing is cached: every call reads the files again.
type Repository struct {
	root    string
	baseURL string
	log     logger.Logger
}

var (
	_ multidomain.ContentRepository = (*Repository)(nil)
	_ multidomain.SettingsSource    = (*Repository)(nil)
	_ sitemap.Lister                = (*Repository)(nil)
)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger for skipped pages and template fallbacks.
func WithLogger(l logger.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRepository opens the content tree at root. baseURL is used for page
// URLs when the request context carries none.
func NewRepository(root, baseURL string, opts ...Option) *Repository {
	r := &Repository{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the content directory.
func (r *Repository) Root() string {
	return r.root
}

// Page is a markdown page of the tree.
type Page struct {
	id      string
	file    string
	doc     *markdown.Document
	baseURL string
}

func (p *Page) ID() string          { return p.id }
func (p *Page) Slug() string        { return path.Base(p.id) }
func (p *Page) Title() string       { return p.doc.Frontmatter.Title }
func (p *Page) Description() string { return p.doc.Frontmatter.Description }

// File returns the markdown file the page was read from.
func (p *Page) File() string { return p.file }

// URL is the absolute URL of the page under the request's base URL,
// including any folder prefix.
func (p *Page) URL(ctx context.Context) string {
	return httputil.BaseURLFromContext(ctx, p.baseURL) + "/" + p.id
}

// View is the render context produced by Visit.
type View struct {
	page     *Page
	Parent   *Page
	Children []*Page
}

func (v *View) Page() multidomain.Page { return v.page }

// cleanID normalizes a page id. Empty, hidden and traversing segments
// are rejected.
func cleanID(id string) (string, bool) {
	id = strings.Trim(id, "/")
	if id == "" {
		return "", false
	}
	for _, seg := range strings.Split(id, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "_") || strings.ContainsRune(seg, '\\') {
			return "", false
		}
	}
	return id, true
}

func (r *Repository) load(ctx context.Context, id string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, ok := cleanID(id)
	if !ok {
		return nil, multidomain.ErrPageNotFound
	}

	base := filepath.Join(r.root, filepath.FromSlash(clean))
	for _, file := range []string{base + ".md", filepath.Join(base, "index.md")} {
		doc, err := markdown.ParseDocument(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", clean, err)
		}
		if doc.Frontmatter.Draft {
			return nil, multidomain.ErrPageNotFound
		}
		return &Page{id: clean, file: file, doc: doc, baseURL: r.baseURL}, nil
	}
	return nil, multidomain.ErrPageNotFound
}

// FindPage reports whether id is a published page. A page that fails to
// parse is reported as missing here; Visit returns the parse error.
func (r *Repository) FindPage(ctx context.Context, id string) (multidomain.Page, bool) {
	p, err := r.load(ctx, id)
	if err != nil {
		return nil, false
	}
	return p, true
}

// ResolvePageReference resolves an error page reference from configuration.
func (r *Repository) ResolvePageReference(ctx context.Context, ref string) multidomain.Page {
	if ref == "" {
		return nil
	}
	p, err := r.load(ctx, ref)
	if err != nil {
		return nil
	}
	return p
}

// Visit loads a page together with its navigation.
func (r *Repository) Visit(ctx context.Context, id string) (multidomain.RenderContext, error) {
	p, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	v := &View{page: p, Children: r.children(ctx, p)}
	if parent := path.Dir(p.id); parent != "." {
		if pp, err := r.load(ctx, parent); err == nil {
			v.Parent = pp
		}
	}
	return v, nil
}

func (r *Repository) children(ctx context.Context, p *Page) []*Page {
	entries, err := os.ReadDir(filepath.Join(r.root, filepath.FromSlash(p.id)))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []*Page
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
		case strings.HasSuffix(name, ".md") && name != "index.md":
			name = strings.TrimSuffix(name, ".md")
		default:
			continue
		}

		id := p.id + "/" + name
		if seen[id] {
			continue
		}
		seen[id] = true

		child, err := r.load(ctx, id)
		if err != nil {
			if !errors.Is(err, multidomain.ErrPageNotFound) {
				r.log.LogError("skipping child page", err)
			}
			continue
		}
		out = append(out, child)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// ListPages walks the tree below folder and returns every published page.
// Hidden and template directories are skipped like in page ids.
func (r *Repository) ListPages(ctx context.Context, folder string) ([]sitemap.Page, error) {
	start := r.root
	if folder != "" {
		clean, ok := cleanID(folder)
		if !ok {
			return nil, nil
		}
		start = filepath.Join(r.root, filepath.FromSlash(clean))
	}

	seen := make(map[string]bool)
	var out []sitemap.Page
	err := filepath.WalkDir(start, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if file != start && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".md") {
			return nil
		}

		rel, err := filepath.Rel(r.root, file)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(filepath.ToSlash(rel), ".md")
		if id == "index" {
			return nil
		}
		id = strings.TrimSuffix(id, "/index")
		if seen[id] {
			return nil
		}
		seen[id] = true

		p, err := r.load(ctx, id)
		if err != nil {
			if !errors.Is(err, multidomain.ErrPageNotFound) {
				r.log.LogError("skipping page", err)
			}
			return nil
		}
		info, err := os.Stat(p.file)
		if err != nil {
			return nil
		}
		out = append(out, sitemap.Page{ID: p.id, LastMod: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	// folder.md sits next to the folder
	if folder != "" && !seen[strings.Trim(folder, "/")] {
		if p, err := r.load(ctx, folder); err == nil {
			if info, err := os.Stat(p.file); err == nil {
				out = append(out, sitemap.Page{ID: p.id, LastMod: info.ModTime()})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// JSONLD describes the page as a schema.org WebPage stamped with the CID of
// its canonical form.
func (p *Page) JSONLD(ctx context.Context) (map[string]interface{}, error) {
	doc := p.doc.ToJSONLD(p.URL(ctx))
	if _, err := seal.Stamp(doc); err != nil {
		return nil, fmt.Errorf("failed to seal %q: %w", p.id, err)
	}
	return doc, nil
}

// Render executes the page's layout.
func (r *Repository) Render(ctx context.Context, rc multidomain.RenderContext) (string, error) {
	v, ok := rc.(*View)
	if !ok {
		return "", fmt.Errorf("unsupported render context %T", rc)
	}
	p := v.page
	fm := p.doc.Frontmatter

	jsonld, err := p.JSONLD(ctx)
	if err != nil {
		return "", err
	}
	ldJSON, err := json.Marshal(jsonld)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON-LD: %w", err)
	}

	data := pageData{
		Lang:        fm.Lang,
		Title:       fm.Title,
		Description: fm.Description,
		URL:         p.URL(ctx),
		Body:        template.HTML(p.doc.HTML),
		JSONLD:      template.JS(ldJSON),
	}
	if data.Lang == "" {
		data.Lang = "en"
	}
	if v.Parent != nil {
		data.Parent = &link{Title: v.Parent.Title(), URL: v.Parent.URL(ctx)}
	}
	for _, c := range v.Children {
		data.Children = append(data.Children, link{Title: c.Title(), URL: c.URL(ctx)})
	}

	tmpl, err := r.layout(fm.Template)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %q: %w", p.id, err)
	}
	return buf.String(), nil
}

// Multidomains reads the multidomain list from site.yml. A missing file
// means no entries.
func (r *Repository) Multidomains(ctx context.Context) ([]multidomain.Entry, error) {
	s, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return s.Multidomains, nil
}

// Settings reads site.yml.
func (r *Repository) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	if err := ctx.Err(); err != nil {
		return s, err
	}

	data, err := os.ReadFile(filepath.Join(r.root, SettingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read site settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse site settings: %w", err)
	}
	return s, nil
}
