package multidomain

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"

	"github.com/stackdump/multidomain-router/internal/httputil"
)

type staticConfig []Entry

func (c staticConfig) Sites() []Entry { return c }

type fakeSettings struct {
	entries []Entry
	err     error
	calls   int
}

func (s *fakeSettings) Multidomains(context.Context) ([]Entry, error) {
	s.calls++
	return s.entries, s.err
}

type fakePage struct {
	id   string
	html string
}

func (p *fakePage) ID() string   { return p.id }
func (p *fakePage) Slug() string { return path.Base(p.id) }

type fakeRenderContext struct {
	page *fakePage
}

func (rc fakeRenderContext) Page() Page { return rc.page }

// fakeContent is an in-memory ContentRepository. Identifiers are matched
// without their trailing slash, like folder index pages.
type fakeContent struct {
	mu        sync.Mutex
	pages     map[string]*fakePage
	renderErr map[string]error
	visited   []string
	baseURLs  []string
}

func newFakeContent(pages map[string]string) *fakeContent {
	c := &fakeContent{pages: make(map[string]*fakePage), renderErr: make(map[string]error)}
	for id, html := range pages {
		c.pages[id] = &fakePage{id: id, html: html}
	}
	return c
}

func (c *fakeContent) lookup(id string) (*fakePage, bool) {
	p, ok := c.pages[strings.TrimSuffix(id, "/")]
	return p, ok
}

func (c *fakeContent) ResolvePageReference(_ context.Context, ref string) Page {
	if p, ok := c.lookup(ref); ok {
		return p
	}
	return nil
}

func (c *fakeContent) FindPage(_ context.Context, id string) (Page, bool) {
	p, ok := c.lookup(id)
	if !ok {
		return nil, false
	}
	return p, true
}

func (c *fakeContent) Visit(_ context.Context, id string) (RenderContext, error) {
	c.mu.Lock()
	c.visited = append(c.visited, id)
	c.mu.Unlock()

	p, ok := c.lookup(id)
	if !ok {
		return nil, ErrPageNotFound
	}
	return fakeRenderContext{page: p}, nil
}

func (c *fakeContent) Render(ctx context.Context, rc RenderContext) (string, error) {
	p := rc.Page().(*fakePage)

	c.mu.Lock()
	c.baseURLs = append(c.baseURLs, httputil.BaseURLFromContext(ctx, ""))
	c.mu.Unlock()

	if err := c.renderErr[p.id]; err != nil {
		return "", err
	}
	return p.html, nil
}

var errTemplate = errors.New("template exploded")
