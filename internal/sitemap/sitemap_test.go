package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stackdump/multidomain-router/internal/multidomain"
)

var testRegistry = multidomain.Registry{
	{Folder: "alpha", Domain: "https://alpha.example"},
	{Folder: "beta", Domain: "https://beta.example"},
}

var testPages = []Page{
	{ID: "about"},
	{ID: "alpha", LastMod: time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)},
	{ID: "alpha/error"},
	{ID: "alpha/foo"},
	{ID: "alphabet/x"},
	{ID: "beta/x"},
	{ID: "error"},
	{ID: "home"},
}

func locs(urls []URL) []string {
	var out []string
	for _, u := range urls {
		out = append(out, u.Loc)
	}
	return out
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		host string
		want []string
	}{
		{
			name: "mapped domain",
			host: "alpha.example",
			want: []string{"https://alpha.example/", "https://alpha.example/foo"},
		},
		{
			name: "mapped domain with port",
			host: "www.beta.example:8443",
			want: []string{"https://beta.example/x"},
		},
		{
			name: "unmapped host",
			host: "cms.example",
			want: []string{"https://cms.example/about", "https://cms.example/alphabet/x", "https://cms.example/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := locs(Build(tt.host, "https://cms.example", testRegistry, testPages))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBuild_Entries(t *testing.T) {
	urls := Build("alpha.example", "", testRegistry, testPages)
	if len(urls) != 2 {
		t.Fatalf("Expected 2 urls, got %d", len(urls))
	}
	root := urls[0]
	if root.Priority != 1.0 || root.LastMod != "2025-01-02" || root.ChangeFreq != "weekly" {
		t.Errorf("Unexpected folder root entry %+v", root)
	}
	if urls[1].Priority != 0.8 || urls[1].LastMod != "" {
		t.Errorf("Unexpected page entry %+v", urls[1])
	}
}

func TestBuild_EmptyRegistry(t *testing.T) {
	got := locs(Build("alpha.example", "http://localhost:8080", nil, []Page{{ID: "home"}, {ID: "alpha/foo"}}))
	want := []string{"http://localhost:8080/", "http://localhost:8080/alpha/foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestGenerate(t *testing.T) {
	data, err := Generate([]URL{{Loc: "https://alpha.example/", Priority: 1.0}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Error("Sitemap should include XML header")
	}

	var urlset URLSet
	if err := xml.Unmarshal(data, &urlset); err != nil {
		t.Fatalf("Failed to parse sitemap XML: %v", err)
	}
	if urlset.Xmlns != Namespace {
		t.Errorf("Expected xmlns %s, got %s", Namespace, urlset.Xmlns)
	}
	if len(urlset.URLs) != 1 || urlset.URLs[0].Loc != "https://alpha.example/" {
		t.Errorf("Unexpected urls %+v", urlset.URLs)
	}
}

func TestGenerate_Empty(t *testing.T) {
	data, err := Generate(nil)
	if err != nil {
		t.Fatalf("Generate failed with no urls: %v", err)
	}
	var urlset URLSet
	if err := xml.Unmarshal(data, &urlset); err != nil {
		t.Fatalf("Failed to parse sitemap XML: %v", err)
	}
	if len(urlset.URLs) != 0 {
		t.Errorf("Expected no urls, got %d", len(urlset.URLs))
	}
}

type staticRegistry multidomain.Registry

func (s staticRegistry) Registry(context.Context) multidomain.Registry { return multidomain.Registry(s) }

type fakeLister struct {
	folders []string
	err     error
}

func (f *fakeLister) ListPages(_ context.Context, folder string) ([]Page, error) {
	f.folders = append(f.folders, folder)
	return testPages, f.err
}

func TestHandler(t *testing.T) {
	lister := &fakeLister{}
	h := Handler(staticRegistry(testRegistry), lister, false, nil)

	for _, host := range []string{"alpha.example", "cms.example"} {
		req := httptest.NewRequest("GET", "/sitemap.xml", nil)
		req.Host = host
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", host, http.StatusOK, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
			t.Errorf("%s: expected XML content type, got %q", host, ct)
		}
	}

	if want := []string{"alpha", ""}; !reflect.DeepEqual(lister.folders, want) {
		t.Errorf("Expected listed folders %q, got %q", want, lister.folders)
	}
}

func TestHandler_TrustProxy(t *testing.T) {
	h := Handler(staticRegistry(testRegistry), &fakeLister{}, true, nil)

	req := httptest.NewRequest("GET", "/sitemap.xml", nil)
	req.Host = "127.0.0.1:8080"
	req.Header.Set("X-Forwarded-Host", "cms.example")
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !strings.Contains(rr.Body.String(), "<loc>https://cms.example/about</loc>") {
		t.Errorf("Expected forwarded base URL, got:\n%s", rr.Body.String())
	}
}

func TestHandler_ListError(t *testing.T) {
	h := Handler(staticRegistry(testRegistry), &fakeLister{err: errors.New("disk gone")}, false, nil)

	req := httptest.NewRequest("GET", "/sitemap.xml", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}
