package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stackdump/multidomain-router/internal/auth"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

const testSecret = "admin-test-secret"

type staticSites []multidomain.Entry

func (s staticSites) Sites() []multidomain.Entry { return s }

func newTestHandler(t *testing.T) (http.Handler, string) {
	t.Helper()
	sites := staticSites{
		{Folder: "alpha", Domain: "https://alpha.example"},
		{Folder: "alphabet", Domain: "https://alphabet.example/"},
	}
	router := multidomain.NewRouter(sites, nil, nil)

	token, err := auth.Mint(testSecret, "ops", time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	return NewHandler(router, auth.NewVerifier(testSecret), nil), token
}

func get(h http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := get(h, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, target := range []string{"/registry", "/explain?host=alpha.example"} {
		if rr := get(h, target, ""); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusUnauthorized, rr.Code)
		}
		if rr := get(h, target, "forged"); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status %d for bad token, got %d", target, http.StatusUnauthorized, rr.Code)
		}
	}
}

func TestRegistry(t *testing.T) {
	h, token := newTestHandler(t)

	rr := get(h, "/registry", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var resp RegistryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Mappings) != 2 {
		t.Fatalf("Expected 2 mappings, got %d", len(resp.Mappings))
	}
	first := resp.Mappings[0]
	if first.Folder != "alpha" || first.Source != multidomain.SourceConfig || first.ErrorIdentifier != "alpha/error" {
		t.Errorf("Unexpected first mapping %+v", first)
	}

	var messages []string
	for _, p := range resp.Problems {
		messages = append(messages, p.String())
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "must not end with a slash") || !strings.Contains(joined, "rewritten twice") {
		t.Errorf("Expected trailing slash and overlap problems, got:\n%s", joined)
	}
}

func TestExplain(t *testing.T) {
	h, token := newTestHandler(t)

	tests := []struct {
		target string
		want   string
	}{
		{"/explain?host=alpha.example&path=/foo", `{"kind":"internal","identifier":"alpha/foo","folder":"alpha"}`},
		{"/explain?host=cms.example&path=alpha/foo/", `{"kind":"redirect","location":"https://alpha.example/foo","folder":"alpha"}`},
		{"/explain?host=cms.example", `{"kind":"default","identifier":"home"}`},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := get(h, tt.target, token)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExplain_MissingHost(t *testing.T) {
	h, token := newTestHandler(t)
	rr := get(h, "/explain?path=foo", token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

type panicInspector struct{}

func (panicInspector) Registry(context.Context) multidomain.Registry { panic("boom") }
func (panicInspector) Explain(context.Context, string, string) multidomain.Decision {
	return multidomain.Decision{}
}

func TestRecoverer(t *testing.T) {
	token, _ := auth.Mint(testSecret, "ops", time.Hour)
	h := NewHandler(panicInspector{}, auth.NewVerifier(testSecret), nil)

	rr := get(h, "/registry", token)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}
