package httputil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// getProxyProtocol detects the protocol from various proxy headers
// Returns the protocol (http/https) or empty string if not detected
func getProxyProtocol(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(proto)
	}

	if scheme := r.Header.Get("X-Forwarded-Scheme"); scheme != "" {
		return strings.ToLower(scheme)
	}

	if ssl := r.Header.Get("X-Forwarded-Ssl"); ssl == "on" {
		return "https"
	}

	// RFC 7239: Forwarded: proto=https;host=example.com
	if proto := forwardedParam(r, "proto"); proto != "" {
		return strings.ToLower(proto)
	}

	return ""
}

// forwardedParam returns a parameter of the first element of the Forwarded header.
func forwardedParam(r *http.Request, name string) string {
	forwarded := r.Header.Get("Forwarded")
	if forwarded == "" {
		return ""
	}
	first, _, _ := strings.Cut(forwarded, ",")
	for _, part := range strings.Split(first, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(key, name) {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}

// RequestHost returns the host the client asked for. Behind a trusted proxy
// X-Forwarded-Host (then the Forwarded host parameter) wins over Host.
// The port, if any, is kept.
func RequestHost(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if host := r.Header.Get("X-Forwarded-Host"); host != "" {
			first, _, _ := strings.Cut(host, ",")
			return strings.TrimSpace(first)
		}
		if host := forwardedParam(r, "host"); host != "" {
			return host
		}
	}
	return r.Host
}

// RequestScheme returns "https" or "http" for the request as the client sent it.
func RequestScheme(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if proto := getProxyProtocol(r); proto != "" {
			return proto
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// GetBaseURL builds scheme://host for the request, or returns fallbackURL
// when the request carries no host at all.
func GetBaseURL(r *http.Request, trustProxy bool, fallbackURL string) string {
	host := RequestHost(r, trustProxy)
	if host == "" {
		return fallbackURL
	}
	return fmt.Sprintf("%s://%s", RequestScheme(r, trustProxy), host)
}

type baseURLKey struct{}

// WithBaseURL stores the base URL of the current request in ctx.
func WithBaseURL(ctx context.Context, baseURL string) context.Context {
	return context.WithValue(ctx, baseURLKey{}, baseURL)
}

// BaseURLFromContext returns the base URL stored by WithBaseURL, or fallback.
func BaseURLFromContext(ctx context.Context, fallback string) string {
	if u, ok := ctx.Value(baseURLKey{}).(string); ok && u != "" {
		return u
	}
	return fallback
}
