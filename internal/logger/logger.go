package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RequestIDHeader carries the request id in and out of the server.
const RequestIDHeader = "X-Request-ID"

// Logger interface for flexible logging
type Logger interface {
	LogRequest(r *http.Request, status int, duration time.Duration)
	LogRoute(r *http.Request, host, kind, target string)
	LogError(msg string, err error)
	LogInfo(msg string)
	LogHeaders(r *http.Request)
}

// Config selects the log format and destination.
type Config struct {
	Format     string // "text" or "jsonl"
	File       string // empty means stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewWriter returns stdout, or a size rotated file when cfg.File is set.
func NewWriter(cfg Config) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// New builds the logger described by cfg.
func New(cfg Config) (Logger, error) {
	w := NewWriter(cfg)
	switch cfg.Format {
	case "", "text":
		return NewTextLogger(w), nil
	case "jsonl", "json":
		return NewJSONLLogger(w), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// TextLogger logs in traditional text format
type TextLogger struct {
	logger *log.Logger
}

// JSONLLogger logs in JSON Lines format
type JSONLLogger struct {
	writer io.Writer
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) LogRequest(*http.Request, int, time.Duration)   {}
func (NopLogger) LogRoute(*http.Request, string, string, string) {}
func (NopLogger) LogError(string, error)                         {}
func (NopLogger) LogInfo(string)                                 {}
func (NopLogger) LogHeaders(*http.Request)                       {}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	RequestID string                 `json:"requestId,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Host      string                 `json:"host,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Status    int                    `json:"status,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Route     string                 `json:"route,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Headers   map[string]interface{} `json:"headers,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// NewTextLogger creates a text logger writing to w (stdout when nil).
func NewTextLogger(w io.Writer) *TextLogger {
	if w == nil {
		w = os.Stdout
	}
	return &TextLogger{
		logger: log.New(w, "", log.LstdFlags),
	}
}

// NewJSONLLogger creates a new JSONL logger
func NewJSONLLogger(w io.Writer) *JSONLLogger {
	if w == nil {
		w = os.Stdout
	}
	return &JSONLLogger{
		writer: w,
	}
}

// LogRequest logs an HTTP request with text format
func (l *TextLogger) LogRequest(r *http.Request, status int, duration time.Duration) {
	l.logger.Printf("%s %s%s - %d - %v [%s]", r.Method, r.Host, r.URL.Path, status, duration, RequestID(r.Context()))
}

// LogRoute logs the routing decision taken for a request. host is the host
// the decision was made on, which differs from r.Host behind a proxy.
func (l *TextLogger) LogRoute(r *http.Request, host, kind, target string) {
	l.logger.Printf("ROUTE: %s%s -> %s %s", host, r.URL.Path, kind, target)
}

// LogError logs an error with text format
func (l *TextLogger) LogError(msg string, err error) {
	l.logger.Printf("ERROR: %s: %v", msg, err)
}

// LogInfo logs an informational message with text format
func (l *TextLogger) LogInfo(msg string) {
	l.logger.Printf("INFO: %s", msg)
}

// LogHeaders logs request headers with text format
func (l *TextLogger) LogHeaders(r *http.Request) {
	l.logger.Printf("Headers for %s %s:", r.Method, r.URL.Path)
	for name, values := range r.Header {
		for _, value := range values {
			l.logger.Printf("  %s: %s", name, value)
		}
	}
}

// LogRequest logs an HTTP request with JSONL format
func (l *JSONLLogger) LogRequest(r *http.Request, status int, duration time.Duration) {
	l.writeEntry(LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     "info",
		RequestID: RequestID(r.Context()),
		Method:    r.Method,
		Host:      r.Host,
		Path:      r.URL.Path,
		Status:    status,
		Duration:  duration.String(),
	})
}

// LogRoute logs the routing decision with JSONL format
func (l *JSONLLogger) LogRoute(r *http.Request, host, kind, target string) {
	l.writeEntry(LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     "debug",
		RequestID: RequestID(r.Context()),
		Host:      host,
		Path:      r.URL.Path,
		Route:     kind,
		Target:    target,
	})
}

// LogError logs an error with JSONL format
func (l *JSONLLogger) LogError(msg string, err error) {
	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     "error",
		Message:   msg,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.writeEntry(entry)
}

// LogInfo logs an informational message with JSONL format
func (l *JSONLLogger) LogInfo(msg string) {
	l.writeEntry(LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     "info",
		Message:   msg,
	})
}

// LogHeaders logs request headers with JSONL format
func (l *JSONLLogger) LogHeaders(r *http.Request) {
	headers := make(map[string]interface{})
	for name, values := range r.Header {
		if len(values) == 1 {
			headers[name] = values[0]
		} else {
			headers[name] = values
		}
	}
	l.writeEntry(LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     "debug",
		RequestID: RequestID(r.Context()),
		Message:   fmt.Sprintf("Headers for %s %s", r.Method, r.URL.Path),
		Method:    r.Method,
		Path:      r.URL.Path,
		Headers:   headers,
	})
}

// writeEntry writes a log entry as JSON
func (l *JSONLLogger) writeEntry(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal log entry: %v\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

type requestIDKey struct{}

// RequestID returns the id assigned by LoggingMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware creates a middleware that assigns a request id and logs
// every request once the next handler returns.
func LoggingMiddleware(logger Logger, logHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			if logHeaders {
				logger.LogHeaders(r)
			}

			// Wrap the response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.LogRequest(r, wrapped.statusCode, time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
