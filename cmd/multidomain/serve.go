package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/stackdump/multidomain-router/internal/admin"
	"github.com/stackdump/multidomain-router/internal/auth"
	"github.com/stackdump/multidomain-router/internal/config"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/sitemap"
)

type serveOptions struct {
	addr       string
	contentDir string
	logFormat  string
	watch      bool
}

func serveCmd(opts *rootOptions) *cobra.Command {
	so := &serveOptions{}

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve every mapped domain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := so.apply(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := ""
			if so.watch {
				path = opts.configPath
			}
			return serve(ctx, cfg, path)
		},
	}

	c.Flags().StringVar(&so.addr, "addr", "", "listen address (overrides server.addr)")
	c.Flags().StringVar(&so.contentDir, "content", "", "content directory (overrides content.dir)")
	c.Flags().StringVar(&so.logFormat, "log-format", "", "log format: text or jsonl (overrides log.format)")
	c.Flags().BoolVar(&so.watch, "watch", false, "reload the multidomain section when the config file changes")
	return c
}

func (so *serveOptions) apply(cfg *config.Config) error {
	if so.addr != "" {
		cfg.Server.Addr = so.addr
	}
	if so.contentDir != "" {
		cfg.Content.Dir = so.contentDir
	}
	if so.logFormat != "" {
		cfg.Log.Format = so.logFormat
	}
	return cfg.Validate()
}

// newMainHandler puts the request logging in front of the router. Every path
// on every host except /sitemap.xml goes to the router.
func newMainHandler(router http.Handler, sitemaps http.Handler, log logger.Logger, logHeaders bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.LoggingMiddleware(log, logHeaders))
	r.Handle("/sitemap.xml", sitemaps)
	r.Handle("/*", router)
	return r
}

// serve runs the public server, and the admin server when configured, until
// ctx is done. A non-empty watchPath reloads the config from that file.
func serve(ctx context.Context, cfg *config.Config, watchPath string) error {
	log, err := logger.New(cfg.Log.Logger())
	if err != nil {
		return err
	}

	info, err := os.Stat(cfg.Content.Dir)
	if err != nil {
		return fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content directory: %s is not a directory", cfg.Content.Dir)
	}

	provider := config.NewProvider(cfg)
	router, repo := newRouter(cfg, provider, log)
	sitemaps := sitemap.Handler(router, repo, cfg.Server.TrustProxy, log)

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr,
		Handler:      newMainHandler(router, sitemaps, log, cfg.Log.Headers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}
	if cfg.Admin.Addr != "" {
		servers = append(servers, &http.Server{
			Addr:         cfg.Admin.Addr,
			Handler:      admin.NewHandler(router, auth.NewVerifier(cfg.Admin.JWTSecret), log),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watchPath != "" {
		go func() {
			if err := config.Watch(ctx, watchPath, provider, log, cfg.Reload); err != nil {
				log.LogError("config watcher stopped", err)
			}
		}()
	}

	log.LogInfo(fmt.Sprintf("serving %s from %s (base URL %s, %d configured sites)",
		cfg.Server.Addr, cfg.Content.Dir, cfg.Content.BaseURL, len(cfg.Multidomain.Sites)))

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.LogInfo("listening on " + srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.LogInfo("shutting down")
	case runErr = <-errc:
		log.LogError("server failed", runErr)
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.LogError("shutdown "+srv.Addr, err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	return runErr
}
