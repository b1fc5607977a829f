package main

import (
	"github.com/spf13/cobra"

	"github.com/stackdump/multidomain-router/internal/config"
	"github.com/stackdump/multidomain-router/internal/content"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "multidomain",
		Short:        "Serve several domains from folders of one content tree",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "deploy configuration file")

	cmd.AddCommand(
		serveCmd(opts),
		checkCmd(opts),
		routeCmd(opts),
		sealCmd(opts),
		tokenCmd(),
	)
	return cmd
}

// newRouter wires the router the same way for every command.
func newRouter(cfg *config.Config, provider *config.Provider, log logger.Logger) (*multidomain.Router, *content.Repository) {
	repo := content.NewRepository(cfg.Content.Dir, cfg.Content.BaseURL, content.WithLogger(log))
	router := multidomain.NewRouter(provider, repo, repo,
		multidomain.WithLogger(log),
		multidomain.WithTrustProxy(cfg.Server.TrustProxy),
	)
	return router, repo
}
