package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/stackdump/multidomain-router/internal/config"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

// routeResult is printed by the route command.
type routeResult struct {
	multidomain.Decision
	Source string `json:"source,omitempty"`
	Exists *bool  `json:"exists,omitempty"`
}

func routeCmd(opts *rootOptions) *cobra.Command {
	var host, path string

	c := &cobra.Command{
		Use:   "route",
		Short: "Show how a request would be routed",
		Example: `  multidomain route --host alpha.example --path /about
  multidomain route --host cms.example --path alpha/about`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			router, repo := newRouter(cfg, config.NewProvider(cfg), logger.NopLogger{})

			ctx := cmd.Context()
			res := routeResult{Decision: router.Explain(ctx, host, path)}
			if m := res.Mapping; m != nil {
				res.Source = m.Source
			}
			if res.Kind != multidomain.KindRedirect {
				_, ok := repo.FindPage(ctx, res.Identifier)
				res.Exists = &ok
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	c.Flags().StringVar(&host, "host", "", "request host, optionally with port")
	c.Flags().StringVarP(&path, "path", "p", "", "request path")
	_ = c.MarkFlagRequired("host")
	return c
}
