package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stackdump/multidomain-router/internal/content"
	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

var errInvalidSites = errors.New("multidomain configuration has errors")

func checkCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	c := &cobra.Command{
		Use:   "check",
		Short: "Validate the multidomain entries of the config file and site settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			repo := content.NewRepository(cfg.Content.Dir, cfg.Content.BaseURL, content.WithLogger(logger.NopLogger{}))
			settings, err := repo.Multidomains(cmd.Context())
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), repo, cfg.Multidomain.Sites, settings, strict)
		},
	}

	c.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return c
}

func runCheck(ctx context.Context, w io.Writer, pages multidomain.PageResolver, configured, settings []multidomain.Entry, strict bool) error {
	failed := false
	report := func(label string, entries []multidomain.Entry) {
		problems := multidomain.Validate(entries)
		problems = append(problems, multidomain.CheckErrorPages(ctx, entries, pages)...)
		fmt.Fprintf(w, "%s: %d entries, %d problems\n", label, len(entries), len(problems))
		for _, p := range problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
		if multidomain.HasErrors(problems) || (strict && len(problems) > 0) {
			failed = true
		}
	}

	report(multidomain.SourceConfig, configured)
	report(multidomain.SourceSettings, settings)

	switch {
	case len(configured) > 0 && len(settings) > 0:
		fmt.Fprintln(w, "the config file wins; site settings entries are ignored")
	case len(configured) == 0 && len(settings) == 0:
		fmt.Fprintln(w, "no mappings: every request uses default content resolution")
	}

	if failed {
		return errInvalidSites
	}
	return nil
}
