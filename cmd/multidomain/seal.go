package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackdump/multidomain-router/internal/content"
	"github.com/stackdump/multidomain-router/internal/httputil"
	"github.com/stackdump/multidomain-router/internal/logger"
)

func sealCmd(opts *rootOptions) *cobra.Command {
	var (
		baseURL string
		asJSON  bool
	)

	c := &cobra.Command{
		Use:   "seal <page-id>...",
		Short: "Print the content identifier embedded in a page's JSON-LD",
		Long: `Seal computes the CID that Render stamps into a page's JSON-LD.
Page URLs are part of the sealed document, so the CID depends on the base URL
the page is served under. It defaults to content.base_url.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			repo := content.NewRepository(cfg.Content.Dir, cfg.Content.BaseURL, content.WithLogger(logger.NopLogger{}))

			ctx := cmd.Context()
			if baseURL != "" {
				ctx = httputil.WithBaseURL(ctx, baseURL)
			}

			out := cmd.OutOrStdout()
			for _, id := range args {
				page, ok := repo.FindPage(ctx, id)
				if !ok {
					return fmt.Errorf("page %q not found", id)
				}
				doc, err := page.(*content.Page).JSONLD(ctx)
				if err != nil {
					return err
				}

				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(doc); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s  %s\n", doc["identifier"], page.ID())
			}
			return nil
		},
	}

	c.Flags().StringVar(&baseURL, "base-url", "", "base URL the pages are served under (default content.base_url)")
	c.Flags().BoolVar(&asJSON, "json", false, "print the stamped JSON-LD document")
	return c
}
