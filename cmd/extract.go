package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/news-article-crawler/internal/extract"
)

// newExtractCmd runs the article extractor over a saved page.
func newExtractCmd() *cobra.Command {
	var pageURL string
	cmd := &cobra.Command{
		Use:   "extract <file.html>",
		Short: "Extracts an article record from a local HTML file",
		Long: `Runs the article extractor over a saved page and prints the resulting
record as indented JSON. Nothing is fetched or stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read page: %w", err)
			}
			record := extract.New(rt.logger).Extract(pageURL, body)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "URL the page was fetched from; resolves relative image sources")
	return cmd
}
