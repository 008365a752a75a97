package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bodhibot/bodhibot-go/internal/client"
)

var suggestCategory string

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List quick-reply suggestions from the server",
	Long: `List quick-reply options. Without --category the catalog's top-level
categories are shown; with it, that category's preset questions.

Examples:
  bodhibot suggest
  bodhibot suggest --category 修行方法`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestCategory, "category", "c", "", "drill into one category")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	c := client.New(serverURL)
	options, err := c.Suggestions(context.Background(), suggestCategory)
	if err != nil {
		return fmt.Errorf("suggestions: %w", err)
	}

	theme := defaultTheme
	for _, opt := range options {
		line := opt.Text
		if suggestCategory == "" {
			line = opt.Category
		}
		fmt.Println(theme.statusStyle().Render("  " + line))
	}
	if len(options) == 0 {
		fmt.Println(theme.hintStyle().Render("no suggestions"))
	}
	return nil
}
