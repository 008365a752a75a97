package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var askUserID string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question through the local pipeline",
	Long: `Ask a single question. The question is classified, matched to a teaching
strategy, and grounded in scripture excerpts from the local index.

Runs entirely against the local database and LLM; no server required.

Examples:
  bodhibot ask "什麼是四聖諦？"
  bodhibot ask --user alice "我最近壓力很大"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "cli", "user ID for conversation context")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orch, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	result, err := orch.Turn(ctx, askUserID, args[0])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Println(renderTurn(&result, defaultTheme))
	return nil
}
