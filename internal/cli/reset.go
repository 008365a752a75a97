package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bodhibot/bodhibot-go/internal/client"
)

var resetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Discard a user's conversation context on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		if err := c.ResetContext(context.Background(), args[0]); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println(defaultTheme.successStyle().Render("Context cleared for " + args[0]))
		return nil
	},
}
