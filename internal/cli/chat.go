package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bodhibot/bodhibot-go/internal/client"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

var chatUserID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against a running server",
	Long: `Open an interactive conversation over the server's chat WebSocket.
Pipeline stages stream in as each turn is processed.

Type a question and press enter; exit with ctrl-d or "exit".

Examples:
  bodhibot chat
  bodhibot chat --user alice --server http://bodhibot.internal:8791`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUserID, "user", "u", "", "user ID (default: random per session)")
}

func runChat(cmd *cobra.Command, args []string) error {
	userID := chatUserID
	if userID == "" {
		userID = "cli-" + uuid.NewString()[:8]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := client.New(serverURL)
	session, err := c.Chat(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	theme := defaultTheme
	if interactive {
		fmt.Println(theme.successStyle().Render("Connected.") + theme.hintStyle().Render(" Ask about the teachings; ctrl-d to leave."))
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print(theme.accentStyle().Render("問> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		onStage := func(state service.TurnState) {
			if interactive && verbose {
				fmt.Println(theme.hintStyle().Render("  … " + string(state)))
			}
		}
		result, err := session.Turn(ctx, userID, line, onStage)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Println(theme.errorStyle().Render("error: " + err.Error()))
			continue
		}

		fmt.Println(renderTurn(result, theme))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
