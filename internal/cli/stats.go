package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bodhibot/bodhibot-go/internal/client"
	"github.com/bodhibot/bodhibot-go/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server pipeline metrics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	c := client.New(serverURL)
	snap, err := c.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	theme := defaultTheme
	fmt.Println(theme.successStyle().Render("Server statistics"))
	fmt.Printf("  uptime:          %s\n", (time.Duration(snap.UptimeSeconds) * time.Second).String())
	fmt.Printf("  turns:           %d (%d degraded)\n", opCount(snap.Turns), snap.DegradedTurns)

	printOp := func(name string, op *metrics.OperationSnapshot) {
		if op == nil {
			return
		}
		fmt.Printf("  %-16s %d calls, avg %.1fms, max %dms\n", name+":", op.Count, op.AvgTimeMs, op.MaxTimeMs)
	}
	printOp("classification", snap.Classification)
	printOp("embedding", snap.Embedding)
	printOp("index search", snap.IndexSearch)
	printOp("suggestion", snap.Suggestion)
	return nil
}

func opCount(op *metrics.OperationSnapshot) int64 {
	if op == nil {
		return 0
	}
	return op.Count
}
