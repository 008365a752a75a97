// Package cli provides the command-line interface for bodhibot.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bodhibot/bodhibot-go/internal/config"
	"github.com/bodhibot/bodhibot-go/internal/db"
	"github.com/bodhibot/bodhibot-go/internal/llm"
	"github.com/bodhibot/bodhibot-go/internal/metrics"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model
)

// localCommands need a direct database connection; everything else talks
// to a running server.
var localCommands = map[string]bool{
	"ask":    true,
	"ingest": true,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bodhibot",
	Short: "Buddhist teaching Q&A pipeline",
	Long: `Bodhibot answers questions about Buddhist teachings. Each question is
classified by cognitive level and question type, matched to one of the
four-attraction teaching strategies, and grounded in scripture excerpts
retrieved from a vector index over the canonical corpus.

Local commands (ask, ingest) connect straight to SurrealDB and the
configured LLM; the rest talk to a running bodhibot-server.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !localCommands[cmd.Name()] {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// getOrchestrator builds the full local pipeline with lazy LLM initialization.
func getOrchestrator(ctx context.Context) (*service.Orchestrator, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
		model, err = llm.NewModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}

	collector := metrics.NewCollector()
	retriever := service.NewRetriever(embedder, dbClient, collector, cfg)
	return service.NewOrchestrator(
		service.NewClassifier(model),
		retriever,
		service.NewSuggester(service.DefaultCatalog(), cfg),
		dbClient,
		collector,
		cfg,
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $BODHIBOT_SERVER_URL)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}
