package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bodhibot/bodhibot-go/internal/corpus"
	"github.com/bodhibot/bodhibot-go/internal/llm"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

var (
	ingestManifest    string
	ingestConcurrency int
	ingestBatchSize   int
	ingestChunkTarget int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <corpus-dir>",
	Short: "Chunk, embed and index scripture files",
	Long: `Ingest a directory of scripture text files into the vector index.

Without --manifest, the built-in canon is expected: one UTF-8 text file per
scripture, named by its Taishō number (T0235.txt and so on). A manifest
maps titles and canonical IDs to arbitrary file names.

Re-ingesting a source overwrites its passages, so ingest is safe to re-run.

Examples:
  bodhibot ingest ./corpus
  bodhibot ingest ./corpus --manifest corpus.yaml -c 8`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "corpus manifest (YAML)")
	ingestCmd.Flags().IntVarP(&ingestConcurrency, "concurrency", "c", 4, "parallel source workers")
	ingestCmd.Flags().IntVarP(&ingestBatchSize, "batch", "b", 16, "chunks per embedding call")
	ingestCmd.Flags().IntVar(&ingestChunkTarget, "chunk-size", 0, "target chunk size in runes (default 500)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}
	}

	sources := corpus.DefaultSources
	if ingestManifest != "" {
		manifest, err := corpus.LoadManifest(ingestManifest)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		sources = manifest.Sources
	}

	chunkCfg := corpus.DefaultChunkConfig()
	if ingestChunkTarget > 0 {
		chunkCfg.TargetRunes = ingestChunkTarget
	}

	svc := service.NewIngestService(dbClient, embedder)
	result, err := svc.IngestSources(ctx, args[0], sources, chunkCfg, service.IngestOptions{
		Concurrency: ingestConcurrency,
		BatchSize:   ingestBatchSize,
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	theme := defaultTheme
	fmt.Println(theme.successStyle().Render(fmt.Sprintf("Indexed %d passages from %d sources.", result.PassagesIndexed, result.SourcesProcessed)))
	for _, e := range result.Errors {
		fmt.Println(theme.errorStyle().Render("  ✗ " + e))
	}

	count, err := svc.CountIndexed(ctx)
	if err == nil {
		fmt.Println(theme.hintStyle().Render(fmt.Sprintf("Index now holds %d passages.", count)))
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d sources failed", len(result.Errors))
	}
	return nil
}
