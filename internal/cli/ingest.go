package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/pipeline"
)

var (
	notePattern   string
	storeDriver   string
	dataDir       string
	ingestTimeout time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Index every note file under a directory",
	Long: `Ingest chunks and embeds every matching note under a directory.
Notes whose chunks did not change are skipped, so running ingest again
is cheap.

Example:
  ragcore ingest ~/notes
  ragcore ingest ~/notes --pattern '**/*.md' --store sqlite --data-dir ~/.ragcore/data`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	addStoreFlags(ingestCmd)
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 30*time.Minute, "overall ingest timeout")
}

// addStoreFlags registers the flags shared by commands that open the chunk store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&notePattern, "pattern", pipeline.DefaultNotePattern, "note files to index (doublestar glob, relative to dir)")
	cmd.Flags().StringVar(&storeDriver, "store", "", "chunk store driver (memory, sqlite); overrides config")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "sqlite data directory; overrides config")
}

// openPipeline loads the config, applies store flags and builds the pipeline.
func openPipeline() (*pipeline.Pipeline, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}
	if dataDir != "" {
		cfg.Store.DataDir = dataDir
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("error finding home directory: %w", err)
		}
		cfg.Store.DataDir = home + "/.ragcore/data"
	}

	p, err := pipeline.New(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	p, cfg, err := openPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ix, err := p.NewIndexer(tenantID, args[0], notePattern)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Indexing: %s (%s)\n", args[0], notePattern)
		fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.Store.Driver)
		fmt.Fprintf(os.Stderr, "Embeddings: %v\n\n", p.Embedder != nil)
	}

	start := time.Now()
	summary, err := ix.IndexDir(ctx)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Ingest Complete")
	printSummary(out, summary)
	fmt.Fprintf(out, "  Took:         %v\n", time.Since(start).Round(time.Millisecond))
	if cfg.Store.Driver == "memory" {
		fmt.Fprintf(os.Stderr, "\nNote: the memory store is discarded on exit; use --store sqlite to keep the index.\n")
	}
	return nil
}
