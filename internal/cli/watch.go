package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ragcore/internal/pipeline"
)

var watchDelay time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Index a notes directory and keep it indexed as files change",
	Long: `Watch runs a full ingest, then reindexes note files as they are
created, edited or deleted. Bursts of writes to one file are coalesced.

Example:
  ragcore watch ~/notes --store sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addStoreFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDelay, "debounce", 250*time.Millisecond, "quiet period before a changed file is reindexed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, _, err := openPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ix, err := p.NewIndexer(tenantID, args[0], notePattern)
	if err != nil {
		return err
	}

	summary, err := ix.IndexDir(ctx)
	if err != nil {
		return fmt.Errorf("initial ingest failed: %w", err)
	}
	printHeader(os.Stderr, "Initial Ingest")
	printSummary(os.Stderr, summary)

	return pipeline.NewWatcher(ix, watchDelay, nil).Run(ctx)
}
