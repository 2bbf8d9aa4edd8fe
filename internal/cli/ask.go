package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ragcore/internal/model"
)

var (
	askNotes   string
	askJSON    bool
	askTimeout time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from your notes and check the answer",
	Long: `Ask retrieves the best matching chunks, samples several answers from
the configured LLM, keeps the most self-consistent one and reports how
well each of its claims is supported by the cited notes.

An LLM provider must be configured (llm.provider or RAGCORE_LLM_PROVIDER).

Example:
  ragcore ask "How does the borrow checker work?" --store sqlite
  ragcore ask "What did I decide about caching?" --notes ~/notes --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	addStoreFlags(askCmd)
	askCmd.Flags().StringVar(&askNotes, "notes", "", "index this directory before answering")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full turn as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 5*time.Minute, "overall timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	p, cfg, err := openPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if p.Provider == nil {
		return fmt.Errorf("%w: set llm.provider in the config file or RAGCORE_LLM_PROVIDER", model.ErrLLMUnavailable)
	}

	if askNotes != "" {
		ix, err := p.NewIndexer(tenantID, askNotes, notePattern)
		if err != nil {
			return err
		}
		summary, err := ix.IndexDir(ctx)
		if err != nil {
			return fmt.Errorf("indexing notes: %w", err)
		}
		if verbose {
			printSummary(os.Stderr, summary)
		}
	}

	turn, err := p.Ask(ctx, tenantID, args[0])
	if err != nil {
		return err
	}

	slog.Debug("cache stats", "stats", p.Caches.Stats())

	out := cmd.OutOrStdout()
	if askJSON {
		return writeJSON(out, turn)
	}

	fmt.Fprintln(out, turn.Answer)
	fmt.Fprintln(out)
	printHeader(out, "Sources")
	for _, s := range turn.Sources {
		fmt.Fprintf(out, "  [%s] %s (%.2f)\n", s.CID, s.ChunkID, s.Score)
	}
	fmt.Fprintln(out)
	printHeader(out, fmt.Sprintf("Self-Consistency (%s, %d samples)", p.Provider.Name(), cfg.Consistency.NumSamples))
	printConsistency(out, turn.Consistency)
	printHeader(out, "Claim Support")
	printSupport(out, turn.Support, turn.Weak)
	fmt.Fprintf(os.Stderr, "turn %s in %v\n", turn.TurnID, turn.Duration.Round(time.Millisecond))
	return nil
}
