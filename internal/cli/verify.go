package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ragcore/internal/embedding"
	"github.com/ppiankov/ragcore/internal/extract"
	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/pipeline"
)

var (
	sourcesPath   string
	verifyJSON    bool
	verifyTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <answer-file>",
	Short: "Match the claims of an answer to its cited sources",
	Long: `Verify extracts the declarative claims of an answer and scores each
against the retrieved sources it was written from. Sources are a JSON
array of retrieved chunks in rank order; the first is cited as [N1].

Example:
  ragcore verify answer.txt --sources sources.json
  cat answer.txt | ragcore verify - --sources sources.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&sourcesPath, "sources", "", "JSON file with the retrieved chunks (required)")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the support report as JSON")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "timeout for claim embeddings")
	_ = verifyCmd.MarkFlagRequired("sources")
}

type verifyOutput struct {
	Claims  []model.ExtractedClaim   `json:"claims"`
	Support model.SupportReport      `json:"support"`
	Weak    model.WeakCitationReport `json:"weak"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	answer, err := readTextFile(args[0])
	if err != nil {
		return err
	}
	var chunks []model.ScoredChunk
	if err := readJSONFile(sourcesPath, &chunks); err != nil {
		return err
	}

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	if emb == nil && verbose {
		fmt.Fprintf(os.Stderr, "No embedding provider configured, matching by lexical overlap only\n\n")
	}
	var matcher *extract.SourceMatcher
	if emb != nil {
		matcher = extract.NewSourceMatcher(cfg.Matching, embedding.NewCached(emb, cfg.Cache.EmbeddingMemoTTL), nil)
	} else {
		matcher = extract.NewSourceMatcher(cfg.Matching, nil, nil)
	}
	verifier := extract.NewVerifier(cfg.Matching, matcher, nil)

	citations := pipeline.BuildCitations(chunks)
	claims := verifier.Extract(answer)
	report := verifier.MatchAll(ctx, claims, chunks, citations)
	weak := verifier.IdentifyWeaklyCited(report.Matches)

	out := cmd.OutOrStdout()
	if verifyJSON {
		return writeJSON(out, verifyOutput{Claims: claims, Support: report, Weak: weak})
	}
	printHeader(out, "Claim Support")
	printSupport(out, report, weak)
	return nil
}
