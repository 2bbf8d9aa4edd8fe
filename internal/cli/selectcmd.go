package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ragcore/internal/consistency"
	"github.com/ppiankov/ragcore/internal/model"
)

var selectJSON bool

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select <candidates.json>",
	Short: "Pick the most self-consistent answer from sampled candidates",
	Long: `Select scores candidate answers by citation consensus, textual
similarity to the other candidates and citation presence, returns the
best one and strips citations most candidates did not agree on.

The input is a JSON array of candidates:
  [{"answer": "Rust has no GC [N1].", "temperature": 0.6}, ...]

Example:
  ragcore select samples.json
  ragcore select - --json < samples.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "print the result as JSON")
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var candidates []model.ResponseCandidate
	if err := readJSONFile(args[0], &candidates); err != nil {
		return err
	}

	result := consistency.NewSelector(cfg.Consistency).SelectBestResponse(candidates)

	out := cmd.OutOrStdout()
	if selectJSON {
		return writeJSON(out, result)
	}
	printHeader(out, "Self-Consistency")
	printConsistency(out, result)
	if result.CandidateCount == 0 {
		return fmt.Errorf("no candidates in %s", args[0])
	}
	fmt.Fprintln(out, result.SelectedAnswer)
	return nil
}
