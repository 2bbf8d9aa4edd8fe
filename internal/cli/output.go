package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/pipeline"
)

const rule = "═══════════════════════════════════════════════════════════"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSONFile decodes path into v. A path of "-" reads stdin.
func readJSONFile(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// readTextFile returns the contents of path, or stdin for "-".
func readTextFile(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, s pipeline.IndexSummary) {
	fmt.Fprintf(w, "  Files:        %d\n", s.Files)
	fmt.Fprintf(w, "  Regenerated:  %d\n", s.Regenerated)
	fmt.Fprintf(w, "  Backfilled:   %d\n", s.Backfilled)
	fmt.Fprintf(w, "  Unchanged:    %d\n", s.Unchanged)
	fmt.Fprintf(w, "  Removed:      %d\n", s.Removed)
	fmt.Fprintf(w, "  Failed:       %d\n", s.Failed)
	fmt.Fprintf(w, "  Chunks:       %d\n", s.Chunks)
	fmt.Fprintln(w)
}

func printConsistency(w io.Writer, r model.ConsistencyResult) {
	fmt.Fprintf(w, "  Candidates:   %d\n", r.CandidateCount)
	fmt.Fprintf(w, "  Reason:       %s\n", r.SelectionReason)
	fmt.Fprintf(w, "  Score:        %.3f\n", r.ConsensusScore)
	fmt.Fprintf(w, "  Consensus:    %v\n", r.ConsensusCitations)
	if len(r.InconsistentCitations) > 0 {
		fmt.Fprintf(w, "  Dropped:      %v\n", r.InconsistentCitations)
	}
	fmt.Fprintln(w)
}

func printSupport(w io.Writer, report model.SupportReport, weak model.WeakCitationReport) {
	fmt.Fprintf(w, "  Claims:       %d\n", len(report.Matches))
	fmt.Fprintf(w, "  Supported:    %d\n", report.SupportedCount)
	fmt.Fprintf(w, "  Unsupported:  %d\n", report.UnsupportedCount)
	fmt.Fprintf(w, "  Support rate: %.0f%%\n", report.OverallSupportRate*100)
	fmt.Fprintln(w)

	for _, m := range report.Matches {
		mark := "✓"
		if !m.IsSupported {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, m.Claim.Text)
		if m.BestMatch != nil {
			fmt.Fprintf(w, "      best: %s (%s, %.2f)\n", m.BestMatch.CID, m.BestMatch.MatchType, m.BestMatch.MatchScore)
		}
	}
	if len(weak.Remediation) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Remediation:")
		for _, r := range weak.Remediation {
			fmt.Fprintf(w, "    - %s\n", r)
		}
	}
	for _, sig := range report.Signals {
		fmt.Fprintf(w, "  [%s] %s\n", sig.Severity, sig.Description)
	}
	fmt.Fprintln(w)
}
