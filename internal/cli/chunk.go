package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ragcore/internal/chunk"
	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/pipeline"
)

var chunkJSON bool

// chunkCmd represents the chunk command
var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Split one note file into chunks and print them",
	Long: `Chunk runs the splitter over a single note without storing anything.
Markdown and HTML bodies are reduced to plain text first.

Example:
  ragcore chunk notes/ownership.md
  ragcore chunk notes/page.html --json`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "print chunks as JSON")
}

type chunkView struct {
	Position int    `json:"position"`
	Bytes    int    `json:"bytes"`
	Tokens   int    `json:"token_estimate"`
	Hash     string `json:"text_hash"`
	Text     string `json:"text"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := args[0]
	note, err := pipeline.NewLoader(tenantID, filepath.Dir(path), int64(cfg.Chunking.MaxNoteChars)*4).Load(path)
	if err != nil {
		return err
	}

	texts := chunk.NewSplitterFromConfig(cfg.Chunking).Split(chunk.NoteText(note))
	views := make([]chunkView, len(texts))
	for i, t := range texts {
		views[i] = chunkView{
			Position: i,
			Bytes:    len(t),
			Tokens:   model.EstimateTokens(t),
			Hash:     chunk.HashText(t),
			Text:     t,
		}
	}

	out := cmd.OutOrStdout()
	if chunkJSON {
		return writeJSON(out, views)
	}

	if len(views) == 0 {
		fmt.Fprintf(os.Stderr, "Note is too short to index (minimum %d bytes)\n", cfg.Chunking.MinSize)
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(out, "── chunk %d (%d bytes, ~%d tokens) ──\n", v.Position, v.Bytes, v.Tokens)
		fmt.Fprintln(out, v.Text)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(os.Stderr, "✓ %d chunks\n", len(views))
	return nil
}
