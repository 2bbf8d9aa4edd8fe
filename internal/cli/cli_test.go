package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ragcore/internal/consistency"
	"github.com/ppiankov/ragcore/internal/model"
)

const noteBody = `The borrow checker enforces ownership rules at compile time. Every value has exactly one owner and is dropped when the owner goes out of scope.

References may be shared or mutable but never both at once. This rule prevents data races in safe code without any runtime cost.`

// run executes the root command with args in an isolated home directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfgFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ragcore "+version+"\n", out)
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys(model.DefaultConfig())

	assert.Contains(t, keys, "chunking.target_size")
	assert.Contains(t, keys, "cache.chunk_ttl")
	assert.Contains(t, keys, "llm.api_key")
	assert.Contains(t, keys, "consistency.presence_weight")
	assert.NotContains(t, keys, "chunking")
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("RAGCORE_CHUNKING_TARGET_SIZE", "600")
	t.Setenv("RAGCORE_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Chunking.TargetSize)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant-test", cfg.LLM.APIKey)
	assert.Equal(t, model.DefaultConfig().Cache.ChunkTTL, cfg.Cache.ChunkTTL)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# ragcore configuration file"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)

	assert.Error(t, writeDefaultConfig(path), "existing config must not be overwritten")
}

func TestChunkCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ownership.md")
	require.NoError(t, os.WriteFile(path, []byte("# Ownership\n\n"+noteBody), 0o644))

	out, err := run(t, "chunk", path, "--json")
	require.NoError(t, err)
	chunkJSON = false

	var views []chunkView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.True(t, strings.HasPrefix(views[0].Text, "ownership\n\n"))
	assert.Contains(t, views[0].Text, "borrow checker")
	assert.NotContains(t, views[0].Text, "#")
	assert.Len(t, views[0].Hash, 64)
}

func TestSelectCommand(t *testing.T) {
	candidates := []model.ResponseCandidate{
		{Answer: "Rust frees memory when the owner goes out of scope [N1].", Temperature: 0.6},
		{Answer: "Rust frees memory when the owner leaves scope [N1].", Temperature: 0.7},
		{Answer: "Rust frees memory at scope end [N1][N2].", Temperature: 0.8},
	}
	path := filepath.Join(t.TempDir(), "samples.json")
	data, err := json.Marshal(candidates)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := run(t, "select", path, "--json")
	require.NoError(t, err)
	selectJSON = false

	var result model.ConsistencyResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.CandidateCount)
	assert.Equal(t, []string{"N1"}, result.ConsensusCitations)
	assert.Equal(t, []string{"N2"}, result.InconsistentCitations)
	assert.NotContains(t, result.SelectedAnswer, "[N2]")

	want := consistency.NewSelector(model.DefaultConfig().Consistency).SelectBestResponse(candidates)
	assert.Equal(t, want.SelectedAnswer, result.SelectedAnswer)
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	answer := filepath.Join(dir, "answer.txt")
	sources := filepath.Join(dir, "sources.json")
	require.NoError(t, os.WriteFile(answer, []byte("The borrow checker enforces ownership rules at compile time [N1]."), 0o644))

	chunks := []model.ScoredChunk{{ChunkID: "n_chunk_0000", NoteID: "n", Text: noteBody, Score: 0.9}}
	data, err := json.Marshal(chunks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sources, data, 0o644))

	out, err := run(t, "verify", answer, "--sources", sources, "--json")
	require.NoError(t, err)
	verifyJSON = false

	var got verifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Claims, 1)
	assert.Equal(t, 1, got.Support.SupportedCount)
	require.NotNil(t, got.Support.Matches[0].BestMatch)
	assert.Equal(t, "N1", got.Support.Matches[0].BestMatch.CID)
}

func TestCacheBenchCommand(t *testing.T) {
	out, err := run(t, "cache-bench", "--ops", "5000", "--keys", "500", "--max-size", "50", "--json")
	require.NoError(t, err)
	benchJSON, benchMaxSize, benchOps, benchKeys = false, 0, 100_000, 5_000

	var res benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, uint64(5000), res.Stats.Hits+res.Stats.Misses)
	assert.LessOrEqual(t, res.Stats.Size, 50)
	assert.Greater(t, res.Stats.Evictions, uint64(0))
	assert.Greater(t, res.Stats.Hits, uint64(0))
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte(noteBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte(noteBody), 0o644))

	out, err := run(t, "ingest", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingest Complete")
	assert.Contains(t, out, "Regenerated:  2")
}

func TestAskWithoutProvider(t *testing.T) {
	_, err := run(t, "ask", "what is ownership?")
	assert.ErrorIs(t, err, model.ErrLLMUnavailable)
}
