// Package cli implements the ragcore command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ragcore/internal/model"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=..."
var version = "dev"

var (
	cfgFile  string
	verbose  bool
	tenantID string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "ragcore - answer integrity and note indexing for personal RAG",
	Long: `ragcore keeps a note collection chunked and embedded, and checks the
answers a language model writes from it.

It splits notes into overlapping chunks and only re-embeds notes whose
content actually changed. Answers are sampled several times, the most
self-consistent one is kept, and every claim in it is matched back to
the cited notes.

ragcore reports how well an answer is supported. It does not decide
whether the answer is true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ragcore %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ragcore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "default", "tenant that owns the notes")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.ragcore")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// RAGCORE_CACHE_CHUNK_TTL overrides cache.chunk_ttl
	viper.SetEnvPrefix("RAGCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file and the environment.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	bindEnvKeys(viper.GetViper(), cfg)
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	applyProviderEnv(cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// bindEnvKeys registers every config key with viper so AutomaticEnv also
// reaches keys absent from the config file.
func bindEnvKeys(v *viper.Viper, cfg *model.Config) {
	for _, key := range configKeys(cfg) {
		_ = v.BindEnv(key)
	}
}

// applyProviderEnv fills API keys and endpoints from the provider's
// conventional environment variables when the config leaves them empty.
func applyProviderEnv(cfg *model.Config) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
	}
	if strings.EqualFold(cfg.Embedding.Provider, "openai") && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
