package cmd

import (
	"github.com/spf13/cobra"

	"github.com/talesin/civics100-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "civics",
	Short:         "Generate multiple-choice distractors for civics quiz questions",
	Long:          "civics builds plausible wrong answers for civics test questions from curated lists, answer pools, sibling questions and an LLM.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CIVICS_DB env var)")
	rootCmd.PersistentFlags().String("env", ".env", "Path to an env file to load before reading CIVICS_* variables")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then CIVICS_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
