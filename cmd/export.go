package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talesin/civics100-sub000/internal/config"
	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/results"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a result file as an Excel workbook for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env")
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		dest, _ := cmd.Flags().GetString("xlsx")

		questions, err := quiz.LoadFile(cfg.QuestionsPath)
		if err != nil {
			return err
		}
		f, err := results.Load(cfg.OutputPath)
		if err != nil {
			return err
		}

		out, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("create %s: %w", dest, err)
		}
		if err := results.ExportXLSX(out, f, questions); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results from run %s to %s\n", len(f.Results), f.RunID, dest)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("questions", "q", "", "Question file")
	exportCmd.Flags().StringP("output", "o", "", "Result file to export")
	exportCmd.Flags().String("xlsx", "distractors.xlsx", "Workbook to write")
}
