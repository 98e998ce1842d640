package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talesin/civics100-sub000/internal/app"
	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/results"
	"github.com/talesin/civics100-sub000/internal/ui/report"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate distractors for every question in the question file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		showProgress, _ := cmd.Flags().GetBool("progress")

		var prog *tea.Program
		progress := pipeline.WithProgress(func(done, total int, res pipeline.Result) {
			if prog != nil {
				prog.Send(app.ResultMsg{Done: done, Total: total, Result: res})
			}
		})

		e, err := setup(ctx, cmd, progress)
		if err != nil {
			return err
		}
		defer e.Close()

		var progErr <-chan error
		if showProgress {
			prog, progErr = app.Run(app.NewProgressModel(len(e.questions), cancel))
		}

		start := time.Now()
		batch, runErr := e.runner.RunBatch(ctx, e.questions, e.cfg.Target, e.cfg.Concurrency)
		e.log.Info("batch finished",
			zap.String("run_id", batch.RunID),
			zap.Int("questions", batch.Summary.Total),
			zap.Int("under_target", batch.Summary.UnderTarget),
			zap.Duration("elapsed", time.Since(start)))

		if err := results.Write(e.cfg.OutputPath, results.FromBatch(batch, time.Now())); err != nil {
			return err
		}

		if prog != nil {
			prog.Send(app.FinishedMsg{Batch: batch})
			if err := <-progErr; err != nil {
				e.log.Warn("progress view", zap.Error(err))
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderSummary(batch))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", e.cfg.OutputPath)

		if runErr != nil {
			return fmt.Errorf("run interrupted: %w", runErr)
		}
		return nil
	},
}

func init() {
	addGenerationFlags(generateCmd)
	generateCmd.Flags().BoolP("progress", "p", false, "Show a live progress view")
}
