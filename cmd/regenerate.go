package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/results"
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <question-id>",
	Short: "Regenerate distractors for one question and merge them into the result file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		q, ok := quiz.Find(e.questions, args[0])
		if !ok {
			return fmt.Errorf("question %q not found in %s", args[0], e.cfg.QuestionsPath)
		}

		existing, err := results.Load(e.cfg.OutputPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			existing = results.File{Target: e.cfg.Target}
		case err != nil:
			return err
		}

		batch, err := e.runner.RunBatch(ctx, []quiz.Question{q}, e.cfg.Target, 1)
		if err != nil {
			return fmt.Errorf("regenerate %s: %w", q.ID, err)
		}
		res := batch.Results[0]

		merged, err := results.Merge(existing, res, e.questions)
		if err != nil {
			return err
		}
		merged.GeneratedAt = time.Now().UTC()
		if err := results.Write(e.cfg.OutputPath, merged); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s, %d distractors)\n", q.ID, res.Strategy, len(res.Distractors))
		for _, d := range res.Distractors {
			fmt.Fprintf(out, "  - %s\n", d)
		}
		if res.Err != "" {
			fmt.Fprintf(out, "error: %s\n", res.Err)
		}
		if len(res.Distractors) < e.cfg.Target {
			fmt.Fprintf(out, "warning: only %d of %d distractors, sources exhausted\n",
				len(res.Distractors), e.cfg.Target)
		}
		return nil
	},
}

func init() {
	addGenerationFlags(regenerateCmd)
}
