package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/talesin/civics100-sub000/internal/store"
	"github.com/talesin/civics100-sub000/internal/ui/report"
	"github.com/talesin/civics100-sub000/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-strategy results for a generation run",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		repo := s.ResultRepo()
		if runID == "" {
			runID, err = repo.LatestRunID(ctx)
			if err != nil {
				return err
			}
			if runID == "" {
				fmt.Fprintln(out, "No generation runs recorded yet.")
				return nil
			}
		}

		stats, err := repo.StatsByStrategy(ctx, runID)
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			return fmt.Errorf("run %s has no results", runID)
		}

		fmt.Fprintln(out, theme.Title.Render("Run "+runID))
		fmt.Fprintln(out, strategyStatsTable(stats))
		return nil
	},
}

func strategyStatsTable(stats []store.StrategyStat) string {
	var total, under int
	rows := make([][]string, 0, len(stats)+1)
	for _, st := range stats {
		rows = append(rows, []string{
			st.Strategy,
			strconv.Itoa(st.Questions),
			strconv.Itoa(st.UnderTarget),
			fmt.Sprintf("%.2f", st.AvgRelevance),
			fmt.Sprintf("%.2f", st.AvgPlausibility),
			fmt.Sprintf("%.2f", st.AvgEducational),
			fmt.Sprintf("%.1f", st.AvgRawCandidates),
		})
		total += st.Questions
		under += st.UnderTarget
	}
	rows = append(rows, []string{"TOTAL", strconv.Itoa(total), strconv.Itoa(under), "", "", "", ""})
	return report.Table(
		[]string{"STRATEGY", "QUESTIONS", "UNDER", "RELEVANCE", "PLAUSIBILITY", "EDUCATIONAL", "RAW AVG"}, rows)
}

func init() {
	statsCmd.Flags().String("run", "", "Run ID (default: the latest run)")
}
