package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/store"
	"github.com/talesin/civics100-sub000/internal/ui/report"
	"github.com/talesin/civics100-sub000/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No model calls recorded.")
			return nil
		}

		rows := make([][]string, 0, len(events))
		for _, e := range events {
			ok := theme.Good.Render("ok")
			if !e.Success {
				ok = theme.Bad.Render("fail")
			}
			rows = append(rows, []string{
				strconv.Itoa(e.ID),
				e.Timestamp.Local().Format(timeLayout),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				ok,
			})
		}
		fmt.Fprintln(out, report.Table(
			[]string{"ID", "TIME", "PURPOSE", "MODEL", "IN", "OUT", "MS", ""}, rows))
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the captured request and response of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		writeEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

func writeEvent(w io.Writer, e *store.LLMEvent) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", theme.Label.Render(fmt.Sprintf("%-10s", label)), value)
	}
	field("ID", strconv.Itoa(e.ID))
	field("Time", e.Timestamp.Local().Format(timeLayout))
	field("Provider", e.Provider)
	field("Model", e.Model)
	field("Purpose", e.Purpose)
	field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
	field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	if e.Success {
		field("Result", theme.Good.Render("ok"))
	} else {
		field("Result", theme.Bad.Render(e.ErrorMessage))
	}

	body := func(title, text string) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render(title))
		if text == "" {
			text = theme.Hint.Render("(not captured)")
		}
		fmt.Fprintln(w, text)
	}
	body("Request", e.RequestBody)
	body("Response", e.ResponseBody)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No model usage recorded yet.")
			return nil
		}

		var calls, in, outTok int
		rows := make([][]string, 0, len(byPurpose)+1)
		for _, u := range byPurpose {
			rows = append(rows, []string{
				u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
				strconv.Itoa(u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs, 10),
			})
			calls += u.Calls
			in += u.InputTokens
			outTok += u.OutputTokens
		}
		rows = append(rows, []string{"TOTAL", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(outTok), ""})
		fmt.Fprintln(out, report.Table([]string{"PURPOSE", "CALLS", "IN", "OUT", "AVG MS"}, rows))

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, costTable(byModel))
		}
		return nil
	},
}

// costTable prices usage per model. Models without a price entry are shown
// with "?" and mark the total as partial.
func costTable(usage []store.LLMUsage) string {
	var total float64
	var unknown []string
	rows := make([][]string, 0, len(usage)+1)
	for _, u := range usage {
		price := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			usd := c.Cost(u.InputTokens, u.OutputTokens)
			total += usd
			price = formatCost(usd)
		} else {
			unknown = append(unknown, u.Model)
		}
		rows = append(rows, []string{truncate(u.Model, 32), strconv.Itoa(u.Calls), price})
	}

	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	rows = append(rows, []string{label, "", formatCost(total)})

	t := report.Table([]string{"MODEL", "CALLS", "COST (USD)"}, rows)
	if len(unknown) > 0 {
		t += "\n" + theme.Hint.Render("No pricing for: "+strings.Join(unknown, ", "))
	}
	return t
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only calls with this purpose (e.g. distractors)")
	llmListCmd.Flags().Duration("since", 0, "Only calls newer than this (e.g. 2h)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
