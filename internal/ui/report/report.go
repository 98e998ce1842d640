// Package report renders batch summaries for the terminal.
package report

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/strategy"
	"github.com/talesin/civics100-sub000/internal/ui/theme"
)

// StrategyRow is one line of the per-strategy table.
type StrategyRow struct {
	Strategy strategy.Strategy
	Count    int
}

// StrategyRows orders the summary counts by descending count, then name.
func StrategyRows(s pipeline.Summary) []StrategyRow {
	rows := make([]StrategyRow, 0, len(s.ByStrategy))
	for st, n := range s.ByStrategy {
		rows = append(rows, StrategyRow{Strategy: st, Count: n})
	}
	slices.SortFunc(rows, func(a, b StrategyRow) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(string(a.Strategy), string(b.Strategy))
	})
	return rows
}

// Table renders rows under headers in the shared table style.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		})
	for _, r := range rows {
		t.Row(r...)
	}
	return t.String()
}

// StrategyTable renders strategy counts with their share of total.
func StrategyTable(rows []StrategyRow, total int) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		share := 0.0
		if total > 0 {
			share = 100 * float64(r.Count) / float64(total)
		}
		cells = append(cells, []string{string(r.Strategy), fmt.Sprintf("%d", r.Count), fmt.Sprintf("%.0f%%", share)})
	}
	return Table([]string{"STRATEGY", "QUESTIONS", "SHARE"}, cells)
}

// RenderSummary renders the outcome of a batch.
func RenderSummary(b pipeline.Batch) string {
	s := b.Summary
	var sb strings.Builder

	sb.WriteString(theme.Title.Render("Distractor generation"))
	sb.WriteString("  ")
	sb.WriteString(theme.Hint.Render("run " + b.RunID))
	sb.WriteString("\n\n")

	line := func(label string, value string) {
		sb.WriteString(theme.Label.Render(fmt.Sprintf("%-14s", label)))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	line("Questions", theme.Body.Render(fmt.Sprintf("%d", s.Total)))
	line("Target", theme.Body.Render(fmt.Sprintf("%d", b.Target)))
	line("Under target", theme.Count(s.UnderTarget).Render(fmt.Sprintf("%d", s.UnderTarget)))
	line("Fell back", theme.Count(s.FellBack).Render(fmt.Sprintf("%d", s.FellBack)))
	line("Cache hits", theme.Body.Render(fmt.Sprintf("%d", s.CacheHits)))
	if s.Errored > 0 {
		line("Errors", theme.Bad.Render(fmt.Sprintf("%d", s.Errored)))
	}
	if s.Cancelled > 0 {
		line("Cancelled", theme.Warn.Render(fmt.Sprintf("%d", s.Cancelled)))
	}

	if len(s.ByStrategy) > 0 {
		sb.WriteString("\n")
		sb.WriteString(StrategyTable(StrategyRows(s), s.Total))
		sb.WriteString("\n")
	}
	return sb.String()
}
