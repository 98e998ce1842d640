package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

const (
	resultsSheet = "Distractors"
	summarySheet = "Summary"
)

var resultHeaders = []string{
	"Question ID", "Question", "Correct Answers", "Strategy", "Distractors", "Count",
	"Raw Candidates", "Relevance", "Plausibility", "Educational Value", "Fell Back", "Cache Hit", "Error",
}

// ExportXLSX writes f as a review workbook: one row per question plus a
// summary sheet. Questions supply the text and correct answers.
func ExportXLSX(w io.Writer, f File, questions []quiz.Question) error {
	byID := make(map[string]quiz.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName(x.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(x, resultsSheet, 1, toAny(resultHeaders)); err != nil {
		return err
	}
	for i, r := range f.Results {
		q := byID[r.QuestionID]
		row := []any{
			r.QuestionID, q.Text, strings.Join(q.CorrectAnswers, "; "), string(r.Strategy),
			strings.Join(r.Distractors, "; "), len(r.Distractors), r.RawCandidateCount,
			r.Metrics.Relevance, r.Metrics.Plausibility, r.Metrics.EducationalValue,
			r.FellBack, r.CacheHit, r.Err,
		}
		if err := writeRow(x, resultsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := x.SetColWidth(resultsSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := x.SetColWidth(resultsSheet, "E", "E", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := x.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	s := f.Summary
	summary := [][]any{
		{"Run", f.RunID},
		{"Generated", f.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Target", f.Target},
		{"Questions", s.Total},
		{"Fell back", s.FellBack},
		{"Under target", s.UnderTarget},
		{"Errored", s.Errored},
		{"Cancelled", s.Cancelled},
		{"Cache hits", s.CacheHits},
	}
	for i, row := range summary {
		if err := writeRow(x, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := x.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(x *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := x.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
