// Package results reads, writes and merges distractor result files.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/quiz"
)

// File is the on-disk result set of a run.
type File struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Target      int               `json:"target"`
	Summary     pipeline.Summary  `json:"summary"`
	Results     []pipeline.Result `json:"results"`
}

// FromBatch wraps a finished batch.
func FromBatch(b pipeline.Batch, now time.Time) File {
	return File{
		RunID:       b.RunID,
		GeneratedAt: now.UTC(),
		Target:      b.Target,
		Summary:     b.Summary,
		Results:     b.Results,
	}
}

// Load reads a result file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read results: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse results %s: %w", path, err)
	}
	return f, nil
}

// Write stores f at path, replacing any existing file only once the new
// content is fully written.
func Write(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("create temp results: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}

// ErrUnknownQuestion is returned by Merge for a result whose question is
// not in the question set.
var ErrUnknownQuestion = errors.New("question not in question set")

// Merge splices res into f, replacing the result with the same question
// id. A new result is placed according to the order of questions. The
// summary is recomputed.
func Merge(f File, res pipeline.Result, questions []quiz.Question) (File, error) {
	pos := make(map[string]int, len(questions))
	for i, q := range questions {
		pos[q.ID] = i
	}
	want, ok := pos[res.QuestionID]
	if !ok {
		return f, fmt.Errorf("merge %s: %w", res.QuestionID, ErrUnknownQuestion)
	}

	out := make([]pipeline.Result, 0, len(f.Results)+1)
	placed := false
	for _, r := range f.Results {
		if r.QuestionID == res.QuestionID {
			if !placed {
				out = append(out, res)
				placed = true
			}
			continue
		}
		if p, known := pos[r.QuestionID]; !placed && known && p > want {
			out = append(out, res)
			placed = true
		}
		out = append(out, r)
	}
	if !placed {
		out = append(out, res)
	}

	f.Results = out
	f.Summary = pipeline.Summarize(out, f.Target)
	return f, nil
}
