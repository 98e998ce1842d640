package sources

import (
	"encoding/json"
	"fmt"
	"os"
)

// Curated maps a question id to hand-written distractors.
type Curated map[string][]string

// LoadCurated reads a curated distractor file of the form
// {"<question id>": ["...", "..."]}. An empty path yields an empty set.
func LoadCurated(path string) (Curated, error) {
	if path == "" {
		return Curated{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curated distractors: %w", err)
	}
	var c Curated
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode curated distractors: %w", err)
	}
	return c, nil
}

// Lookup returns the curated distractors for a question id.
func (c Curated) Lookup(id string) []string {
	return c[id]
}
