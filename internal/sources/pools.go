package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

// Pools maps a structured answer kind to its reference list of names or
// places.
type Pools map[quiz.AnswerKind][]string

// DefaultPools returns the built-in pools. Office holders other than
// presidents change too often to ship, so those kinds start empty and are
// filled from a pool file.
func DefaultPools() Pools {
	return Pools{
		quiz.KindCapital:   slices.Clone(stateCapitals),
		quiz.KindPresident: slices.Clone(presidents),
	}
}

// LoadPools reads a pool file of the form {"senator": ["...", ...]} and
// layers it over the defaults. Entries for a kind replace the default list.
// An empty path yields the defaults.
func LoadPools(path string) (Pools, error) {
	pools := DefaultPools()
	if path == "" {
		return pools, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pools: %w", err)
	}
	var raw map[quiz.AnswerKind][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode pools: %w", err)
	}
	for kind, entries := range raw {
		if !kind.Structured() {
			return nil, fmt.Errorf("pool for %q: not a structured answer kind", kind)
		}
		pools[kind] = entries
	}
	return pools, nil
}
