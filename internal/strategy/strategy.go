// Package strategy classifies questions and picks the ordered chain of
// candidate sources to try for each one.
package strategy

// Strategy identifies a candidate source.
type Strategy string

const (
	Curated      Strategy = "curated"
	PoolLookup   Strategy = "pool-lookup"
	LLMText      Strategy = "llm-text"
	SiblingReuse Strategy = "sibling-reuse"
	Hybrid       Strategy = "hybrid"

	// Markers recorded on results that no source produced.
	Error     Strategy = "error"
	Cancelled Strategy = "cancelled"
	None      Strategy = "none"
)
