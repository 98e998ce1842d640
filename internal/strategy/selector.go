package strategy

import (
	"go.uber.org/zap"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

const (
	// DefaultCostCeiling caps the estimated cost, in USD, of one generation
	// call for the cheaper tiers.
	DefaultCostCeiling = 0.001

	defaultCostPerToken  = 0.000001
	promptOverheadTokens = 350
)

// SelectorConfig controls chain selection.
type SelectorConfig struct {
	// LLMEnabled allows the llm-text strategy.
	LLMEnabled bool

	// CostCeiling gates llm-text for simple-fact, identification and
	// analytical questions. Zero disables the gate.
	CostCeiling float64

	// CostPerToken prices the estimate. Zero uses the default rate.
	CostPerToken float64
}

// Selector picks the ordered fallback chain for a question.
type Selector struct {
	cfg SelectorConfig
	log *zap.Logger
}

// NewSelector creates a Selector.
func NewSelector(cfg SelectorConfig, log *zap.Logger) *Selector {
	if cfg.CostPerToken <= 0 {
		cfg.CostPerToken = defaultCostPerToken
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{cfg: cfg, log: log.Named("strategy")}
}

// EstimateCost approximates the USD cost of one generation call for a
// question of the given text.
func (s *Selector) EstimateCost(text string) float64 {
	tokens := len(text)/4 + promptOverheadTokens
	return float64(tokens) * s.cfg.CostPerToken
}

// Select returns the non-empty, ordered chain of strategies to try.
// Structured kinds never use llm-text; every free-text chain ends with
// sibling-reuse and hybrid.
func (s *Selector) Select(q quiz.Question) []Strategy {
	if q.Kind.Structured() {
		return []Strategy{PoolLookup, SiblingReuse}
	}

	fallback := []Strategy{SiblingReuse, Hybrid}
	if !s.cfg.LLMEnabled {
		return fallback
	}

	tier := Classify(q.Text)
	switch tier {
	case Conceptual, Comparative:
		return append([]Strategy{LLMText}, fallback...)
	}

	if cost := s.EstimateCost(q.Text); s.cfg.CostCeiling > 0 && cost > s.cfg.CostCeiling {
		s.log.Debug("generation over cost ceiling",
			zap.String("question", q.ID),
			zap.String("tier", string(tier)),
			zap.Float64("cost", cost))
		return fallback
	}
	return append([]Strategy{LLMText}, fallback...)
}
