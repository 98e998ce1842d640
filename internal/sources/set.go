package sources

import (
	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// Set bundles the read-only collaborators every non-LLM source draws on,
// plus the run's usage tracker.
type Set struct {
	Curated  Curated
	Pools    Pools
	Siblings *Siblings
	Usage    *UsageTracker
}

// NewSet builds a Set over the full question set.
func NewSet(questions []quiz.Question, curated Curated, pools Pools, usage *UsageTracker) *Set {
	if curated == nil {
		curated = Curated{}
	}
	if pools == nil {
		pools = DefaultPools()
	}
	return &Set{
		Curated:  curated,
		Pools:    pools,
		Siblings: NewSiblings(questions),
		Usage:    usage,
	}
}

// CuratedFor returns the hand-written distractors for q in file order.
func (s *Set) CuratedFor(q quiz.Question) []Candidate {
	return FromTexts(exclude(q, s.Curated.Lookup(q.ID)), strategy.Curated)
}

// PoolLookup returns the reference pool for q's kind minus q's correct
// answers, least-used first. Free-text questions have no pool.
func (s *Set) PoolLookup(q quiz.Question) []Candidate {
	if !q.Kind.Structured() {
		return nil
	}
	return FromTexts(s.Usage.Order(exclude(q, s.Pools[q.Kind])), strategy.PoolLookup)
}

// SiblingReuse returns the correct answers of q's section siblings,
// least-used first.
func (s *Set) SiblingReuse(q quiz.Question) []Candidate {
	return FromTexts(s.Usage.Order(s.Siblings.SectionSiblings(q)), strategy.SiblingReuse)
}

// Hybrid merges topic-wide sibling answers with the curated distractors of
// the other questions in q's section.
func (s *Set) Hybrid(q quiz.Question) []Candidate {
	texts := s.Siblings.TopicSiblings(q)
	for _, p := range s.Siblings.SectionPeers(q) {
		if p.Kind == q.Kind {
			texts = append(texts, s.Curated.Lookup(p.ID)...)
		}
	}
	return FromTexts(s.Usage.Order(exclude(q, texts)), strategy.Hybrid)
}

// Lookup dispatches to the source for a non-LLM strategy. It returns nil
// for strategies it does not serve.
func (s *Set) Lookup(st strategy.Strategy, q quiz.Question) []Candidate {
	switch st {
	case strategy.Curated:
		return s.CuratedFor(q)
	case strategy.PoolLookup:
		return s.PoolLookup(q)
	case strategy.SiblingReuse:
		return s.SiblingReuse(q)
	case strategy.Hybrid:
		return s.Hybrid(q)
	}
	return nil
}
