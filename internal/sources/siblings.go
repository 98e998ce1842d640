package sources

import "github.com/talesin/civics100-sub000/internal/quiz"

// Siblings indexes a question set by section and topic so a question can
// borrow the correct answers of its neighbours.
type Siblings struct {
	bySection map[string][]quiz.Question
	byTopic   map[string][]quiz.Question
}

// NewSiblings indexes questions. Order within each group follows the input.
func NewSiblings(questions []quiz.Question) *Siblings {
	s := &Siblings{
		bySection: make(map[string][]quiz.Question),
		byTopic:   make(map[string][]quiz.Question),
	}
	for _, q := range questions {
		s.bySection[q.Section] = append(s.bySection[q.Section], q)
		s.byTopic[q.Topic] = append(s.byTopic[q.Topic], q)
	}
	return s
}

// SectionSiblings returns correct answers of other questions of the same
// kind in q's section, minus q's own correct answers.
func (s *Siblings) SectionSiblings(q quiz.Question) []string {
	return exclude(q, answersOf(q, s.bySection[q.Section]))
}

// TopicSiblings widens SectionSiblings to the whole topic.
func (s *Siblings) TopicSiblings(q quiz.Question) []string {
	return exclude(q, answersOf(q, s.byTopic[q.Topic]))
}

// SectionPeers returns the other questions in q's section.
func (s *Siblings) SectionPeers(q quiz.Question) []quiz.Question {
	var out []quiz.Question
	for _, p := range s.bySection[q.Section] {
		if p.ID != q.ID {
			out = append(out, p)
		}
	}
	return out
}

func answersOf(q quiz.Question, group []quiz.Question) []string {
	var out []string
	for _, p := range group {
		if p.ID == q.ID || p.Kind != q.Kind {
			continue
		}
		out = append(out, p.CorrectAnswers...)
	}
	return out
}
