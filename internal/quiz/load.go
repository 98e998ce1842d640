package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// fileQuestion is the on-disk shape of a question.
type fileQuestion struct {
	ID      string            `json:"id"`
	Text    string            `json:"question"`
	Topic   string            `json:"topic"`
	Section string            `json:"section"`
	Kind    AnswerKind        `json:"kind,omitempty"`
	Answers []json.RawMessage `json:"answers"`
}

type questionFile struct {
	Questions []fileQuestion `json:"questions"`
}

// LoadFile reads a question file from disk.
func LoadFile(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a question set. Every error names the
// offending question.
func Load(r io.Reader) ([]Question, error) {
	var file questionFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(file.Questions) == 0 {
		return nil, errors.New("question file contains no questions")
	}

	seen := make(map[string]bool, len(file.Questions))
	out := make([]Question, 0, len(file.Questions))
	for i, fq := range file.Questions {
		q, err := buildQuestion(fq)
		if err != nil {
			id := fq.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("question %s: %w", id, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("question %s: duplicate id", q.ID)
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out, nil
}

func buildQuestion(fq fileQuestion) (Question, error) {
	if strings.TrimSpace(fq.ID) == "" {
		return Question{}, errors.New("missing id")
	}
	if strings.TrimSpace(fq.Text) == "" {
		return Question{}, errors.New("missing question text")
	}
	if len(fq.Answers) == 0 {
		return Question{}, errors.New("no answers")
	}

	answers := make([]string, 0, len(fq.Answers))
	var inferred AnswerKind
	for j, raw := range fq.Answers {
		c, err := DecodeChoice(raw)
		if err != nil {
			return Question{}, fmt.Errorf("answer %d: %w", j+1, err)
		}
		switch {
		case inferred == "":
			inferred = KindOf(c)
		case inferred != KindOf(c):
			return Question{}, fmt.Errorf("answer %d: mixes %s and %s choices", j+1, inferred, KindOf(c))
		}
		answers = append(answers, strings.TrimSpace(ChoiceText(c)))
	}

	kind := fq.Kind
	if kind == "" {
		kind = inferred
	}
	if !kind.Valid() {
		return Question{}, fmt.Errorf("unknown answer kind %q", kind)
	}
	if kind != inferred {
		return Question{}, fmt.Errorf("kind %s does not match %s answers", kind, inferred)
	}

	return Question{
		ID:             strings.TrimSpace(fq.ID),
		Text:           strings.TrimSpace(fq.Text),
		Topic:          strings.TrimSpace(fq.Topic),
		Section:        strings.TrimSpace(fq.Section),
		Kind:           kind,
		CorrectAnswers: answers,
	}, nil
}

// Find returns the question with the given id.
func Find(questions []Question, id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
