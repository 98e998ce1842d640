package quiz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Choice is one answer choice. The set of variants is closed: TextChoice,
// SenatorChoice, RepresentativeChoice, GovernorChoice, CapitalChoice and
// PresidentChoice.
type Choice interface {
	kind() AnswerKind
}

type TextChoice struct {
	Text string `json:"text"`
}

type SenatorChoice struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type RepresentativeChoice struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	District string `json:"district"`
}

type GovernorChoice struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type CapitalChoice struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type PresidentChoice struct {
	Name string `json:"name"`
}

func (TextChoice) kind() AnswerKind           { return KindText }
func (SenatorChoice) kind() AnswerKind        { return KindSenator }
func (RepresentativeChoice) kind() AnswerKind { return KindRepresentative }
func (GovernorChoice) kind() AnswerKind       { return KindGovernor }
func (CapitalChoice) kind() AnswerKind        { return KindCapital }
func (PresidentChoice) kind() AnswerKind      { return KindPresident }

// KindOf returns the answer kind a choice variant belongs to.
func KindOf(c Choice) AnswerKind {
	return c.kind()
}

// ChoiceText extracts the answer text shown to the quiz taker.
func ChoiceText(c Choice) string {
	switch v := c.(type) {
	case TextChoice:
		return v.Text
	case SenatorChoice:
		return v.Name
	case RepresentativeChoice:
		return v.Name
	case GovernorChoice:
		return v.Name
	case CapitalChoice:
		return v.City
	case PresidentChoice:
		return v.Name
	}
	// Unreachable: Choice cannot be implemented outside this package.
	panic(fmt.Sprintf("quiz: unknown choice variant %T", c))
}

// DecodeChoice parses one answer entry. A bare JSON string is a TextChoice;
// an object must carry a known "_type" tag and a non-empty answer field.
func DecodeChoice(raw json.RawMessage) (Choice, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode text choice: %w", err)
		}
		return checkChoice(TextChoice{Text: s})
	}

	var tag struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("decode choice: %w", err)
	}

	var (
		c   Choice
		err error
	)
	switch AnswerKind(tag.Type) {
	case KindText:
		c, err = decodeAs[TextChoice](raw)
	case KindSenator:
		c, err = decodeAs[SenatorChoice](raw)
	case KindRepresentative:
		c, err = decodeRepresentative(raw)
	case KindGovernor:
		c, err = decodeAs[GovernorChoice](raw)
	case KindCapital:
		c, err = decodeAs[CapitalChoice](raw)
	case KindPresident:
		c, err = decodeAs[PresidentChoice](raw)
	case "":
		return nil, fmt.Errorf("choice is missing its _type tag")
	default:
		return nil, fmt.Errorf("unknown choice type %q", tag.Type)
	}
	if err != nil {
		return nil, err
	}
	return checkChoice(c)
}

func decodeAs[T Choice](raw json.RawMessage) (Choice, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s choice: %w", v.kind(), err)
	}
	return v, nil
}

// decodeRepresentative accepts the district as either a number or a string
// ("at-large" seats have no number).
func decodeRepresentative(raw json.RawMessage) (Choice, error) {
	var v struct {
		Name     string          `json:"name"`
		State    string          `json:"state"`
		District json.RawMessage `json:"district"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode representative choice: %w", err)
	}
	rc := RepresentativeChoice{Name: v.Name, State: v.State}
	if len(v.District) > 0 {
		var n int
		if err := json.Unmarshal(v.District, &n); err == nil {
			rc.District = strconv.Itoa(n)
		} else if err := json.Unmarshal(v.District, &rc.District); err != nil {
			return nil, fmt.Errorf("decode representative district: %w", err)
		}
	}
	return rc, nil
}

func checkChoice(c Choice) (Choice, error) {
	if strings.TrimSpace(ChoiceText(c)) == "" {
		return nil, fmt.Errorf("%s choice has no answer text", c.kind())
	}
	return c, nil
}
