package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var articles = []string{"the ", "a ", "an "}

const rightTo = "right to "

// standardize nudges a candidate's surface form towards the correct
// answers' so it does not stand out by shape alone.
func standardize(c string, correct []string) string {
	if len(correct) == 0 {
		return c
	}

	withArticle, withRightTo := 0, 0
	for _, a := range correct {
		l := strings.ToLower(strings.TrimSpace(a))
		if articleOf(l) != "" {
			withArticle++
		}
		if strings.HasPrefix(l, rightTo) {
			withRightTo++
		}
	}

	out := c
	if withArticle == 0 {
		out = stripPrefix(out, articleOf(strings.ToLower(out)))
	}
	if withRightTo == 0 && strings.HasPrefix(strings.ToLower(out), rightTo) {
		out = stripPrefix(out, rightTo)
	}
	if withArticle == len(correct) && articleOf(strings.ToLower(out)) == "" {
		lead := strings.TrimSpace(correct[0])
		out = lead[:len(articleOf(strings.ToLower(lead)))] + out
	}
	return out
}

func articleOf(lower string) string {
	for _, a := range articles {
		if strings.HasPrefix(lower, a) {
			return a
		}
	}
	return ""
}

// stripPrefix removes prefix and keeps the original's leading capital.
func stripPrefix(s, prefix string) string {
	if prefix == "" {
		return s
	}
	first, _ := utf8.DecodeRuneInString(s)
	rest := strings.TrimSpace(s[len(prefix):])
	if rest == "" {
		return s
	}
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(rest)
		rest = string(unicode.ToUpper(r)) + rest[size:]
	}
	return rest
}
