package quality

import (
	"strings"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

// misconceptions lists wrong answers learners commonly give, keyed by a
// word that marks the subject in a question's text or topic.
var misconceptions = map[string][]string{
	"constitution": {"Declaration of Independence", "Articles of Confederation", "Federalist Papers", "Magna Carta"},
	"declaration":  {"Constitution", "Bill of Rights", "Emancipation Proclamation"},
	"amendment":    {"Bill of Rights", "Emancipation Proclamation", "Declaration of Independence"},
	"amendments":   {"Bill of Rights", "Emancipation Proclamation", "Declaration of Independence"},
	"branch":       {"Cabinet", "Federal Reserve", "military", "states", "political parties"},
	"branches":     {"Cabinet", "Federal Reserve", "military", "states", "political parties"},
	"rights":       {"right to drive", "right to a job", "freedom from taxes", "right to free housing"},
	"freedom":      {"right to drive", "right to a job", "freedom from taxes"},
	"senate":       {"House of Representatives", "Supreme Court", "Cabinet"},
	"senators":     {"Speaker of the House", "Vice President", "governor"},
	"congress":     {"Supreme Court", "President", "Cabinet"},
	"president":    {"Chief Justice", "Speaker of the House", "Secretary of State", "Senate Majority Leader"},
	"justice":      {"Attorney General", "Speaker of the House"},
	"court":        {"Congress", "Department of Justice", "Attorney General"},
	"war":          {"Revolutionary War", "Civil War", "War of 1812", "Spanish-American War"},
	"independence": {"Constitution", "Bill of Rights", "Treaty of Paris"},
	"capital":      {"New York City", "Philadelphia", "Los Angeles"},
	"citizens":     {"pay no taxes", "vote in every local election", "own property"},
	"economic":     {"communist economy", "socialist economy", "feudal economy"},
	"economy":      {"communist economy", "socialist economy", "feudal economy"},
	"government":   {"monarchy", "dictatorship", "theocracy", "direct democracy"},
}

// misconceptionsFor collects the known misconceptions for every subject
// word in q's text or topic, keyed by their bare form.
func misconceptionsFor(q quiz.Question) map[string]bool {
	out := make(map[string]bool)
	for word := range strings.FieldsSeq(strings.ToLower(q.Text+" "+q.Topic)) {
		word = strings.Trim(word, ".,;:?!'\"()")
		for _, m := range misconceptions[word] {
			out[bare(m)] = true
		}
	}
	return out
}
