package extract

import (
	"regexp"
	"strings"
)

// Words that start sentences capitalized without naming anything.
var stopwords = map[string]struct{}{
	"A": {}, "An": {}, "The": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"It": {}, "Its": {}, "He": {}, "She": {}, "They": {}, "We": {}, "You": {}, "I": {},
	"His": {}, "Her": {}, "Their": {}, "Our": {},
	"In": {}, "On": {}, "At": {}, "By": {}, "For": {}, "Of": {}, "To": {}, "From": {},
	"And": {}, "But": {}, "Or": {}, "If": {}, "When": {}, "While": {}, "After": {}, "Before": {},
	"There": {}, "Here": {}, "However": {}, "Although": {}, "Because": {}, "Since": {},
}

var capitalizedRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9'&-]*$`)

// Entities returns the named entities detected in a sentence: maximal runs of
// consecutive capitalized tokens, with standalone capitalized function words
// (sentence openers like "The" or "However") filtered out. Duplicates within
// one sentence are collapsed; order of first appearance is kept.
func Entities(sentence string) []string {
	var entities []string
	seen := make(map[string]struct{})
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		name := strings.Join(run, " ")
		run = nil
		if len(name) < 2 {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		entities = append(entities, name)
	}

	for _, word := range strings.Fields(sentence) {
		clean := strings.Trim(word, `.,;:!?"'()[]`)
		_, stop := stopwords[clean]
		if capitalizedRe.MatchString(clean) && !(stop && len(run) == 0) {
			run = append(run, clean)
		} else {
			flush()
		}
		// A token with trailing punctuation closes the current run even if
		// the token itself joined it ("...visited Paris. Then...").
		if strings.ContainsAny(word, ".,;:!?") {
			flush()
		}
	}
	flush()

	return entities
}
