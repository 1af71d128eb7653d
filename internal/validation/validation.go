// Package validation scores a synthesized brief against quality gates:
// word-count band, source diversity, and reading level.
package validation

import (
	"regexp"
	"strings"
)

const (
	MinWords = 250
	MaxWords = 350

	// MinDomains is the least number of distinct source hosts a brief
	// must cite to count as diverse.
	MinDomains = 3

	// MaxGradeLevel is the acceptance ceiling for the Flesch-Kincaid
	// grade of the brief text.
	MaxGradeLevel = 10.0

	// GradeSentinel is reported when the text has no scorable sentences
	// or words; it always fails the readability gate.
	GradeSentinel = 99.0
)

var (
	wordRe     = regexp.MustCompile(`\b\w+\b`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
	vowelRe    = regexp.MustCompile(`[aeiouy]+`)
)

// Report records the measured values plus pass/fail per gate.
type Report struct {
	WordCount     int     `json:"word_count"`
	DomainCount   int     `json:"domain_count"`
	GradeLevel    float64 `json:"grade_level"`
	WordsOK       bool    `json:"words_ok"`
	DomainsOK     bool    `json:"domains_ok"`
	ReadabilityOK bool    `json:"readability_ok"`
}

// Passed reports whether every gate passed.
func (r Report) Passed() bool {
	return r.WordsOK && r.DomainsOK && r.ReadabilityOK
}

// Validate scores text against the gates, with domains the source hosts
// cited by the brief (empties ignored, duplicates counted once).
func Validate(text string, domains []string) Report {
	wc := len(wordRe.FindAllString(text, -1))

	distinct := make(map[string]bool)
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			distinct[strings.ToLower(d)] = true
		}
	}

	grade := GradeLevel(text)

	return Report{
		WordCount:     wc,
		DomainCount:   len(distinct),
		GradeLevel:    grade,
		WordsOK:       wc >= MinWords && wc <= MaxWords,
		DomainsOK:     len(distinct) >= MinDomains,
		ReadabilityOK: grade <= MaxGradeLevel,
	}
}

// GradeLevel computes the Flesch-Kincaid grade of text:
//
//	0.39*(words/sentences) + 11.8*(syllables/words) - 15.59
//
// Sentences are terminated by runs of . ! ?; syllables come from a vowel-group
// heuristic. Returns GradeSentinel when no words or sentences are found.
func GradeLevel(text string) float64 {
	words := wordRe.FindAllString(text, -1)
	sentences := countSentences(text)
	if len(words) == 0 || sentences == 0 {
		return GradeSentinel
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	return 0.39*(float64(len(words))/float64(sentences)) +
		11.8*(float64(syllables)/float64(len(words))) - 15.59
}

func countSentences(text string) int {
	n := len(sentenceRe.FindAllString(text, -1))
	if n == 0 && len(strings.TrimSpace(text)) > 0 {
		// Unterminated prose still reads as one sentence.
		return 1
	}
	return n
}

// countSyllables approximates syllables as vowel groups, discounting a
// trailing silent 'e', with a floor of one.
func countSyllables(word string) int {
	w := strings.ToLower(word)
	n := len(vowelRe.FindAllString(w, -1))
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && n > 1 {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}
