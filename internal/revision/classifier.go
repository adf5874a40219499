// Package revision decides whether a chat turn replaces the current plan.
//
// The rule is a conservative keyword heuristic: the user must ask for a
// change, the reply must announce a plan, and the reply must be long enough to
// be a full document rather than a clarifying answer. Missing a real revision
// is preferred over overwriting a plan with ordinary Q&A.
package revision

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the minimum response length, in bytes of raw text, for
// a reply to count as a rewritten plan. Length is a coarse proxy for "this is
// a whole plan"; it does not look at tokens or meaning.
const DefaultMinLength = 500

var defaultIntentWords = []string{
	"change", "modify", "update", "different", "alternative", "new plan",
	"plan b", "plan c", "revise", "adjust", "replace", "switch",
}

var defaultPlanPhrases = []string{
	"updated plan", "new plan", "modified plan", "here's your plan",
	"here is your plan", "complete plan", "revised plan", "alternative plan",
	"full plan", "plan b", "workout plan", "meal plan", "nutrition plan",
	"fitness plan", "wellness plan",
}

// Policy is the classifier configuration. Vocabularies are matched as
// case-insensitive substrings.
type Policy struct {
	IntentWords []string
	PlanPhrases []string
	MinLength   int
}

func DefaultPolicy() Policy {
	return Policy{
		IntentWords: append([]string(nil), defaultIntentWords...),
		PlanPhrases: append([]string(nil), defaultPlanPhrases...),
		MinLength:   DefaultMinLength,
	}
}

type Classifier struct {
	intent  []string
	phrases []string
	minLen  int
}

func NewClassifier(p Policy) *Classifier {
	return &Classifier{
		intent:  lowerAll(p.IntentWords),
		phrases: lowerAll(p.PlanPhrases),
		minLen:  p.MinLength,
	}
}

// Classify reports whether (message, response) is a plan revision. It is a
// pure function of its inputs.
func (c *Classifier) Classify(message, response string) bool {
	if len(response) <= c.minLen {
		return false
	}
	if !containsAny(strings.ToLower(message), c.intent) {
		return false
	}
	return containsAny(strings.ToLower(response), c.phrases)
}

const (
	summaryMaxLen = 200
	previewMaxLen = 150
)

// Summary derives the short modification summary stored on the plan.
func Summary(message string) string {
	return "User requested: " + truncate(strings.TrimSpace(message), summaryMaxLen)
}

// Preview derives the ledger preview of an accepted revision.
func Preview(response string) string {
	return truncate(strings.TrimSpace(response), previewMaxLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
