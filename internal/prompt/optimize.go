package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// fillerRule removes all occurrences of a conversational filler pattern and
// contributes one label when it matches. Two rules may share a label; the
// applied-rule list is deduplicated in insertion order.
type fillerRule struct {
	re    *regexp.Regexp
	label string
}

// fillerRules are evaluated in order against the current (already modified)
// text. Ordering matters: "could you please" must be consumed before the
// bare "please" rule sees it.
var fillerRules = []fillerRule{
	{regexp.MustCompile(`(?i)\b(hey|hi|hello),?\s*`), "Removed greeting"},
	{regexp.MustCompile(`(?i)\bcould you\s+(please\s+)?`), "Removed polite phrasing"},
	{regexp.MustCompile(`(?i)\bplease\s+`), `Removed "please"`},
	{regexp.MustCompile(`(?i)\bI would like you to\s+`), "Removed verbose request"},
	{regexp.MustCompile(`(?i)\bcan you\s+`), `Removed "can you"`},
	{regexp.MustCompile(`(?i)\bmaybe\s+`), "Removed uncertainty words"},
	{regexp.MustCompile(`(?i)\bkind of\s+`), "Removed filler phrases"},
	{regexp.MustCompile(`(?i)\bsort of\s+`), "Removed filler phrases"},
	{regexp.MustCompile(`(?i)\byou know\s+`), "Removed conversational fillers"},
}

var (
	needYouToRe    = regexp.MustCompile(`(?i)I need you to\s+`)
	wantYouToRe    = regexp.MustCompile(`(?i)I want you to\s+`)
	directRe       = regexp.MustCompile(`(?i)I (need|want) you to`)
	verboseStyleRe = regexp.MustCompile(`(?i)in a (detailed|comprehensive|thorough) (manner|way)`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]+`)
	giveMeAllRe    = regexp.MustCompile(`(?i)give me (all|many|several|multiple)`)
	wordLimitRe    = regexp.MustCompile(`(?i)(in|under|within) \d+ words`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// placeholderMarker replaces content truncated by the long-prompt rule.
const placeholderMarker = "... [use placeholder for long content]"

// Optimize rewrites a prompt through the fixed rule pipeline and returns the
// rewritten text together with the labels of the rules that fired, in firing
// order. Pure and deterministic: same input, same output. Each step operates
// on the text as mutated by the steps before it, so the order below must not
// change.
func Optimize(input string) (string, []string) {
	optimized := strings.TrimSpace(input)
	rules := []string{}

	addRule := func(label string) {
		for _, r := range rules {
			if r == label {
				return
			}
		}
		rules = append(rules, label)
	}

	// Strip conversational fillers and politeness.
	for _, fr := range fillerRules {
		if fr.re.MatchString(optimized) {
			optimized = fr.re.ReplaceAllString(optimized, "")
			addRule(fr.label)
		}
	}

	// Shorten long instructions to direct commands. The label keys off the
	// original input: the filler pass may already have eaten part of the
	// phrase, but the conversion still happened.
	optimized = needYouToRe.ReplaceAllString(optimized, "")
	optimized = wantYouToRe.ReplaceAllString(optimized, "")
	if directRe.MatchString(input) {
		addRule("Converted to direct command")
	}

	// Collapse verbose style descriptions.
	if verboseStyleRe.MatchString(optimized) {
		optimized = verboseStyleRe.ReplaceAllString(optimized, "in detail")
		addRule("Simplified style description")
	}

	// Suggest structured output for long unstructured prompts. Only the
	// first three sentences survive; the rest are deliberately discarded.
	if CountChars(optimized) > 200 && !strings.Contains(optimized, "1)") {
		sentences := splitSentences(optimized)
		if len(sentences) > 2 {
			var b strings.Builder
			b.WriteString("Provide:")
			for i, s := range sentences[:3] {
				fmt.Fprintf(&b, "\n%d) %s", i+1, s)
			}
			optimized = b.String()
			addRule("Added structured format")
		}
	}

	// Suggest placeholders for very long content: keep the first 50 words.
	if CountChars(optimized) > 500 {
		words := strings.Fields(optimized)
		if len(words) > 100 {
			optimized = strings.Join(words[:50], " ") + placeholderMarker
			addRule("Suggested placeholder for long content")
		}
	}

	// Limit open-ended output requests.
	if giveMeAllRe.MatchString(optimized) {
		optimized = giveMeAllRe.ReplaceAllString(optimized, "Give me the best")
		addRule("Limited output request")
	}

	// Add a token-conscious constraint unless one is already present.
	if CountChars(optimized) > 300 && !wordLimitRe.MatchString(optimized) {
		optimized += " (Answer in under 50 words)"
		addRule("Added word limit constraint")
	}

	// Clean up extra whitespace.
	optimized = strings.TrimSpace(whitespaceRe.ReplaceAllString(optimized, " "))

	// Guarantee a non-empty rule list whenever any reduction occurred,
	// even a purely cosmetic one.
	if len(rules) == 0 && CountChars(optimized) < CountChars(input) {
		addRule("Removed extra whitespace")
	}

	return optimized, rules
}

// splitSentences splits on runs of sentence terminators and drops
// empty/whitespace-only fragments, trimming the rest.
func splitSentences(text string) []string {
	parts := sentenceEndRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
