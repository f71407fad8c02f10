package prompt

import "unicode/utf8"

// CountChars returns the character count as runes (not bytes).
// This correctly handles multi-byte UTF-8 characters.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens approximates the LLM token count of text as one token per
// four characters, rounded up. A cheap proxy good enough for relative
// before/after comparison, not for absolute accuracy.
func EstimateTokens(text string) int {
	n := CountChars(text)
	return (n + 3) / 4
}
