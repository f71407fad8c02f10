package prompt

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// SignaturePrefixChars bounds how much of each prompt contributes to the
// content signature. Two distinct long prompts sharing the same 50-character
// prefixes on both sides are treated as duplicates; a coarse fingerprint,
// not a hash.
const SignaturePrefixChars = 50

// Optimization is a persisted prompt optimization. Immutable after creation;
// destroyed only by an explicit bulk clear of the history store.
type Optimization struct {
	// ID is a ULID that uniquely identifies this optimization
	ID string `json:"id"`

	// Signature is the coarse content fingerprint used for duplicate detection
	Signature string `json:"signature"`

	// OriginalPrompt is the text as submitted for analysis
	OriginalPrompt string `json:"original_prompt"`

	// OptimizedPrompt is the rewritten text at save time
	OptimizedPrompt string `json:"optimized_prompt"`

	// OriginalChars and OptimizedChars are rune counts of the two prompts
	OriginalChars  int `json:"original_chars"`
	OptimizedChars int `json:"optimized_chars"`

	// EstimatedSavings is the CO2-equivalent mass (kg) attributed to this
	// optimization. Never negative.
	EstimatedSavings float64 `json:"estimated_savings"`

	// CreatedAt is a nanosecond timestamp from the store clock, or a local
	// clock reading scaled to nanoseconds when the store clock is unavailable
	CreatedAt int64 `json:"created_at"`
}

// NewOptimization builds a record for the given content pair. The caller
// supplies the timestamp so the store clock can be preferred over the local
// one.
func NewOptimization(original, optimized string, estimatedSavings float64, nowNanos int64) (*Optimization, error) {
	id, err := generateULID()
	if err != nil {
		return nil, err
	}
	return &Optimization{
		ID:               id,
		Signature:        Signature(original, optimized),
		OriginalPrompt:   original,
		OptimizedPrompt:  optimized,
		OriginalChars:    CountChars(original),
		OptimizedChars:   CountChars(optimized),
		EstimatedSavings: estimatedSavings,
		CreatedAt:        nowNanos,
	}, nil
}

// ReductionPercent derives the display-only character reduction percentage.
// Returns 0 for a zero-length original rather than dividing by zero.
func (o *Optimization) ReductionPercent() float64 {
	if o.OriginalChars == 0 {
		return 0
	}
	return float64(o.OriginalChars-o.OptimizedChars) / float64(o.OriginalChars) * 100
}

// Signature derives the content fingerprint for a prompt pair: the first 50
// characters of each side joined with "-".
func Signature(original, optimized string) string {
	return prefixChars(original, SignaturePrefixChars) + "-" + prefixChars(optimized, SignaturePrefixChars)
}

// prefixChars returns the first n runes of s.
func prefixChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
