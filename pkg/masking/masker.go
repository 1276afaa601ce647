package masking

// Masker is the interface for a named redaction rule over a single opaque
// string field (an LCE sig or an LHS Bind auth payload). AppliesTo lets a
// caller skip maskers that don't apply without invoking Mask; Mask itself
// must be defensive and never panic on malformed input.
type Masker interface {
	// Name identifies the masker in logs (e.g. "lhs-auth").
	Name() string

	// AppliesTo performs a lightweight check on whether this masker
	// should process data. Should be fast (string comparison, not parsing).
	AppliesTo(data string) bool

	// Mask applies masking logic and returns the masked result.
	Mask(data string) string
}
