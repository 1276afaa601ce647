// Package masking redacts LCE's opaque fields (sig, auth) before they reach
// a log line (component N of SPEC_FULL.md), grounded on the teacher's
// Masker interface and fail-open/fail-closed MaskingService convention
// (pkg/masking/service.go). These fields are opaque by design (spec §4.C:
// "the core accepts any value") — masking never parses or validates them,
// only redacts for display.
package masking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// hashPrefixLen is how many hex characters of the SHA-256 digest to keep,
// enough to tell two values apart in a log stream without reproducing
// either one.
const hashPrefixLen = 8

// RedactOpaque replaces an opaque string (an LCE sig or auth value) with a
// fixed-shape placeholder carrying its length and a truncated hash, never
// the value itself. Safe to call on "".
func RedactOpaque(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("<redacted len=%d sha256=%s>", len(value), hex.EncodeToString(sum[:])[:hashPrefixLen])
}
