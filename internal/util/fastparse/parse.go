// Package fastparse provides an allocation-light string-to-float conversion
// for the venue adapters' hot path: every book update carries price and
// quantity as JSON strings, not numbers, and strconv beats fmt for parsing.
package fastparse

import (
	"math"
	"strconv"
)

// ParseFloatOK parses s, reporting ok=false on failure instead of an error.
// NaN and infinite values count as failures, so only finite numbers are
// accepted. Adapters use this for the "parse failures silently drop the
// field" rule: an unparseable bid/ask leaves that side of the Quote unset
// rather than aborting the whole frame.
func ParseFloatOK(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
