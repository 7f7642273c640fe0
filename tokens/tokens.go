// Package tokens implements the system-wide token heuristic and the
// byte-budget text truncation backing budget enforcement. Tokens are defined
// as ceil(byteLength/4); the heuristic is intentionally approximate and
// authoritative by design.
package tokens

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Ellipsis is the fixed suffix appended to truncated text.
const Ellipsis = "..."

// BytesPerToken is the byte width of one heuristic token.
const BytesPerToken = 4

// Estimate returns the token cost of text: ceil(byteLength/4).
func Estimate(text string) int {
	return (len(text) + BytesPerToken - 1) / BytesPerToken
}

// Budget converts a token count into the byte budget it can hold.
func Budget(tokenCount int) int {
	if tokenCount <= 0 {
		return 0
	}
	return tokenCount * BytesPerToken
}

// Truncate returns text unchanged if its UTF-8 byte length fits maxBytes;
// otherwise the longest prefix that never splits a grapheme cluster and fits
// in maxBytes-len(Ellipsis) bytes, followed by Ellipsis. If maxBytes cannot
// even hold the suffix, the suffix itself is cut to maxBytes. A negative
// maxBytes is treated as zero.
//
// Truncate is idempotent: applying it twice with the same budget returns the
// first result unchanged.
func Truncate(text string, maxBytes int) string {
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(text) <= maxBytes {
		return text
	}
	if maxBytes <= len(Ellipsis) {
		return Ellipsis[:maxBytes]
	}

	budget := maxBytes - len(Ellipsis)
	width := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		cluster, tail, _, next := uniseg.FirstGraphemeClusterInString(rest, state)
		if width+len(cluster) > budget {
			break
		}
		width += len(cluster)
		rest = tail
		state = next
	}

	return text[:width] + Ellipsis
}

// TruncateBytes is the raw fallback used when grapheme segmentation is not
// wanted: it cuts at the last UTF-8 code point boundary within the budget,
// silently dropping an incomplete trailing sequence. Multi-byte code points
// are never split; grapheme clusters may be.
func TruncateBytes(text string, maxBytes int) string {
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(text) <= maxBytes {
		return text
	}
	if maxBytes <= len(Ellipsis) {
		return Ellipsis[:maxBytes]
	}

	budget := maxBytes - len(Ellipsis)
	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return text[:cut] + Ellipsis
}
