// Package mailaddr canonicalizes the free-form sender and subject strings
// that arrive on inbound mail, so the threading logic can compare them.
package mailaddr

import (
	"regexp"
	"strings"
)

var (
	angleAddrRe   = regexp.MustCompile(`<([^>]+)>`)
	replyMarkerRe = regexp.MustCompile(`(?i)^(?:Re|Fwd|FW):\s*`)
)

// NormalizeAddress extracts the bare address from a "Display Name <addr>"
// string and lower-cases it. Input without angle brackets is trimmed and
// lower-cased as-is. Never fails; may return an empty string for empty input.
func NormalizeAddress(raw string) string {
	if m := angleAddrRe.FindStringSubmatch(raw); m != nil {
		return strings.ToLower(m[1])
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeSubject strips one leading reply/forward marker (Re:, Fwd:, FW:,
// case-insensitive) and lower-cases and trims the remainder. Only the first
// marker is removed: "Re: Re: hi" normalizes to "re: hi". Known limitation,
// kept to match how stored subjects were normalized historically.
func NormalizeSubject(raw string) string {
	return strings.ToLower(strings.TrimSpace(replyMarkerRe.ReplaceAllString(raw, "")))
}
