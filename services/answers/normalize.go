package answers

import (
	"regexp"
	"strings"
)

// Providers keep sneaking markdown and enumeration prefixes into answers even
// when the prompt forbids them. Normalize strips the usual offenders so the
// pool only ever holds plain text.
var (
	reBold      = regexp.MustCompile(`\*{1,3}([^*]*)\*{1,3}`)
	reUnderline = regexp.MustCompile(`_{1,3}([^_]*)_{1,3}`)
	reHeading   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBullet    = regexp.MustCompile(`(?m)^\s*[-*]\s+`)
	reTipPrefix = regexp.MustCompile(`(?i)^\s*tipp?\s*\d+\s*[:\-.]?\s*`)
	reNumPrefix = regexp.MustCompile(`^\s*\d+[.)]\s*`)
)

// Normalize removes markdown emphasis, heading and list markers, and leading
// "Tipp 1:" / "1." style enumerations from a provider answer. It is
// idempotent: normalizing an already clean string changes nothing.
func Normalize(raw string) string {
	text := reBold.ReplaceAllString(raw, "$1")
	text = reUnderline.ReplaceAllString(text, "$1")
	text = reHeading.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	text = reTipPrefix.ReplaceAllString(text, "")
	text = reNumPrefix.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
