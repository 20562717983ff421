package articles

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	slugSuffixLen = 5
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Slugify lower-cases title, drops everything but ASCII letters, digits and
// whitespace, joins words with '-' and appends '-' plus suffix.
func Slugify(title, suffix string) string {
	s := strings.ToLower(title)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, "-")
	return s + "-" + suffix
}

// randomSuffix returns slugSuffixLen random base-36 characters.
func randomSuffix() string {
	b := make([]byte, slugSuffixLen)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}
