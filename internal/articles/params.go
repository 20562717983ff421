package articles

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a parsed limit/offset pair.
type Page struct {
	Limit  uint64
	Offset uint64
}

// ParsePage reads limit and offset from q. Missing, negative or non-numeric
// values fall back to the defaults; a zero limit means the default and
// limits above MaxLimit are clamped.
func ParsePage(q url.Values) Page {
	p := Page{
		Limit:  parseUint(q.Get("limit"), DefaultLimit),
		Offset: parseUint(q.Get("offset"), 0),
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func parseUint(value string, fallback uint64) uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
