package bridge

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// CheckBearer reports whether r carries a valid Authorization header
// for expected (constant-time compare to avoid a timing oracle).
// expected == "" disables auth entirely (every request passes).
func CheckBearer(r *http.Request, expected string) bool {
	if expected == "" {
		return true
	}
	got := r.Header.Get("Authorization")
	if !strings.HasPrefix(got, bearerPrefix) {
		return false
	}
	token := strings.TrimPrefix(got, bearerPrefix)
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// jdbcxHeaderPrefix marks a request header as a per-request config
// override (spec.md §6: "Any header prefixed jdbcx_ is forwarded as a
// configuration override; the prefix is stripped").
const jdbcxHeaderPrefix = "Jdbcx_"

// ExtractConfigOverrides pulls every jdbcx_-prefixed header into a flat
// option map with the prefix stripped. Per the Open Question
// resolution recorded in DESIGN.md, when both a prefixed and a bare
// header of the same (stripped) name are present, the prefixed form
// wins.
func ExtractConfigOverrides(h http.Header) map[string]string {
	out := make(map[string]string)
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		canonical := http.CanonicalHeaderKey(name)
		if strings.HasPrefix(canonical, jdbcxHeaderPrefix) {
			stripped := http.CanonicalHeaderKey(canonical[len(jdbcxHeaderPrefix):])
			out[stripped] = values[0]
		}
	}
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		canonical := http.CanonicalHeaderKey(name)
		if strings.HasPrefix(canonical, jdbcxHeaderPrefix) {
			continue
		}
		if _, alreadySetByPrefixed := out[canonical]; !alreadySetByPrefixed {
			out[canonical] = values[0]
		}
	}
	return out
}
