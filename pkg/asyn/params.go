package asyn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadParams is returned for a malformed record parameter string.
var ErrBadParams = errors.New("malformed record parameters")

// ParseParams splits a parameter string of the form
// KEY=value,KEY="quoted, value",... into a map. Order is not kept.
func ParseParams(s string) (map[string]string, error) {
	out := make(map[string]string)
	for i := 0; i < len(s); {
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: missing '=' after %q", ErrBadParams, s[i:])
		}
		key := s[i : i+eq]
		if key == "" {
			return nil, fmt.Errorf("%w: empty key at offset %d", ErrBadParams, i)
		}
		i += eq + 1

		var val string
		if i < len(s) && s[i] == '"' {
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated quote for %s", ErrBadParams, key)
			}
			val = s[i+1 : i+1+end]
			i += end + 2
		} else {
			end := strings.IndexByte(s[i:], ',')
			if end < 0 {
				end = len(s) - i
			}
			val = s[i : i+end]
			i += end
		}

		if i < len(s) {
			if s[i] != ',' {
				return nil, fmt.Errorf("%w: expected ',' after %s", ErrBadParams, key)
			}
			i++
		}
		out[key] = val
	}
	return out, nil
}
