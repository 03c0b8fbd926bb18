package engine

import (
	"errors"
	"net/url"
	"strings"
)

// ErrMissingTarget is returned when the request URI carries no target
// parameter, or an empty one.
var ErrMissingTarget = errors.New("missing target parameter")

// ExtractTarget pulls the destination URL out of a raw request URI. The
// target is everything after the first "target=", so query parameters that
// belong to the destination survive even though they look like parameters
// of the proxy request itself:
//
//	/proxy?target=https%3A%2F%2Fapi.example.com%2Fusers?page=2&sort=name
//
// yields "https://api.example.com/users?page=2&sort=name" after decoding.
func ExtractTarget(rawURI string) (string, error) {
	pos := -1
	for _, marker := range []string{"?target=", "&target="} {
		if i := strings.Index(rawURI, marker); i >= 0 && (pos == -1 || i < pos) {
			pos = i
		}
	}
	if pos == -1 {
		return "", ErrMissingTarget
	}

	encoded := rawURI[pos+len("?target="):]
	if encoded == "" {
		return "", ErrMissingTarget
	}

	// PathUnescape rather than QueryUnescape: a literal "+" in an
	// unencoded target is part of the URL, not a form-encoded space.
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		// Not valid percent-encoding; pass the raw value through and let
		// target parsing decide.
		decoded = encoded
	}
	if decoded == "" {
		return "", ErrMissingTarget
	}
	return decoded, nil
}
