package probe

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is the storefront being probed.
type Target struct {
	// Raw is the url as given by the caller.
	Raw string
	// Origin is scheme://host[:port], candidate pages and the checkout are resolved against it.
	Origin string
	// NormalizedBase is Raw without trailing slashes, used for the classic add-to-cart url.
	NormalizedBase string
}

// ParseTarget validates an absolute http(s) url.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, parsed.Scheme)
	}
	if parsed.Host == "" {
		return Target{}, fmt.Errorf("%w: missing host", ErrInvalidTarget)
	}

	return Target{
		Raw:            raw,
		Origin:         fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		NormalizedBase: strings.TrimRight(raw, "/"),
	}, nil
}

func (t Target) resolve(path string) string {
	return t.Origin + path
}
