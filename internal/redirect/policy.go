// Package redirect constrains which callback URIs a caller may request.
// The comparison is exact-string: no prefix matching, no scheme or case
// normalization, so a trailing slash, a case variation, or a smuggled query
// string never matches an allow-listed entry.
package redirect

// Policy resolves a requested redirect URI against the configured allow-list.
type Policy struct {
	allowed  map[string]struct{}
	fallback string
	allowAny bool
}

// NewPolicy builds a policy from the allow-list and the default URI. The
// default is always a member of the effective set. allowAny is an explicit
// opt-in to accept arbitrary caller-supplied URIs; the safe exact-match
// behavior is the default.
func NewPolicy(allowed []string, fallback string, allowAny bool) *Policy {
	set := make(map[string]struct{}, len(allowed)+1)
	for _, uri := range allowed {
		if uri != "" {
			set[uri] = struct{}{}
		}
	}
	set[fallback] = struct{}{}
	return &Policy{
		allowed:  set,
		fallback: fallback,
		allowAny: allowAny,
	}
}

// Resolve returns the requested URI when it matches the allow-list exactly,
// the configured default otherwise. It never fails: config validation
// guarantees a non-empty default.
func (p *Policy) Resolve(requested string) string {
	if requested == "" {
		return p.fallback
	}
	if p.allowAny {
		return requested
	}
	if _, ok := p.allowed[requested]; ok {
		return requested
	}
	return p.fallback
}

// Default returns the configured fallback URI.
func (p *Policy) Default() string {
	return p.fallback
}
