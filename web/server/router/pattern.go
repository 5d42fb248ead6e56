package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.hackfix.me/switchyard/web/server/handler"
)

// Pattern errors.
var (
	ErrInvalidPattern = errors.New("invalid route pattern")
	ErrDuplicateParam = errors.New("duplicate route parameter")
)

// segment is a single path segment of a pattern. If param is true, name is the
// parameter name, otherwise it's the literal value.
type segment struct {
	name  string
	param bool
}

// Pattern is a parsed route pattern: an HTTP method and a sequence of literal
// and named parameter segments.
type Pattern struct {
	method   string
	path     string
	segments []segment
}

// ParsePattern parses a route pattern. The method is normalized to upper case.
// The path must start with '/', and segments starting with ':' are named
// parameters whose names must be unique within the pattern. "/" is the empty
// segment sequence, and a trailing slash adds an empty literal segment.
func ParsePattern(method, path string) (*Pattern, error) {
	m := strings.ToUpper(method)
	if !validMethod(m) {
		return nil, fmt.Errorf("%w: invalid method '%s'", ErrInvalidPattern, method)
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path '%s' must start with '/'", ErrInvalidPattern, path)
	}

	p := &Pattern{method: m, path: path}
	seen := map[string]struct{}{}
	for i, s := range splitPath(path) {
		name, isParam := strings.CutPrefix(s, ":")
		if !isParam {
			lit, err := url.PathUnescape(s)
			if err != nil {
				return nil, fmt.Errorf("%w: segment %d of '%s': %w", ErrInvalidPattern, i, path, err)
			}
			p.segments = append(p.segments, segment{name: lit})
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("%w: empty parameter name in '%s'", ErrInvalidPattern, path)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateParam, name, path)
		}
		seen[name] = struct{}{}
		p.segments = append(p.segments, segment{name: name, param: true})
	}

	return p, nil
}

// Method returns the normalized method of the pattern.
func (p *Pattern) Method() string {
	return p.method
}

// String returns the pattern path as it was registered.
func (p *Pattern) String() string {
	return p.path
}

// Match reports whether the request method and path match the pattern, and
// returns the bound parameters. The method comparison is exact. Literal
// segments are compared case-sensitively after percent-decoding, and
// parameters match any non-empty segment.
func (p *Pattern) Match(method, path string) (handler.Params, bool) {
	if method != p.method {
		return nil, false
	}
	segs, ok := decodePath(path)
	if !ok {
		return nil, false
	}

	return p.match(segs)
}

func (p *Pattern) match(segs []string) (handler.Params, bool) {
	if len(segs) != len(p.segments) {
		return nil, false
	}

	var params handler.Params
	for i, s := range p.segments {
		switch {
		case s.param && segs[i] == "":
			return nil, false
		case s.param:
			params = append(params, handler.Param{Name: s.name, Value: segs[i]})
		case s.name != segs[i]:
			return nil, false
		}
	}

	return params, true
}

// shape returns a key that is equal for patterns matching the same paths,
// regardless of parameter names.
func (p *Pattern) shape() string {
	var sb strings.Builder
	sb.WriteString(p.method)
	for _, s := range p.segments {
		sb.WriteByte('/')
		if s.param {
			sb.WriteByte(':')
		} else {
			sb.WriteString(url.PathEscape(s.name))
		}
	}

	return sb.String()
}

// moreSpecific reports whether p takes precedence over o. Both patterns must
// have the same number of segments. At the first position where one has a
// literal and the other a parameter, the literal wins.
func (p *Pattern) moreSpecific(o *Pattern) bool {
	for i, s := range p.segments {
		if s.param != o.segments[i].param {
			return !s.param
		}
	}
	return false
}

// splitPath splits a path into its raw segments. "/" is the empty sequence.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// decodePath splits an escaped request path and percent-decodes each segment,
// so that an encoded '/' stays within its segment.
func decodePath(escaped string) ([]string, bool) {
	raw := splitPath(escaped)
	segs := make([]string, len(raw))
	for i, s := range raw {
		dec, err := url.PathUnescape(s)
		if err != nil {
			return nil, false
		}
		segs[i] = dec
	}

	return segs, true
}

// validMethod reports whether m is a valid HTTP method token.
func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for _, r := range m {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
