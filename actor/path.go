package actor

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// pathUnreserved is the RFC-2396-like character whitelist a path segment's
// characters must come from, beyond alphanumerics: spec.md §6's
// "unreserved set plus -_.*+:@&=,!~';".
const pathUnreserved = "-_.*+:@&=,!~';"

// ActorPathErrorKind enumerates the ways a path can fail to parse or
// validate. Two near-identical error enums existed in the source this was
// distilled from (one for segment validation, one for URI parsing); per the
// spec's Open Question decision they're consolidated into this one type.
type ActorPathErrorKind int

const (
	// KindEmptySegment is returned for a zero-length segment.
	KindEmptySegment ActorPathErrorKind = iota
	// KindInvalidCharacter is returned when a segment contains a character
	// outside the unreserved whitelist (and isn't a valid percent-encoded
	// triplet).
	KindInvalidCharacter
	// KindReservedPrefix is returned for a segment beginning with `$`, the
	// reserved prefix.
	KindReservedPrefix
	// KindMalformedURI names a structurally malformed canonical URI string.
	// This package has no URI parser, so nothing in it returns this kind.
	KindMalformedURI
)

func (k ActorPathErrorKind) String() string {
	switch k {
	case KindEmptySegment:
		return "empty_segment"
	case KindInvalidCharacter:
		return "invalid_character"
	case KindReservedPrefix:
		return "reserved_prefix"
	case KindMalformedURI:
		return "malformed_uri"
	default:
		return "unknown"
	}
}

// ActorPathError is the consolidated path error type.
type ActorPathError struct {
	Kind    ActorPathErrorKind
	Segment string
}

func (e *ActorPathError) Error() string {
	if e.Segment != "" {
		return "actor: path " + e.Kind.String() + ": " + e.Segment
	}
	return "actor: path " + e.Kind.String()
}

// Authority is the optional system-name-plus-host:port component of a
// canonical path URI, present only for remote/cluster paths.
type Authority struct {
	System string
	Host   string
	Port   int
}

// ActorPath is an ordered, non-empty sequence of path segments rooted at
// `/`, with an optional Authority and a per-segment unique identifier (UID)
// that distinguishes an actor from a prior incarnation occupying the same
// segment name. Paths compare by their canonical URI (Authority + segments);
// the UID is carried for debugging, not equality, since a restarted actor
// keeps its path but gets a fresh UID.
type ActorPath struct {
	Scheme    string
	Authority *Authority
	Segments  []string
	UID       string
}

// NewRootPath constructs the root path `/` for scheme (e.g. "bollywood")
// with no authority — the local, non-remoted case.
func NewRootPath(scheme string) *ActorPath {
	return &ActorPath{Scheme: scheme, UID: uuid.NewString()}
}

// Child returns a new path extending p with one more segment, validating
// the segment against the unreserved whitelist and minting a fresh UID.
func (p *ActorPath) Child(segment string) (*ActorPath, error) {
	if err := validateSegment(segment); err != nil {
		return nil, err
	}
	segments := make([]string, len(p.Segments)+1)
	copy(segments, p.Segments)
	segments[len(p.Segments)] = segment
	return &ActorPath{
		Scheme:    p.Scheme,
		Authority: p.Authority,
		Segments:  segments,
		UID:       uuid.NewString(),
	}, nil
}

// childReserved mints a child path with a system-generated segment (the
// `$N` auto-numbered form) without running it through validateSegment,
// which would otherwise reject the reserved `$` prefix it itself produces.
func (p *ActorPath) childReserved(segment string) *ActorPath {
	segments := make([]string, len(p.Segments)+1)
	copy(segments, p.Segments)
	segments[len(p.Segments)] = segment
	return &ActorPath{
		Scheme:    p.Scheme,
		Authority: p.Authority,
		Segments:  segments,
		UID:       uuid.NewString(),
	}
}

func validateSegment(segment string) error {
	if segment == "" {
		return &ActorPathError{Kind: KindEmptySegment}
	}
	if strings.HasPrefix(segment, "$") {
		return &ActorPathError{Kind: KindReservedPrefix, Segment: segment}
	}
	const hexDigits = "0123456789abcdefABCDEF"
	for i := 0; i < len(segment); i++ {
		if isUnreservedRune(rune(segment[i])) {
			continue
		}
		if segment[i] == '%' && i+2 < len(segment) &&
			strings.IndexByte(hexDigits, segment[i+1]) >= 0 &&
			strings.IndexByte(hexDigits, segment[i+2]) >= 0 {
			i += 2
			continue
		}
		return &ActorPathError{Kind: KindInvalidCharacter, Segment: segment}
	}
	return nil
}

func isUnreservedRune(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	return strings.ContainsRune(pathUnreserved, r)
}

// URI renders the canonical `{scheme}://[{system-name}[@host[:port]]]/{segments}`
// form used for equality comparisons (not for transport — spec.md §6 is
// explicit that no wire format is prescribed here). The system name appears
// only when Authority is set; a local path renders as `{scheme}:///...`.
func (p *ActorPath) URI() string {
	var b strings.Builder
	b.WriteString(p.Scheme)
	b.WriteString("://")
	if p.Authority != nil {
		b.WriteString(p.Authority.System)
		if p.Authority.Host != "" {
			b.WriteByte('@')
			b.WriteString(p.Authority.Host)
			if p.Authority.Port != 0 {
				b.WriteByte(':')
				b.WriteString(strconv.Itoa(p.Authority.Port))
			}
		}
	}
	for _, seg := range p.Segments {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	if len(p.Segments) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

// Equal compares two paths by canonical URI, per spec.md §3's "Paths are
// hashable" (equality, not identity — the UID is deliberately excluded).
func (p *ActorPath) Equal(other *ActorPath) bool {
	if other == nil {
		return false
	}
	return p.URI() == other.URI()
}

// String returns the canonical URI.
func (p *ActorPath) String() string { return p.URI() }
