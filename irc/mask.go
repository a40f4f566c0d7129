package irc

import (
	"regexp"
	"strings"
)

var (
	// rgxMask validates and splits masks.
	rgxMask = regexp.MustCompile(
		`(?i)^` +
			`([\w\x5B-\x60][\w\d\x5B-\x60\-]*)` + // nickname
			`!([^\0@\s]+)` + // username
			`@([^\0\s]+)` + // host
			`$`,
	)

	// rgxWildMask validates and splits wildmasks.
	rgxWildMask = regexp.MustCompile(
		`(?i)^` +
			`([\w\x5B-\x60\?\*][\w\d\x5B-\x60\?\*\-]*)` + // nickname
			`!([^\0@\s]+)` + // username
			`@([^\0\s]+)` + // host
			`$`,
	)
)

// Mask is a type that represents an irc hostmask. nickname!ident@hostname
type Mask string

// WildMask is an irc hostmask that contains wildcard characters ? and *
type WildMask string

// NewMask builds a mask from its parts.
func NewMask(nick, ident, host string) Mask {
	return Mask(nick + "!" + ident + "@" + host)
}

// Match checks if the WildMask satisfies the given normal mask. Matching is
// done in the network's case mapping.
func (w WildMask) Match(m Mask) bool {
	return Match(string(w), string(m))
}

// IsValid checks to ensure the mask is in valid format.
func (w WildMask) IsValid() bool {
	return rgxWildMask.MatchString(string(w))
}

// Split splits a wildmask into it's fragments: nick, user, and host. If the
// format is not acceptable empty string is returned for everything.
func (w WildMask) Split() (nick, user, host string) {
	fragments := rgxWildMask.FindStringSubmatch(string(w))
	if len(fragments) == 0 {
		return
	}
	return fragments[1], fragments[2], fragments[3]
}

// Match checks if a given wildmask is satisfied by the mask.
func (m Mask) Match(w WildMask) bool {
	return Match(string(w), string(m))
}

// Nick returns the nick of this mask.
func (m Mask) Nick() string {
	nick := string(m)
	index := strings.IndexAny(nick, "!@")
	if index >= 0 {
		return nick[:index]
	}
	return nick
}

// Ident returns the ident of this mask.
func (m Mask) Ident() string {
	_, ident, _ := m.Split()
	return ident
}

// Host returns the host of this mask.
func (m Mask) Host() string {
	_, _, host := m.Split()
	return host
}

// IsValid checks to ensure the mask is in valid format.
func (m Mask) IsValid() bool {
	return rgxMask.MatchString(string(m))
}

// Split splits a mask into it's fragments: nick, user, and host. If the
// format is not acceptable empty string is returned for everything.
func (m Mask) Split() (nick, user, host string) {
	fragments := rgxMask.FindStringSubmatch(string(m))
	if len(fragments) == 0 {
		return
	}
	return fragments[1], fragments[2], fragments[3]
}

// Match matches s against a pattern containing the wildcards * and ?,
// ignoring case as the network does.
func Match(pattern, s string) bool {
	return isMatch(Fold(s), Fold(pattern))
}

// isMatch is a matching function for a string, and a string with the wildcards
// * and ? in it. On a mismatch it backtracks to the most recent star and lets
// it swallow one more character.
func isMatch(ms, ws string) bool {
	i, j := 0, 0
	star, mark := -1, 0

	for j < len(ms) {
		switch {
		case i < len(ws) && (ws[i] == '?' || ws[i] == ms[j]):
			i++
			j++
		case i < len(ws) && ws[i] == '*':
			star, mark = i, j
			i++
		case star >= 0:
			i = star + 1
			mark++
			j = mark
		default:
			return false
		}
	}

	for i < len(ws) && ws[i] == '*' {
		i++
	}
	return i == len(ws)
}
