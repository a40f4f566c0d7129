package data

import (
	"strings"

	"github.com/aarondl/uqserv/inet"
	"github.com/aarondl/uqserv/irc"
)

// Entry is a parsed nick!ident@host list entry such as a ban. The host part
// may be a cidr.
type Entry struct {
	Mask  string
	nick  string
	ident string
	host  string
	cidr  *inet.CIDR
}

// NewEntry parses a list mask. Missing parts match anything, and a bare word
// is a nick unless it looks like a host.
func NewEntry(mask string) Entry {
	e := Entry{Mask: mask, nick: "*", ident: "*", host: "*"}

	rest := mask
	if bang := strings.IndexByte(rest, '!'); bang >= 0 {
		e.nick, rest = rest[:bang], rest[bang+1:]
		if at := strings.IndexByte(rest, '@'); at >= 0 {
			e.ident, e.host = rest[:at], rest[at+1:]
		} else {
			e.ident = rest
		}
	} else if at := strings.IndexByte(rest, '@'); at >= 0 {
		e.ident, e.host = rest[:at], rest[at+1:]
	} else if strings.ContainsAny(rest, ".:/") {
		e.host = rest
	} else {
		e.nick = rest
	}

	if strings.IndexByte(e.host, '/') > 0 {
		if cidr, err := inet.ParseCIDR(e.host); err == nil {
			e.cidr = &cidr
		}
	}
	return e
}

// Matches checks the entry against a user. The relaxed form looks at what the
// network shows for the user and their ip; full also checks the real ident,
// real host and cloaked host.
func (e Entry) Matches(u *User, full bool) bool {
	if u == nil {
		return false
	}

	if e.nick != "*" && !irc.Match(e.nick, u.Nick) {
		return false
	}

	if e.ident != "*" && !irc.Match(e.ident, u.VIdent()) &&
		!(full && irc.Match(e.ident, u.Ident)) {
		return false
	}

	if e.host == "*" {
		return true
	}
	if e.cidr != nil {
		return e.cidr.MatchIP(u.IP)
	}

	if irc.Match(e.host, u.DisplayedHost()) || (len(u.IP) > 0 && irc.Match(e.host, u.IP)) {
		return true
	}
	if full {
		if irc.Match(e.host, u.Host) {
			return true
		}
		if ch := u.CloakedHost(); len(ch) > 0 && irc.Match(e.host, ch) {
			return true
		}
	}
	return false
}
