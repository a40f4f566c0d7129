package inet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CIDR is an address with a prefix length. The zero value matches nothing.
type CIDR struct {
	addr   SockAddr
	ip     string
	length int
}

// ParseCIDR parses "ip" or "ip/len". Without a length the whole address is
// significant.
func ParseCIDR(cidr string) (CIDR, error) {
	slash := strings.LastIndexByte(cidr, '/')
	if slash < 0 {
		addr, err := ParseSockAddr(cidr)
		if err != nil {
			return CIDR{}, err
		}
		return CIDR{addr: addr, ip: cidr, length: maxLength(addr.family)}, nil
	}

	ip, rng := cidr[:slash], cidr[slash+1:]
	if len(rng) == 0 || strings.TrimLeft(rng, "0123456789") != "" {
		return CIDR{}, errors.Wrapf(ErrInvalidRange, "%q", cidr)
	}
	length, err := strconv.Atoi(rng)
	if err != nil {
		return CIDR{}, errors.Wrapf(ErrInvalidRange, "%q", cidr)
	}

	return NewCIDR(ip, length)
}

// NewCIDR creates a cidr from an ip and a prefix length.
func NewCIDR(ip string, length int) (CIDR, error) {
	addr, err := ParseSockAddr(ip)
	if err != nil {
		return CIDR{}, err
	}
	if length < 0 || length > maxLength(addr.family) {
		return CIDR{}, errors.Wrapf(ErrInvalidRange, "%s/%d", ip, length)
	}

	return CIDR{addr: addr, ip: ip, length: length}, nil
}

func maxLength(f Family) int {
	if f == FamilyIPv6 {
		return 128
	}
	return 32
}

// Length is the prefix length.
func (c CIDR) Length() int {
	return c.length
}

// Family of the network address.
func (c CIDR) Family() Family {
	return c.addr.family
}

// Mask returns the cidr in ip/len form, using the ip as it was given.
func (c CIDR) Mask() string {
	return fmt.Sprintf("%s/%d", c.ip, c.length)
}

// String is the same as Mask.
func (c CIDR) String() string {
	return c.Mask()
}

// Match checks that the first Length bits of addr are the same as the network
// address. Addresses of a different family never match.
func (c CIDR) Match(addr SockAddr) bool {
	if !c.addr.Valid() || c.addr.family != addr.family {
		return false
	}

	mine, theirs := c.addr.ip, addr.ip
	whole := c.length / 8
	if !bytes.Equal(mine[:whole], theirs[:whole]) {
		return false
	}

	rem := uint(c.length % 8)
	if rem == 0 {
		return true
	}
	mask := byte(0xFF << (8 - rem))
	return mine[whole]&mask == theirs[whole]&mask
}

// MatchIP parses ip and matches it, invalid addresses never match.
func (c CIDR) MatchIP(ip string) bool {
	addr, err := ParseSockAddr(ip)
	if err != nil {
		return false
	}
	return c.Match(addr)
}

// Less orders cidrs by family and then by the network address masked to the
// receiver's prefix length.
func (c CIDR) Less(o CIDR) bool {
	if c.addr.family != o.addr.family {
		return c.addr.family < o.addr.family
	}

	return bytes.Compare(c.masked(c.addr.ip), c.masked(o.addr.ip)) < 0
}

// Equal is true when neither cidr orders before the other.
func (c CIDR) Equal(o CIDR) bool {
	return !c.Less(o) && !o.Less(c)
}

// Key returns a string usable as a map key. Cidrs that are Equal with the
// same length share a key.
func (c CIDR) Key() string {
	return fmt.Sprintf("%d:%x/%d", c.addr.family, c.masked(c.addr.ip), c.length)
}

func (c CIDR) masked(ip []byte) []byte {
	out := make([]byte, len(ip))
	bits := c.length
	for i := range ip {
		switch {
		case bits >= 8:
			out[i] = ip[i]
			bits -= 8
		case bits > 0:
			out[i] = ip[i] & byte(0xFF<<uint(8-bits))
			bits = 0
		}
	}
	return out
}
