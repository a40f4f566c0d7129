/*
Package inet holds the address primitives used for ban matching and peer
identification, and the uplink connection the services link runs over.
*/
package inet

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Family is the address family of a SockAddr.
type Family int

// Address families, ordered so that v4 sorts before v6.
const (
	FamilyNone Family = iota
	FamilyIPv4
	FamilyIPv6
)

var (
	// ErrInvalidAddress is returned when an ip string cannot be parsed.
	ErrInvalidAddress = errors.New("inet: Invalid address")
	// ErrInvalidRange is returned when a cidr range is malformed.
	ErrInvalidRange = errors.New("inet: Invalid CIDR range")
)

// SockAddr is a v4 or v6 address with an optional port. The zero value is an
// invalid address.
type SockAddr struct {
	family Family
	ip     net.IP
	port   int
}

// ParseSockAddr parses an ip address with no port. Strings containing a ':'
// are treated as v6 addresses.
func ParseSockAddr(address string) (SockAddr, error) {
	return NewSockAddr(address, 0)
}

// NewSockAddr parses an ip address and attaches a port to it.
func NewSockAddr(address string, port int) (SockAddr, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return SockAddr{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}

	if strings.IndexByte(address, ':') >= 0 {
		return SockAddr{family: FamilyIPv6, ip: ip.To16(), port: port}, nil
	}

	v4 := ip.To4()
	if v4 == nil {
		return SockAddr{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}
	return SockAddr{family: FamilyIPv4, ip: v4, port: port}, nil
}

// FromNetAddr converts a tcp address into a SockAddr. Anything that is not a
// tcp address yields the zero value.
func FromNetAddr(addr net.Addr) SockAddr {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || tcp == nil {
		return SockAddr{}
	}

	if v4 := tcp.IP.To4(); v4 != nil {
		return SockAddr{family: FamilyIPv4, ip: v4, port: tcp.Port}
	}
	if v6 := tcp.IP.To16(); v6 != nil {
		return SockAddr{family: FamilyIPv6, ip: v6, port: tcp.Port}
	}
	return SockAddr{}
}

// Family of the address.
func (s SockAddr) Family() Family {
	return s.family
}

// Valid is true when the address was successfully parsed.
func (s SockAddr) Valid() bool {
	return s.family != FamilyNone
}

// Port returns the port, 0 if none was given.
func (s SockAddr) Port() int {
	return s.port
}

// Addr returns the textual form of the ip, or empty string if invalid.
func (s SockAddr) Addr() string {
	if !s.Valid() {
		return ""
	}
	return s.ip.String()
}

// Bytes returns the raw address bytes, 4 for v4 and 16 for v6.
func (s SockAddr) Bytes() []byte {
	return s.ip
}

// Equal compares family, address and port.
func (s SockAddr) Equal(o SockAddr) bool {
	if s.family != o.family || s.port != o.port {
		return false
	}
	return s.ip.Equal(o.ip)
}

// String returns host:port, or only the address when there's no port.
func (s SockAddr) String() string {
	if s.port == 0 {
		return s.Addr()
	}
	return net.JoinHostPort(s.Addr(), strconv.Itoa(s.port))
}
