package proto

import (
	"strings"
	"time"

	"github.com/aarondl/uqserv/irc"
	hirc "github.com/horgh/irc"
	"github.com/pkg/errors"
)

// ErrEmptyLine is returned when there is nothing to parse.
var ErrEmptyLine = errors.New("proto: Empty line")

// Parse turns a line from the uplink into an event. The line ending is
// optional. A line too long to be valid is cut short rather than refused.
func Parse(line string) (*irc.Event, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(strings.TrimSpace(line)) == 0 {
		return nil, ErrEmptyLine
	}

	m, err := hirc.ParseMessage(line + "\r\n")
	if err != nil && err != hirc.ErrTruncated {
		return nil, errors.Wrapf(err, "proto: failed to parse %q", line)
	}

	return &irc.Event{
		Name:   strings.ToUpper(m.Command),
		Sender: m.Prefix,
		Args:   m.Params,
		Time:   time.Now().UTC(),
	}, nil
}
