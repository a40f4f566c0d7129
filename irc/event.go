/*
Package irc defines types to be used by most other packages in
uqserv. It is small and comprised mostly of helper like types
and constants.
*/
package irc

import (
	"bytes"
	"strings"
	"time"
)

// Event contains all the information about an inbound protocol message. The
// line has already been tokenized.
type Event struct {
	// Name of the event. Uppercase command name or numeric.
	Name string
	// Sender is the server or user that sent the event, a SID, UID, nick or
	// server name. Empty when the uplink omitted the prefix.
	Sender string
	// Args split by space delimiting.
	Args []string
	// Time is the time this event was received.
	Time time.Time
}

// NewEvent constructs a event object that has a timestamp.
func NewEvent(name, sender string, args ...string) *Event {
	var setArgs []string
	if len(args) > 0 {
		setArgs = make([]string, len(args))
		copy(setArgs, args)
	}
	return &Event{
		Name:   name,
		Sender: sender,
		Args:   setArgs,
		Time:   time.Now().UTC(),
	}
}

// Arg returns the argument at index or empty string if there is none.
func (e *Event) Arg(index int) string {
	if index < 0 || index >= len(e.Args) {
		return ""
	}
	return e.Args[index]
}

// SplitArgs splits a comma separated argument. Returns nil if the argument is
// missing.
func (e *Event) SplitArgs(index int) []string {
	if index >= len(e.Args) {
		return nil
	}
	return strings.Split(e.Args[index], ",")
}

// Last returns the last argument, often the trailing reason or realname.
func (e *Event) Last() string {
	if len(e.Args) == 0 {
		return ""
	}
	return e.Args[len(e.Args)-1]
}

// String turns this back into an IRC style message.
func (e *Event) String() string {
	b := &bytes.Buffer{}
	if len(e.Sender) > 0 {
		b.WriteByte(':')
		b.WriteString(e.Sender)
		b.WriteByte(' ')
	}
	b.WriteString(e.Name)

	lastArg := len(e.Args) - 1
	for i, arg := range e.Args {
		b.WriteByte(' ')
		if lastArg == i && (len(arg) == 0 || strings.ContainsRune(arg, ' ') || arg[0] == ':') {
			b.WriteByte(':')
		}
		b.WriteString(arg)
	}

	return b.String()
}
