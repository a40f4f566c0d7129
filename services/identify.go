package services

import (
	"fmt"
	"strings"

	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/irc"
	"github.com/pkg/errors"
)

var (
	// ErrNotRegistered is when the nick has no account.
	ErrNotRegistered = errors.New("services: Nick is not registered")
	// ErrSuspended is when the nick's account is suspended.
	ErrSuspended = errors.New("services: Account is suspended")
	// ErrBadPassword is when the password doesn't match.
	ErrBadPassword = errors.New("services: Password incorrect")
	// ErrTooManyBadPasswords is when the user was killed for guessing.
	ErrTooManyBadPasswords = errors.New("services: Too many bad passwords")
)

// Noticer is implemented by senders that can message users.
type Noticer interface {
	SendNotice(source *data.User, target *data.User, text string)
}

// Identify logs u into the account that owns nick if the password is right.
// Wrong passwords count towards the user's bad password limit.
func (s *Services) Identify(u *data.User, nick, password string) error {
	reg := s.state.Registry()
	if reg == nil {
		return ErrNotRegistered
	}
	na := reg.FindNick(nick)
	if na == nil || na.Account == nil {
		return ErrNotRegistered
	}
	if na.Account.Suspended {
		return ErrSuspended
	}

	if !na.Account.CheckPassword(password) {
		s.log.Info("Bad password", "nick", u.Nick, "account", na.Account.Display)
		if u.BadPassword() {
			return ErrTooManyBadPasswords
		}
		return ErrBadPassword
	}

	s.log.Info("Identified", "nick", u.Nick, "account", na.Account.Display)
	u.Identify(na)
	return nil
}

// privmsg: :UID PRIVMSG bot :IDENTIFY [nick] password
func (s *Services) privmsg(ev *irc.Event) {
	if len(ev.Args) < 2 {
		return
	}
	bot := s.state.FindUser(ev.Args[0], false)
	if bot == nil || !bot.IsBot() {
		return
	}
	u := s.state.FindUser(ev.Sender, false)
	if u == nil || u.IsBot() {
		return
	}

	fields := strings.Fields(ev.Last())
	if len(fields) == 0 || !strings.EqualFold(fields[0], "IDENTIFY") {
		return
	}

	nick, password := u.Nick, ""
	switch len(fields) {
	case 2:
		password = fields[1]
	case 3:
		nick, password = fields[1], fields[2]
	default:
		s.notice(bot, u, "Syntax: IDENTIFY [nick] password")
		return
	}

	switch err := s.Identify(u, nick, password); err {
	case nil:
		s.notice(bot, u, "Password accepted, you are now recognized.")
	case ErrNotRegistered:
		s.notice(bot, u, fmt.Sprintf("Nick %s isn't registered.", nick))
	case ErrSuspended:
		s.notice(bot, u, fmt.Sprintf("Nick %s is suspended.", nick))
	case ErrBadPassword:
		s.notice(bot, u, "Password incorrect.")
	}
}

func (s *Services) notice(bot, u *data.User, text string) {
	if n, ok := s.state.Sender().(Noticer); ok {
		n.SendNotice(bot, u, text)
	}
}
