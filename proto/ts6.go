/*
Package proto speaks the TS6 server to server protocol. It turns lines from
the uplink into events for the dispatcher and implements the state's Sender
on top of a writer, normally the uplink's inet.Link.
*/
package proto

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/irc"
	hirc "github.com/horgh/irc"
	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

// Capabilities we announce to the uplink.
const Capabilities = "QS EX CHW IE KLN KNOCK TB ENCAP SERVICES EOB"

// TS6 sends protocol effects to the uplink as TS6 lines. It implements
// data.Sender.
type TS6 struct {
	w     io.Writer
	state *data.State
	log   log15.Logger
}

// NewTS6 creates a sender writing to w. logger may be nil to discard logs.
func NewTS6(w io.Writer, state *data.State, logger log15.Logger) *TS6 {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	return &TS6{
		w:     w,
		state: state,
		log:   logger.New("pkg", "proto"),
	}
}

// Handshake introduces our server. It must be the first thing sent.
func (t *TS6) Handshake(password string) error {
	me := t.state.Me
	if me == nil {
		return data.ErrNoRoot
	}
	if len(me.SID) == 0 {
		return errors.Errorf("proto: server %s has no sid", me.Name)
	}

	lines := []hirc.Message{
		{Command: irc.PASS, Params: []string{password, "TS", "6", me.SID}},
		{Command: irc.CAPAB, Params: []string{Capabilities}},
		{Command: irc.SERVER, Params: []string{me.Name, "1", me.Description}},
		{Command: irc.SVINFO, Params: []string{"6", "6", "0", ts(t.state.Now().Unix())}},
	}
	for _, m := range lines {
		if err := t.write(m); err != nil {
			return err
		}
	}
	return nil
}

func (t *TS6) write(m hirc.Message) error {
	line, err := m.Encode()
	if err == hirc.ErrTruncated {
		t.log.Warn("line truncated", "command", m.Command)
	} else if err != nil {
		t.log.Error("unable to encode", "command", m.Command, "err", err)
		return errors.Wrapf(err, "proto: failed to encode %s", m.Command)
	}

	if _, err = io.WriteString(t.w, line); err != nil {
		t.log.Error("write failed", "command", m.Command, "err", err)
		return errors.Wrap(err, "proto: write failed")
	}
	return nil
}

func (t *TS6) send(prefix, command string, params ...string) {
	_ = t.write(hirc.Message{Prefix: prefix, Command: command, Params: params})
}

// me is the prefix for lines from our server.
func (t *TS6) me() string {
	if t.state.Me == nil {
		return ""
	}
	return t.state.Me.ID()
}

// actor is the prefix for lines from a bot, our server when there's none.
func (t *TS6) actor(u *data.User) string {
	if u == nil {
		return t.me()
	}
	return u.UID()
}

func ts(v int64) string {
	return strconv.FormatInt(v, 10)
}

// SendMode sends a batch of mode changes. Channel modes carry the channel's
// TS.
func (t *TS6) SendMode(source, target, modes string) {
	params := strings.Fields(modes)
	if len(params) == 0 {
		return
	}

	if irc.IsChannel(target) {
		if c := t.state.FindChannel(target); c != nil {
			t.send(source, irc.TMODE, append([]string{ts(c.TS), c.Name}, params...)...)
			return
		}
	}
	t.send(source, irc.MODE, append([]string{target}, params...)...)
}

// SendKick kicks target out of c.
func (t *TS6) SendKick(source *data.User, c *data.Channel, target *data.User, reason string) {
	if len(reason) == 0 {
		reason = target.Nick
	}
	t.send(t.actor(source), irc.KICK, c.Name, target.UID(), reason)
}

// SendTopic sends the channel's current topic.
func (t *TS6) SendTopic(source *data.User, c *data.Channel) {
	t.send(t.actor(source), irc.TOPIC, c.Name, c.Topic)
}

// SendForceNickChange asks the user's server to rename them.
func (t *TS6) SendForceNickChange(u *data.User, nick string, when int64) {
	t.send(t.me(), irc.ENCAP, u.Server().Name, "RSFNC", u.UID(), nick, ts(when), ts(u.TS))
}

// SendClientIntroduction introduces one of our bots.
func (t *TS6) SendClientIntroduction(u *data.User) {
	ip := u.IP
	if len(ip) == 0 {
		ip = "0"
	}
	t.send(t.me(), irc.UID, u.Nick, "1", ts(u.TS), u.Modes(), u.VIdent(), u.DisplayedHost(),
		ip, u.UID(), u.Realname)
}

// SendQuit quits one of our bots.
func (t *TS6) SendQuit(u *data.User, reason string) {
	t.send(u.UID(), irc.QUIT, reason)
}

// SendSVSKill kills a user on the network.
func (t *TS6) SendSVSKill(source string, u *data.User, reason string) {
	t.send(t.me(), irc.KILL, u.UID(), fmt.Sprintf("%s (%s)", source, reason))
}

// SendJoin joins one of our bots with its statuses.
func (t *TS6) SendJoin(u *data.User, c *data.Channel, status data.StatusFlag) {
	member := t.state.Modes().StatusSymbols(status) + u.UID()
	t.send(t.me(), irc.SJOIN, ts(c.TS), c.Name, "+", member)
}

// SendPart parts one of our bots.
func (t *TS6) SendPart(u *data.User, c *data.Channel, reason string) {
	if len(reason) == 0 {
		t.send(u.UID(), irc.PART, c.Name)
		return
	}
	t.send(u.UID(), irc.PART, c.Name, reason)
}

// SendChannel creates an empty channel on the network with its modes.
func (t *TS6) SendChannel(c *data.Channel) {
	params := []string{ts(c.TS), c.Name}
	params = append(params, strings.Fields(c.Modes(true))...)
	t.send(t.me(), irc.SJOIN, append(params, "")...)
}

// SendServer introduces a juped server.
func (t *TS6) SendServer(srv *data.Server) {
	t.send(t.me(), irc.SID, srv.Name, strconv.Itoa(srv.Hops+1), srv.SID, srv.Description)
}

// SendSquit removes a juped server.
func (t *TS6) SendSquit(srv *data.Server, reason string) {
	t.send(t.me(), irc.SQUIT, srv.ID(), reason)
}

// SendBOB does nothing, TS6 has no start of burst.
func (t *TS6) SendBOB() {}

// SendEOB pings the uplink, its reply ends our burst on their side.
func (t *TS6) SendEOB() {
	if t.state.Me == nil {
		return
	}
	t.send(t.me(), irc.PING, t.state.Me.Name)
}

// SendLogin tells the network which account the user is logged into.
func (t *TS6) SendLogin(u *data.User) {
	acct := u.Account()
	if acct == nil {
		return
	}
	t.send(t.me(), irc.ENCAP, "*", irc.SU, u.UID(), acct.Display)
}

// SendLogout tells the network the user is no longer logged in.
func (t *TS6) SendLogout(u *data.User) {
	t.send(t.me(), irc.ENCAP, "*", irc.SU, u.UID())
}

// SendVhost changes the user's displayed host. TS6 can't change idents.
func (t *TS6) SendVhost(u *data.User, ident, host string) {
	if len(ident) > 0 {
		t.log.Debug("ident change unsupported", "nick", u.Nick, "ident", ident)
	}
	if len(host) == 0 {
		host = u.Host
	}
	t.send(t.me(), irc.CHGHOST, u.UID(), host)
}

// SendNotice sends a notice from one of our bots, or our server.
func (t *TS6) SendNotice(source *data.User, target *data.User, text string) {
	t.send(t.actor(source), irc.NOTICE, target.UID(), text)
}

// SendPong answers a ping.
func (t *TS6) SendPong(target string) {
	if t.state.Me == nil {
		return
	}
	t.send(t.me(), irc.PONG, t.state.Me.Name, target)
}
