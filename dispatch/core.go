package dispatch

import (
	"sort"
	"strconv"

	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/irc"
	"gopkg.in/inconshreveable/log15.v2"
)

// Ponger is implemented by senders that can answer the uplink's pings.
type Ponger interface {
	SendPong(target string)
}

// Core keeps the state in step with the network.
type Core struct {
	d     *Dispatcher
	state *data.State
	log   log15.Logger

	// uplinkSID is learned from PASS before the uplink's SERVER arrives.
	uplinkSID string
	// botKills remembers when each bot was last killed so a kill loop can be
	// broken.
	botKills map[string]int64
}

// RegisterCore registers the core handlers. They are registered first so
// they run before anything registered later for the same event.
func RegisterCore(d *Dispatcher) *Core {
	c := &Core{
		d:        d,
		state:    d.state,
		log:      d.log.New("handler", "core"),
		botKills: make(map[string]int64),
	}

	handlers := map[string]HandlerFunc{
		irc.PASS:     c.pass,
		irc.CAPAB:    c.capab,
		irc.SERVER:   c.server,
		irc.SID:      c.sid,
		irc.SQUIT:    c.squit,
		irc.EOB:      c.eob,
		irc.ENDBURST: c.eob,
		irc.PING:     c.ping,
		irc.ERROR:    c.uplinkError,
		irc.UID:      c.uid,
		irc.EUID:     c.uid,
		irc.NICK:     c.nick,
		irc.QUIT:     c.quit,
		irc.KILL:     c.kill,
		irc.AWAY:     c.away,
		irc.CHGHOST:  c.chghost,
		irc.SU:       c.su,
		irc.ENCAP:    c.encap,
		irc.JOIN:     c.join,
		irc.SJOIN:    c.sjoin,
		irc.PART:     c.part,
		irc.KICK:     c.kick,
		irc.MODE:     c.mode,
		irc.TMODE:    c.tmode,
		irc.BMASK:    c.bmask,
		irc.TOPIC:    c.topic,
		irc.TB:       c.tb,
	}

	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Register("", name, handlers[name])
	}
	return c
}

// source resolves who sent an event. With no prefix it's our uplink.
func (c *Core) source(ev *irc.Event) data.Source {
	if len(ev.Sender) == 0 {
		return data.Source{Server: c.state.Uplink()}
	}
	if u := c.state.FindUser(ev.Sender, false); u != nil {
		return data.Source{User: u}
	}
	if srv := c.state.FindServer(ev.Sender, nil); srv != nil {
		return data.Source{Server: srv}
	}
	return data.Source{}
}

// sourceUser resolves the sending user, logging when there is none.
func (c *Core) sourceUser(ev *irc.Event) *data.User {
	u := c.state.FindUser(ev.Sender, false)
	if u == nil {
		c.log.Warn("event from nonexistent user", "event", ev.Name, "source", ev.Sender)
	}
	return u
}

// sourceServer resolves the sending server, the uplink when there's no
// prefix.
func (c *Core) sourceServer(ev *irc.Event) *data.Server {
	if len(ev.Sender) == 0 {
		return c.state.Uplink()
	}
	srv := c.state.FindServer(ev.Sender, nil)
	if srv == nil {
		c.log.Warn("event from nonexistent server", "event", ev.Name, "source", ev.Sender)
	}
	return srv
}

func (c *Core) enough(ev *irc.Event, n int) bool {
	if len(ev.Args) < n {
		c.log.Warn("too few arguments", "event", ev.Name, "want", n, "got", len(ev.Args))
		return false
	}
	return true
}

// parseTS reads a timestamp, falling back to now.
func (c *Core) parseTS(arg string) int64 {
	ts, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return c.state.Now().Unix()
	}
	return ts
}

// parseMember splits an SJOIN member like @+001AAAAAA into its statuses and
// UID.
func (c *Core) parseMember(member string) (data.StatusFlag, string) {
	var flags data.StatusFlag
	modes := c.state.Modes()
	for len(member) > 0 {
		m := modes.StatusBySymbol(member[0])
		if m == nil {
			break
		}
		flags |= m.Flag
		member = member[1:]
	}
	return flags, member
}
