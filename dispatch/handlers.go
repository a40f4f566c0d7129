package dispatch

import (
	"strconv"
	"strings"

	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/irc"
)

// pass: PASS password TS 6 :SID
func (c *Core) pass(ev *irc.Event) {
	if len(ev.Args) >= 4 {
		c.uplinkSID = ev.Args[3]
	}
}

// capab: CAPAB :QS EX CHW ...
func (c *Core) capab(ev *irc.Event) {
	for _, arg := range ev.Args {
		c.state.AddCapab(strings.Fields(arg)...)
	}
}

// server: SERVER name hops :description
func (c *Core) server(ev *irc.Event) {
	if !c.enough(ev, 3) {
		return
	}
	name, desc := ev.Args[0], ev.Last()
	hops, _ := strconv.Atoi(ev.Args[1])

	var uplink *data.Server
	sid := ""
	if len(ev.Sender) == 0 {
		uplink = c.state.Me
		sid = c.uplinkSID
	} else if uplink = c.sourceServer(ev); uplink == nil {
		return
	}

	if _, err := c.state.NewServer(uplink, name, hops, desc, sid, false); err != nil {
		c.log.Error("server introduction failed", "server", name, "err", err)
	}
}

// sid: :SID SID name hops sid :description
func (c *Core) sid(ev *irc.Event) {
	if !c.enough(ev, 4) {
		return
	}
	uplink := c.sourceServer(ev)
	if uplink == nil {
		return
	}
	hops, _ := strconv.Atoi(ev.Args[1])

	if _, err := c.state.NewServer(uplink, ev.Args[0], hops, ev.Last(), ev.Args[2], false); err != nil {
		c.log.Error("server introduction failed", "server", ev.Args[0], "err", err)
	}
}

// squit: SQUIT server :reason
func (c *Core) squit(ev *irc.Event) {
	if !c.enough(ev, 1) {
		return
	}
	srv := c.state.FindServer(ev.Args[0], nil)
	if srv == nil {
		c.log.Warn("squit for nonexistent server", "server", ev.Args[0])
		return
	}
	if srv == c.state.Me {
		if srv = c.state.Uplink(); srv == nil {
			return
		}
	}

	reason := ""
	if len(ev.Args) > 1 {
		reason = ev.Last()
	}
	srv.Delete(reason)
}

// eob: :SID EOB
func (c *Core) eob(ev *irc.Event) {
	if srv := c.sourceServer(ev); srv != nil {
		srv.Sync(true)
	}
}

// ping: PING origin [destination]. The uplink's first ping ends its burst.
func (c *Core) ping(ev *irc.Event) {
	if p, ok := c.state.Sender().(Ponger); ok {
		target := ev.Sender
		if len(target) == 0 {
			target = ev.Arg(0)
		}
		p.SendPong(target)
	}

	if srv := c.state.FindServer(ev.Sender, nil); srv != nil && srv == c.state.Uplink() && !srv.IsSynced() {
		srv.Sync(true)
	}
}

func (c *Core) uplinkError(ev *irc.Event) {
	c.log.Error("uplink error", "reason", ev.Last())
}

// uid: :SID UID nick hops ts umodes ident host ip uid :realname
// or
// :SID EUID nick hops ts umodes ident host ip uid realhost account :realname
func (c *Core) uid(ev *irc.Event) {
	if !c.enough(ev, 9) {
		return
	}
	srv := c.sourceServer(ev)
	if srv == nil {
		return
	}

	nick, ts, modes := ev.Args[0], c.parseTS(ev.Args[2]), ev.Args[3]
	ident, host, ip, uid := ev.Args[4], ev.Args[5], ev.Args[6], ev.Args[7]
	realhost, vhost, account := host, "", ""
	if ev.Name == irc.EUID && len(ev.Args) >= 11 {
		if ev.Args[8] != "*" {
			realhost, vhost = ev.Args[8], host
		}
		if ev.Args[9] != "*" {
			account = ev.Args[9]
		}
	}
	if ip == "0" {
		ip = ""
	}

	u, err := c.state.NewUser(nick, ident, realhost, vhost, ip, srv, ev.Last(), ts, modes, uid)
	if err != nil {
		c.log.Error("user introduction failed", "nick", nick, "err", err)
		return
	}
	if len(account) > 0 {
		c.login(u, account)
	}
}

// nick: :UID NICK newnick ts
// or
// NICK nick hops ts umodes ident host server :realname
func (c *Core) nick(ev *irc.Event) {
	if len(ev.Args) >= 7 {
		srv := c.state.FindServer(ev.Args[6], nil)
		if srv == nil {
			c.log.Warn("user on nonexistent server", "nick", ev.Args[0], "server", ev.Args[6])
			return
		}
		_, err := c.state.NewUser(ev.Args[0], ev.Args[4], ev.Args[5], "", "", srv,
			ev.Last(), c.parseTS(ev.Args[2]), ev.Args[3], "")
		if err != nil {
			c.log.Error("user introduction failed", "nick", ev.Args[0], "err", err)
		}
		return
	}

	if !c.enough(ev, 1) {
		return
	}
	u := c.sourceUser(ev)
	if u == nil {
		return
	}
	if err := u.ChangeNick(ev.Args[0], c.parseTS(ev.Arg(1))); err != nil {
		c.log.Error("nick change failed", "nick", u.Nick, "err", err)
	}
}

func (c *Core) quit(ev *irc.Event) {
	if u := c.sourceUser(ev); u != nil {
		u.Quit(ev.Last())
	}
}

// kill: :source KILL target :path (reason)
func (c *Core) kill(ev *irc.Event) {
	if !c.enough(ev, 1) {
		return
	}
	u := c.state.FindUser(ev.Args[0], false)
	if u == nil {
		c.log.Debug("kill for nonexistent user", "target", ev.Args[0])
		return
	}

	src := c.source(ev).Name()
	if len(src) == 0 {
		src = ev.Sender
	}
	reason := ""
	if len(ev.Args) > 1 {
		reason = ev.Last()
	}

	if u.IsBot() && u.Server() == c.state.Me {
		c.botKilled(u, src, reason)
		return
	}
	u.KillInternal(src, reason)
}

// botKilled brings one of our bots back, unless it was already killed this
// second.
func (c *Core) botKilled(bot *data.User, source, reason string) {
	now := c.state.Now().Unix()
	key := irc.Fold(bot.Nick)
	if c.botKills[key] == now {
		c.log.Warn("bot kill loop, not reintroducing", "nick", bot.Nick, "source", source)
		bot.KillInternal(source, reason)
		return
	}
	c.botKills[key] = now
	c.state.ReintroduceBot(bot)
}

func (c *Core) away(ev *irc.Event) {
	c.log.Debug("away", "source", ev.Sender, "away", len(ev.Args) > 0 && len(ev.Last()) > 0)
}

// chghost: :source CHGHOST target host
func (c *Core) chghost(ev *irc.Event) {
	if !c.enough(ev, 2) {
		return
	}
	u := c.state.FindUser(ev.Args[0], false)
	if u == nil {
		c.log.Warn("host change for nonexistent user", "target", ev.Args[0])
		return
	}
	u.SetDisplayedHost(ev.Args[1])
}

// su: :SID ENCAP * SU uid [:account]
func (c *Core) su(ev *irc.Event) {
	if !c.enough(ev, 1) {
		return
	}
	u := c.state.FindUser(ev.Args[0], false)
	if u == nil {
		c.log.Warn("login for nonexistent user", "target", ev.Args[0])
		return
	}
	if len(ev.Args) < 2 || len(ev.Last()) == 0 {
		u.Logout()
		return
	}
	c.login(u, ev.Last())
}

func (c *Core) login(u *data.User, account string) {
	reg := c.state.Registry()
	if reg == nil {
		return
	}
	acct := reg.FindAccount(account)
	if acct == nil {
		c.log.Warn("login to nonexistent account", "nick", u.Nick, "account", account)
		return
	}
	u.Login(acct)
}

// encap: :source ENCAP target command args...
func (c *Core) encap(ev *irc.Event) {
	if !c.enough(ev, 2) {
		return
	}
	c.d.dispatch(&irc.Event{
		Name:   ev.Args[1],
		Sender: ev.Sender,
		Args:   ev.Args[2:],
		Time:   ev.Time,
	})
}
