package dispatch

import (
	"strings"

	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/irc"
)

// join: :UID JOIN ts #channel +
// or
// :nick JOIN #a,#b
// or
// :UID JOIN 0
func (c *Core) join(ev *irc.Event) {
	if !c.enough(ev, 1) {
		return
	}
	u := c.sourceUser(ev)
	if u == nil {
		return
	}
	src := data.Source{User: u}

	if ev.Args[0] == "0" {
		chans := append([]*data.UserChannel(nil), u.Channels()...)
		for _, uc := range chans {
			uc.Channel.DeleteUser(u)
		}
		return
	}

	joining := []data.SJoinUser{{User: u}}
	if len(ev.Args) >= 2 && isTS(ev.Args[0]) {
		if _, err := c.state.SJoin(src, ev.Args[1], c.parseTS(ev.Args[0]), "", joining); err != nil {
			c.log.Error("join failed", "nick", u.Nick, "channel", ev.Args[1], "err", err)
		}
		return
	}

	for _, name := range ev.SplitArgs(0) {
		if _, err := c.state.SJoin(src, name, 0, "", joining); err != nil {
			c.log.Error("join failed", "nick", u.Nick, "channel", name, "err", err)
		}
	}
}

// sjoin: :SID SJOIN ts #channel +modes [params...] :@UID +UID UID
func (c *Core) sjoin(ev *irc.Event) {
	if !c.enough(ev, 4) {
		return
	}
	src := c.source(ev)
	ts := c.parseTS(ev.Args[0])
	name := ev.Args[1]
	modes := strings.Join(ev.Args[2:len(ev.Args)-1], " ")

	var users []data.SJoinUser
	for _, member := range strings.Fields(ev.Last()) {
		flags, id := c.parseMember(member)
		u := c.state.FindUser(id, false)
		if u == nil {
			c.log.Debug("sjoin for nonexistent user", "channel", name, "user", id)
			continue
		}
		users = append(users, data.SJoinUser{Status: flags, User: u})
	}

	if _, err := c.state.SJoin(src, name, ts, modes, users); err != nil {
		c.log.Error("sjoin failed", "channel", name, "err", err)
	}
}

// part: :UID PART #a,#b [:reason]
func (c *Core) part(ev *irc.Event) {
	if !c.enough(ev, 1) {
		return
	}
	u := c.sourceUser(ev)
	if u == nil {
		return
	}

	for _, name := range ev.SplitArgs(0) {
		ch := c.state.FindChannel(name)
		if ch == nil {
			c.log.Warn("part for nonexistent channel", "nick", u.Nick, "channel", name)
			continue
		}
		ch.DeleteUser(u)
	}
}

// kick: :source KICK #channel target[,target] :reason
func (c *Core) kick(ev *irc.Event) {
	if !c.enough(ev, 2) {
		return
	}
	ch := c.state.FindChannel(ev.Args[0])
	if ch == nil {
		c.log.Warn("kick in nonexistent channel", "channel", ev.Args[0])
		return
	}

	reason := ""
	if len(ev.Args) > 2 {
		reason = ev.Last()
	}
	src := c.source(ev)
	for _, target := range ev.SplitArgs(1) {
		if !ch.Alive() {
			return
		}
		ch.KickInternal(src, target, reason)
	}
}

// mode: :source MODE target modes [params...]
func (c *Core) mode(ev *irc.Event) {
	if !c.enough(ev, 2) {
		return
	}
	modes := strings.Join(ev.Args[1:], " ")

	if irc.IsChannel(ev.Args[0]) {
		ch := c.state.FindChannel(ev.Args[0])
		if ch == nil {
			c.log.Warn("mode for nonexistent channel", "channel", ev.Args[0])
			return
		}
		ch.SetModesInternal(c.source(ev), modes, 0, true)
		return
	}

	u := c.state.FindUser(ev.Args[0], false)
	if u == nil {
		c.log.Warn("mode for nonexistent user", "target", ev.Args[0])
		return
	}
	u.SetModesInternal(modes)
}

// tmode: :source TMODE ts #channel modes [params...]
func (c *Core) tmode(ev *irc.Event) {
	if !c.enough(ev, 3) {
		return
	}
	ch := c.state.FindChannel(ev.Args[1])
	if ch == nil {
		c.log.Warn("mode for nonexistent channel", "channel", ev.Args[1])
		return
	}
	ch.SetModesInternal(c.source(ev), strings.Join(ev.Args[2:], " "), c.parseTS(ev.Args[0]), true)
}

// bmask: :SID BMASK ts #channel type :masks. Masks from a newer channel are
// dropped.
func (c *Core) bmask(ev *irc.Event) {
	if !c.enough(ev, 4) {
		return
	}
	ch := c.state.FindChannel(ev.Args[1])
	if ch == nil {
		c.log.Warn("bmask for nonexistent channel", "channel", ev.Args[1])
		return
	}
	if c.parseTS(ev.Args[0]) > ch.TS || len(ev.Args[2]) == 0 {
		return
	}
	m := c.state.Modes().ChannelModeByChar(ev.Args[2][0])
	if m == nil || m.Kind != data.ModeList {
		c.log.Warn("bmask for unknown list mode", "channel", ch.Name, "mode", ev.Args[2])
		return
	}

	src := c.source(ev)
	for _, mask := range strings.Fields(ev.Last()) {
		ch.SetModeInternal(src, m, mask, true)
	}
}

// topic: :UID TOPIC #channel :topic
func (c *Core) topic(ev *irc.Event) {
	if !c.enough(ev, 1) {
		return
	}
	ch := c.state.FindChannel(ev.Args[0])
	if ch == nil {
		c.log.Warn("topic for nonexistent channel", "channel", ev.Args[0])
		return
	}

	topic := ""
	if len(ev.Args) > 1 {
		topic = ev.Last()
	}
	setter := c.source(ev).Name()
	if len(setter) == 0 {
		setter = ev.Sender
	}
	ch.ChangeTopicInternal(setter, topic, c.state.Now().Unix())
}

// tb: :SID TB #channel ts [setter] :topic. A burst topic only replaces an
// existing one when it's older.
func (c *Core) tb(ev *irc.Event) {
	if !c.enough(ev, 3) {
		return
	}
	ch := c.state.FindChannel(ev.Args[0])
	if ch == nil {
		c.log.Warn("topic burst for nonexistent channel", "channel", ev.Args[0])
		return
	}

	ts := c.parseTS(ev.Args[1])
	if len(ch.Topic) > 0 && ts >= ch.TopicTS {
		return
	}

	setter := c.source(ev).Name()
	if len(ev.Args) >= 4 {
		setter = ev.Args[2]
	}
	ch.ChangeTopicInternal(setter, ev.Last(), ts)
}
