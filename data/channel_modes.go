package data

import (
	"strings"
	"time"

	"github.com/aarondl/uqserv/irc"
)

// bounceLimit is how many corrections each side may make inside the bounce
// window before enforcement stops.
const bounceLimit = 3

type modeEntry struct {
	mode  *Mode
	param string
}

// channelModes is an ordered multimap from mode to parameter. List modes
// hold one entry per value, everything else at most one entry.
type channelModes []modeEntry

func (cm channelModes) find(name string) int {
	for i, e := range cm {
		if e.mode.Name == name {
			return i
		}
	}
	return -1
}

func (cm *channelModes) set(m *Mode, param string) {
	if m.Kind != ModeList {
		if i := cm.find(m.Name); i >= 0 {
			(*cm)[i].param = param
			return
		}
	}
	*cm = append(*cm, modeEntry{mode: m, param: param})
}

func (cm *channelModes) remove(name string) {
	kept := (*cm)[:0]
	for _, e := range *cm {
		if e.mode.Name != name {
			kept = append(kept, e)
		}
	}
	*cm = kept
}

// removeMatch deletes one list entry for param. An exact entry wins,
// otherwise the first stored entry whose mask matches param goes.
func (cm *channelModes) removeMatch(name, param string) {
	i := cm.indexOf(name, func(e modeEntry) bool { return irc.EqualFold(e.param, param) })
	if i < 0 {
		i = cm.indexOf(name, func(e modeEntry) bool { return irc.Match(e.param, param) })
	}
	if i >= 0 {
		*cm = append((*cm)[:i], (*cm)[i+1:]...)
	}
}

func (cm channelModes) indexOf(name string, fn func(modeEntry) bool) int {
	for i, e := range cm {
		if e.mode.Name == name && fn(e) {
			return i
		}
	}
	return -1
}

// HasMode checks if a mode is set. With a param, list modes are checked for
// that exact entry.
func (c *Channel) HasMode(name string, param ...string) bool {
	if len(param) == 0 {
		return c.modes.find(name) >= 0
	}
	for _, e := range c.modes {
		if e.mode.Name == name && irc.EqualFold(e.param, param[0]) {
			return true
		}
	}
	return false
}

// Param returns the parameter of a param mode.
func (c *Channel) Param(name string) (string, bool) {
	if i := c.modes.find(name); i >= 0 {
		return c.modes[i].param, true
	}
	return "", false
}

// ModeList returns every entry of a list mode.
func (c *Channel) ModeList(name string) []string {
	var list []string
	for _, e := range c.modes {
		if e.mode.Name == name {
			list = append(list, e.param)
		}
	}
	return list
}

// Modes renders the regular and param modes, with parameters if complete.
func (c *Channel) Modes(complete bool) string {
	var chars, params strings.Builder
	chars.WriteByte('+')
	for _, e := range c.modes {
		switch e.mode.Kind {
		case ModeRegular:
			chars.WriteByte(e.mode.Char)
		case ModeParam:
			chars.WriteByte(e.mode.Char)
			if complete {
				params.WriteByte(' ')
				params.WriteString(e.param)
			}
		}
	}
	return chars.String() + params.String()
}

// SetModeInternal records a mode change that has already happened on the
// network. With enforce, mode locks and access are re-applied afterwards.
func (c *Channel) SetModeInternal(src Source, m *Mode, param string, enforce bool) {
	if m == nil || c.dead {
		return
	}
	s := c.state
	defer s.op()()

	s.hooks.fireModeSet(c, src.Name(), m, param)

	if m.Kind == ModeStatus {
		if len(param) == 0 {
			s.log.Warn("status mode without a parameter", "channel", c.Name, "mode", string(m.Char))
			return
		}
		u := s.FindUser(param, false)
		if u == nil {
			s.log.Warn("status mode for nonexistent user", "channel", c.Name, "mode", string(m.Char), "user", param)
			return
		}

		s.log.Debug("status set", "channel", c.Name, "mode", string(m.Char), "nick", u.Nick)
		if uc := u.FindChannel(c); uc != nil {
			uc.Set(m.Flag)
		}
		if enforce {
			c.SetCorrectModes(u, false, false)
		}
		return
	}

	if m.Kind != ModeRegular && len(param) == 0 {
		s.log.Warn("mode without a parameter", "channel", c.Name, "mode", string(m.Char))
		return
	}
	c.modes.set(m, param)

	if m.Name == CModePermanent {
		c.persist = true
		if c.info != nil {
			c.info.Persist = true
		}
	}

	if enforce {
		c.CheckModes()
	}
}

// RemoveModeInternal records a mode removal that has already happened on
// the network. Removing the permanent mode from an empty channel destroys
// it.
func (c *Channel) RemoveModeInternal(src Source, m *Mode, param string, enforce bool) {
	if m == nil || c.dead {
		return
	}
	s := c.state
	defer s.op()()

	s.hooks.fireModeUnset(c, src.Name(), m, param)

	if m.Kind == ModeStatus {
		if len(param) == 0 {
			s.log.Warn("status mode without a parameter", "channel", c.Name, "mode", string(m.Char))
			return
		}
		u := s.FindUser(param, false)
		if u == nil {
			s.log.Warn("status mode for nonexistent user", "channel", c.Name, "mode", string(m.Char), "user", param)
			return
		}

		s.log.Debug("status unset", "channel", c.Name, "mode", string(m.Char), "nick", u.Nick)
		if uc := u.FindChannel(c); uc != nil {
			uc.Unset(m.Flag)
		}
		if enforce {
			if bot := s.assignedBot(c); bot == u && strings.IndexByte(s.opts.BotModes, m.Char) >= 0 {
				c.SetMode(bot, m, bot.UID(), false)
			}
			c.SetCorrectModes(u, false, false)
		}
		return
	}

	if m.Kind == ModeList && len(param) > 0 {
		c.modes.removeMatch(m.Name, param)
	} else {
		c.modes.remove(m.Name)
	}

	if m.Name == CModePermanent {
		c.persist = false
		if c.info != nil {
			c.info.Persist = false
		}
		if len(c.users) == 0 {
			c.doomed = true
			s.queueDestroy(c)
			return
		}
	}

	if enforce {
		c.CheckModes()
	}
}

// SetMode sets a mode as actor and stacks it to be sent. A nil actor is the
// channel's bot. Setting something that is already set, or an invalid
// parameter, does nothing.
func (c *Channel) SetMode(actor *User, m *Mode, param string, enforce bool) {
	if m == nil || c.dead {
		return
	}
	s := c.state

	switch m.Kind {
	case ModeRegular:
		if c.HasMode(m.Name) {
			return
		}
		param = ""
	case ModeParam:
		if !m.IsValid(param) {
			return
		}
		if cur, ok := c.Param(m.Name); ok && cur == param {
			return
		}
	case ModeStatus:
		u := s.FindUser(param, false)
		if u == nil || c.HasUserStatus(u, m.Name) {
			return
		}
		param = u.UID()
	case ModeList:
		if !m.IsValid(param) || c.HasMode(m.Name, param) {
			return
		}
	}

	defer s.op()()
	if actor == nil {
		actor = s.BotFor(c)
	}
	s.stacker.Add(s.sourceOf(actor), c.handle, m, true, param)
	c.SetModeInternal(c.sourceFor(actor), m, param, enforce)
}

// RemoveMode removes a mode as actor and stacks it to be sent. Removing
// something that isn't set does nothing.
func (c *Channel) RemoveMode(actor *User, m *Mode, param string, enforce bool) {
	if m == nil || c.dead {
		return
	}
	s := c.state

	switch m.Kind {
	case ModeRegular:
		if !c.HasMode(m.Name) {
			return
		}
		param = ""
	case ModeParam:
		cur, ok := c.Param(m.Name)
		if !ok {
			return
		}
		param = ""
		if !m.MinusNoArg {
			param = cur
		}
	case ModeStatus:
		u := s.FindUser(param, false)
		if u == nil || !c.HasUserStatus(u, m.Name) {
			return
		}
		param = u.UID()
	case ModeList:
		if !c.HasMode(m.Name, param) {
			return
		}
	}

	defer s.op()()
	if actor == nil {
		actor = s.BotFor(c)
	}
	s.stacker.Add(s.sourceOf(actor), c.handle, m, false, param)
	c.RemoveModeInternal(c.sourceFor(actor), m, param, enforce)
}

func (c *Channel) sourceFor(actor *User) Source {
	if actor != nil {
		return Source{User: actor}
	}
	return Source{Server: c.state.Me}
}

// SetModes applies a mode string such as "+ntl-k 10" through SetMode and
// RemoveMode. Status parameters may be nicks.
func (c *Channel) SetModes(actor *User, enforce bool, modes string) {
	s := c.state
	defer s.op()()

	for _, tok := range parseModeString(modes, c.takesParam) {
		if c.dead {
			return
		}
		m := s.modes.ChannelModeByChar(tok.char)
		if m == nil || tok.missing {
			continue
		}
		if tok.set {
			c.SetMode(actor, m, tok.param, enforce)
		} else {
			c.RemoveMode(actor, m, tok.param, enforce)
		}
	}
}

// SetModesInternal applies a mode string from the network. An older ts
// lowers the channel's TS and resets it first. A newer ts is still applied.
func (c *Channel) SetModesInternal(src Source, modes string, ts int64, enforce bool) {
	if c.dead {
		return
	}
	s := c.state
	defer s.op()()

	if src.IsServer() {
		c.bump(&c.serverModeTime, &c.serverModeCount)
	}

	if ts != 0 && ts < c.TS {
		s.log.Debug("lowering channel ts", "channel", c.Name, "from", c.TS, "to", ts)
		c.TS = ts
		c.Reset()
	}

	for _, tok := range parseModeString(modes, c.takesParam) {
		if c.dead {
			return
		}
		m := s.modes.ChannelModeByChar(tok.char)
		if m == nil {
			s.log.Debug("unknown channel mode", "channel", c.Name, "mode", string(tok.char))
			continue
		}
		if tok.missing {
			s.log.Warn("more param modes than params", "channel", c.Name, "modes", modes)
			continue
		}
		if tok.set {
			c.SetModeInternal(src, m, tok.param, enforce)
		} else {
			c.RemoveModeInternal(src, m, tok.param, enforce)
		}
	}

	s.log.Debug("channel mode", "channel", c.Name, "source", src.Name(), "modes", modes)
}

func (c *Channel) takesParam(char byte, set bool) bool {
	m := c.state.modes.ChannelModeByChar(char)
	return m != nil && m.TakesParam(set)
}

// bump counts a correction, starting over once the bounce window has passed.
func (c *Channel) bump(when *time.Time, count *int) {
	now := c.state.now()
	if !c.withinBounceWindow(*when, now) {
		*count = 0
		*when = now
	}
	*count++
}

func (c *Channel) withinBounceWindow(when, now time.Time) bool {
	if when.IsZero() || now.Before(when) {
		return false
	}
	return now.Sub(when) < c.state.opts.BounceWindow
}

// CheckModes brings the channel back in line with its mode locks. If the
// network and services have both corrected the channel too often inside the
// bounce window, enforcement stops for good.
func (c *Channel) CheckModes() {
	if c.bouncy || c.dead {
		return
	}
	s := c.state

	now := s.now()
	if c.serverModeCount >= bounceLimit && c.chanservModeCount >= bounceLimit &&
		c.withinBounceWindow(c.serverModeTime, now) && c.withinBounceWindow(c.chanservModeTime, now) {
		s.log.Warn("unable to set modes, are your servers' ulines configured correctly?", "channel", c.Name)
		c.bouncy = true
		s.hooks.fireModeBounce(c)
		return
	}

	c.bump(&c.chanservModeTime, &c.chanservModeCount)

	ci := c.info
	if ci == nil {
		return
	}
	defer s.op()()

	bot := s.BotFor(c)
	for _, ml := range ci.MLocks {
		if c.dead {
			return
		}
		m := s.modes.ChannelMode(ml.Name)
		if m == nil {
			continue
		}

		switch m.Kind {
		case ModeRegular:
			if ml.Set && !c.HasMode(m.Name) {
				c.SetMode(bot, m, "", false)
			} else if !ml.Set && c.HasMode(m.Name) {
				c.RemoveMode(bot, m, "", false)
			}
		case ModeParam:
			if ml.Set {
				cur, ok := c.Param(m.Name)
				if !ok || (len(cur) > 0 && len(ml.Param) > 0 && cur != ml.Param) {
					c.SetMode(bot, m, ml.Param, false)
				}
			} else if c.HasMode(m.Name) {
				c.RemoveMode(bot, m, "", false)
			}
		case ModeList:
			if ml.Set {
				c.SetMode(bot, m, ml.Param, false)
			} else {
				c.RemoveMode(bot, m, ml.Param, false)
			}
		}
	}
}

// SetCorrectModes gives a member the status their access entitles them to
// when give is set, strips what they may not hold when secure ops is on or
// the channel is syncing from a synced server, then applies status mode
// locks whose mask matches them.
func (c *Channel) SetCorrectModes(u *User, give, checkNoAutoOp bool) {
	ci := c.info
	if u == nil || ci == nil || c.dead || u.dead {
		return
	}
	s := c.state
	defer s.op()()

	owner := s.modes.ChannelMode(CModeOwner)
	protect := s.modes.ChannelMode(CModeProtect)
	op := s.modes.ChannelMode(CModeOp)
	halfop := s.modes.ChannelMode(CModeHalfop)
	voice := s.modes.ChannelMode(CModeVoice)

	s.log.Debug("setting correct modes", "nick", u.Nick, "channel", c.Name, "give", give)

	access := ci.AccessFor(u)
	uid := u.UID()
	acct := u.Account()

	if give && (acct == nil || acct.AutoOp) && (!checkNoAutoOp || !ci.NoAutoOp) {
		if owner != nil && access.Has(PrivAutoOwner) {
			c.SetMode(nil, owner, uid, false)
		} else if protect != nil && access.Has(PrivAutoProtect) {
			c.SetMode(nil, protect, uid, false)
		}

		if op != nil && access.Has(PrivAutoOp) {
			c.SetMode(nil, op, uid, false)
		} else if halfop != nil && access.Has(PrivAutoHalfop) {
			c.SetMode(nil, halfop, uid, false)
		} else if voice != nil && access.Has(PrivAutoVoice) {
			c.SetMode(nil, voice, uid, false)
		}
	}

	if (ci.SecureOps || (c.syncing && u.server.IsSynced())) && !u.server.IsULined() {
		if owner != nil && !access.Has(PrivAutoOwner) && !access.Has(PrivOwnerMe) {
			c.RemoveMode(nil, owner, uid, false)
		}
		if protect != nil && !access.Has(PrivAutoProtect) && !access.Has(PrivProtectMe) {
			c.RemoveMode(nil, protect, uid, false)
		}
		if op != nil && !access.Has(PrivAutoOp) && !access.Has(PrivOpDeopMe) {
			c.RemoveMode(nil, op, uid, false)
		}
		if halfop != nil && !access.Has(PrivAutoHalfop) && !access.Has(PrivHalfopMe) {
			c.RemoveMode(nil, halfop, uid, false)
		}
	}

	displayed := string(u.DisplayedMask())
	for _, ml := range ci.MLocks {
		m := s.modes.ChannelMode(ml.Name)
		if m == nil || m.Kind != ModeStatus {
			continue
		}
		if !irc.Match(ml.Param, u.Nick) && !irc.Match(ml.Param, displayed) {
			continue
		}
		if ml.Set == c.HasUserStatus(u, ml.Name) {
			continue
		}
		if ml.Set {
			c.SetMode(nil, m, uid, false)
		} else {
			c.RemoveMode(nil, m, uid, false)
		}
	}
}

// MatchesList checks a user against every entry of a list mode.
func (c *Channel) MatchesList(u *User, name string) bool {
	for _, mask := range c.ModeList(name) {
		if NewEntry(mask).Matches(u, false) {
			return true
		}
	}
	return false
}

// Unban removes every ban matching the user. full also matches the user's
// real ident and hosts.
func (c *Channel) Unban(u *User, full bool) {
	s := c.state
	ban := s.modes.ChannelMode(CModeBan)
	if ban == nil || u == nil {
		return
	}
	defer s.op()()

	for _, mask := range c.ModeList(CModeBan) {
		if c.dead {
			return
		}
		if NewEntry(mask).Matches(u, full) {
			c.RemoveMode(nil, ban, mask, true)
		}
	}
}

// Reset forgets every mode and status, puts back our bots' statuses, then
// re-applies mode locks and access. It's used when the channel's TS is
// lowered.
func (c *Channel) Reset() {
	if c.dead {
		return
	}
	s := c.state
	defer s.op()()

	c.modes = nil

	for _, cu := range c.users {
		flags := cu.Flags()
		cu.Clear()

		if !cu.User.bot {
			continue
		}
		for _, m := range s.modes.StatusModes() {
			if flags&m.Flag != 0 {
				c.SetMode(nil, m, cu.User.UID(), false)
			}
		}
	}

	c.CheckModes()

	for _, cu := range append([]*ChannelUser(nil), c.users...) {
		if c.dead {
			return
		}
		c.SetCorrectModes(cu.User, true, false)
	}

	if c.info != nil && s.Me != nil && s.Me.IsSynced() {
		c.RestoreTopic()
	}
}

// Sync finishes a channel's burst. A channel that would be empty, or hold
// only its assigned bot, is held open for a while.
func (c *Channel) Sync() {
	if c.dead {
		return
	}
	s := c.state
	defer s.op()()

	if !c.HasMode(CModePermanent) {
		if len(c.users) == 0 || (len(c.users) == 1 && s.assignedBot(c) == c.users[0].User) {
			c.Hold()
		}
		if c.eligibleForDestroy() {
			s.queueDestroy(c)
		}
	}

	if c.info != nil {
		c.CheckModes()
		if s.Me != nil && s.Me.IsSynced() {
			c.RestoreTopic()
		}
	}
}
