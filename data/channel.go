package data

import (
	"strings"
	"time"

	"github.com/aarondl/uqserv/irc"
	"github.com/pkg/errors"
)

// Source is who a change came from, a user or a server.
type Source struct {
	User   *User
	Server *Server
}

// Name is the source's nick or server name.
func (src Source) Name() string {
	switch {
	case src.User != nil:
		return src.User.Nick
	case src.Server != nil:
		return src.Server.Name
	}
	return ""
}

// IsServer is true for changes made by a server rather than a user.
func (src Source) IsServer() bool {
	return src.User == nil && src.Server != nil
}

// Channel is a channel on the network.
type Channel struct {
	state  *State
	handle Handle
	dead   bool
	queued bool
	doomed bool

	// Name is fixed at creation.
	Name string
	// TS is the creation time used to settle conflicts.
	TS int64

	Topic       string
	TopicSetter string
	// TopicTS is the topic's network timestamp, TopicTime when we saw it.
	TopicTS   int64
	TopicTime int64

	modes channelModes
	users []*ChannelUser
	info  *ChannelInfo

	persist bool
	syncing bool
	inhabit bool
	bouncy  bool

	serverModeTime    time.Time
	serverModeCount   int
	chanservModeTime  time.Time
	chanservModeCount int
}

// NewChannel creates a channel, linking it to its registration if there is
// one. If the channel already exists it is returned as is.
func (s *State) NewChannel(name string, ts int64) (*Channel, error) {
	if len(name) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "data: channel without a name")
	}
	defer s.op()()

	key := irc.Fold(name)
	if c, ok := s.channels[key]; ok {
		s.log.Debug("duplicate channel in table", "channel", name)
		return c, nil
	}

	c := &Channel{
		state: s,
		Name:  name,
		TS:    ts,
	}
	c.handle = s.newHandle(KindChannel, c)
	s.channels[key] = c

	if ci := s.findChannelInfo(name); ci != nil {
		c.info = ci
		ci.c = c
	}

	s.log.Debug("channel create", "channel", name, "ts", ts)
	s.hooks.fireChannelCreate(c)
	return c, nil
}

// destroyChannel removes the channel from everything that refers to it.
func (s *State) destroyChannel(c *Channel) {
	s.hooks.fireChannelDelete(c)

	for _, cu := range c.users {
		u := cu.User
		for i, uc := range u.chans {
			if uc.Channel == c {
				u.chans = append(u.chans[:i], u.chans[i+1:]...)
				break
			}
		}
	}
	c.users = nil

	s.stacker.Del(c.handle)
	s.timers.CancelFor(c.handle)
	if c.info != nil && c.info.c == c {
		c.info.c = nil
	}
	if key := irc.Fold(c.Name); s.channels[key] == c {
		delete(s.channels, key)
	}
	delete(s.live, c.handle)
	c.dead = true

	s.log.Debug("channel destroy", "channel", c.Name)
}

// Alive is false once the channel has been destroyed.
func (c *Channel) Alive() bool { return !c.dead }

// Handle is the channel's stable reference.
func (c *Channel) Handle() Handle { return c.handle }

// Info is the channel's registration, nil if unregistered.
func (c *Channel) Info() *ChannelInfo { return c.info }

// Users returns the members in join order.
func (c *Channel) Users() []*ChannelUser { return c.users }

// UserCount is the number of members.
func (c *Channel) UserCount() int { return len(c.users) }

// Syncing is true while the channel's burst is being processed.
func (c *Channel) Syncing() bool { return c.syncing }

// Inhabited is true while a bot is holding the channel open.
func (c *Channel) Inhabited() bool { return c.inhabit }

// Bouncy is true once mode lock enforcement has been given up.
func (c *Channel) Bouncy() bool { return c.bouncy }

// Persistent channels are not destroyed when they empty out.
func (c *Channel) Persistent() bool {
	return c.persist || (c.info != nil && c.info.Persist)
}

func (c *Channel) eligibleForDestroy() bool {
	return len(c.users) == 0 && !c.Persistent() && !c.syncing && !c.inhabit
}

// Delete destroys the channel, removing every member.
func (c *Channel) Delete() {
	if c.dead {
		return
	}
	defer c.state.op()()
	c.doomed = true
	c.state.queueDestroy(c)
}

// FindUser returns the membership record for u.
func (c *Channel) FindUser(u *User) *ChannelUser {
	for _, cu := range c.users {
		if cu.User == u {
			return cu
		}
	}
	return nil
}

// HasUserStatus checks if u holds the named status on the channel.
func (c *Channel) HasUserStatus(u *User, name string) bool {
	if u == nil {
		return false
	}
	m := c.state.modes.ChannelMode(name)
	if m == nil || m.Kind != ModeStatus {
		return false
	}
	uc := u.FindChannel(c)
	return uc != nil && uc.HasMode(m)
}

// JoinUser adds a member. The channel and user records share one Status.
// A persistent registered channel that is newer than its registration has
// its TS lowered and is reset.
func (c *Channel) JoinUser(u *User) *ChannelUser {
	s := c.state
	defer s.op()()

	if cu := c.FindUser(u); cu != nil {
		return cu
	}

	s.log.Debug("join", "nick", u.Nick, "channel", c.Name)

	status := &Status{}
	u.chans = append(u.chans, &UserChannel{Channel: c, Status: status})
	cu := &ChannelUser{User: u, Status: status}
	c.users = append(c.users, cu)

	if c.info != nil && c.info.Persist && c.info.TimeRegistered > 0 && c.TS > c.info.TimeRegistered {
		s.log.Debug("lowering channel ts", "channel", c.Name, "from", c.TS, "to", c.info.TimeRegistered)
		c.TS = c.info.TimeRegistered
		s.sender.SendChannel(c)
		c.Reset()
	}

	return cu
}

// DeleteUser removes a member. Once a channel is empty and not persistent,
// syncing or inhabited it is destroyed.
func (c *Channel) DeleteUser(u *User) {
	s := c.state
	defer s.op()()

	s.log.Debug("leave", "nick", u.Nick, "channel", c.Name)
	s.hooks.fireLeave(u, c)

	found := false
	for i, cu := range c.users {
		if cu.User == u {
			c.users = append(c.users[:i], c.users[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.log.Debug("deleting user not in channel", "nick", u.Nick, "channel", c.Name)
		return
	}

	for i, uc := range u.chans {
		if uc.Channel == c {
			u.chans = append(u.chans[:i], u.chans[i+1:]...)
			break
		}
	}

	if c.eligibleForDestroy() {
		s.queueDestroy(c)
	}
}

// Hold keeps a bot in the channel for a while so it isn't destroyed.
func (c *Channel) Hold() {
	s := c.state
	cs := s.ChanServ()
	if cs == nil || c.dead {
		return
	}
	defer s.op()()

	c.inhabit = true
	if bot := s.assignedBot(c); bot == nil {
		s.JoinBot(cs, c)
	} else if c.FindUser(bot) == nil {
		s.JoinBot(bot, c)
	}

	s.timers.Add(c.handle, s.now().Add(s.opts.Inhabit), func(h Handle) {
		c := s.ChannelByHandle(h)
		if c == nil {
			return
		}
		c.inhabit = false

		if bot := s.assignedBot(c); bot == nil {
			if cs := s.ChanServ(); cs != nil {
				s.PartBot(cs, c, "")
			}
		} else if len(c.users) == 1 || len(c.users) < s.opts.BSMinUsers {
			s.PartBot(bot, c, "")
		}

		if c.eligibleForDestroy() {
			s.queueDestroy(c)
		}
	})
}

// JoinBot joins one of our bots to a channel with the configured bot
// statuses.
func (s *State) JoinBot(bot *User, c *Channel) {
	if bot == nil || c == nil || c.dead || c.FindUser(bot) != nil {
		return
	}
	defer s.op()()

	var flags StatusFlag
	for i := 0; i < len(s.opts.BotModes); i++ {
		if m := s.modes.ChannelModeByChar(s.opts.BotModes[i]); m != nil && m.Kind == ModeStatus {
			flags |= m.Flag
		}
	}

	s.sender.SendJoin(bot, c, flags)
	cu := c.JoinUser(bot)
	cu.Set(flags)
	s.hooks.fireJoin(bot, c)
}

// PartBot parts one of our bots from a channel.
func (s *State) PartBot(bot *User, c *Channel, reason string) {
	if bot == nil || c == nil || c.dead || c.FindUser(bot) == nil {
		return
	}
	defer s.op()()

	s.sender.SendPart(bot, c, reason)
	c.DeleteUser(bot)
}

// Kick removes a user through the network. U-lined and protected users
// can't be kicked.
func (c *Channel) Kick(actor *User, u *User, reason string) bool {
	if u == nil || u.dead || c.dead {
		return false
	}
	if u.server.IsULined() || u.IsProtected() {
		return false
	}
	s := c.state
	defer s.op()()

	if actor == nil {
		actor = s.BotFor(c)
	}
	s.sender.SendKick(actor, c, u, reason)

	src := Source{User: actor}
	if actor == nil {
		src.Server = s.Me
	}
	c.KickInternal(src, u.UID(), reason)
	return true
}

// KickInternal processes a kick. Our bots rejoin straight away.
func (c *Channel) KickInternal(src Source, nick, reason string) {
	s := c.state
	defer s.op()()

	target := s.FindUser(nick, false)
	if target == nil {
		s.log.Warn("kick for nonexistent user", "nick", nick, "channel", c.Name, "source", src.Name())
		return
	}

	isBot := target.bot && target.server == s.Me
	if c.FindUser(target) != nil {
		s.log.Debug("kick", "nick", target.Nick, "channel", c.Name, "source", src.Name(), "reason", reason)
		s.hooks.fireKick(src.Name(), c, target, reason)
		if isBot {
			c.inhabit = true
		}
		c.DeleteUser(target)
	} else {
		s.log.Debug("kick for user not in channel", "nick", target.Nick, "channel", c.Name)
	}

	if isBot {
		s.JoinBot(target, c)
		c.inhabit = false
	}
}

// ChangeTopicInternal records a topic the network told us about.
func (c *Channel) ChangeTopicInternal(setter, topic string, ts int64) {
	s := c.state
	defer s.op()()

	c.setTopic(setter, topic, ts)
	c.TopicTime = s.now().Unix()

	s.log.Debug("topic", "channel", c.Name, "setter", c.TopicSetter, "topic", topic)
	s.hooks.fireTopic(c, setter, topic)
	c.CheckTopic()
}

// ChangeTopic sets the topic and sends it.
func (c *Channel) ChangeTopic(setter, topic string, ts int64) {
	s := c.state
	defer s.op()()

	c.setTopic(setter, topic, ts)
	s.sender.SendTopic(s.BotFor(c), c)
	c.TopicTime = s.now().Unix()

	s.hooks.fireTopic(c, setter, topic)
	c.CheckTopic()
}

func (c *Channel) setTopic(setter, topic string, ts int64) {
	c.Topic = topic
	c.TopicSetter = setter
	if u := c.state.FindUser(setter, false); u != nil {
		c.TopicSetter = u.Nick
	}
	c.TopicTS = ts
}

// CheckTopic stores the topic on the registration, or puts the stored one
// back when the topic is locked.
func (c *Channel) CheckTopic() {
	ci := c.info
	if ci == nil {
		return
	}

	if ci.TopicLock && c.Topic != ci.LastTopic {
		c.RestoreTopic()
		return
	}

	if ci.LastTopic == c.Topic && ci.LastTopicSetter == c.TopicSetter {
		return
	}
	ci.LastTopic = c.Topic
	ci.LastTopicSetter = c.TopicSetter
	ci.LastTopicTime = c.TopicTS
	c.state.saveChannel(ci)
}

// RestoreTopic puts the registration's topic back when topic retention is
// on.
func (c *Channel) RestoreTopic() {
	ci := c.info
	if ci == nil || (!ci.KeepTopic && !ci.TopicLock) || c.Topic == ci.LastTopic {
		return
	}
	c.ChangeTopic(ci.LastTopicSetter, ci.LastTopic, ci.LastTopicTime)
}

// CheckKick bans and kicks a joining user who may not be in the channel.
// Returns true if the user was kicked.
func (c *Channel) CheckKick(u *User) bool {
	ci := c.info
	if ci == nil || u == nil || u.dead || u.exempt || u.bot || u.server.IsULined() {
		return false
	}

	var mask, reason string
	switch {
	case ci.Forbidden:
		mask, reason = u.BanMask(), ci.ForbidReason
		if len(reason) == 0 {
			reason = "This channel may not be used."
		}
	case ci.Suspended:
		mask, reason = u.BanMask(), "This channel may not be used."
	default:
		ak, ok := ci.AKickFor(u)
		if !ok || c.MatchesList(u, CModeExcept) {
			return false
		}
		mask, reason = ak.Mask, ak.Reason
		if !strings.ContainsAny(mask, "!@") {
			mask = u.BanMask()
		}
		if len(reason) == 0 {
			reason = "User has been banned from the channel"
		}
	}

	s := c.state
	defer s.op()()

	if len(c.users) == 1 {
		c.Hold()
	}
	bot := s.BotFor(c)
	if ban := s.modes.ChannelMode(CModeBan); ban != nil {
		c.SetMode(bot, ban, mask, true)
	}
	return c.Kick(bot, u, reason)
}
