/*
Package data holds the services view of the network: every user, channel and
server, their modes, and the policy that is enforced on them.

All access to a State and the entities it owns must happen from a single
goroutine.
*/
package data

import (
	"sort"
	"strings"
	"time"

	"github.com/aarondl/uqserv/irc"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

var (
	// ErrInvalidArgument is returned when a required argument is missing.
	// It means the caller is broken, not the network.
	ErrInvalidArgument = errors.New("data: Invalid argument")
	// ErrNoRoot is returned when something needs our own server to exist.
	ErrNoRoot = errors.New("data: Local server not created")
)

// Kind is the type of entity a Handle refers to.
type Kind uint8

// Entity kinds.
const (
	KindUser Kind = iota + 1
	KindChannel
	KindServer
)

// Handle is a stable reference to an entity. It only resolves while the
// entity is alive, and is never reused.
type Handle struct {
	Kind Kind
	ID   uint64
}

// Options tune the state's policy.
type Options struct {
	// RequiresID is set for protocols that address users and servers by
	// UID and SID.
	RequiresID bool
	// CanForceNick is set when the protocol can force a nick change.
	CanForceNick bool

	// BadPassLimit is how many bad passwords kill a user, 0 disables.
	BadPassLimit int
	// BadPassTimeout resets the bad password counter.
	BadPassTimeout time.Duration

	// Inhabit is how long a bot holds an emptied channel.
	Inhabit time.Duration
	// BSMinUsers is how many users must be in a channel for an assigned bot
	// to stay after holding it.
	BSMinUsers int
	// BounceWindow is the window in which three corrections from each side
	// count as mode bouncing.
	BounceWindow time.Duration
	// MaxModes is the most mode changes sent in a single line.
	MaxModes int

	// GuestPrefix is prepended to random digits for collided users.
	GuestPrefix string
	// BotModes are the statuses a service bot is given when joining.
	BotModes string
}

// DefaultOptions returns sensible options.
func DefaultOptions() Options {
	return Options{
		RequiresID:     true,
		CanForceNick:   true,
		BadPassLimit:   5,
		BadPassTimeout: time.Hour,
		Inhabit:        15 * time.Second,
		BSMinUsers:     1,
		BounceWindow:   time.Second,
		MaxModes:       defaultMaxModes,
		GuestPrefix:    "Guest",
		BotModes:       "o",
	}
}

// State owns every live entity and the directories used to find them.
type State struct {
	log      log15.Logger
	opts     Options
	modes    *ModeRegistry
	hooks    *Hooks
	sender   Sender
	registry Registry
	stacker  *Stacker
	timers   Timers

	// Me is our own server, the root of the server tree.
	Me       *Server
	chanServ *User

	now    func() time.Time
	nextID uint64
	live   map[Handle]interface{}

	nicks    map[string]*User
	uids     map[string]*User
	channels map[string]*Channel

	capab  map[string]bool
	ulines []glob.Glob
	opers  map[string]*Oper

	userCount   int
	maxUsers    int
	maxUserTime time.Time
	operCount   int

	depth   int
	pending []*Channel

	uid []byte
	sid []byte
}

// NewState creates an empty state. registry may be nil when nothing is
// registered, and logger may be nil to discard logs.
func NewState(opts Options, modes *ModeRegistry, sender Sender, registry Registry, logger log15.Logger) *State {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	if modes == nil {
		modes = DefaultModeRegistry()
	}
	if sender == nil {
		sender = NopSender{}
	}
	if opts.BounceWindow <= 0 {
		opts.BounceWindow = time.Second
	}

	return &State{
		log:      logger.New("pkg", "data"),
		opts:     opts,
		modes:    modes,
		hooks:    &Hooks{},
		sender:   sender,
		registry: registry,
		stacker:  NewStacker(opts.MaxModes),
		now:      time.Now,
		live:     make(map[Handle]interface{}),
		nicks:    make(map[string]*User),
		uids:     make(map[string]*User),
		channels: make(map[string]*Channel),
		capab:    make(map[string]bool),
		opers:    make(map[string]*Oper),
	}
}

// Options returns the policy options.
func (s *State) Options() Options { return s.opts }

// Modes returns the mode registry.
func (s *State) Modes() *ModeRegistry { return s.modes }

// Hooks returns the hooks to register callbacks on.
func (s *State) Hooks() *Hooks { return s.hooks }

// Sender returns the protocol sender.
func (s *State) Sender() Sender { return s.sender }

// SetSender replaces the protocol sender, used once the link is up.
func (s *State) SetSender(sender Sender) {
	if sender == nil {
		sender = NopSender{}
	}
	s.sender = sender
}

// Registry returns the registration store, possibly nil.
func (s *State) Registry() Registry { return s.registry }

// Stacker returns the mode stacker.
func (s *State) Stacker() *Stacker { return s.stacker }

// Timers returns the timer schedule.
func (s *State) Timers() *Timers { return &s.timers }

// Logger returns the state's logger.
func (s *State) Logger() log15.Logger { return s.log }

// SetClock replaces the clock, for tests.
func (s *State) SetClock(now func() time.Time) {
	s.now = now
}

// Now is the current time according to the state's clock.
func (s *State) Now() time.Time {
	return s.now()
}

// op marks the start of a state operation and returns the function that ends
// it. Channels that become eligible for destruction while any operation is
// running are destroyed when the outermost one ends.
//
//	defer s.op()()
func (s *State) op() func() {
	s.depth++
	return s.endOp
}

func (s *State) endOp() {
	s.depth--
	if s.depth > 0 {
		return
	}

	s.depth++
	for len(s.pending) > 0 {
		pending := s.pending
		s.pending = nil
		for _, c := range pending {
			c.queued = false
			if c.dead {
				continue
			}
			if c.doomed || c.eligibleForDestroy() {
				s.destroyChannel(c)
			}
		}
	}
	s.depth--
}

func (s *State) queueDestroy(c *Channel) {
	if c.queued || c.dead {
		return
	}
	c.queued = true
	s.pending = append(s.pending, c)
}

func (s *State) newHandle(kind Kind, entity interface{}) Handle {
	s.nextID++
	h := Handle{Kind: kind, ID: s.nextID}
	s.live[h] = entity
	return h
}

// Alive checks that a handle still resolves.
func (s *State) Alive(h Handle) bool {
	_, ok := s.live[h]
	return ok
}

// UserByHandle resolves a user handle.
func (s *State) UserByHandle(h Handle) *User {
	u, _ := s.live[h].(*User)
	return u
}

// ChannelByHandle resolves a channel handle.
func (s *State) ChannelByHandle(h Handle) *Channel {
	c, _ := s.live[h].(*Channel)
	return c
}

// ServerByHandle resolves a server handle.
func (s *State) ServerByHandle(h Handle) *Server {
	srv, _ := s.live[h].(*Server)
	return srv
}

func (s *State) targetName(h Handle) (string, bool) {
	switch e := s.live[h].(type) {
	case *User:
		return e.UID(), true
	case *Channel:
		return e.Name, true
	}
	return "", false
}

// Flush sends every stacked mode change.
func (s *State) Flush() {
	s.stacker.Flush(s.targetName, s.sender)
}

// Tick runs every timer that is due.
func (s *State) Tick(now time.Time) {
	defer s.op()()
	s.timers.Tick(now, s.Alive)
}

// AddCapab records capability tokens learned from the uplink.
func (s *State) AddCapab(tokens ...string) {
	for _, t := range tokens {
		if len(t) > 0 {
			s.capab[strings.ToUpper(t)] = true
		}
	}
}

// HasCapab checks for a capability token.
func (s *State) HasCapab(token string) bool {
	return s.capab[strings.ToUpper(token)]
}

// ClearCapab forgets every capability, used when the link drops.
func (s *State) ClearCapab() {
	s.capab = make(map[string]bool)
}

// SetULines compiles the glob patterns of servers we trust to set modes
// without interference.
func (s *State) SetULines(patterns []string) error {
	ulines := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p), '.')
		if err != nil {
			return errors.Wrapf(err, "data: bad uline %q", p)
		}
		ulines = append(ulines, g)
	}
	s.ulines = ulines
	return nil
}

func (s *State) isULinedName(name string) bool {
	name = strings.ToLower(name)
	for _, g := range s.ulines {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// AddOper makes an operator block available to accounts by name.
func (s *State) AddOper(o *Oper) {
	s.opers[strings.ToLower(o.Name)] = o
}

// FindOper looks up an operator block.
func (s *State) FindOper(name string) *Oper {
	return s.opers[strings.ToLower(name)]
}

// UserCount is the number of users on the network.
func (s *State) UserCount() int { return s.userCount }

// MaxUserCount is the most users seen at once.
func (s *State) MaxUserCount() int { return s.maxUsers }

// MaxUserTime is when MaxUserCount was reached.
func (s *State) MaxUserTime() time.Time { return s.maxUserTime }

// OperCount is the number of users with the oper user mode.
func (s *State) OperCount() int { return s.operCount }

// ChannelCount is the number of live channels.
func (s *State) ChannelCount() int { return len(s.channels) }

// FindUser looks up a user. Names starting with a digit are tried as UIDs
// first when the protocol uses them, unless nickOnly is set.
func (s *State) FindUser(name string, nickOnly bool) *User {
	if len(name) == 0 {
		return nil
	}
	if !nickOnly && s.opts.RequiresID && irc.IsID(name) {
		if u, ok := s.uids[name]; ok {
			return u
		}
	}
	return s.nicks[irc.Fold(name)]
}

// Users returns every user ordered by nick.
func (s *State) Users() []*User {
	users := make([]*User, 0, len(s.nicks))
	for _, u := range s.nicks {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return irc.Fold(users[i].Nick) < irc.Fold(users[j].Nick)
	})
	return users
}

// FindChannel looks up a channel by name.
func (s *State) FindChannel(name string) *Channel {
	return s.channels[irc.Fold(name)]
}

// Channels returns every channel ordered by name.
func (s *State) Channels() []*Channel {
	chans := make([]*Channel, 0, len(s.channels))
	for _, c := range s.channels {
		chans = append(chans, c)
	}
	sort.Slice(chans, func(i, j int) bool {
		return irc.Fold(chans[i].Name) < irc.Fold(chans[j].Name)
	})
	return chans
}

// findChannelInfo asks the registry for a channel registration.
func (s *State) findChannelInfo(name string) *ChannelInfo {
	if s.registry == nil {
		return nil
	}
	return s.registry.FindChannel(name)
}

func (s *State) findNick(nick string) *NickAlias {
	if s.registry == nil {
		return nil
	}
	return s.registry.FindNick(nick)
}

func (s *State) saveNick(na *NickAlias) {
	if s.registry == nil {
		return
	}
	if err := s.registry.SaveNick(na); err != nil {
		s.log.Error("failed to save nick", "nick", na.Nick, "err", err)
	}
}

func (s *State) saveChannel(ci *ChannelInfo) {
	if s.registry == nil {
		return
	}
	if err := s.registry.SaveChannel(ci); err != nil {
		s.log.Error("failed to save channel", "channel", ci.Name, "err", err)
	}
}

// ChanServ is the bot that holds channels and sets modes when a channel has
// no assigned bot.
func (s *State) ChanServ() *User {
	if s.chanServ != nil && !s.chanServ.Alive() {
		s.chanServ = nil
	}
	return s.chanServ
}

// SetChanServ chooses the bot that acts for unassigned channels.
func (s *State) SetChanServ(u *User) {
	s.chanServ = u
}

// Bots returns our service bots ordered by nick.
func (s *State) Bots() []*User {
	var bots []*User
	for _, u := range s.Users() {
		if u.bot {
			bots = append(bots, u)
		}
	}
	return bots
}

// NewBot introduces a service bot on our server.
func (s *State) NewBot(nick, ident, host, realname, modes string) (*User, error) {
	defer s.op()()

	if s.Me == nil {
		return nil, ErrNoRoot
	}

	var uid string
	if s.opts.RequiresID {
		uid = s.NextUID()
	}

	u, err := s.newUser(nick, ident, host, "", "", s.Me, realname, s.now().Unix(), modes, uid, true)
	if err != nil {
		return nil, err
	}

	if s.Uplink() != nil {
		s.sender.SendClientIntroduction(u)
	}
	return u, nil
}

// ReintroduceBot sends one of our bots and its channels to the network
// again, used when the network killed it.
func (s *State) ReintroduceBot(bot *User) {
	if bot == nil || !bot.bot || bot.dead {
		return
	}
	s.log.Info("bot reintroduced", "nick", bot.Nick)
	s.sender.SendClientIntroduction(bot)
	for _, uc := range bot.chans {
		s.sender.SendJoin(bot, uc.Channel, uc.Flags())
	}
}

// BotFor returns the bot that acts on a channel: its assigned bot, or
// ChanServ.
func (s *State) BotFor(c *Channel) *User {
	if c != nil && c.info != nil && len(c.info.Bot) > 0 {
		if bot := s.FindUser(c.info.Bot, true); bot != nil && bot.bot {
			return bot
		}
	}
	return s.ChanServ()
}

// assignedBot returns the channel's assigned bot only.
func (s *State) assignedBot(c *Channel) *User {
	if c == nil || c.info == nil || len(c.info.Bot) == 0 {
		return nil
	}
	if bot := s.FindUser(c.info.Bot, true); bot != nil && bot.bot {
		return bot
	}
	return nil
}

// sourceOf names the actor for stacked modes: a bot's UID, or our SID.
func (s *State) sourceOf(bot *User) string {
	if bot != nil {
		return bot.UID()
	}
	if s.Me != nil {
		if len(s.Me.SID) > 0 && s.opts.RequiresID {
			return s.Me.SID
		}
		return s.Me.Name
	}
	return ""
}

// Teardown destroys everything, leaving an empty state.
func (s *State) Teardown() {
	defer s.op()()

	if s.Me != nil {
		s.Me.destroy()
		s.Me = nil
	}
	for _, u := range s.Users() {
		u.destroy("Shutting down")
	}
	for _, c := range s.Channels() {
		c.doomed = true
		s.queueDestroy(c)
	}
	s.capab = make(map[string]bool)
}
