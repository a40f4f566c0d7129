package data

// Hooks are the extension points the state calls into. PreJoin callbacks may
// veto join time policy checks by returning true, every other hook only
// observes.
type Hooks struct {
	userConnect   []func(u *User, exempt *bool)
	userQuit      []func(u *User, reason string)
	nickChange    []func(u *User, oldNick string)
	userModeSet   []func(u *User, m *Mode, param string)
	userModeUnset []func(u *User, m *Mode)
	preJoin       []func(u *User, c *Channel) bool
	join          []func(u *User, c *Channel)
	leave         []func(u *User, c *Channel)
	kick          []func(source string, c *Channel, target *User, reason string)
	modeSet       []func(c *Channel, source string, m *Mode, param string)
	modeUnset     []func(c *Channel, source string, m *Mode, param string)
	chanCreate    []func(c *Channel)
	chanDelete    []func(c *Channel)
	topic         []func(c *Channel, setter, topic string)
	serverSync    []func(s *Server)
	serverQuit    []func(s *Server)
	uplinkSync    []func(s *Server)
	modeBounce    []func(c *Channel)
}

// OnUserConnect is called for every new user. Setting exempt excuses the
// user from join time checks.
func (h *Hooks) OnUserConnect(fn func(u *User, exempt *bool)) {
	h.userConnect = append(h.userConnect, fn)
}

// OnUserQuit is called before a user is destroyed.
func (h *Hooks) OnUserQuit(fn func(u *User, reason string)) {
	h.userQuit = append(h.userQuit, fn)
}

// OnNickChange is called after a user's nick changes.
func (h *Hooks) OnNickChange(fn func(u *User, oldNick string)) {
	h.nickChange = append(h.nickChange, fn)
}

// OnUserModeSet is called after a user mode is set.
func (h *Hooks) OnUserModeSet(fn func(u *User, m *Mode, param string)) {
	h.userModeSet = append(h.userModeSet, fn)
}

// OnUserModeUnset is called after a user mode is unset.
func (h *Hooks) OnUserModeUnset(fn func(u *User, m *Mode)) {
	h.userModeUnset = append(h.userModeUnset, fn)
}

// OnPreJoin may veto the join time ban and akick checks by returning true.
func (h *Hooks) OnPreJoin(fn func(u *User, c *Channel) bool) {
	h.preJoin = append(h.preJoin, fn)
}

// OnJoin is called when a user joins a channel.
func (h *Hooks) OnJoin(fn func(u *User, c *Channel)) {
	h.join = append(h.join, fn)
}

// OnLeave is called when a user leaves a channel for any reason.
func (h *Hooks) OnLeave(fn func(u *User, c *Channel)) {
	h.leave = append(h.leave, fn)
}

// OnKick is called when a user is kicked, before they are removed.
func (h *Hooks) OnKick(fn func(source string, c *Channel, target *User, reason string)) {
	h.kick = append(h.kick, fn)
}

// OnChannelModeSet is called for every channel mode applied.
func (h *Hooks) OnChannelModeSet(fn func(c *Channel, source string, m *Mode, param string)) {
	h.modeSet = append(h.modeSet, fn)
}

// OnChannelModeUnset is called for every channel mode removed.
func (h *Hooks) OnChannelModeUnset(fn func(c *Channel, source string, m *Mode, param string)) {
	h.modeUnset = append(h.modeUnset, fn)
}

// OnChannelCreate is called when a channel comes into existence.
func (h *Hooks) OnChannelCreate(fn func(c *Channel)) {
	h.chanCreate = append(h.chanCreate, fn)
}

// OnChannelDelete is called just before a channel is destroyed.
func (h *Hooks) OnChannelDelete(fn func(c *Channel)) {
	h.chanDelete = append(h.chanDelete, fn)
}

// OnTopic is called when a channel's topic changes.
func (h *Hooks) OnTopic(fn func(c *Channel, setter, topic string)) {
	h.topic = append(h.topic, fn)
}

// OnServerSync is called when a server finishes its burst.
func (h *Hooks) OnServerSync(fn func(s *Server)) {
	h.serverSync = append(h.serverSync, fn)
}

// OnServerQuit is called before a server and everything behind it is
// destroyed.
func (h *Hooks) OnServerQuit(fn func(s *Server)) {
	h.serverQuit = append(h.serverQuit, fn)
}

// OnUplinkSync is called once our uplink has finished bursting and we have
// sent our own end of burst.
func (h *Hooks) OnUplinkSync(fn func(s *Server)) {
	h.uplinkSync = append(h.uplinkSync, fn)
}

// OnModeBounce is called when mode lock enforcement on a channel gives up.
func (h *Hooks) OnModeBounce(fn func(c *Channel)) {
	h.modeBounce = append(h.modeBounce, fn)
}

func (h *Hooks) fireUserConnect(u *User, exempt *bool) {
	for _, fn := range h.userConnect {
		fn(u, exempt)
	}
}

func (h *Hooks) fireUserQuit(u *User, reason string) {
	for _, fn := range h.userQuit {
		fn(u, reason)
	}
}

func (h *Hooks) fireNickChange(u *User, oldNick string) {
	for _, fn := range h.nickChange {
		fn(u, oldNick)
	}
}

func (h *Hooks) fireUserModeSet(u *User, m *Mode, param string) {
	for _, fn := range h.userModeSet {
		fn(u, m, param)
	}
}

func (h *Hooks) fireUserModeUnset(u *User, m *Mode) {
	for _, fn := range h.userModeUnset {
		fn(u, m)
	}
}

// firePreJoin returns true if any hook vetoed.
func (h *Hooks) firePreJoin(u *User, c *Channel) bool {
	for _, fn := range h.preJoin {
		if fn(u, c) {
			return true
		}
	}
	return false
}

func (h *Hooks) fireJoin(u *User, c *Channel) {
	for _, fn := range h.join {
		fn(u, c)
	}
}

func (h *Hooks) fireLeave(u *User, c *Channel) {
	for _, fn := range h.leave {
		fn(u, c)
	}
}

func (h *Hooks) fireKick(source string, c *Channel, target *User, reason string) {
	for _, fn := range h.kick {
		fn(source, c, target, reason)
	}
}

func (h *Hooks) fireModeSet(c *Channel, source string, m *Mode, param string) {
	for _, fn := range h.modeSet {
		fn(c, source, m, param)
	}
}

func (h *Hooks) fireModeUnset(c *Channel, source string, m *Mode, param string) {
	for _, fn := range h.modeUnset {
		fn(c, source, m, param)
	}
}

func (h *Hooks) fireChannelCreate(c *Channel) {
	for _, fn := range h.chanCreate {
		fn(c)
	}
}

func (h *Hooks) fireChannelDelete(c *Channel) {
	for _, fn := range h.chanDelete {
		fn(c)
	}
}

func (h *Hooks) fireTopic(c *Channel, setter, topic string) {
	for _, fn := range h.topic {
		fn(c, setter, topic)
	}
}

func (h *Hooks) fireServerSync(s *Server) {
	for _, fn := range h.serverSync {
		fn(s)
	}
}

func (h *Hooks) fireServerQuit(s *Server) {
	for _, fn := range h.serverQuit {
		fn(s)
	}
}

func (h *Hooks) fireUplinkSync(s *Server) {
	for _, fn := range h.uplinkSync {
		fn(s)
	}
}

func (h *Hooks) fireModeBounce(c *Channel) {
	for _, fn := range h.modeBounce {
		fn(c)
	}
}
