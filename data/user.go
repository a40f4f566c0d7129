package data

import (
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/aarondl/uqserv/irc"
	"github.com/pkg/errors"
)

const guestTries = 10

// User is a client connected to the network.
type User struct {
	state  *State
	handle Handle
	dead   bool

	Nick     string
	Ident    string
	Host     string
	IP       string
	Realname string
	// Signon is when the user connected, TS when the nick was last set.
	Signon int64
	TS     int64
	// SuperAdmin is a transient elevated privilege, lost on nick change.
	SuperAdmin bool

	uid    string
	vident string
	vhost  string
	chost  string

	server  *Server
	modes   map[string]string
	account *Account
	chans   []*UserChannel

	onAccess bool
	bot      bool
	exempt   bool

	badPassCount int
	badPassTime  time.Time
}

// NewUser introduces a user. nick, ident and host are required. A user that
// takes a nick already in the directory replaces the old entry.
func (s *State) NewUser(nick, ident, host, vhost, ip string, server *Server,
	realname string, signon int64, modes, uid string) (*User, error) {

	defer s.op()()
	return s.newUser(nick, ident, host, vhost, ip, server, realname, signon, modes, uid, false)
}

func (s *State) newUser(nick, ident, host, vhost, ip string, server *Server,
	realname string, signon int64, modes, uid string, bot bool) (*User, error) {

	switch {
	case len(nick) == 0:
		return nil, errors.Wrap(ErrInvalidArgument, "data: user without a nick")
	case len(ident) == 0:
		return nil, errors.Wrapf(ErrInvalidArgument, "data: user %s without an ident", nick)
	case len(host) == 0:
		return nil, errors.Wrapf(ErrInvalidArgument, "data: user %s without a host", nick)
	case server == nil:
		return nil, errors.Wrapf(ErrInvalidArgument, "data: user %s without a server", nick)
	}

	u := &User{
		state:    s,
		Nick:     nick,
		Ident:    ident,
		Host:     host,
		IP:       ip,
		Realname: realname,
		Signon:   signon,
		TS:       signon,
		uid:      uid,
		server:   server,
		modes:    make(map[string]string),
		bot:      bot,
	}
	if len(vhost) > 0 && vhost != host {
		u.vhost = vhost
	}
	u.handle = s.newHandle(KindUser, u)

	key := irc.Fold(nick)
	if old, ok := s.nicks[key]; ok {
		s.log.Warn("duplicate user in table", "nick", nick, "old", old.UID())
	}
	s.nicks[key] = u
	if len(uid) > 0 {
		if old, ok := s.uids[uid]; ok {
			s.log.Warn("duplicate uid in table", "uid", uid, "old", old.Nick)
		}
		s.uids[uid] = u
	}

	server.users++
	s.userCount++
	if s.userCount > s.maxUsers {
		s.maxUsers = s.userCount
		s.maxUserTime = s.now()
	}

	if len(modes) > 0 {
		u.SetModesInternal(modes)
	}
	u.checkAccess()

	s.log.Debug("user connect", "nick", nick, "mask", u.Mask(), "server", server.Name)

	exempt := server.IsULined()
	s.hooks.fireUserConnect(u, &exempt)
	u.exempt = exempt

	return u, nil
}

// Alive is false once the user has been destroyed.
func (u *User) Alive() bool { return !u.dead }

// Handle is the user's stable reference.
func (u *User) Handle() Handle { return u.handle }

// Server is the server the user is connected to.
func (u *User) Server() *Server { return u.server }

// IsBot is true for our service bots.
func (u *User) IsBot() bool { return u.bot }

// Exempt is true when the connect hooks excused the user from join checks.
func (u *User) Exempt() bool { return u.exempt }

// OnAccess is true when the user matches the access list of the account
// owning their nick.
func (u *User) OnAccess() bool { return u.onAccess }

// UID is how the network addresses the user: the UID when the protocol uses
// them, the nick otherwise.
func (u *User) UID() string {
	if u.state.opts.RequiresID && len(u.uid) > 0 {
		return u.uid
	}
	return u.Nick
}

// RawUID is the user's UID, empty if they have none.
func (u *User) RawUID() string { return u.uid }

// VIdent is the ident the network displays.
func (u *User) VIdent() string {
	if len(u.vident) > 0 {
		return u.vident
	}
	return u.Ident
}

// SetVIdent sets the displayed ident.
func (u *User) SetVIdent(ident string) {
	u.vident = ident
	u.updateHost()
}

// DisplayedHost is the vhost, the cloaked host when cloaked, or the real
// host.
func (u *User) DisplayedHost() string {
	switch {
	case len(u.vhost) > 0:
		return u.vhost
	case u.HasMode(UModeCloak) && len(u.chost) > 0:
		return u.chost
	}
	return u.Host
}

// SetDisplayedHost sets the vhost, empty clears it.
func (u *User) SetDisplayedHost(host string) {
	u.vhost = host
	u.updateHost()
}

// CloakedHost is the host shown while the cloak mode is on.
func (u *User) CloakedHost() string { return u.chost }

// SetCloakedHost sets the cloaked host.
func (u *User) SetCloakedHost(host string) {
	u.chost = host
	u.updateHost()
}

// SetRealname changes the realname, which may not be empty.
func (u *User) SetRealname(realname string) error {
	if len(realname) == 0 {
		return errors.Wrapf(ErrInvalidArgument, "data: empty realname for %s", u.Nick)
	}
	u.Realname = realname

	if na := u.state.findNick(u.Nick); na != nil && (u.IsIdentified(true) || u.IsRecognized(true)) {
		na.LastRealname = realname
		u.state.saveNick(na)
	}
	return nil
}

// Mask is the user's real nick!ident@host.
func (u *User) Mask() irc.Mask {
	return irc.NewMask(u.Nick, u.Ident, u.Host)
}

// DisplayedMask is the nick!ident@host the network shows.
func (u *User) DisplayedMask() irc.Mask {
	return irc.NewMask(u.Nick, u.VIdent(), u.DisplayedHost())
}

// BanMask makes a mask suitable for banning the user: any nick, their ident
// and a wildcarded host.
func (u *User) BanMask() string {
	ident := strings.TrimPrefix(u.VIdent(), "~")
	host := u.DisplayedHost()

	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			host = host[:strings.LastIndexByte(host, '.')] + ".*"
		}
	} else if strings.Count(host, ".") >= 2 {
		host = "*" + host[strings.IndexByte(host, '.'):]
	}

	return "*!*" + ident + "@" + host
}

// updateHost refreshes things that depend on the displayed host.
func (u *User) updateHost() {
	if u.dead {
		return
	}
	u.checkAccess()

	if na := u.state.findNick(u.Nick); na != nil && (u.IsIdentified(true) || u.IsRecognized(true)) {
		na.LastUsermask = u.VIdent() + "@" + u.DisplayedHost()
		u.state.saveNick(na)
	}
}

func (u *User) checkAccess() {
	u.onAccess = false
	if na := u.state.findNick(u.Nick); na != nil && na.Account != nil {
		u.onAccess = na.Account.IsOnAccess(u)
	}
}

// ChangeNick renames the user. The nick's TS is always updated.
func (u *User) ChangeNick(newNick string, ts int64) error {
	if len(newNick) == 0 {
		return errors.Wrapf(ErrInvalidArgument, "data: empty nick change for %s", u.Nick)
	}
	s := u.state
	defer s.op()()

	oldNick := u.Nick
	u.SuperAdmin = false
	u.TS = ts

	if irc.EqualFold(oldNick, newNick) {
		u.Nick = newNick
	} else {
		now := s.now().Unix()
		if na := s.findNick(oldNick); na != nil && (u.IsIdentified(true) || u.IsRecognized(true)) {
			na.LastSeen = now
			s.saveNick(na)
		}

		oldKey, newKey := irc.Fold(oldNick), irc.Fold(newNick)
		if s.nicks[oldKey] == u {
			delete(s.nicks, oldKey)
		}
		if old, ok := s.nicks[newKey]; ok && old != u {
			s.log.Warn("duplicate user in table", "nick", newNick, "old", old.UID())
		}
		u.Nick = newNick
		s.nicks[newKey] = u

		u.checkAccess()

		if na := s.findNick(newNick); na != nil && na.Account != nil && na.Account == u.account {
			na.LastSeen = now
			s.saveNick(na)
			u.updateHost()
		}
	}

	s.log.Debug("nick change", "old", oldNick, "new", newNick)
	s.hooks.fireNickChange(u, oldNick)
	return nil
}

// HasMode checks for a user mode by name.
func (u *User) HasMode(name string) bool {
	_, ok := u.modes[name]
	return ok
}

// ModeParam returns a user mode's parameter.
func (u *User) ModeParam(name string) string {
	return u.modes[name]
}

// Modes renders the user's modes as +chars.
func (u *User) Modes() string {
	var b strings.Builder
	b.WriteByte('+')
	for _, m := range u.state.modes.UserModes() {
		if u.HasMode(m.Name) {
			b.WriteByte(m.Char)
		}
	}
	return b.String()
}

func (u *User) setModeInternal(m *Mode, param string) {
	_, had := u.modes[m.Name]
	u.modes[m.Name] = param

	if m.Name == UModeOper && !had {
		u.state.operCount++
	}
	if m.Name == UModeCloak || m.Name == UModeVhost {
		u.updateHost()
	}
	u.state.hooks.fireUserModeSet(u, m, param)
}

func (u *User) removeModeInternal(m *Mode) {
	if _, had := u.modes[m.Name]; !had {
		return
	}
	delete(u.modes, m.Name)

	if m.Name == UModeOper && u.state.operCount > 0 {
		u.state.operCount--
	}
	if m.Name == UModeCloak || m.Name == UModeVhost {
		delete(u.modes, UModeCloak)
		delete(u.modes, UModeVhost)
		u.vhost = ""
		u.updateHost()
	}
	u.state.hooks.fireUserModeUnset(u, m)
}

// SetMode sets a user mode and stacks the change to be sent. actor is the
// bot making the change, nil for our server.
func (u *User) SetMode(actor *User, m *Mode, param string) {
	if m == nil || u.dead {
		return
	}
	if p, ok := u.modes[m.Name]; ok && p == param {
		return
	}

	u.state.stacker.Add(u.state.sourceOf(actor), u.handle, m, true, param)
	u.setModeInternal(m, param)
}

// RemoveMode removes a user mode and stacks the change to be sent.
func (u *User) RemoveMode(actor *User, m *Mode) {
	if m == nil || u.dead || !u.HasMode(m.Name) {
		return
	}

	u.state.stacker.Add(u.state.sourceOf(actor), u.handle, m, false, "")
	u.removeModeInternal(m)
}

// SetModes applies a mode string such as "+ix-w" through SetMode and
// RemoveMode.
func (u *User) SetModes(actor *User, modes string) {
	reg := u.state.modes
	for _, tok := range parseModeString(modes, u.takesParam) {
		m := reg.UserModeByChar(tok.char)
		if m == nil {
			continue
		}
		if tok.set {
			u.SetMode(actor, m, tok.param)
		} else {
			u.RemoveMode(actor, m)
		}
	}
}

// SetModesInternal applies a mode string the network told us about.
func (u *User) SetModesInternal(modes string) {
	defer u.state.op()()

	reg := u.state.modes
	for _, tok := range parseModeString(modes, u.takesParam) {
		m := reg.UserModeByChar(tok.char)
		if m == nil {
			u.state.log.Debug("unknown user mode", "nick", u.Nick, "mode", string(tok.char))
			continue
		}
		if tok.set {
			u.setModeInternal(m, tok.param)
		} else {
			u.removeModeInternal(m)
		}
	}
}

func (u *User) takesParam(c byte, set bool) bool {
	m := u.state.modes.UserModeByChar(c)
	return m != nil && m.Kind == ModeParam && m.TakesParam(set)
}

// Channels returns the user's memberships in join order.
func (u *User) Channels() []*UserChannel {
	return u.chans
}

// FindChannel returns the user's membership of c.
func (u *User) FindChannel(c *Channel) *UserChannel {
	for _, uc := range u.chans {
		if uc.Channel == c {
			return uc
		}
	}
	return nil
}

// Account is the account the user is logged into.
func (u *User) Account() *Account {
	return u.account
}

// Login associates the user with an account.
func (u *User) Login(acct *Account) {
	if acct == nil || u.account == acct {
		return
	}
	u.Logout()

	u.account = acct
	acct.users = append(acct.users, u)
	u.state.log.Debug("login", "nick", u.Nick, "account", acct.Display)
}

// Logout drops the user's account. Safe to call when not logged in.
func (u *User) Logout() {
	acct := u.account
	if acct == nil {
		return
	}

	for i, other := range acct.users {
		if other == u {
			acct.users = append(acct.users[:i], acct.users[i+1:]...)
			break
		}
	}
	u.account = nil
	u.state.log.Debug("logout", "nick", u.Nick, "account", acct.Display)
}

// IsIdentified checks the user is logged in. With checkNick the current nick
// must also belong to that account.
func (u *User) IsIdentified(checkNick bool) bool {
	if u.account == nil {
		return false
	}
	if !checkNick {
		return true
	}
	na := u.state.findNick(u.Nick)
	return na != nil && na.Account == u.account
}

// IsRecognized is true when the user matches their nick's access list. With
// checkSecure, nicks whose account is secure are never recognized.
func (u *User) IsRecognized(checkSecure bool) bool {
	if checkSecure && u.onAccess {
		if na := u.state.findNick(u.Nick); na == nil || (na.Account != nil && na.Account.Secure) {
			return false
		}
	}
	return u.onAccess
}

// IsServicesOper checks the user's account has a matching oper block.
func (u *User) IsServicesOper() bool {
	o := u.operBlock()
	if o == nil {
		return false
	}
	if o.RequireOper && !u.HasMode(UModeOper) {
		return false
	}
	return o.MatchesHost(u)
}

func (u *User) operBlock() *Oper {
	if u.account == nil {
		return nil
	}
	if o := u.account.Oper(); o != nil {
		return o
	}
	if len(u.account.OperName) > 0 {
		return u.state.FindOper(u.account.OperName)
	}
	return nil
}

// IsProtected users may not be kicked by services.
func (u *User) IsProtected() bool {
	return u.HasMode(UModeProtected) || u.HasMode(UModeGod)
}

// Identify logs the user into the alias's account, records when it was
// seen and pushes the login to the network. Services operators get their
// configured modes and vhost.
func (u *User) Identify(na *NickAlias) {
	if na == nil || na.Account == nil || u.dead {
		return
	}
	s := u.state
	defer s.op()()

	ownNick := irc.EqualFold(na.Nick, u.Nick)
	if ownNick {
		na.LastUsermask = u.VIdent() + "@" + u.DisplayedHost()
		na.LastRealhost = u.Ident + "@" + u.Host
		na.LastRealname = u.Realname
		na.LastSeen = s.now().Unix()
		s.saveNick(na)
	}

	u.Login(na.Account)
	s.sender.SendLogin(u)

	if ownNick && !na.Account.Unconfirmed {
		u.SetMode(nil, s.modes.UserMode(UModeRegistered), "")
	}

	if u.IsServicesOper() {
		o := u.operBlock()
		if len(o.Modes) > 0 {
			u.SetModes(nil, o.Modes)
		}
		if len(o.Vhost) > 0 {
			u.SetDisplayedHost(o.Vhost)
			s.sender.SendVhost(u, "", o.Vhost)
		}
	}
}

// Kill asks the network to remove the user. The user stays until the
// network tells us they quit.
func (u *User) Kill(source, reason string) {
	if u.dead {
		return
	}
	u.state.log.Debug("kill", "nick", u.Nick, "source", source, "reason", reason)
	u.state.sender.SendSVSKill(source, u, reason)
}

// KillInternal removes the user right away, used when we are the authority
// on the kill.
func (u *User) KillInternal(source, reason string) {
	u.Quit(fmt.Sprintf("Killed (%s (%s))", source, reason))
}

// Quit records the quit on the user's nick and destroys the user.
func (u *User) Quit(reason string) {
	if u.dead {
		return
	}
	s := u.state
	defer s.op()()

	if na := s.findNick(u.Nick); na != nil && (na.Account == nil || !na.Account.Suspended) &&
		(u.IsRecognized(true) || u.IsIdentified(true)) {
		na.LastSeen = s.now().Unix()
		na.LastQuit = reason
		s.saveNick(na)
	}

	u.destroy(reason)
}

// destroy removes the user from every channel and directory.
func (u *User) destroy(reason string) {
	if u.dead {
		return
	}
	s := u.state
	defer s.op()()

	s.log.Debug("user quit", "nick", u.Nick, "reason", reason)
	s.hooks.fireUserQuit(u, reason)

	if u.server != nil && u.server.users > 0 {
		u.server.users--
	}
	u.Logout()
	if u.HasMode(UModeOper) && s.operCount > 0 {
		s.operCount--
	}

	for len(u.chans) > 0 {
		u.chans[0].Channel.DeleteUser(u)
	}

	if key := irc.Fold(u.Nick); s.nicks[key] == u {
		delete(s.nicks, key)
	}
	if len(u.uid) > 0 && s.uids[u.uid] == u {
		delete(s.uids, u.uid)
	}
	if s.userCount > 0 {
		s.userCount--
	}

	s.stacker.Del(u.handle)
	s.timers.CancelFor(u.handle)
	delete(s.live, u.handle)
	u.dead = true
}

// BadPassCount is the current bad password count.
func (u *User) BadPassCount() int { return u.badPassCount }

// BadPassword counts a failed password. When the limit is reached the user
// is killed and true is returned so the caller can stop.
func (u *User) BadPassword() bool {
	opts := u.state.opts
	if opts.BadPassLimit <= 0 {
		return false
	}

	now := u.state.now()
	if opts.BadPassTimeout > 0 && !u.badPassTime.IsZero() && now.Sub(u.badPassTime) >= opts.BadPassTimeout {
		u.badPassCount = 0
	}
	u.badPassCount++
	u.badPassTime = now

	if u.badPassCount >= opts.BadPassLimit {
		u.Kill(u.state.sourceOf(nil), "Too many invalid passwords")
		return true
	}
	return false
}

// Collide moves the user off a nick they may not use: to a guest nick when
// the protocol can force nick changes, otherwise by killing them.
func (u *User) Collide(source string) {
	if u.dead {
		return
	}
	s := u.state

	if s.opts.CanForceNick {
		for i := 0; i < guestTries; i++ {
			guest := fmt.Sprintf("%s%d", s.opts.GuestPrefix, rand.Intn(99999)+1)
			if s.FindUser(guest, true) == nil {
				s.log.Debug("collide", "nick", u.Nick, "guest", guest)
				s.sender.SendForceNickChange(u, guest, s.now().Unix())
				return
			}
		}
	}

	u.Kill(source, "Services nickname-enforcer kill")
}
