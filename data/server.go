package data

import (
	"strings"

	"github.com/aarondl/uqserv/irc"
	"github.com/pkg/errors"
)

// Server is a node in the tree of linked servers. Me is the root.
type Server struct {
	state  *State
	handle Handle
	dead   bool

	Name        string
	SID         string
	Description string
	Hops        int

	syncing    bool
	juped      bool
	uplink     *Server
	links      []*Server
	users      int
	quitReason string
}

// NewServer links a server into the tree below uplink. A nil uplink creates
// our own server. When our uplink connects we burst to it.
func (s *State) NewServer(uplink *Server, name string, hops int, desc, sid string, juped bool) (*Server, error) {
	if len(name) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "data: server without a name")
	}
	if uplink == nil && s.Me != nil {
		return nil, errors.Errorf("data: local server %s already exists", s.Me.Name)
	}
	defer s.op()()

	srv := &Server{
		state:       s,
		Name:        name,
		SID:         sid,
		Description: desc,
		Hops:        hops,
		syncing:     true,
		juped:       juped,
		uplink:      uplink,
	}
	srv.handle = s.newHandle(KindServer, srv)

	if uplink == nil {
		s.Me = srv
		s.log.Info("local server created", "server", name, "sid", sid)
		return srv, nil
	}

	uplink.links = append(uplink.links, srv)
	s.log.Info("server connect", "server", name, "uplink", uplink.Name, "hops", hops)

	if uplink == s.Me && !juped {
		s.burst()
	}
	return srv, nil
}

// burst introduces everything we own to a new uplink.
func (s *State) burst() {
	s.sender.SendBOB()

	for _, link := range s.Me.links {
		if link.juped {
			s.sender.SendServer(link)
		}
	}

	for _, u := range s.Users() {
		if u.server == s.Me {
			s.sender.SendClientIntroduction(u)
		}
	}

	for _, c := range s.Channels() {
		if len(c.users) == 0 {
			s.sender.SendChannel(c)
			continue
		}
		for _, cu := range c.users {
			if cu.User.server == s.Me {
				s.sender.SendJoin(cu.User, c, cu.Flags())
			}
		}
	}
}

// Alive is false once the server has been destroyed.
func (srv *Server) Alive() bool { return !srv.dead }

// Handle is the server's stable reference.
func (srv *Server) Handle() Handle { return srv.handle }

// ID is the SID when the protocol uses them, otherwise the name.
func (srv *Server) ID() string {
	if len(srv.SID) > 0 && srv.state.opts.RequiresID {
		return srv.SID
	}
	return srv.Name
}

// Uplink is the server this one is linked to, nil for Me.
func (srv *Server) Uplink() *Server { return srv.uplink }

// Links are the servers directly below this one.
func (srv *Server) Links() []*Server { return srv.links }

// UserCount is the number of users on the server.
func (srv *Server) UserCount() int { return srv.users }

// IsJuped is true for servers we fake to hold a name.
func (srv *Server) IsJuped() bool { return srv.juped }

// IsSynced is true once the server has finished bursting.
func (srv *Server) IsSynced() bool { return !srv.syncing }

// QuitReason is why the server split.
func (srv *Server) QuitReason() string { return srv.quitReason }

// IsULined is true for our own server and trusted servers.
func (srv *Server) IsULined() bool {
	if srv == nil {
		return false
	}
	return srv == srv.state.Me || srv.state.isULinedName(srv.Name)
}

// Delete splits the server and everything below it.
func (srv *Server) Delete(reason string) {
	if srv.dead {
		return
	}
	s := srv.state
	defer s.op()()

	srv.quitReason = reason
	s.hooks.fireServerQuit(srv)
	srv.destroy()
}

// destroy removes the server's users, unless the network already told us
// about them going, then its links, then unlinks it from its uplink.
func (srv *Server) destroy() {
	if srv.dead {
		return
	}
	s := srv.state
	defer s.op()()

	s.log.Info("server quit", "server", srv.Name, "reason", srv.quitReason)

	if !s.HasCapab(irc.CapNoQuit) && !s.HasCapab(irc.CapQS) {
		for _, u := range s.Users() {
			if u.server != srv {
				continue
			}
			if na := s.findNick(u.Nick); na != nil && na.Account != nil && !na.Account.Suspended &&
				(u.IsIdentified(false) || u.IsRecognized(false)) {
				na.LastSeen = s.now().Unix()
				na.LastQuit = srv.quitReason
				s.saveNick(na)
			}
			u.destroy(srv.quitReason)
		}
		s.log.Debug("removed users for server", "server", srv.Name)
	}

	for i := len(srv.links); i > 0; i-- {
		srv.links[i-1].Delete(srv.quitReason)
	}

	if up := srv.uplink; up != nil {
		for i, link := range up.links {
			if link == srv {
				up.links = append(up.links[:i], up.links[i+1:]...)
				break
			}
		}
	}

	s.timers.CancelFor(srv.handle)
	delete(s.live, srv.handle)
	srv.dead = true
}

// Sync marks the server as done bursting, once. When it's our uplink we
// finish our own burst: persistent channels are brought back, then every
// channel has its mode locks and topic enforced.
func (srv *Server) Sync(propagate bool) {
	if !srv.syncing || srv.dead {
		return
	}
	s := srv.state
	defer s.op()()

	srv.syncing = false
	s.log.Info("server synced", "server", srv.Name)
	s.hooks.fireServerSync(srv)

	if propagate {
		for _, link := range srv.links {
			link.Sync(true)
		}
	}

	if srv.uplink == nil || srv.uplink != s.Me {
		return
	}

	if s.registry != nil {
		perm := s.modes.ChannelMode(CModePermanent)
		for _, ci := range s.registry.Channels() {
			if !ci.Persist {
				continue
			}

			c := ci.Channel()
			created := false
			if c == nil {
				var err error
				if c, err = s.NewChannel(ci.Name, ci.TimeRegistered); err != nil {
					s.log.Error("failed to create persistent channel", "channel", ci.Name, "err", err)
					continue
				}
				created = true
			}

			if perm != nil {
				c.SetMode(nil, perm, "", true)
				if created {
					s.sender.SendChannel(c)
				}
			} else {
				s.JoinBot(s.BotFor(c), c)
			}
		}
	}

	s.sender.SendEOB()
	s.Me.Sync(false)
	s.hooks.fireUplinkSync(srv)

	for _, c := range s.Channels() {
		if c.dead {
			continue
		}
		c.CheckModes()
		if c.info != nil {
			c.RestoreTopic()
		}
	}
}

// FindServer searches the tree below from, or Me, for a server by name or
// SID.
func (s *State) FindServer(name string, from *Server) *Server {
	if from == nil {
		from = s.Me
	}
	if from == nil || len(name) == 0 {
		return nil
	}

	if strings.EqualFold(from.Name, name) || (len(from.SID) > 0 && from.SID == name) {
		return from
	}
	for _, link := range from.links {
		if found := s.FindServer(name, link); found != nil {
			return found
		}
	}
	return nil
}

// Uplink is the server we are linked to.
func (s *State) Uplink() *Server {
	if s.Me == nil {
		return nil
	}
	for _, link := range s.Me.links {
		if !link.juped {
			return link
		}
	}
	return nil
}

// Servers returns every server in the tree, Me first.
func (s *State) Servers() []*Server {
	if s.Me == nil {
		return nil
	}
	var all []*Server
	var walk func(*Server)
	walk = func(srv *Server) {
		all = append(all, srv)
		for _, link := range srv.links {
			walk(link)
		}
	}
	walk(s.Me)
	return all
}
