package data

import (
	"github.com/aarondl/uqserv/irc"
	. "gopkg.in/check.v1"
)

func (s *s) TestServer_Create(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	c.Check(f.st.Me.Name, Equals, meName)
	c.Check(f.st.Me.IsULined(), Equals, true)
	c.Check(f.hub.IsULined(), Equals, false)
	c.Check(f.st.Uplink(), Equals, f.hub)
	c.Check(f.hub.Uplink(), Equals, f.st.Me)
	c.Check(f.hub.ID(), Equals, hubSID)

	_, err := f.st.NewServer(nil, "other.test.net", 0, "Other", "00B", false)
	c.Check(err, NotNil)
	_, err = f.st.NewServer(f.hub, "", 2, "Nameless", "", false)
	c.Check(err, NotNil)

	var nilServer *Server
	c.Check(nilServer.IsULined(), Equals, false)
}

func (s *s) TestServer_ULines(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	c.Assert(f.st.SetULines([]string{"*.services.net"}), IsNil)
	stats, err := f.st.NewServer(f.hub, "Stats.Services.Net", 2, "Stats", "003", false)
	c.Assert(err, IsNil)
	deep, err := f.st.NewServer(f.hub, "a.b.services.net", 2, "Deep", "004", false)
	c.Assert(err, IsNil)

	c.Check(stats.IsULined(), Equals, true)
	c.Check(deep.IsULined(), Equals, false)

	c.Check(f.st.SetULines([]string{"[bad"}), NotNil)
}

func (s *s) TestServer_Find(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	leaf, err := f.st.NewServer(f.hub, leafName, 2, "Leaf", leafSID, false)
	c.Assert(err, IsNil)

	c.Check(f.st.FindServer("LEAF.test.net", nil), Equals, leaf)
	c.Check(f.st.FindServer(leafSID, nil), Equals, leaf)
	c.Check(f.st.FindServer(meSID, nil), Equals, f.st.Me)
	c.Check(f.st.FindServer("nowhere.test.net", nil), IsNil)
	c.Check(f.st.FindServer(meName, f.hub), IsNil)
	c.Check(f.st.FindServer("", nil), IsNil)

	servers := f.st.Servers()
	c.Assert(len(servers), Equals, 3)
	c.Check(servers[0], Equals, f.st.Me)
	c.Check(servers[1], Equals, f.hub)
	c.Check(servers[2], Equals, leaf)
}

func (s *s) TestServer_Burst(c *C) {
	sender := &fakeSender{}
	st := NewState(DefaultOptions(), nil, sender, nil, nil)
	defer st.Teardown()

	_, err := st.NewServer(nil, meName, 0, "Services", meSID, false)
	c.Assert(err, IsNil)
	_, err = st.NewServer(st.Me, "jupe.test.net", 1, "Juped", "00B", true)
	c.Assert(err, IsNil)
	c.Check(sender.lines, HasLen, 0)

	bot, err := st.NewBot("ChanServ", "services", meName, "Channel Services", "+S")
	c.Assert(err, IsNil)
	ch, err := st.NewChannel(channel, 100)
	c.Assert(err, IsNil)
	ch.JoinUser(bot)
	c.Check(sender.lines, HasLen, 0)

	_, err = st.NewServer(st.Me, hubName, 1, "Hub", hubSID, false)
	c.Assert(err, IsNil)
	c.Check(sender.lines, DeepEquals, []string{
		"BOB",
		"SERVER jupe.test.net",
		"UID ChanServ",
		"JOIN ChanServ #chan",
	})
	c.Check(st.Uplink().Name, Equals, hubName)
}

func (s *s) TestServer_DeleteCascade(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	leaf, err := f.st.NewServer(f.hub, leafName, 2, "Leaf", leafSID, false)
	c.Assert(err, IsNil)

	quits := 0
	f.st.Hooks().OnUserQuit(func(*User, string) { quits++ })
	splits := 0
	f.st.Hooks().OnServerQuit(func(*Server) { splits++ })

	local := f.user(c, f.st.Me, "local")
	f.user(c, f.hub, "a")
	oper := f.user(c, f.hub, "b")
	oper.SetModesInternal("+o")
	f.user(c, leaf, "c")
	f.user(c, leaf, "d")

	ch, _ := f.st.NewChannel(channel, 100)
	for _, u := range f.st.Users() {
		if u != local {
			ch.JoinUser(u)
		}
	}
	c.Check(f.st.UserCount(), Equals, 5)
	c.Check(f.st.OperCount(), Equals, 1)

	f.hub.Delete("net split")

	c.Check(f.hub.Alive(), Equals, false)
	c.Check(leaf.Alive(), Equals, false)
	c.Check(f.hub.QuitReason(), Equals, "net split")
	c.Check(f.st.FindServer(leafName, nil), IsNil)
	c.Check(f.st.Me.Links(), HasLen, 0)
	c.Check(f.st.Uplink(), IsNil)

	c.Check(quits, Equals, 4)
	c.Check(splits, Equals, 2)
	c.Check(f.st.UserCount(), Equals, 1)
	c.Check(f.st.OperCount(), Equals, 0)
	c.Check(f.st.FindUser("local", true), Equals, local)
	c.Check(f.st.FindUser("c", true), IsNil)
	c.Check(f.st.FindChannel(channel), IsNil)
	c.Check(ch.Alive(), Equals, false)
}

func (s *s) TestServer_DeleteNoQuit(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	f.st.AddCapab(irc.CapNoQuit)
	u := f.user(c, f.hub, "a")

	f.hub.Delete("net split")
	c.Check(f.hub.Alive(), Equals, false)
	c.Check(u.Alive(), Equals, true)
	c.Check(f.st.FindUser("a", true), Equals, u)

	u.Quit("net split")
	c.Check(f.st.UserCount(), Equals, 0)
}

func (s *s) TestServer_DeleteRecordsLastQuit(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	na, err := f.store.Register("alice", "pass", "")
	c.Assert(err, IsNil)
	u := f.user(c, f.hub, "alice")
	u.Identify(na)

	f.clock.Advance(60e9)
	f.hub.Delete("net split")

	na = f.store.FindNick("alice")
	c.Assert(na, NotNil)
	c.Check(na.LastQuit, Equals, "net split")
	c.Check(na.LastSeen, Equals, f.clock.Now().Unix())
}

func (s *s) TestServer_Sync(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	leaf, err := f.st.NewServer(f.hub, leafName, 2, "Leaf", leafSID, false)
	c.Assert(err, IsNil)

	f.register(c, &ChannelInfo{Name: "#perm", TimeRegistered: 42, Persist: true})
	f.register(c, &ChannelInfo{Name: "#plain", TimeRegistered: 43})

	synced := 0
	f.st.Hooks().OnServerSync(func(*Server) { synced++ })
	uplinkSynced := 0
	f.st.Hooks().OnUplinkSync(func(*Server) { uplinkSynced++ })

	f.hub.Sync(true)
	f.hub.Sync(true)

	c.Check(f.hub.IsSynced(), Equals, true)
	c.Check(leaf.IsSynced(), Equals, true)
	c.Check(f.st.Me.IsSynced(), Equals, true)
	c.Check(synced, Equals, 3)
	c.Check(uplinkSynced, Equals, 1)
	c.Check(f.sender.count("EOB"), Equals, 1)
	c.Check(f.sender.count("CHANNEL #perm 42"), Equals, 1)

	perm := f.st.FindChannel("#perm")
	c.Assert(perm, NotNil)
	c.Check(perm.HasMode(CModePermanent), Equals, true)
	c.Check(perm.Info().Name, Equals, "#perm")
	c.Check(f.st.FindChannel("#plain"), IsNil)
}

func (s *s) TestServer_SyncLeafOnly(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	leaf, err := f.st.NewServer(f.hub, leafName, 2, "Leaf", leafSID, false)
	c.Assert(err, IsNil)

	leaf.Sync(false)
	c.Check(leaf.IsSynced(), Equals, true)
	c.Check(f.hub.IsSynced(), Equals, false)
	c.Check(f.sender.count("EOB"), Equals, 0)
}
