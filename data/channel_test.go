package data

import (
	"time"

	. "gopkg.in/check.v1"
)

func (s *s) TestChannel_Create(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ch, err := f.st.NewChannel(channel, 100)
	c.Assert(err, IsNil)
	c.Check(ch.Name, Equals, channel)
	c.Check(ch.TS, Equals, int64(100))
	c.Check(f.st.FindChannel("#CHAN"), Equals, ch)

	again, err := f.st.NewChannel("#CHAN", 50)
	c.Check(err, IsNil)
	c.Check(again, Equals, ch)
	c.Check(again.TS, Equals, int64(100))

	_, err = f.st.NewChannel("", 100)
	c.Check(err, NotNil)
}

func (s *s) TestChannel_Uniqueness(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ch, err := f.st.NewChannel(channel, 100)
	c.Assert(err, IsNil)
	h := ch.Handle()
	c.Check(f.st.ChannelCount(), Equals, 1)

	ch.Delete()
	c.Check(ch.Alive(), Equals, false)
	c.Check(f.st.Alive(h), Equals, false)
	c.Check(f.st.FindChannel(channel), IsNil)
	c.Check(f.st.ChannelCount(), Equals, 0)

	ch2, err := f.st.NewChannel(channel, 200)
	c.Assert(err, IsNil)
	c.Check(ch2, Not(Equals), ch)
	c.Check(ch2.Handle(), Not(Equals), h)
	c.Check(f.st.FindChannel(channel), Equals, ch2)
}

func (s *s) TestChannel_MembershipSymmetry(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	cu := ch.JoinUser(u)

	uc := u.FindChannel(ch)
	c.Assert(uc, NotNil)
	c.Check(cu.User, Equals, u)
	c.Check(uc.Channel, Equals, ch)
	c.Check(cu.Status == uc.Status, Equals, true)

	voice := f.mode(CModeVoice)
	cu.Set(voice.Flag)
	c.Check(uc.HasMode(voice), Equals, true)
	c.Check(ch.HasUserStatus(u, CModeVoice), Equals, true)
	uc.Unset(voice.Flag)
	c.Check(cu.HasMode(voice), Equals, false)

	// Joining again doesn't duplicate.
	c.Check(ch.JoinUser(u), Equals, cu)
	c.Check(ch.UserCount(), Equals, 1)
	c.Check(len(u.Channels()), Equals, 1)
}

func (s *s) TestChannel_DeleteUserDestroys(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u1 := f.user(c, f.hub, "alice")
	u2 := f.user(c, f.hub, "bob")

	deleted := 0
	f.st.Hooks().OnChannelDelete(func(*Channel) { deleted++ })

	ch, _ := f.st.NewChannel(channel, 100)
	ch.JoinUser(u1)
	ch.JoinUser(u2)

	ch.DeleteUser(u1)
	c.Check(ch.Alive(), Equals, true)
	c.Check(len(u1.Channels()), Equals, 0)

	ch.DeleteUser(u2)
	c.Check(ch.Alive(), Equals, false)
	c.Check(f.st.FindChannel(channel), IsNil)
	c.Check(deleted, Equals, 1)
}

func (s *s) TestChannel_PersistentSurvivesEmpty(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	ch.JoinUser(u)
	ch.SetModesInternal(f.hubSource(), "+P", 0, true)
	c.Check(ch.Persistent(), Equals, true)

	ch.DeleteUser(u)
	c.Check(ch.Alive(), Equals, true)

	// Dropping the permanent mode from an empty channel destroys it.
	ch.SetModesInternal(f.hubSource(), "-P", 0, true)
	c.Check(ch.Alive(), Equals, false)
	c.Check(f.st.FindChannel(channel), IsNil)
}

func (s *s) TestChannel_SetModeIdempotent(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	sets := 0
	f.st.Hooks().OnChannelModeSet(func(*Channel, string, *Mode, string) { sets++ })

	ch, _ := f.st.NewChannel(channel, 100)
	n := f.mode(CModeNoExternal)
	ch.SetMode(nil, n, "", false)
	ch.SetMode(nil, n, "", false)

	c.Check(ch.HasMode(CModeNoExternal), Equals, true)
	c.Check(sets, Equals, 1)
	c.Check(f.st.Stacker().Pending(ch.Handle()), Equals, 1)
	c.Check(ch.Modes(false), Equals, "+n")

	f.st.Flush()
	c.Check(f.sender.lines[len(f.sender.lines)-1], Equals, "MODE 00A #chan +n")
}

func (s *s) TestChannel_SetModeValidation(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ch, _ := f.st.NewChannel(channel, 100)
	limit := f.mode(CModeLimit)
	ch.SetMode(nil, limit, "abc", false)
	c.Check(ch.HasMode(CModeLimit), Equals, false)

	ch.SetMode(nil, limit, "10", false)
	p, ok := ch.Param(CModeLimit)
	c.Check(ok, Equals, true)
	c.Check(p, Equals, "10")

	ch.SetMode(nil, limit, "20", false)
	p, _ = ch.Param(CModeLimit)
	c.Check(p, Equals, "20")
	c.Check(ch.Modes(true), Equals, "+l 20")

	// Limit is unset without an argument.
	ch.RemoveMode(nil, limit, "", false)
	c.Check(ch.HasMode(CModeLimit), Equals, false)

	ban := f.mode(CModeBan)
	ch.SetMode(nil, ban, "*!*@a.com", false)
	ch.SetMode(nil, ban, "*!*@a.com", false)
	ch.SetMode(nil, ban, "*!*@b.com", false)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@a.com", "*!*@b.com"})

	// Statuses for unknown users are dropped.
	ch.SetMode(nil, f.mode(CModeOp), "nobody", false)
	c.Check(f.st.Stacker().Pending(ch.Handle()), Equals, 5)
}

func (s *s) TestChannel_SetModesInternal(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	ch.JoinUser(u)

	ch.SetModesInternal(f.hubSource(), "+ntkbo key *!*@bad alice", 0, true)
	c.Check(ch.HasMode(CModeNoExternal), Equals, true)
	c.Check(ch.HasMode(CModeTopicLock), Equals, true)
	key, _ := ch.Param(CModeKey)
	c.Check(key, Equals, "key")
	c.Check(ch.HasMode(CModeBan, "*!*@bad"), Equals, true)
	c.Check(ch.HasUserStatus(u, CModeOp), Equals, true)

	ch.SetModesInternal(f.hubSource(), "-k-b+l key *!*@* 5", 0, true)
	c.Check(ch.HasMode(CModeKey), Equals, false)
	c.Check(ch.HasMode(CModeBan), Equals, false)
	c.Check(ch.HasMode(CModeLimit), Equals, true)

	// Older TS resets first.
	ch.SetModesInternal(f.hubSource(), "+s", 50, true)
	c.Check(ch.TS, Equals, int64(50))
	c.Check(ch.HasMode(CModeNoExternal), Equals, false)
	c.Check(ch.HasMode(CModeSecret), Equals, true)
	c.Check(ch.HasUserStatus(u, CModeOp), Equals, false)

	// Newer TS is still applied.
	ch.SetModesInternal(f.hubSource(), "+m", 500, true)
	c.Check(ch.TS, Equals, int64(50))
	c.Check(ch.HasMode(CModeModerated), Equals, true)

	// Missing params are skipped.
	ch.SetModesInternal(f.hubSource(), "+k", 0, true)
	c.Check(ch.HasMode(CModeKey), Equals, false)
}

func (s *s) TestChannel_SJoinScenario(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u := f.user(c, f.hub, "alice")
	op := f.mode(CModeOp)

	ch, err := f.st.NewChannel("#test", 100)
	c.Assert(err, IsNil)
	got, err := f.st.SJoin(f.hubSource(), "#test", 100, "+nt", []SJoinUser{{Status: op.Flag, User: u}})
	c.Assert(err, IsNil)
	c.Check(got, Equals, ch)

	c.Check(ch.HasMode(CModeNoExternal), Equals, true)
	c.Check(ch.HasMode(CModeTopicLock), Equals, true)
	c.Check(ch.HasUserStatus(u, CModeOp), Equals, true)
	c.Check(ch.Syncing(), Equals, false)
}

func (s *s) TestChannel_SJoinOlderTSWins(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u1 := f.user(c, f.hub, "alice")
	u2 := f.user(c, f.hub, "bob")
	op := f.mode(CModeOp)

	ch, _ := f.st.SJoin(f.hubSource(), channel, 100, "+nt", []SJoinUser{{Status: op.Flag, User: u1}})
	c.Assert(ch.TS, Equals, int64(100))

	ch, _ = f.st.SJoin(f.hubSource(), channel, 50, "+s", []SJoinUser{{User: u2}})
	c.Check(ch.TS, Equals, int64(50))
	c.Check(ch.HasMode(CModeNoExternal), Equals, false)
	c.Check(ch.HasMode(CModeTopicLock), Equals, false)
	c.Check(ch.HasMode(CModeSecret), Equals, true)
	c.Check(ch.HasUserStatus(u1, CModeOp), Equals, false)
	c.Check(ch.UserCount(), Equals, 2)
}

func (s *s) TestChannel_SJoinNewerTSLoses(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u1 := f.user(c, f.hub, "alice")
	u2 := f.user(c, f.hub, "bob")
	op := f.mode(CModeOp)

	ch, _ := f.st.SJoin(f.hubSource(), channel, 100, "+nt", []SJoinUser{{Status: op.Flag, User: u1}})

	ch, _ = f.st.SJoin(f.hubSource(), channel, 200, "+s", []SJoinUser{{Status: op.Flag, User: u2}})
	c.Check(ch.TS, Equals, int64(100))
	c.Check(ch.HasMode(CModeNoExternal), Equals, true)
	c.Check(ch.HasMode(CModeTopicLock), Equals, true)
	c.Check(ch.HasMode(CModeSecret), Equals, false)
	c.Check(ch.HasUserStatus(u1, CModeOp), Equals, true)
	c.Assert(ch.FindUser(u2), NotNil)
	c.Check(ch.HasUserStatus(u2, CModeOp), Equals, false)
	c.Check(ch.FindUser(u2).Empty(), Equals, true)
	c.Check(u2.FindChannel(ch).Flags(), Equals, StatusFlag(0))
	c.Check(ch.FindUser(u1).Flags(), Equals, op.Flag)
}

func (s *s) TestChannel_SJoinZeroTS(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u1 := f.user(c, f.hub, "alice")
	ch, _ := f.st.SJoin(f.hubSource(), channel, 100, "+n", []SJoinUser{{User: u1}})

	ch, _ = f.st.SJoin(f.hubSource(), channel, 0, "+m", nil)
	c.Check(ch.TS, Equals, int64(100))
	c.Check(ch.HasMode(CModeNoExternal), Equals, true)
	c.Check(ch.HasMode(CModeModerated), Equals, true)
}

func (s *s) TestChannel_SJoinVeto(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	f.register(c, &ChannelInfo{
		Name:   channel,
		AKicks: []AKick{{Mask: "*!*@alice.example.com", Reason: "no"}},
	})

	joins := 0
	f.st.Hooks().OnJoin(func(*User, *Channel) { joins++ })
	f.st.Hooks().OnPreJoin(func(u *User, c *Channel) bool { return u.Nick == "dave" })

	alice := f.user(c, f.hub, "alice")
	bob := f.user(c, f.hub, "bob")
	carol := f.user(c, f.hub, "carol")
	dave, err := f.st.NewUser("dave", "ident", "alice.example.com", "", "10.0.0.2", f.hub, "Dave", 1000, "", "001ZZZ001")
	c.Assert(err, IsNil)

	ch, _ := f.st.SJoin(f.hubSource(), channel, 100, "", []SJoinUser{
		{User: carol}, {User: alice}, {User: bob}, {User: dave},
	})

	// dave matches the akick too, but a hook vetoed the checks for him.
	c.Check(ch.FindUser(alice), IsNil)
	c.Check(ch.FindUser(bob), NotNil)
	c.Check(ch.FindUser(carol), NotNil)
	c.Check(ch.FindUser(dave), NotNil)
	c.Check(joins, Equals, 3)
	c.Check(f.sender.count("KICK"), Equals, 1)
	c.Check(ch.HasMode(CModeBan, "*!*@alice.example.com"), Equals, true)
}

func (s *s) TestChannel_ModeBounce(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	f.register(c, &ChannelInfo{
		Name:   channel,
		MLocks: []ModeLock{{Set: true, Name: CModeNoExternal}},
	})

	bounces := 0
	f.st.Hooks().OnModeBounce(func(*Channel) { bounces++ })

	ch, _ := f.st.NewChannel(channel, 100)
	c.Assert(ch.Info(), NotNil)

	for i := 0; i < 3; i++ {
		ch.SetModesInternal(f.hubSource(), "-n", 0, true)
		c.Check(ch.HasMode(CModeNoExternal), Equals, true)
		c.Check(ch.Bouncy(), Equals, false)
	}

	ch.SetModesInternal(f.hubSource(), "-n", 0, true)
	c.Check(ch.Bouncy(), Equals, true)
	c.Check(ch.HasMode(CModeNoExternal), Equals, false)
	c.Check(bounces, Equals, 1)

	ch.SetModesInternal(f.hubSource(), "+n-n", 0, true)
	c.Check(ch.HasMode(CModeNoExternal), Equals, false)
	c.Check(bounces, Equals, 1)
}

func (s *s) TestChannel_ModeBounceWindow(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	f.register(c, &ChannelInfo{
		Name:   channel,
		MLocks: []ModeLock{{Set: true, Name: CModeNoExternal}},
	})

	ch, _ := f.st.NewChannel(channel, 100)
	for i := 0; i < 10; i++ {
		ch.SetModesInternal(f.hubSource(), "-n", 0, true)
		f.clock.Advance(2 * time.Second)
	}
	c.Check(ch.Bouncy(), Equals, false)
	c.Check(ch.HasMode(CModeNoExternal), Equals, true)
}

func (s *s) TestChannel_CheckModes(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	f.register(c, &ChannelInfo{
		Name: channel,
		MLocks: []ModeLock{
			{Set: true, Name: CModeTopicLock},
			{Set: false, Name: CModeModerated},
			{Set: true, Name: CModeKey, Param: "secret"},
			{Set: true, Name: CModeBan, Param: "*!*@spam.com"},
			{Set: false, Name: CModeBan, Param: "*!*@friend.com"},
		},
	})

	ch, _ := f.st.NewChannel(channel, 100)
	ch.SetModesInternal(f.hubSource(), "+mkb other *!*@friend.com", 0, true)

	c.Check(ch.HasMode(CModeTopicLock), Equals, true)
	c.Check(ch.HasMode(CModeModerated), Equals, false)
	key, _ := ch.Param(CModeKey)
	c.Check(key, Equals, "secret")
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@spam.com"})
}

func (s *s) TestChannel_SetCorrectModes(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	na, err := f.store.Register("alice", "pass", "")
	c.Assert(err, IsNil)
	f.register(c, &ChannelInfo{
		Name:      channel,
		SecureOps: true,
		Access: []AccessEntry{
			{Mask: "alice", Privs: []string{PrivAutoOp}},
			{Mask: "*!*@carol.example.com", Privs: []string{PrivAutoVoice}},
		},
		MLocks: []ModeLock{{Set: true, Name: CModeHalfop, Param: "dave*"}},
	})

	alice := f.user(c, f.hub, "alice")
	alice.Login(na.Account)
	bob := f.user(c, f.hub, "bob")
	carol := f.user(c, f.hub, "carol")
	dave := f.user(c, f.hub, "dave")

	op := f.mode(CModeOp)
	ch, _ := f.st.SJoin(f.hubSource(), channel, 100, "", []SJoinUser{
		{User: alice},
		{User: bob, Status: op.Flag},
		{User: carol},
		{User: dave},
	})

	c.Check(ch.HasUserStatus(alice, CModeOp), Equals, true)
	c.Check(ch.HasUserStatus(bob, CModeOp), Equals, false)
	c.Check(ch.HasUserStatus(carol, CModeVoice), Equals, true)
	c.Check(ch.HasUserStatus(dave, CModeHalfop), Equals, true)

	// Secure ops strips an op that was given by hand.
	ch.SetModesInternal(Source{User: alice}, "+o bob", 0, true)
	c.Check(ch.HasUserStatus(bob, CModeOp), Equals, false)
}

func (s *s) TestChannel_Unban(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u, err := f.st.NewUser("bob", "bob", "host.example.com", "", "1.2.3.4", f.hub, "Bob", 1000, "", "001BOB001")
	c.Assert(err, IsNil)

	ch, _ := f.st.NewChannel(channel, 100)
	ch.SetModesInternal(f.hubSource(), "+bb *!*@1.2.3.* *!*@other.com", 0, true)
	c.Assert(len(ch.ModeList(CModeBan)), Equals, 2)

	c.Check(ch.MatchesList(u, CModeBan), Equals, true)
	ch.Unban(u, false)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@other.com"})

	f.st.Flush()
	c.Check(f.sender.lines[len(f.sender.lines)-1], Equals, "MODE 00A #chan -b *!*@1.2.3.*")
}

func (s *s) TestChannel_UnbanOverlapping(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u, err := f.st.NewUser("bob", "bob", "host.example.com", "", "1.2.3.4", f.hub, "Bob", 1000, "", "001BOB001")
	c.Assert(err, IsNil)

	ch, _ := f.st.NewChannel(channel, 100)
	ch.SetModesInternal(f.hubSource(), "+bb alice!*@x.com *!*@*", 0, true)

	ch.Unban(u, false)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"alice!*@x.com"})
	c.Check(ch.MatchesList(u, CModeBan), Equals, false)

	f.st.Flush()
	c.Check(f.sender.lines[len(f.sender.lines)-1], Equals, "MODE 00A #chan -b *!*@*")
}

func (s *s) TestChannel_RemoveListEntryOverlapping(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ban := f.mode(CModeBan)
	ch, _ := f.st.NewChannel(channel, 100)

	// Broad mask removed while a narrower one is set before it.
	ch.SetModesInternal(f.hubSource(), "+bb alice!*@x.com *!*@*", 0, true)
	ch.RemoveMode(nil, ban, "*!*@*", false)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"alice!*@x.com"})

	// Narrow mask removed while a broader one is set before it.
	ch.SetModesInternal(f.hubSource(), "-b alice!*@x.com", 0, true)
	ch.SetModesInternal(f.hubSource(), "+bb *!*@* alice!*@x.com", 0, true)
	c.Assert(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@*", "alice!*@x.com"})
	ch.RemoveMode(nil, ban, "alice!*@x.com", false)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@*"})
}

func (s *s) TestChannel_RemoveListEntryOverlappingFromNetwork(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ch, _ := f.st.NewChannel(channel, 100)

	ch.SetModesInternal(f.hubSource(), "+bb alice!*@x.com *!*@*", 0, true)
	ch.SetModesInternal(f.hubSource(), "-b *!*@*", 0, true)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"alice!*@x.com"})

	ch.SetModesInternal(f.hubSource(), "+b *!*@*", 0, true)
	ch.SetModesInternal(f.hubSource(), "-b ALICE!*@X.COM", 0, true)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@*"})

	// Without an exact entry the first stored mask covering the param goes.
	ch.SetModesInternal(f.hubSource(), "+b *!*@*.example.com", 0, true)
	ch.SetModesInternal(f.hubSource(), "-b *!*@host.example.com", 0, true)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@*.example.com"})
	ch.SetModesInternal(f.hubSource(), "-b *!*@other.net", 0, true)
	c.Check(ch.ModeList(CModeBan), DeepEquals, []string{"*!*@*.example.com"})
}

func (s *s) TestChannel_HasModeListFolding(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ch, _ := f.st.NewChannel(channel, 100)
	ch.SetModesInternal(f.hubSource(), "+b *!*@[x]", 0, true)
	c.Check(ch.HasMode(CModeBan, "*!*@{X}"), Equals, true)
	c.Check(ch.HasMode(CModeBan, "*!*@[y]"), Equals, false)
}

func (s *s) TestChannel_UnbanFull(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u, _ := f.st.NewUser("bob", "bob", "real.example.com", "virtual.example.com", "1.2.3.4", f.hub, "Bob", 1000, "", "001BOB001")

	ch, _ := f.st.NewChannel(channel, 100)
	ch.SetModesInternal(f.hubSource(), "+b *!*@real.example.com", 0, true)

	ch.Unban(u, false)
	c.Check(len(ch.ModeList(CModeBan)), Equals, 1)
	ch.Unban(u, true)
	c.Check(len(ch.ModeList(CModeBan)), Equals, 0)
}

func (s *s) TestChannel_ResetKeepsBotStatus(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	cs := f.chanServ(c)
	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	f.st.JoinBot(cs, ch)
	ch.JoinUser(u)
	ch.SetModesInternal(f.hubSource(), "+nvo alice alice", 0, true)
	c.Check(ch.HasUserStatus(cs, CModeOp), Equals, true)

	ch.Reset()
	c.Check(ch.HasMode(CModeNoExternal), Equals, false)
	c.Check(ch.HasUserStatus(u, CModeOp), Equals, false)
	c.Check(ch.HasUserStatus(u, CModeVoice), Equals, false)
	c.Check(ch.HasUserStatus(cs, CModeOp), Equals, true)
}

func (s *s) TestChannel_HoldAndRelease(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	cs := f.chanServ(c)
	f.register(c, &ChannelInfo{
		Name:   channel,
		AKicks: []AKick{{Mask: "*!*@bad.example.com", Reason: "go away"}},
	})

	u := f.user(c, f.hub, "bad")
	ch, _ := f.st.SJoin(f.hubSource(), channel, 100, "", []SJoinUser{{User: u}})

	c.Check(ch.Alive(), Equals, true)
	c.Check(ch.Inhabited(), Equals, true)
	c.Check(ch.FindUser(u), IsNil)
	c.Check(ch.FindUser(cs), NotNil)
	c.Check(ch.HasMode(CModeBan, "*!*@bad.example.com"), Equals, true)
	c.Check(f.sender.count("KICK ChanServ #chan bad go away"), Equals, 1)

	f.clock.Advance(f.st.Options().Inhabit + time.Second)
	f.st.Tick(f.clock.Now())

	c.Check(ch.Alive(), Equals, false)
	c.Check(f.st.FindChannel(channel), IsNil)
	c.Check(f.sender.count("PART ChanServ"), Equals, 1)
}

func (s *s) TestChannel_BotRejoinsOnKick(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	cs := f.chanServ(c)
	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	f.st.JoinBot(cs, ch)
	ch.JoinUser(u)

	ch.KickInternal(Source{User: u}, cs.UID(), "bye")
	c.Check(ch.FindUser(cs), NotNil)
	c.Check(ch.HasUserStatus(cs, CModeOp), Equals, true)
	c.Check(f.sender.count("JOIN ChanServ #chan"), Equals, 2)
	c.Check(ch.Inhabited(), Equals, false)
}

func (s *s) TestChannel_KickProtected(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u := f.user(c, f.hub, "alice")
	oper, _ := f.st.NewUser("oper", "ident", "oper.example.com", "", "", f.hub, "Oper", 1000, "+S", "001OPR001")
	ch, _ := f.st.NewChannel(channel, 100)
	ch.JoinUser(u)
	ch.JoinUser(oper)

	c.Check(ch.Kick(nil, oper, "no"), Equals, false)
	c.Check(ch.Kick(nil, u, "yes"), Equals, true)
	c.Check(ch.FindUser(u), IsNil)
	c.Check(ch.FindUser(oper), NotNil)
}

func (s *s) TestChannel_Topic(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	ci := &ChannelInfo{Name: channel, KeepTopic: true}
	f.register(c, ci)

	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	ch.JoinUser(u)

	ch.ChangeTopicInternal(u.UID(), "hello", 200)
	c.Check(ch.Topic, Equals, "hello")
	c.Check(ch.TopicSetter, Equals, "alice")
	c.Check(ch.Info().LastTopic, Equals, "hello")

	ch.Info().TopicLock = true
	ch.ChangeTopicInternal("alice", "changed", 300)
	c.Check(ch.Topic, Equals, "hello")
	c.Check(f.sender.count("TOPIC #chan hello"), Equals, 1)
}
