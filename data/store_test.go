package data

import (
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"
)

func (s *s) TestStore_Register(c *C) {
	store, err := NewStore(MemStoreProvider, nil)
	c.Assert(err, IsNil)
	defer store.Close()

	na, err := store.Register("Alice", "hunter2", "alice@example.com")
	c.Assert(err, IsNil)
	c.Check(na.Account.Display, Equals, "Alice")

	_, err = store.Register("alice", "other", "")
	c.Check(err, NotNil)

	store.resetCache()
	found := store.FindNick("ALICE")
	c.Assert(found, NotNil)
	c.Assert(found.Account, NotNil)
	c.Check(found.Account.Email, Equals, "alice@example.com")
	c.Check(found.Account.CheckPassword("hunter2"), Equals, true)
	c.Check(found.Account.CheckPassword("hunter3"), Equals, false)
	c.Check(store.FindAccount("alice"), Equals, found.Account)

	c.Assert(store.DropNick("alice"), IsNil)
	c.Check(store.FindNick("alice"), IsNil)
	c.Check(store.FindNick(""), IsNil)
}

func (s *s) TestStore_Channels(c *C) {
	store, err := NewStore(MemStoreProvider, nil)
	c.Assert(err, IsNil)
	defer store.Close()

	for _, name := range []string{"#zeta", "#Alpha", "#mid"} {
		c.Assert(store.SaveChannel(&ChannelInfo{Name: name, Founder: "alice"}), IsNil)
	}
	_, err = store.Register("bob", "pass", "")
	c.Assert(err, IsNil)

	store.resetCache()
	chans := store.Channels()
	c.Assert(chans, HasLen, 3)
	c.Check(chans[0].Name, Equals, "#Alpha")
	c.Check(chans[1].Name, Equals, "#mid")
	c.Check(chans[2].Name, Equals, "#zeta")

	c.Check(store.FindChannel("#ALPHA"), Equals, chans[0])
	c.Assert(store.DropChannel("#alpha"), IsNil)
	c.Check(store.FindChannel("#alpha"), IsNil)
	c.Check(store.Channels(), HasLen, 2)
}

func (s *s) TestStore_DropUnlinksChannel(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	f.register(c, &ChannelInfo{Name: channel})
	u := f.user(c, f.hub, "alice")
	ch, _ := f.st.NewChannel(channel, 100)
	ch.JoinUser(u)
	c.Assert(ch.Info(), NotNil)

	c.Assert(f.store.DropChannel(channel), IsNil)
	c.Check(ch.Info(), IsNil)
}

func (s *s) TestStore_CacheLimit(c *C) {
	old := nMaxCache
	nMaxCache = 2
	defer func() { nMaxCache = old }()

	store, err := NewStore(MemStoreProvider, nil)
	c.Assert(err, IsNil)
	defer store.Close()

	c.Assert(store.SaveChannel(&ChannelInfo{Name: "#one"}), IsNil)
	c.Assert(store.SaveChannel(&ChannelInfo{Name: "#two"}), IsNil)
	c.Check(store.chans, HasLen, 2)

	c.Assert(store.SaveChannel(&ChannelInfo{Name: "#three"}), IsNil)
	c.Check(store.chans, HasLen, 1)
	c.Check(store.FindChannel("#one"), NotNil)
}

func (s *s) TestStore_File(c *C) {
	dir := c.MkDir()
	filename := filepath.Join(dir, "services.db")

	store, err := NewStore(FileStoreProvider(filename), nil)
	c.Assert(err, IsNil)
	c.Assert(store.SaveChannel(&ChannelInfo{Name: channel, Founder: "alice", SecureOps: true}), IsNil)
	c.Assert(store.Close(), IsNil)

	_, err = os.Stat(filename)
	c.Assert(err, IsNil)

	store, err = NewStore(FileStoreProvider(filename), nil)
	c.Assert(err, IsNil)
	defer store.Close()

	ci := store.FindChannel(channel)
	c.Assert(ci, NotNil)
	c.Check(ci.Founder, Equals, "alice")
	c.Check(ci.SecureOps, Equals, true)
}
