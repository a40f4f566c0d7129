package data

import (
	. "gopkg.in/check.v1"
)

func (s *s) TestIDs_Bump(c *C) {
	tests := []struct {
		In  string
		Out string
	}{
		{"AAAAAA", "AAAAAB"},
		{"AAAAAZ", "AAAAA0"},
		{"AAAAA9", "AAAABA"},
		{"A99", "BAA"},
		{"00A", "00B"},
	}

	for _, test := range tests {
		id := []byte(test.In)
		bumpID(id)
		c.Check(string(id), Equals, test.Out, Commentf("%s", test.In))
	}
}

func (s *s) TestIDs_NextUID(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	c.Check(f.st.NextUID(), Equals, "00AAAAAAA")
	c.Check(f.st.NextUID(), Equals, "00AAAAAAA")

	cs := f.chanServ(c)
	c.Check(cs.UID(), Equals, "00AAAAAAA")
	c.Check(f.st.NextUID(), Equals, "00AAAAAAB")

	ns, err := f.st.NewBot("NickServ", "services", meName, "Nick Services", "+S")
	c.Assert(err, IsNil)
	c.Check(ns.UID(), Equals, "00AAAAAAB")
}

func (s *s) TestIDs_NextSID(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	c.Check(f.st.NextSID(), Equals, "00B")
	_, err := f.st.NewServer(f.st.Me, "jupe.test.net", 1, "Juped", f.st.NextSID(), true)
	c.Assert(err, IsNil)
	c.Check(f.st.NextSID(), Equals, "00C")
}

func (s *s) TestIDs_NoIDs(c *C) {
	opts := DefaultOptions()
	opts.RequiresID = false
	st := NewState(opts, nil, nil, nil, nil)
	defer st.Teardown()

	_, err := st.NewServer(nil, meName, 0, "Services", "", false)
	c.Assert(err, IsNil)
	c.Check(st.NextUID(), Equals, "")
	c.Check(st.NextSID(), Equals, "")

	bot, err := st.NewBot("ChanServ", "services", meName, "Channel Services", "")
	c.Assert(err, IsNil)
	c.Check(bot.UID(), Equals, "ChanServ")
	c.Check(bot.RawUID(), Equals, "")
}
