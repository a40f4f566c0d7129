package data

import (
	. "gopkg.in/check.v1"
)

func (s *s) TestEntry_Parse(c *C) {
	tests := []struct {
		Mask  string
		Nick  string
		Ident string
		Host  string
	}{
		{"nick!ident@host", "nick", "ident", "host"},
		{"nick!ident", "nick", "ident", "*"},
		{"ident@host.com", "*", "ident", "host.com"},
		{"host.com", "*", "*", "host.com"},
		{"nick", "nick", "*", "*"},
		{"10.0.0.0/8", "*", "*", "10.0.0.0/8"},
	}

	for _, test := range tests {
		e := NewEntry(test.Mask)
		c.Check(e.nick, Equals, test.Nick, Commentf("%s", test.Mask))
		c.Check(e.ident, Equals, test.Ident, Commentf("%s", test.Mask))
		c.Check(e.host, Equals, test.Host, Commentf("%s", test.Mask))
	}

	c.Check(NewEntry("*!*@10.0.0.0/8").cidr, NotNil)
	c.Check(NewEntry("*!*@10.0.0.*").cidr, IsNil)
}

func (s *s) TestEntry_Matches(c *C) {
	f := newFixture(c)
	defer f.Teardown()

	u, err := f.st.NewUser("Alice", "~real", "real.example.com", "", "192.168.1.20",
		f.hub, "Alice", 1000, "", "001AAAAAA")
	c.Assert(err, IsNil)
	u.SetVIdent("shown")
	u.SetCloakedHost("cloak.example.com")
	u.SetDisplayedHost("vhost.example.com")

	tests := []struct {
		Mask    string
		Relaxed bool
		Full    bool
	}{
		{"alice!*@*", true, true},
		{"bob!*@*", false, false},
		{"*!shown@*", true, true},
		{"*!~real@*", false, true},
		{"*!*@vhost.example.com", true, true},
		{"*!*@*.example.com", true, true},
		{"*!*@real.example.com", false, true},
		{"*!*@cloak.example.com", false, true},
		{"*!*@192.168.1.*", true, true},
		{"*!*@192.168.0.0/16", true, true},
		{"*!*@10.0.0.0/8", false, false},
		{"shown@vhost.example.com", true, true},
	}

	for _, test := range tests {
		e := NewEntry(test.Mask)
		c.Check(e.Matches(u, false), Equals, test.Relaxed, Commentf("%s relaxed", test.Mask))
		c.Check(e.Matches(u, true), Equals, test.Full, Commentf("%s full", test.Mask))
	}

	c.Check(NewEntry("*").Matches(nil, true), Equals, false)
}
