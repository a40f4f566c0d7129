package data

import (
	. "gopkg.in/check.v1"
)

func resolveAs(name string) func(Handle) (string, bool) {
	return func(Handle) (string, bool) { return name, true }
}

func (s *s) TestStacker_Collapse(c *C) {
	reg := DefaultModeRegistry()
	st := NewStacker(0)
	h := Handle{Kind: KindChannel, ID: 1}

	st.Add("00A", h, reg.ChannelMode(CModeNoExternal), true, "")
	st.Add("00A", h, reg.ChannelMode(CModeTopicLock), true, "")
	st.Add("00A", h, reg.ChannelMode(CModeNoExternal), false, "")
	c.Check(st.Pending(h), Equals, 2)

	sender := &fakeSender{}
	st.Flush(resolveAs("#chan"), sender)
	c.Check(sender.lines, DeepEquals, []string{"MODE 00A #chan +t-n"})
	c.Check(st.Len(), Equals, 0)
}

func (s *s) TestStacker_Params(c *C) {
	reg := DefaultModeRegistry()
	st := NewStacker(0)
	h := Handle{Kind: KindChannel, ID: 1}

	st.Add("00A", h, reg.ChannelMode(CModeBan), true, "*!*@a.com")
	st.Add("00A", h, reg.ChannelMode(CModeBan), true, "*!*@b.com")
	st.Add("00A", h, reg.ChannelMode(CModeOp), true, "001AAAAAA")
	st.Add("00A", h, reg.ChannelMode(CModeBan), false, "*!*@A.COM")

	sender := &fakeSender{}
	st.Flush(resolveAs("#chan"), sender)
	c.Check(sender.lines, DeepEquals, []string{
		"MODE 00A #chan +bo-b *!*@b.com 001AAAAAA *!*@A.COM",
	})
}

func (s *s) TestStacker_Split(c *C) {
	reg := DefaultModeRegistry()
	st := NewStacker(2)
	h := Handle{Kind: KindChannel, ID: 1}

	st.Add("00A", h, reg.ChannelMode(CModeNoExternal), true, "")
	st.Add("00A", h, reg.ChannelMode(CModeTopicLock), true, "")
	st.Add("00A", h, reg.ChannelMode(CModeSecret), false, "")

	sender := &fakeSender{}
	st.Flush(resolveAs("#chan"), sender)
	c.Check(sender.lines, DeepEquals, []string{
		"MODE 00A #chan +nt",
		"MODE 00A #chan -s",
	})
}

func (s *s) TestStacker_PerActorAndTarget(c *C) {
	reg := DefaultModeRegistry()
	st := NewStacker(0)
	h1 := Handle{Kind: KindChannel, ID: 1}
	h2 := Handle{Kind: KindChannel, ID: 2}
	n := reg.ChannelMode(CModeNoExternal)

	st.Add("00A", h1, n, true, "")
	st.Add("00AAAAAAA", h1, n, false, "")
	st.Add("00A", h2, n, true, "")
	c.Check(st.Pending(h1), Equals, 2)
	c.Check(st.Len(), Equals, 3)

	names := map[Handle]string{h1: "#one"}
	sender := &fakeSender{}
	st.Flush(func(h Handle) (string, bool) {
		name, ok := names[h]
		return name, ok
	}, sender)
	c.Check(sender.lines, DeepEquals, []string{
		"MODE 00A #one +n",
		"MODE 00AAAAAAA #one -n",
	})
}

func (s *s) TestStacker_Del(c *C) {
	reg := DefaultModeRegistry()
	st := NewStacker(0)
	h1 := Handle{Kind: KindChannel, ID: 1}
	h2 := Handle{Kind: KindChannel, ID: 2}

	st.Add("00A", h1, reg.ChannelMode(CModeNoExternal), true, "")
	st.Add("00A", h2, reg.ChannelMode(CModeNoExternal), true, "")
	st.Del(h1)
	c.Check(st.Pending(h1), Equals, 0)
	c.Check(st.Pending(h2), Equals, 1)

	st.Add("00A", h1, reg.ChannelMode(CModeSecret), true, "")
	c.Check(st.Pending(h1), Equals, 1)
}

func (s *s) TestStacker_LineLength(c *C) {
	reg := DefaultModeRegistry()
	st := NewStacker(100)
	h := Handle{Kind: KindChannel, ID: 1}
	ban := reg.ChannelMode(CModeBan)

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	for i := 0; i < 3; i++ {
		st.Add("00A", h, ban, true, string(long)+string(rune('a'+i)))
	}

	sender := &fakeSender{}
	st.Flush(resolveAs("#chan"), sender)
	c.Check(sender.lines, HasLen, 2)
}
