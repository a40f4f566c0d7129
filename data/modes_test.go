package data

import (
	. "gopkg.in/check.v1"
)

func (s *s) TestModes_Default(c *C) {
	reg := DefaultModeRegistry()

	ban := reg.ChannelModeByChar('b')
	c.Assert(ban, NotNil)
	c.Check(ban.Name, Equals, CModeBan)
	c.Check(ban.Kind, Equals, ModeList)
	c.Check(ban.TakesParam(false), Equals, true)

	key := reg.ChannelMode(CModeKey)
	c.Check(key.Kind, Equals, ModeParam)
	c.Check(key.TakesParam(false), Equals, true)

	limit := reg.ChannelMode(CModeLimit)
	c.Check(limit.TakesParam(true), Equals, true)
	c.Check(limit.TakesParam(false), Equals, false)
	c.Check(limit.IsValid("10"), Equals, true)
	c.Check(limit.IsValid("ten"), Equals, false)
	c.Check(limit.IsValid(""), Equals, false)

	n := reg.ChannelMode(CModeNoExternal)
	c.Check(n.Kind, Equals, ModeRegular)
	c.Check(n.IsValid(""), Equals, true)

	c.Check(reg.UserModeByChar('o').Name, Equals, UModeOper)
	c.Check(reg.UserMode(UModeCloak).Char, Equals, byte('x'))
	c.Check(reg.ChannelModeByChar('Z'), IsNil)
}

func (s *s) TestModes_Status(c *C) {
	reg := DefaultModeRegistry()

	statuses := reg.StatusModes()
	c.Assert(statuses, HasLen, 5)
	c.Check(statuses[0].Name, Equals, CModeOwner)
	c.Check(statuses[4].Name, Equals, CModeVoice)

	op := reg.StatusBySymbol('@')
	c.Assert(op, NotNil)
	c.Check(op.Name, Equals, CModeOp)
	c.Check(op.Kind, Equals, ModeStatus)
	c.Check(reg.StatusBySymbol('!'), IsNil)

	voice := reg.ChannelMode(CModeVoice)
	flags := op.Flag | voice.Flag
	c.Check(reg.StatusString(flags), Equals, "ov")
	c.Check(reg.StatusSymbols(flags), Equals, "@+")

	var st Status
	st.Set(flags)
	c.Check(st.HasMode(op), Equals, true)
	st.Unset(op.Flag)
	c.Check(st.HasMode(op), Equals, false)
	c.Check(st.HasMode(voice), Equals, true)
	st.Clear()
	c.Check(st.Empty(), Equals, true)
}

func (s *s) TestModes_FromCaps(c *C) {
	reg, err := NewModeRegistryFromCaps("beIq,k,flj,CFLMPQScgimnprstz", "(ov)@+")
	c.Assert(err, IsNil)

	c.Check(reg.StatusModes(), HasLen, 2)
	c.Check(reg.ChannelModeByChar('q').Kind, Equals, ModeList)
	c.Check(reg.ChannelModeByChar('j').Name, Equals, "mode_j")
	c.Check(reg.ChannelModeByChar('j').MinusNoArg, Equals, true)
	c.Check(reg.ChannelModeByChar('z').Kind, Equals, ModeRegular)

	_, err = NewModeRegistryFromCaps("b,k,l", "(ov)@+")
	c.Check(err, NotNil)
	_, err = NewModeRegistryFromCaps("b,k,l,n", "(ov)@")
	c.Check(err, NotNil)
	_, err = NewModeRegistryFromCaps("b,k,l,n", "ov@+")
	c.Check(err, NotNil)
	_, err = NewModeRegistryFromCaps("bo,k,l,n", "(ov)@+")
	c.Check(err, NotNil)
}

func (s *s) TestModes_Parse(c *C) {
	reg := DefaultModeRegistry()
	takes := func(ch byte, set bool) bool {
		m := reg.ChannelModeByChar(ch)
		return m != nil && m.TakesParam(set)
	}

	toks := parseModeString("+ov-lb nick1 nick2 *!*@host", takes)
	c.Assert(toks, HasLen, 4)
	c.Check(toks[0], Equals, modeToken{set: true, char: 'o', param: "nick1"})
	c.Check(toks[1], Equals, modeToken{set: true, char: 'v', param: "nick2"})
	c.Check(toks[2], Equals, modeToken{set: false, char: 'l'})
	c.Check(toks[3], Equals, modeToken{set: false, char: 'b', param: "*!*@host"})

	toks = parseModeString("nt+k", takes)
	c.Assert(toks, HasLen, 1)
	c.Check(toks[0].missing, Equals, true)

	c.Check(parseModeString("", takes), HasLen, 0)
}
