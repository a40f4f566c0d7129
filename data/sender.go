package data

// Sender emits protocol effects to the uplink. Sends are fire and forget and
// ordered per connection; the wire syntax belongs to the implementation.
type Sender interface {
	ModeSender

	SendKick(source *User, c *Channel, target *User, reason string)
	SendTopic(source *User, c *Channel)
	SendForceNickChange(u *User, nick string, ts int64)
	SendClientIntroduction(u *User)
	SendQuit(u *User, reason string)
	SendSVSKill(source string, u *User, reason string)
	SendJoin(u *User, c *Channel, status StatusFlag)
	SendPart(u *User, c *Channel, reason string)
	SendChannel(c *Channel)
	SendServer(s *Server)
	SendSquit(s *Server, reason string)
	SendBOB()
	SendEOB()
	SendLogin(u *User)
	SendLogout(u *User)
	SendVhost(u *User, ident, host string)
}

// NopSender discards everything, useful before a link exists.
type NopSender struct{}

func (NopSender) SendMode(string, string, string)          {}
func (NopSender) SendKick(*User, *Channel, *User, string)  {}
func (NopSender) SendTopic(*User, *Channel)                {}
func (NopSender) SendForceNickChange(*User, string, int64) {}
func (NopSender) SendClientIntroduction(*User)             {}
func (NopSender) SendQuit(*User, string)                   {}
func (NopSender) SendSVSKill(string, *User, string)        {}
func (NopSender) SendJoin(*User, *Channel, StatusFlag)     {}
func (NopSender) SendPart(*User, *Channel, string)         {}
func (NopSender) SendChannel(*Channel)                     {}
func (NopSender) SendServer(*Server)                       {}
func (NopSender) SendSquit(*Server, string)                {}
func (NopSender) SendBOB()                                 {}
func (NopSender) SendEOB()                                 {}
func (NopSender) SendLogin(*User)                          {}
func (NopSender) SendLogout(*User)                         {}
func (NopSender) SendVhost(*User, string, string)          {}
