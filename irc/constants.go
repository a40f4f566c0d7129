package irc

// Server to server commands handled by the services core.
const (
	AWAY     = "AWAY"
	BMASK    = "BMASK"
	CAPAB    = "CAPAB"
	ENCAP    = "ENCAP"
	ENDBURST = "ENDBURST"
	EOB      = "EOB"
	EUID     = "EUID"
	ERROR    = "ERROR"
	JOIN     = "JOIN"
	KICK     = "KICK"
	KILL     = "KILL"
	MODE     = "MODE"
	NICK     = "NICK"
	PART     = "PART"
	PASS     = "PASS"
	PING     = "PING"
	PONG     = "PONG"
	PRIVMSG  = "PRIVMSG"
	NOTICE   = "NOTICE"
	QUIT     = "QUIT"
	SERVER   = "SERVER"
	SID      = "SID"
	SJOIN    = "SJOIN"
	SQUIT    = "SQUIT"
	SU       = "SU"
	SVINFO   = "SVINFO"
	SVSKILL  = "SVSKILL"
	SVSNICK  = "SVSNICK"
	TB       = "TB"
	TMODE    = "TMODE"
	TOPIC    = "TOPIC"
	UID      = "UID"
	CHGHOST  = "CHGHOST"
	CHGIDENT = "CHGIDENT"
	BURST    = "BURST"
)

// Capability tokens that change how server quits are handled. With either of
// them negotiated, a quitting server's users are already gone by the time
// the SQUIT arrives.
const (
	CapNoQuit = "NOQUIT"
	CapQS     = "QS"
)

// Pseudo Messages, these are not real protocol messages but allow handlers to
// observe the link being established or lost.
const (
	RAW        = "RAW"
	CONNECT    = "CONNECT"
	DISCONNECT = "DISCONNECT"
)
