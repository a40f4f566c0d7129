package data

import (
	"strings"

	"github.com/aarondl/uqserv/inet"
	"github.com/aarondl/uqserv/irc"
	"golang.org/x/crypto/bcrypt"
)

var (
	// PasswordCost is the bcrypt cost for account passwords.
	PasswordCost = bcrypt.DefaultCost
)

// Channel access privileges.
const (
	PrivAutoOwner   = "AUTOOWNER"
	PrivOwnerMe     = "OWNERME"
	PrivAutoProtect = "AUTOPROTECT"
	PrivProtectMe   = "PROTECTME"
	PrivAutoOp      = "AUTOOP"
	PrivOpDeopMe    = "OPDEOPME"
	PrivAutoHalfop  = "AUTOHALFOP"
	PrivHalfopMe    = "HALFOPME"
	PrivAutoVoice   = "AUTOVOICE"
	PrivVoiceMe     = "VOICEME"
	PrivFounder     = "FOUNDER"
)

var allPrivs = []string{
	PrivAutoOwner, PrivOwnerMe, PrivAutoProtect, PrivProtectMe,
	PrivAutoOp, PrivOpDeopMe, PrivAutoHalfop, PrivHalfopMe,
	PrivAutoVoice, PrivVoiceMe, PrivFounder,
}

// Registry is the registration store the state reads mode locks, access
// lists and accounts from.
type Registry interface {
	FindChannel(name string) *ChannelInfo
	FindNick(nick string) *NickAlias
	FindAccount(display string) *Account
	Channels() []*ChannelInfo
	SaveChannel(ci *ChannelInfo) error
	SaveNick(na *NickAlias) error
	SaveAccount(acct *Account) error
}

// ModeLock forces a channel mode on or off. Status mode locks carry a mask
// in Param and apply to matching members.
type ModeLock struct {
	Set     bool   `json:"set"`
	Name    string `json:"name"`
	Param   string `json:"param,omitempty"`
	Setter  string `json:"setter,omitempty"`
	Created int64  `json:"created,omitempty"`
}

// AccessEntry grants privileges to an account name or a wildcard mask.
type AccessEntry struct {
	Mask  string   `json:"mask"`
	Privs []string `json:"privs"`
}

// AKick bans and kicks anyone matching Mask on join.
type AKick struct {
	Mask   string `json:"mask"`
	Reason string `json:"reason,omitempty"`
}

// ChannelInfo is a registered channel.
type ChannelInfo struct {
	Name           string `json:"name"`
	Founder        string `json:"founder"`
	TimeRegistered int64  `json:"time_registered"`

	Persist   bool `json:"persist"`
	SecureOps bool `json:"secureops"`
	NoAutoOp  bool `json:"noautoop"`
	KeepTopic bool `json:"keeptopic"`
	TopicLock bool `json:"topiclock"`
	Forbidden bool `json:"forbidden"`
	Suspended bool `json:"suspended"`

	ForbidReason string `json:"forbid_reason,omitempty"`

	MLocks []ModeLock    `json:"mlocks,omitempty"`
	Access []AccessEntry `json:"access,omitempty"`
	AKicks []AKick       `json:"akicks,omitempty"`

	LastTopic       string `json:"last_topic,omitempty"`
	LastTopicSetter string `json:"last_topic_setter,omitempty"`
	LastTopicTime   int64  `json:"last_topic_time,omitempty"`

	// Bot is the nick of the service bot assigned to the channel.
	Bot string `json:"bot,omitempty"`

	c *Channel
}

// Channel is the live channel, nil when it doesn't exist on the network.
func (ci *ChannelInfo) Channel() *Channel {
	if ci.c != nil && !ci.c.Alive() {
		ci.c = nil
	}
	return ci.c
}

// Privileges is a set of channel access privileges.
type Privileges map[string]bool

// Has checks for a privilege.
func (p Privileges) Has(priv string) bool {
	return p[priv]
}

// AccessFor works out what a user may do on the channel. The founder has
// every privilege.
func (ci *ChannelInfo) AccessFor(u *User) Privileges {
	privs := make(Privileges)
	if u == nil {
		return privs
	}

	acct := u.Account()
	if acct != nil && len(ci.Founder) > 0 && irc.EqualFold(acct.Display, ci.Founder) {
		for _, p := range allPrivs {
			privs[p] = true
		}
		return privs
	}

	for _, entry := range ci.Access {
		if !entryMatches(entry.Mask, u) {
			continue
		}
		for _, p := range entry.Privs {
			privs[strings.ToUpper(p)] = true
		}
	}
	return privs
}

func entryMatches(mask string, u *User) bool {
	if strings.ContainsAny(mask, "!@") {
		return NewEntry(mask).Matches(u, false)
	}
	acct := u.Account()
	return acct != nil && irc.EqualFold(acct.Display, mask)
}

// AKickFor returns the first akick that matches the user.
func (ci *ChannelInfo) AKickFor(u *User) (AKick, bool) {
	for _, ak := range ci.AKicks {
		if entryMatches(ak.Mask, u) {
			return ak, true
		}
	}
	return AKick{}, false
}

// Account is a registered identity that several nicks can be grouped under.
type Account struct {
	Display  string   `json:"display"`
	Password []byte   `json:"password"`
	Email    string   `json:"email,omitempty"`
	Access   []string `json:"access,omitempty"`

	AutoOp      bool `json:"autoop"`
	Secure      bool `json:"secure"`
	Unconfirmed bool `json:"unconfirmed"`
	Suspended   bool `json:"suspended"`

	// OperName links the account to a configured services operator.
	OperName string `json:"oper,omitempty"`

	oper  *Oper
	users []*User
}

// NewAccount creates an account with a hashed password.
func NewAccount(display, password string) (*Account, error) {
	a := &Account{Display: display, AutoOp: true}
	if err := a.SetPassword(password); err != nil {
		return nil, err
	}
	return a, nil
}

// SetPassword hashes and stores a new password.
func (a *Account) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}
	a.Password = hash
	return nil
}

// CheckPassword compares a password against the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.Password, []byte(password)) == nil
}

// IsOnAccess checks the user against the account's access masks.
func (a *Account) IsOnAccess(u *User) bool {
	for _, mask := range a.Access {
		if irc.Match(mask, u.Ident+"@"+u.Host) || irc.Match(mask, u.VIdent()+"@"+u.DisplayedHost()) {
			return true
		}
	}
	return false
}

// Users returns the live users logged into this account.
func (a *Account) Users() []*User {
	return a.users
}

// Oper is the services operator record for the account, if any.
func (a *Account) Oper() *Oper {
	return a.oper
}

// SetOper links the account to an operator block.
func (a *Account) SetOper(o *Oper) {
	a.oper = o
	if o != nil {
		a.OperName = o.Name
	} else {
		a.OperName = ""
	}
}

// NickAlias is a registered nick belonging to an account.
type NickAlias struct {
	Nick         string `json:"nick"`
	AccountName  string `json:"account"`
	LastSeen     int64  `json:"last_seen"`
	LastUsermask string `json:"last_usermask,omitempty"`
	LastRealhost string `json:"last_realhost,omitempty"`
	LastRealname string `json:"last_realname,omitempty"`
	LastQuit     string `json:"last_quit,omitempty"`

	// Account is resolved by the registry from AccountName.
	Account *Account `json:"-"`
}

// Oper is a services operator block.
type Oper struct {
	Name        string
	Modes       string
	Vhost       string
	Hosts       []string
	RequireOper bool
}

// MatchesHost checks the user against the oper's host list, an empty list
// matches anyone.
func (o *Oper) MatchesHost(u *User) bool {
	if len(o.Hosts) == 0 {
		return true
	}
	for _, h := range o.Hosts {
		if strings.IndexByte(h, '/') > 0 {
			if cidr, err := inet.ParseCIDR(h); err == nil && cidr.MatchIP(u.IP) {
				return true
			}
			continue
		}
		if irc.Match(h, u.Ident+"@"+u.Host) || irc.Match(h, u.Ident+"@"+u.IP) {
			return true
		}
	}
	return false
}
