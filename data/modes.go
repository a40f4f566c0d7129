package data

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ModeKind says how a mode takes arguments and how it is stored.
type ModeKind int

// The kinds of modes. Status modes are per-member on a channel.
const (
	ModeRegular ModeKind = iota
	ModeParam
	ModeList
	ModeStatus
)

func (k ModeKind) String() string {
	switch k {
	case ModeRegular:
		return "regular"
	case ModeParam:
		return "param"
	case ModeList:
		return "list"
	case ModeStatus:
		return "status"
	}
	return "unknown"
}

// Channel mode names.
const (
	CModeBan        = "ban"
	CModeExcept     = "except"
	CModeInvex      = "invex"
	CModeKey        = "key"
	CModeLimit      = "limit"
	CModeInviteOnly = "inviteonly"
	CModeModerated  = "moderated"
	CModeNoExternal = "noexternal"
	CModeTopicLock  = "topiclock"
	CModeSecret     = "secret"
	CModePrivate    = "private"
	CModePermanent  = "permanent"
	CModeRegistered = "registered"
	CModeOwner      = "owner"
	CModeProtect    = "protect"
	CModeOp         = "op"
	CModeHalfop     = "halfop"
	CModeVoice      = "voice"
)

// User mode names.
const (
	UModeOper       = "oper"
	UModeInvisible  = "invisible"
	UModeCloak      = "cloak"
	UModeRegistered = "registered"
	UModeProtected  = "protected"
	UModeGod        = "god"
	UModeVhost      = "vhost"
	UModeBot        = "bot"
	UModeWallops    = "wallops"
)

// Mode is an immutable mode definition.
type Mode struct {
	Name string
	Char byte
	Kind ModeKind

	// Status modes only.
	Symbol byte
	Rank   int
	Flag   StatusFlag

	// MinusNoArg param modes are unset without an argument, like +l.
	MinusNoArg bool
	// Validate checks a parameter for param and list modes, nil accepts any
	// non-empty parameter.
	Validate func(param string) bool
}

// TakesParam says if a mode consumes a parameter token in the given
// direction.
func (m *Mode) TakesParam(set bool) bool {
	switch m.Kind {
	case ModeRegular:
		return false
	case ModeParam:
		return set || !m.MinusNoArg
	}
	return true
}

// IsValid checks a parameter. Regular modes accept anything.
func (m *Mode) IsValid(param string) bool {
	if m.Kind == ModeRegular {
		return true
	}
	if len(param) == 0 || strings.IndexByte(param, ' ') >= 0 {
		return false
	}
	if m.Validate != nil {
		return m.Validate(param)
	}
	return true
}

func (m *Mode) String() string {
	return m.Name
}

var (
	errModeExists    = errors.New("data: Mode already registered")
	errStatusOverrun = errors.New("data: Too many status modes")
)

// ModeRegistry is the catalog of known channel and user modes, looked up by
// name or wire character.
type ModeRegistry struct {
	channel      []*Mode
	chanByName   map[string]*Mode
	chanByChar   map[byte]*Mode
	user         []*Mode
	userByName   map[string]*Mode
	userByChar   map[byte]*Mode
	nextFlag     StatusFlag
	statusByRank []*Mode
}

// NewModeRegistry creates an empty registry.
func NewModeRegistry() *ModeRegistry {
	return &ModeRegistry{
		chanByName: make(map[string]*Mode),
		chanByChar: make(map[byte]*Mode),
		userByName: make(map[string]*Mode),
		userByChar: make(map[byte]*Mode),
		nextFlag:   1,
	}
}

// AddChannelMode registers a channel mode. Status modes are assigned the next
// free status flag.
func (r *ModeRegistry) AddChannelMode(m *Mode) error {
	if _, ok := r.chanByName[m.Name]; ok {
		return errors.Wrapf(errModeExists, "channel mode %s", m.Name)
	}
	if _, ok := r.chanByChar[m.Char]; ok {
		return errors.Wrapf(errModeExists, "channel mode %c", m.Char)
	}

	if m.Kind == ModeStatus {
		if r.nextFlag == 0 {
			return errors.Wrapf(errStatusOverrun, "channel mode %s", m.Name)
		}
		m.Flag = r.nextFlag
		r.nextFlag <<= 1

		r.statusByRank = append(r.statusByRank, m)
		sort.SliceStable(r.statusByRank, func(i, j int) bool {
			return r.statusByRank[i].Rank > r.statusByRank[j].Rank
		})
	}

	r.channel = append(r.channel, m)
	r.chanByName[m.Name] = m
	r.chanByChar[m.Char] = m
	return nil
}

// AddUserMode registers a user mode.
func (r *ModeRegistry) AddUserMode(m *Mode) error {
	if _, ok := r.userByName[m.Name]; ok {
		return errors.Wrapf(errModeExists, "user mode %s", m.Name)
	}
	if _, ok := r.userByChar[m.Char]; ok {
		return errors.Wrapf(errModeExists, "user mode %c", m.Char)
	}

	r.user = append(r.user, m)
	r.userByName[m.Name] = m
	r.userByChar[m.Char] = m
	return nil
}

// ChannelMode looks up a channel mode by name.
func (r *ModeRegistry) ChannelMode(name string) *Mode {
	return r.chanByName[name]
}

// ChannelModeByChar looks up a channel mode by its wire character.
func (r *ModeRegistry) ChannelModeByChar(c byte) *Mode {
	return r.chanByChar[c]
}

// StatusBySymbol looks up a status mode by its prefix symbol, @ for op.
func (r *ModeRegistry) StatusBySymbol(symbol byte) *Mode {
	for _, m := range r.statusByRank {
		if m.Symbol == symbol {
			return m
		}
	}
	return nil
}

// StatusModes returns the status modes, most powerful first.
func (r *ModeRegistry) StatusModes() []*Mode {
	return r.statusByRank
}

// ChannelModes returns every channel mode in registration order.
func (r *ModeRegistry) ChannelModes() []*Mode {
	return r.channel
}

// UserMode looks up a user mode by name.
func (r *ModeRegistry) UserMode(name string) *Mode {
	return r.userByName[name]
}

// UserModeByChar looks up a user mode by its wire character.
func (r *ModeRegistry) UserModeByChar(c byte) *Mode {
	return r.userByChar[c]
}

// UserModes returns every user mode in registration order.
func (r *ModeRegistry) UserModes() []*Mode {
	return r.user
}

// StatusString renders status flags as mode characters, most powerful first.
func (r *ModeRegistry) StatusString(flags StatusFlag) string {
	var b strings.Builder
	for _, m := range r.statusByRank {
		if flags&m.Flag != 0 {
			b.WriteByte(m.Char)
		}
	}
	return b.String()
}

// StatusSymbols renders status flags as prefix symbols, most powerful first.
func (r *ModeRegistry) StatusSymbols(flags StatusFlag) string {
	var b strings.Builder
	for _, m := range r.statusByRank {
		if flags&m.Flag != 0 {
			b.WriteByte(m.Symbol)
		}
	}
	return b.String()
}

func isNumber(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

// standardNames names the channel mode characters most networks agree on.
var standardNames = map[byte]string{
	'b': CModeBan, 'e': CModeExcept, 'I': CModeInvex,
	'k': CModeKey, 'l': CModeLimit,
	'i': CModeInviteOnly, 'm': CModeModerated, 'n': CModeNoExternal,
	't': CModeTopicLock, 's': CModeSecret, 'p': CModePrivate,
	'P': CModePermanent, 'r': CModeRegistered,
	'q': CModeOwner, 'a': CModeProtect, 'o': CModeOp, 'h': CModeHalfop,
	'v': CModeVoice,
}

func standardName(c byte) string {
	if name, ok := standardNames[c]; ok {
		return name
	}
	return "mode_" + string(c)
}

// DefaultModeRegistry returns a registry with the common channel and user
// modes.
func DefaultModeRegistry() *ModeRegistry {
	r, err := NewModeRegistryFromCaps("beI,k,l,imntspPr", "(qaohv)~&@%+")
	if err != nil {
		panic(err)
	}

	userModes := []*Mode{
		{Name: UModeOper, Char: 'o'},
		{Name: UModeInvisible, Char: 'i'},
		{Name: UModeCloak, Char: 'x'},
		{Name: UModeRegistered, Char: 'r'},
		{Name: UModeProtected, Char: 'S'},
		{Name: UModeGod, Char: 'G'},
		{Name: UModeVhost, Char: 't'},
		{Name: UModeBot, Char: 'B'},
		{Name: UModeWallops, Char: 'w'},
	}
	for _, m := range userModes {
		if err := r.AddUserMode(m); err != nil {
			panic(err)
		}
	}

	return r
}

// NewModeRegistryFromCaps builds channel modes from isupport style
// CHANMODES=A,B,C,D and PREFIX=(modes)symbols strings. A is list modes, B
// param modes, C param modes unset without an argument, D regular modes.
// Characters with a well known meaning get their standard names.
func NewModeRegistryFromCaps(chanmodes, prefix string) (*ModeRegistry, error) {
	r := NewModeRegistry()

	statuses, err := parsePrefixString(prefix)
	if err != nil {
		return nil, err
	}
	for i, s := range statuses {
		m := &Mode{
			Name:   standardName(s[0]),
			Char:   s[0],
			Kind:   ModeStatus,
			Symbol: s[1],
			Rank:   len(statuses) - i,
		}
		if err := r.AddChannelMode(m); err != nil {
			return nil, err
		}
	}

	groups := strings.Split(chanmodes, ",")
	if len(groups) != 4 {
		return nil, errors.Errorf("data: CHANMODES needs 4 groups, got %q", chanmodes)
	}

	kinds := []ModeKind{ModeList, ModeParam, ModeParam, ModeRegular}
	for i, group := range groups {
		for j := 0; j < len(group); j++ {
			m := &Mode{
				Name:       standardName(group[j]),
				Char:       group[j],
				Kind:       kinds[i],
				MinusNoArg: i == 2,
			}
			if m.Name == CModeLimit {
				m.Validate = isNumber
			}
			if err := r.AddChannelMode(m); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

// parsePrefixString parses (ov)@+ into mode/symbol pairs, most powerful
// first.
func parsePrefixString(prefix string) ([][2]byte, error) {
	if len(prefix) == 0 {
		return nil, nil
	}
	if prefix[0] != '(' {
		return nil, errors.Errorf("data: bad PREFIX %q", prefix)
	}

	split := strings.IndexByte(prefix, ')')
	if split < 0 || len(prefix)-split-1 != split-1 {
		return nil, errors.Errorf("data: bad PREFIX %q", prefix)
	}

	modes := make([][2]byte, split-1)
	for i := 1; i < split; i++ {
		modes[i-1][0], modes[i-1][1] = prefix[i], prefix[split+i]
	}
	return modes, nil
}
