package data

// StatusFlag is a bitset of channel status modes, each status mode in the
// registry owns one bit.
type StatusFlag uint8

// Status is the set of channel status modes one member holds. The member's
// ChannelUser and UserChannel records share a single Status.
type Status struct {
	flags StatusFlag
}

// Has checks if every bit in f is set.
func (s *Status) Has(f StatusFlag) bool {
	return f != 0 && s.flags&f == f
}

// HasMode checks for a status mode.
func (s *Status) HasMode(m *Mode) bool {
	return m != nil && s.Has(m.Flag)
}

// Set sets the bits in f.
func (s *Status) Set(f StatusFlag) {
	s.flags |= f
}

// Unset clears the bits in f.
func (s *Status) Unset(f StatusFlag) {
	s.flags &^= f
}

// Clear removes all status.
func (s *Status) Clear() {
	s.flags = 0
}

// Flags returns the raw bitset.
func (s *Status) Flags() StatusFlag {
	return s.flags
}

// Empty is true when no status is held.
func (s *Status) Empty() bool {
	return s.flags == 0
}

// ChannelUser is a member as seen from the channel.
type ChannelUser struct {
	User *User
	*Status
}

// UserChannel is a membership as seen from the user.
type UserChannel struct {
	Channel *Channel
	*Status
}
