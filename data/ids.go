package data

// nextIDChar steps through A-Z then 0-9. It returns true when it wrapped
// back to A and the next position should carry.
func nextIDChar(c *byte) bool {
	switch {
	case *c == 'Z':
		*c = '0'
	case *c == '9':
		*c = 'A'
		return true
	default:
		*c++
	}
	return false
}

// bumpID increments an id from its last character, carrying to the left.
func bumpID(id []byte) {
	for i := len(id) - 1; i >= 0; i-- {
		if !nextIDChar(&id[i]) {
			return
		}
	}
}

// NextUID returns the first free UID at or after the last one handed out.
// UIDs are our SID followed by six characters. Empty when the protocol
// doesn't use them.
func (s *State) NextUID() string {
	if !s.opts.RequiresID || s.Me == nil {
		return ""
	}
	if s.uid == nil {
		s.uid = []byte("AAAAAA")
	}

	for s.FindUser(s.Me.SID+string(s.uid), false) != nil {
		bumpID(s.uid)
	}
	return s.Me.SID + string(s.uid)
}

// NextSID returns the first free SID at or after our own, for juped
// servers. Empty when the protocol doesn't use them.
func (s *State) NextSID() string {
	if !s.opts.RequiresID {
		return ""
	}
	if s.sid == nil {
		if s.Me != nil && len(s.Me.SID) > 0 {
			s.sid = []byte(s.Me.SID)
		} else {
			s.sid = []byte("00A")
		}
	}

	for s.FindServer(string(s.sid), nil) != nil {
		bumpID(s.sid)
	}
	return string(s.sid)
}
