package data

// SJoinUser is one member of a channel burst with the statuses they came
// with.
type SJoinUser struct {
	Status StatusFlag
	User   *User
}

// SJoin merges a channel burst or join into the state. The side with the
// older TS wins: an older incoming TS resets the channel to the incoming
// modes, a newer one keeps ours and drops the incoming modes and statuses. A zero TS
// keeps the channel as it is but still applies the modes. Each member is
// then joined, given their correct modes and checked against the channel's
// akicks unless a hook vetoes the join.
func (s *State) SJoin(src Source, name string, ts int64, modes string, users []SJoinUser) (*Channel, error) {
	defer s.op()()

	keepTheirModes := true
	c := s.FindChannel(name)
	if c == nil {
		created := ts
		if created == 0 {
			created = s.now().Unix()
		}

		var err error
		if c, err = s.NewChannel(name, created); err != nil {
			return nil, err
		}
		c.syncing = true
	} else if ts != 0 {
		switch {
		case ts < c.TS:
			s.log.Debug("lowering channel ts", "channel", c.Name, "from", c.TS, "to", ts)
			c.TS = ts
			c.Reset()
		case ts > c.TS:
			keepTheirModes = false
		}
	}

	if keepTheirModes && len(modes) > 0 {
		c.SetModesInternal(src, modes, ts, true)
	}

	for _, su := range users {
		u := su.User
		if c.dead {
			break
		}
		if u == nil || !u.Alive() {
			continue
		}

		vetoed := s.hooks.firePreJoin(u, c)

		cu := c.JoinUser(u)
		if keepTheirModes {
			cu.Set(su.Status)
		}

		c.SetCorrectModes(u, true, true)

		if !vetoed && c.CheckKick(u) {
			continue
		}

		s.hooks.fireJoin(u, c)
	}

	if c.syncing && !c.dead {
		c.syncing = false
		c.Sync()
	}

	return c, nil
}
