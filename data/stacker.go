package data

import (
	"strings"
)

const (
	// defaultMaxModes is how many mode changes go in one line when the
	// network doesn't tell us.
	defaultMaxModes = 12
	// maxModeLineLen keeps a flushed line well under the 512 byte limit
	// once the prefix, command and target are added.
	maxModeLineLen = 400
)

// ModeSender emits a batched mode line, modes holds the mode characters
// followed by their parameters.
type ModeSender interface {
	SendMode(source, target, modes string)
}

type modeChange struct {
	mode  *Mode
	set   bool
	param string
}

type stackerKey struct {
	actor  string
	target Handle
}

type stackerEntry struct {
	stackerKey
	changes []modeChange
}

// Stacker accumulates mode changes per actor and target until Flush.
type Stacker struct {
	maxModes int
	entries  []*stackerEntry
	index    map[stackerKey]*stackerEntry
}

// NewStacker creates a stacker that puts at most maxModes changes on a line.
func NewStacker(maxModes int) *Stacker {
	if maxModes <= 0 {
		maxModes = defaultMaxModes
	}
	return &Stacker{
		maxModes: maxModes,
		index:    make(map[stackerKey]*stackerEntry),
	}
}

// Add queues a change. A pending change for the same mode and parameter is
// replaced so opposite changes collapse to the latest one.
func (st *Stacker) Add(actor string, target Handle, mode *Mode, set bool, param string) {
	key := stackerKey{actor: actor, target: target}
	entry, ok := st.index[key]
	if !ok {
		entry = &stackerEntry{stackerKey: key}
		st.index[key] = entry
		st.entries = append(st.entries, entry)
	}

	for i := 0; i < len(entry.changes); i++ {
		c := entry.changes[i]
		if c.mode == mode && strings.EqualFold(c.param, param) {
			entry.changes = append(entry.changes[:i], entry.changes[i+1:]...)
			i--
		}
	}

	entry.changes = append(entry.changes, modeChange{mode: mode, set: set, param: param})
}

// Del drops every queued change for target without sending anything.
func (st *Stacker) Del(target Handle) {
	kept := st.entries[:0]
	for _, e := range st.entries {
		if e.target == target {
			delete(st.index, e.stackerKey)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(st.entries); i++ {
		st.entries[i] = nil
	}
	st.entries = kept
}

// Pending counts queued changes for target.
func (st *Stacker) Pending(target Handle) int {
	n := 0
	for _, e := range st.entries {
		if e.target == target {
			n += len(e.changes)
		}
	}
	return n
}

// Len counts every queued change.
func (st *Stacker) Len() int {
	n := 0
	for _, e := range st.entries {
		n += len(e.changes)
	}
	return n
}

// Flush sends everything queued in the order it was queued and empties the
// stacker. Targets that resolve to nothing are dropped.
func (st *Stacker) Flush(resolve func(Handle) (string, bool), send ModeSender) {
	entries := st.entries
	st.entries = nil
	st.index = make(map[stackerKey]*stackerEntry)

	for _, e := range entries {
		target, ok := resolve(e.target)
		if !ok {
			continue
		}
		for _, line := range st.build(e.changes) {
			send.SendMode(e.actor, target, line)
		}
	}
}

// build renders changes into as few lines as the limits allow.
func (st *Stacker) build(changes []modeChange) []string {
	var lines []string
	var modes, params strings.Builder
	count, dir := 0, -1

	emit := func() {
		if count == 0 {
			return
		}
		lines = append(lines, modes.String()+params.String())
		modes.Reset()
		params.Reset()
		count, dir = 0, -1
	}

	for _, c := range changes {
		extra := 1
		if len(c.param) > 0 {
			extra += len(c.param) + 1
		}
		if count >= st.maxModes || modes.Len()+params.Len()+extra+1 > maxModeLineLen {
			emit()
		}

		want := 0
		if c.set {
			want = 1
		}
		if dir != want {
			if c.set {
				modes.WriteByte('+')
			} else {
				modes.WriteByte('-')
			}
			dir = want
		}
		modes.WriteByte(c.mode.Char)
		if len(c.param) > 0 {
			params.WriteByte(' ')
			params.WriteString(c.param)
		}
		count++
	}
	emit()

	return lines
}
