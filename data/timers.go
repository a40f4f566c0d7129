package data

import (
	"sort"
	"time"
)

type timer struct {
	id     uint64
	when   time.Time
	every  time.Duration
	target Handle
	fn     func(Handle)
}

// Timers is a schedule of callbacks keyed by entity handle. A callback whose
// handle no longer resolves is dropped instead of run. The zero Handle is
// used for callbacks that belong to no entity.
type Timers struct {
	next   uint64
	timers []*timer
}

// Add schedules fn to run once at when.
func (t *Timers) Add(target Handle, when time.Time, fn func(Handle)) uint64 {
	return t.add(&timer{when: when, target: target, fn: fn})
}

// AddRepeating schedules fn to run at start and then every interval.
func (t *Timers) AddRepeating(target Handle, start time.Time, every time.Duration, fn func(Handle)) uint64 {
	return t.add(&timer{when: start, every: every, target: target, fn: fn})
}

func (t *Timers) add(tm *timer) uint64 {
	t.next++
	tm.id = t.next
	t.timers = append(t.timers, tm)
	return tm.id
}

// Cancel removes a single timer.
func (t *Timers) Cancel(id uint64) {
	for i, tm := range t.timers {
		if tm.id == id {
			t.timers = append(t.timers[:i], t.timers[i+1:]...)
			return
		}
	}
}

// CancelFor removes every timer keyed to target.
func (t *Timers) CancelFor(target Handle) {
	kept := t.timers[:0]
	for _, tm := range t.timers {
		if tm.target != target {
			kept = append(kept, tm)
		}
	}
	for i := len(kept); i < len(t.timers); i++ {
		t.timers[i] = nil
	}
	t.timers = kept
}

// Len is the number of scheduled timers.
func (t *Timers) Len() int {
	return len(t.timers)
}

// Next returns when the earliest timer is due.
func (t *Timers) Next() (time.Time, bool) {
	if len(t.timers) == 0 {
		return time.Time{}, false
	}
	earliest := t.timers[0].when
	for _, tm := range t.timers[1:] {
		if tm.when.Before(earliest) {
			earliest = tm.when
		}
	}
	return earliest, true
}

// Tick runs every timer due at now in the order they fall due. alive decides
// if a timer's handle still resolves.
func (t *Timers) Tick(now time.Time, alive func(Handle) bool) {
	var due []*timer
	kept := t.timers[:0]
	for _, tm := range t.timers {
		if tm.when.After(now) {
			kept = append(kept, tm)
			continue
		}
		due = append(due, tm)
	}
	for i := len(kept); i < len(t.timers); i++ {
		t.timers[i] = nil
	}
	t.timers = kept

	sort.SliceStable(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
	for _, tm := range due {
		if tm.target != (Handle{}) && !alive(tm.target) {
			continue
		}
		if tm.every > 0 {
			tm.when = now.Add(tm.every)
			t.timers = append(t.timers, tm)
		}
		tm.fn(tm.target)
	}
}
