/*
Package dispatch feeds protocol events into the network state. Core handlers
keep the state in step with the network and further handlers can be
registered per event and channel to observe what happened.

Events are handled one at a time on the caller's goroutine.
*/
package dispatch

import (
	"runtime/debug"
	"strings"

	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/irc"
	"gopkg.in/inconshreveable/log15.v2"
)

// Handler is the interface for use with normal dispatching
type Handler interface {
	Handle(ev *irc.Event)
}

// HandlerFunc implements the Handler interface
type HandlerFunc func(ev *irc.Event)

// Handle implements Handler interface
func (h HandlerFunc) Handle(ev *irc.Event) {
	h(ev)
}

// Dispatcher is made for handling dispatching of tokenized protocol events.
type Dispatcher struct {
	log   log15.Logger
	state *data.State
	trie  *trie
}

// NewDispatcher initializes an empty dispatcher ready to register events.
// logger may be nil to discard logs.
func NewDispatcher(state *data.State, logger log15.Logger) *Dispatcher {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	return &Dispatcher{
		log:   logger.New("pkg", "dispatch"),
		state: state,
		trie:  newTrie(),
	}
}

// State is the state the dispatcher feeds.
func (d *Dispatcher) State() *data.State {
	return d.state
}

// Register registers an event handler to a particular event. In return a
// unique identifer is given to later pass into Unregister in case of a need
// to unregister the event handler. An empty channel or event doesn't filter
// on that parameter. Handlers run in the order they were registered.
func (d *Dispatcher) Register(channel, event string, handler Handler) uint64 {
	if event == irc.RAW {
		event = ""
	}
	return d.trie.register(event, channel, handler)
}

// Unregister uses the identifier returned by Register to unregister a
// callback from the Dispatcher. If the callback was removed it returns
// true, false if it could not be found.
func (d *Dispatcher) Unregister(id uint64) bool {
	return d.trie.unregister(id)
}

// Dispatch runs every handler for the event then sends the mode changes
// they stacked.
func (d *Dispatcher) Dispatch(ev *irc.Event) {
	d.dispatch(ev)
	d.state.Flush()
}

func (d *Dispatcher) dispatch(ev *irc.Event) {
	ev.Name = strings.ToUpper(ev.Name)

	for _, h := range d.trie.handlers(ev.Name, eventChannel(ev)) {
		d.run(h, ev)
	}
}

func (d *Dispatcher) run(h Handler, ev *irc.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic", "event", ev.String(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h.Handle(ev)
}

// eventChannel finds the channel an event is about. TS6 puts a timestamp
// before the channel in some commands.
func eventChannel(ev *irc.Event) string {
	for i := 0; i < 2 && i < len(ev.Args); i++ {
		for _, target := range ev.SplitArgs(i) {
			if irc.IsChannel(target) {
				return target
			}
		}
		if !isTS(ev.Args[i]) {
			break
		}
	}
	return ""
}

func isTS(arg string) bool {
	if len(arg) == 0 {
		return false
	}
	for i := 0; i < len(arg); i++ {
		if arg[i] < '0' || arg[i] > '9' {
			return false
		}
	}
	return true
}
