package services

import (
	"context"
	"time"

	"github.com/aarondl/uqserv/proto"
	"github.com/pkg/errors"
)

var errUplinkClosed = errors.New("services: Uplink closed the connection")

// Run connects to the uplink and processes what it sends until ctx is done,
// reconnecting whenever the link is lost. Everything that touches the state
// happens on the calling goroutine.
func (s *Services) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics; len(addr) > 0 {
		go func() {
			if err := s.metrics.Serve(ctx, addr, s.log); err != nil {
				s.log.Error("metrics stopped", "err", err)
			}
		}()
	}

	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			s.log.Info("Shutting down")
			return nil
		}

		s.log.Error("Uplink lost", "err", err)
		s.disconnected()

		s.log.Info("Reconnecting", "in", s.reconnect)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnect):
		}
	}
}

// session runs one connection to the uplink.
func (s *Services) session(ctx context.Context) error {
	address := s.cfg.UplinkAddress()
	s.log.Info("Connecting", "uplink", address)

	link, err := s.connProvider(ctx, address)
	if err != nil {
		return err
	}
	defer link.Close()

	ts6 := proto.NewTS6(link, s.state, s.log)
	s.state.SetSender(ts6)
	defer s.state.SetSender(nil)

	if err = ts6.Handshake(s.cfg.Uplink.Password); err != nil {
		return err
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-link.Lines():
			if !ok {
				return errUplinkClosed
			}
			s.handle(line)
		case <-ticker.C:
			s.state.Tick(s.state.Now())
			s.state.Flush()
			s.metrics.Observe(s.state)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle parses and dispatches a single line.
func (s *Services) handle(line string) {
	ev, err := proto.Parse(line)
	if err == proto.ErrEmptyLine {
		return
	} else if err != nil {
		s.log.Error("Failed to parse line", "err", err)
		return
	}

	s.metrics.Event(ev.Name)
	s.dispatcher.Dispatch(ev)
	s.metrics.Observe(s.state)
}

// disconnected forgets the network behind the lost uplink. Our own server,
// bots and channels are kept for the next burst.
func (s *Services) disconnected() {
	s.state.ClearCapab()
	if up := s.state.Uplink(); up != nil {
		up.Delete("Connection lost")
	}
	s.metrics.Observe(s.state)
}
