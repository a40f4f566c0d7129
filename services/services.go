/*
Package services joins the packages together into a running services
server: the configuration, the registration store, the network state, the
dispatcher and the uplink.
*/
package services

import (
	"context"
	"time"

	"github.com/aarondl/uqserv/config"
	"github.com/aarondl/uqserv/data"
	"github.com/aarondl/uqserv/dispatch"
	"github.com/aarondl/uqserv/inet"
	"github.com/aarondl/uqserv/irc"
	"github.com/aarondl/uqserv/metrics"
	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// defaultReconnect is how long to wait before dialing the uplink again.
	defaultReconnect = 30 * time.Second
	// tickInterval is how often timers are run.
	tickInterval = time.Second
)

var (
	// ErrInvalidConfig is when New was given an invalid configuration.
	ErrInvalidConfig = errors.New("services: Invalid configuration")
)

// ConnProvider connects to the uplink and returns a started link.
type ConnProvider func(ctx context.Context, address string) (*inet.Link, error)

// Services owns the state and everything that feeds it. Apart from Run and
// Close every method must be called from the goroutine running Run, or
// before Run is called.
type Services struct {
	cfg *config.Config
	log log15.Logger

	store      *data.Store
	state      *data.State
	dispatcher *dispatch.Dispatcher
	core       *dispatch.Core
	metrics    *metrics.Collector

	connProvider ConnProvider
	reconnect    time.Duration
}

// New creates services from a configuration, opening the store file it
// names. logger may be nil to discard logs.
func New(cfg *config.Config, logger log15.Logger) (*Services, error) {
	return newServices(cfg, logger, data.FileStoreProvider(cfg.StoreFilename()), nil)
}

func newServices(cfg *config.Config, logger log15.Logger, storeProvider data.StoreProvider,
	connProvider ConnProvider) (*Services, error) {

	if !cfg.Validate() {
		if logger != nil {
			cfg.DisplayErrors(logger)
		}
		return nil, ErrInvalidConfig
	}

	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	s := &Services{
		cfg:          cfg,
		log:          logger.New("pkg", "services"),
		connProvider: connProvider,
		reconnect:    defaultReconnect,
		metrics:      metrics.New(),
	}
	if s.connProvider == nil {
		s.connProvider = func(ctx context.Context, address string) (*inet.Link, error) {
			return inet.Dial(ctx, address, logger)
		}
	}

	var err error
	if s.store, err = data.NewStore(storeProvider, logger); err != nil {
		return nil, err
	}

	s.state = data.NewState(cfg.DataOptions(), nil, nil, s.store, logger)
	if err = s.setup(logger); err != nil {
		s.store.Close()
		return nil, err
	}
	return s, nil
}

// setup creates our server and bots and hooks up the handlers.
func (s *Services) setup(logger log15.Logger) error {
	cfg := s.cfg

	if err := s.state.SetULines(cfg.Options.ULines); err != nil {
		return err
	}
	for _, o := range cfg.DataOpers() {
		s.state.AddOper(o)
	}

	_, err := s.state.NewServer(nil, cfg.Server.Name, 0, cfg.Server.Description, cfg.Server.SID, false)
	if err != nil {
		return errors.Wrap(err, "services: failed to create our server")
	}

	for _, b := range cfg.Bots {
		bot, err := s.state.NewBot(b.Nick, b.Ident, b.Host, b.Realname, b.Modes)
		if err != nil {
			return errors.Wrapf(err, "services: failed to create bot %s", b.Nick)
		}
		if b.ChanServ {
			s.state.SetChanServ(bot)
		}
	}

	s.metrics.Watch(s.state.Hooks())

	s.dispatcher = dispatch.NewDispatcher(s.state, logger)
	s.core = dispatch.RegisterCore(s.dispatcher)
	s.dispatcher.Register("", irc.PRIVMSG, dispatch.HandlerFunc(s.privmsg))
	return nil
}

// State is the network state. It is owned by the goroutine calling Run.
func (s *Services) State() *data.State {
	return s.state
}

// Dispatcher is where extra handlers are registered.
func (s *Services) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// Metrics is the services' metrics collector.
func (s *Services) Metrics() *metrics.Collector {
	return s.metrics
}

// Close destroys the state and closes the store. Run must have returned.
func (s *Services) Close() error {
	s.state.Teardown()
	return s.store.Close()
}
