// Package metrics exports the network's state to prometheus.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aarondl/uqserv/data"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	namespace = "uqserv"
	// Path is where the metrics are served.
	Path = "/metrics"
)

// Collector holds every metric. Gauges are refreshed from the state by
// Observe, counters are fed by hooks and by the event loop.
type Collector struct {
	registry *prometheus.Registry

	users    prometheus.Gauge
	peak     prometheus.Gauge
	channels prometheus.Gauge
	servers  prometheus.Gauge
	opers    prometheus.Gauge

	events          *prometheus.CounterVec
	bounces         prometheus.Counter
	quits           prometheus.Counter
	kills           prometheus.Counter
	kicks           prometheus.Counter
	channelsCreated prometheus.Counter
}

// New creates a collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	return &Collector{
		registry: reg,

		users:    gauge("users", "Users on the network."),
		peak:     gauge("users_peak", "Most users seen at once."),
		channels: gauge("channels", "Channels on the network."),
		servers:  gauge("servers", "Servers in the tree including ours."),
		opers:    gauge("opers", "Users with the oper mode set."),

		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Lines received from the uplink by command.",
		}, []string{"command"}),
		bounces:         counter("mode_bounces_total", "Channels caught in a mode fight."),
		quits:           counter("quits_total", "Users that left the network."),
		kills:           counter("kills_total", "Users killed off the network."),
		kicks:           counter("kicks_total", "Users kicked from channels."),
		channelsCreated: counter("channels_created_total", "Channels created."),
	}
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Watch counts state events through its hooks.
func (c *Collector) Watch(hooks *data.Hooks) {
	hooks.OnModeBounce(func(*data.Channel) { c.bounces.Inc() })
	hooks.OnUserQuit(func(_ *data.User, reason string) {
		c.quits.Inc()
		if strings.HasPrefix(reason, "Killed (") {
			c.kills.Inc()
		}
	})
	hooks.OnKick(func(string, *data.Channel, *data.User, string) { c.kicks.Inc() })
	hooks.OnChannelCreate(func(*data.Channel) { c.channelsCreated.Inc() })
}

// Event counts a line received from the uplink.
func (c *Collector) Event(command string) {
	c.events.WithLabelValues(command).Inc()
}

// Observe refreshes the gauges, it must be called where the state is owned.
func (c *Collector) Observe(s *data.State) {
	c.users.Set(float64(s.UserCount()))
	c.peak.Set(float64(s.MaxUserCount()))
	c.channels.Set(float64(s.ChannelCount()))
	c.servers.Set(float64(len(s.Servers())))
	c.opers.Set(float64(s.OperCount()))
}

// Handler serves the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve listens on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger log15.Logger) error {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	mux := http.NewServeMux()
	mux.Handle(Path, c.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "metrics: serve failed")
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		return errors.Wrap(err, "metrics: shutdown failed")
	}
	return nil
}
