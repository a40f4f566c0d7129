/*
Package config creates a configuration using toml.

An example configuration looks like this:

	storefile = "/path/to/store/file.db"
	loglevel = "info"
	# Logs go to stderr unless a file is given.
	logfile = "/path/to/uqserv.log"
	# Serve prometheus metrics here, leave empty to disable.
	metrics = "localhost:9100"

	[server]
		name = "services.example.net"
		sid = "00A"
		description = "Network Services"

	[uplink]
		host = "hub.example.net"
		port = 6667
		# Prefer UQSERV_UPLINK_PASSWORD in the environment or a .env file.
		password = "linkpassword"

	[options]
		badpasslimit = 5
		badpasstimeout = "1h"
		inhabit = "15s"
		bsminusers = 1
		bouncewindow = "1s"
		maxmodes = 4
		guestprefix = "Guest"
		ulines = ["*.services.example.net"]
		defaultbotmodes = "o"

	[[bots]]
		nick = "ChanServ"
		ident = "services"
		host = "services.example.net"
		realname = "Channel Services"
		modes = "+S"
		chanserv = true

	[[opers]]
		name = "root"
		modes = "+o"
		vhost = "staff.example.net"
		hosts = ["*@10.0.0.0/8", "admin@*.example.net"]
		requireoper = true

Everything in options may be left out to use the defaults.
*/
package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aarondl/uqserv/data"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// defaultStoreFile is where the registrations are kept if not overridden.
	defaultStoreFile = "./store.db"
	// defaultLogLevel is used when loglevel is not set.
	defaultLogLevel = "info"
	// defaultUplinkPort is the port dialed when none is given.
	defaultUplinkPort = 6667
)

// The following format strings are for formatting various config errors.
const (
	fmtErrInvalid           = "config(%v): Invalid %v, given: %v"
	fmtErrMissing           = "config(%v): Requires %v, but nothing was given."
	errMsgInvalidConfigFile = "config: Failed to load config file (%v)"
	errMsgUndecoded         = "config: Unknown key %v"
	errMsgManyChanServ      = "config(bots): Only one bot may be chanserv."
)

// Duration is a time.Duration written as a string like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Config holds all the information related to services.
type Config struct {
	StoreFile string `toml:"storefile"`
	LogLevel  string `toml:"loglevel"`
	LogFile   string `toml:"logfile"`
	Metrics   string `toml:"metrics"`

	Server  Server  `toml:"server"`
	Uplink  Uplink  `toml:"uplink"`
	Options Options `toml:"options"`
	Bots    []Bot   `toml:"bots"`
	Opers   []Oper  `toml:"opers"`

	errors     errList
	loadErrors errList
	filename   string
}

// Server is our own server.
type Server struct {
	Name        string `toml:"name"`
	SID         string `toml:"sid"`
	Description string `toml:"description"`
}

// Uplink is the server we link to.
type Uplink struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
}

// Options tune policy, anything left out uses the default.
type Options struct {
	BadPassLimit    *int      `toml:"badpasslimit"`
	BadPassTimeout  *Duration `toml:"badpasstimeout"`
	Inhabit         *Duration `toml:"inhabit"`
	BSMinUsers      *int      `toml:"bsminusers"`
	BounceWindow    *Duration `toml:"bouncewindow"`
	MaxModes        int       `toml:"maxmodes"`
	RequiresID      *bool     `toml:"requiresid"`
	GuestPrefix     string    `toml:"guestprefix"`
	ULines          []string  `toml:"ulines"`
	DefaultBotModes *string   `toml:"defaultbotmodes"`
}

// Bot is a service pseudo client.
type Bot struct {
	Nick     string `toml:"nick"`
	Ident    string `toml:"ident"`
	Host     string `toml:"host"`
	Realname string `toml:"realname"`
	Modes    string `toml:"modes"`
	ChanServ bool   `toml:"chanserv"`
}

// Oper is a services operator block.
type Oper struct {
	Name        string   `toml:"name"`
	Modes       string   `toml:"modes"`
	Vhost       string   `toml:"vhost"`
	Hosts       []string `toml:"hosts"`
	RequireOper bool     `toml:"requireoper"`
}

// New initializes an empty Config.
func New() *Config {
	return &Config{}
}

// FromFile loads the configuration from a file. Errors are available
// through Errors.
func (c *Config) FromFile(filename string) *Config {
	c.filename = filename

	file, err := os.Open(filename)
	if err != nil {
		c.addError(errMsgInvalidConfigFile, err)
		return c
	}
	defer file.Close()

	return c.FromReader(file)
}

// FromReader loads the configuration from a reader.
func (c *Config) FromReader(reader io.Reader) *Config {
	md, err := toml.DecodeReader(reader, c)
	if err != nil {
		c.addError(errMsgInvalidConfigFile, err)
		return c
	}
	for _, key := range md.Undecoded() {
		c.addError(errMsgUndecoded, key)
	}
	return c
}

// FromString loads the configuration from a string.
func (c *Config) FromString(config string) *Config {
	return c.FromReader(strings.NewReader(config))
}

// Filename is the file the configuration was loaded from.
func (c *Config) Filename() string {
	return c.filename
}

// StoreFilename gets the storefile or the default.
func (c *Config) StoreFilename() string {
	if len(c.StoreFile) > 0 {
		return c.StoreFile
	}
	return defaultStoreFile
}

// UplinkAddress is the host:port to dial.
func (c *Config) UplinkAddress() string {
	port := c.Uplink.Port
	if port == 0 {
		port = defaultUplinkPort
	}
	return net.JoinHostPort(c.Uplink.Host, strconv.Itoa(port))
}

// DataOptions turns the options into state options, starting from the
// defaults.
func (c *Config) DataOptions() data.Options {
	opts := data.DefaultOptions()
	o := c.Options

	if o.BadPassLimit != nil {
		opts.BadPassLimit = *o.BadPassLimit
	}
	if o.BadPassTimeout != nil {
		opts.BadPassTimeout = o.BadPassTimeout.Duration
	}
	if o.Inhabit != nil {
		opts.Inhabit = o.Inhabit.Duration
	}
	if o.BSMinUsers != nil {
		opts.BSMinUsers = *o.BSMinUsers
	}
	if o.BounceWindow != nil {
		opts.BounceWindow = o.BounceWindow.Duration
	}
	if o.MaxModes > 0 {
		opts.MaxModes = o.MaxModes
	}
	if o.RequiresID != nil {
		opts.RequiresID = *o.RequiresID
	}
	if len(o.GuestPrefix) > 0 {
		opts.GuestPrefix = o.GuestPrefix
	}
	if o.DefaultBotModes != nil {
		opts.BotModes = *o.DefaultBotModes
	}
	return opts
}

// DataOpers turns the oper blocks into the state's.
func (c *Config) DataOpers() []*data.Oper {
	opers := make([]*data.Oper, 0, len(c.Opers))
	for _, o := range c.Opers {
		opers = append(opers, &data.Oper{
			Name:        o.Name,
			Modes:       o.Modes,
			Vhost:       o.Vhost,
			Hosts:       append([]string(nil), o.Hosts...),
			RequireOper: o.RequireOper,
		})
	}
	return opers
}

// Errors returns the errors encountered loading and validating.
func (c *Config) Errors() []error {
	ers := make([]error, len(c.errors))
	copy(ers, c.errors)
	return ers
}

// DisplayErrors logs every error.
func (c *Config) DisplayErrors(logger log15.Logger) {
	for _, e := range c.errors {
		logger.Error(e.Error())
	}
}

// Logger creates the root logger from loglevel and logfile.
func (c *Config) Logger() (log15.Logger, error) {
	level := c.LogLevel
	if len(level) == 0 {
		level = defaultLogLevel
	}
	lvl, err := log15.LvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf(fmtErrInvalid, "global", "loglevel", level)
	}

	handler := log15.StreamHandler(os.Stderr, log15.LogfmtFormat())
	if len(c.LogFile) > 0 {
		if handler, err = log15.FileHandler(c.LogFile, log15.LogfmtFormat()); err != nil {
			return nil, err
		}
	}

	logger := log15.New()
	logger.SetHandler(log15.LvlFilterHandler(lvl, handler))
	return logger, nil
}
