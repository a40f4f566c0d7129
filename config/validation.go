package config

import (
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/gobwas/glob"
	"gopkg.in/inconshreveable/log15.v2"
)

// errList is an array of errors.
type errList []error

// addError records a problem loading the configuration. These are kept
// across validations.
func (c *Config) addError(format string, args ...interface{}) {
	c.loadErrors.addError(format, args...)
	c.errors = append(c.errors, c.loadErrors[len(c.loadErrors)-1])
}

// addError builds an error object and appends it to this instances errors.
func (l *errList) addError(format string, args ...interface{}) {
	*l = append(*l, fmt.Errorf(format, args...))
}

// Validate checks to see if the configuration is valid. If errors are found in
// the config the Config.Errors() will return the validation errors.
// These can be used to display to the user. See DisplayErrors for a display
// helper.
func (c *Config) Validate() bool {
	ers := append(errList(nil), c.loadErrors...)

	c.validateGlobal(&ers)
	c.validateServer(&ers)
	c.validateUplink(&ers)
	c.validateOptions(&ers)
	c.validateBots(&ers)
	c.validateOpers(&ers)

	c.errors = ers
	return len(ers) == 0
}

func (c *Config) validateGlobal(ers *errList) {
	if len(c.LogLevel) > 0 {
		if _, err := log15.LvlFromString(c.LogLevel); err != nil {
			ers.addError(fmtErrInvalid, "global", "loglevel", c.LogLevel)
		}
	}
	if len(c.Metrics) > 0 && !isHostPort(c.Metrics) {
		ers.addError(fmtErrInvalid, "global", "metrics", c.Metrics)
	}
}

func (c *Config) validateServer(ers *errList) {
	s := c.Server
	if len(s.Name) == 0 {
		ers.addError(fmtErrMissing, "server", "name")
	} else if !govalidator.IsDNSName(s.Name) || !strings.Contains(s.Name, ".") {
		ers.addError(fmtErrInvalid, "server", "name", s.Name)
	}

	if len(s.SID) == 0 {
		ers.addError(fmtErrMissing, "server", "sid")
	} else if !isSID(s.SID) {
		ers.addError(fmtErrInvalid, "server", "sid", s.SID)
	}

	if len(s.Description) == 0 {
		ers.addError(fmtErrMissing, "server", "description")
	}
}

func (c *Config) validateUplink(ers *errList) {
	u := c.Uplink
	if len(u.Host) == 0 {
		ers.addError(fmtErrMissing, "uplink", "host")
	} else if !govalidator.IsHost(u.Host) {
		ers.addError(fmtErrInvalid, "uplink", "host", u.Host)
	}

	if u.Port < 0 || u.Port > 65535 {
		ers.addError(fmtErrInvalid, "uplink", "port", u.Port)
	}
	if len(u.Password) == 0 {
		ers.addError(fmtErrMissing, "uplink", "password")
	} else if strings.ContainsAny(u.Password, " :") {
		ers.addError(fmtErrInvalid, "uplink", "password", "(contains a space or colon)")
	}
}

func (c *Config) validateOptions(ers *errList) {
	o := c.Options
	if o.BadPassLimit != nil && *o.BadPassLimit < 0 {
		ers.addError(fmtErrInvalid, "options", "badpasslimit", *o.BadPassLimit)
	}
	if o.BSMinUsers != nil && *o.BSMinUsers < 0 {
		ers.addError(fmtErrInvalid, "options", "bsminusers", *o.BSMinUsers)
	}
	if o.BounceWindow != nil && o.BounceWindow.Duration <= 0 {
		ers.addError(fmtErrInvalid, "options", "bouncewindow", o.BounceWindow.Duration)
	}
	if o.MaxModes < 0 {
		ers.addError(fmtErrInvalid, "options", "maxmodes", o.MaxModes)
	}
	for _, pattern := range o.ULines {
		if _, err := glob.Compile(strings.ToLower(pattern), '.'); err != nil {
			ers.addError(fmtErrInvalid, "options", "uline", pattern)
		}
	}
}

func (c *Config) validateBots(ers *errList) {
	chanServ := 0
	for i, b := range c.Bots {
		ctx := fmt.Sprintf("bots.%d", i)
		if len(b.Nick) == 0 {
			ers.addError(fmtErrMissing, ctx, "nick")
		} else if strings.ContainsAny(b.Nick, " ,*?!@") || b.Nick[0] == '#' || isDigit(b.Nick[0]) {
			ers.addError(fmtErrInvalid, ctx, "nick", b.Nick)
		}
		if len(b.Ident) == 0 {
			ers.addError(fmtErrMissing, ctx, "ident")
		}
		if len(b.Host) == 0 {
			ers.addError(fmtErrMissing, ctx, "host")
		} else if !govalidator.IsDNSName(b.Host) {
			ers.addError(fmtErrInvalid, ctx, "host", b.Host)
		}
		if len(b.Realname) == 0 {
			ers.addError(fmtErrMissing, ctx, "realname")
		}
		if b.ChanServ {
			chanServ++
		}
	}
	if chanServ > 1 {
		ers.addError(errMsgManyChanServ)
	}
}

func (c *Config) validateOpers(ers *errList) {
	seen := make(map[string]bool)
	for i, o := range c.Opers {
		ctx := fmt.Sprintf("opers.%d", i)
		if len(o.Name) == 0 {
			ers.addError(fmtErrMissing, ctx, "name")
			continue
		}
		if seen[strings.ToLower(o.Name)] {
			ers.addError(fmtErrInvalid, ctx, "name (duplicate)", o.Name)
		}
		seen[strings.ToLower(o.Name)] = true

		if len(o.Vhost) > 0 && !govalidator.IsDNSName(o.Vhost) {
			ers.addError(fmtErrInvalid, ctx, "vhost", o.Vhost)
		}
		for _, h := range o.Hosts {
			if !strings.Contains(h, "@") {
				ers.addError(fmtErrInvalid, ctx, "host (want ident@host)", h)
			}
		}
	}
}

func isHostPort(address string) bool {
	i := strings.LastIndexByte(address, ':')
	if i < 0 {
		return false
	}
	host, port := address[:i], address[i+1:]
	return (len(host) == 0 || govalidator.IsHost(strings.Trim(host, "[]"))) && govalidator.IsPort(port)
}

// isSID checks for a TS6 server id, a digit then two digits or uppercase
// letters.
func isSID(sid string) bool {
	if len(sid) != 3 || !isDigit(sid[0]) {
		return false
	}
	for i := 1; i < 3; i++ {
		if !isDigit(sid[i]) && (sid[i] < 'A' || sid[i] > 'Z') {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
