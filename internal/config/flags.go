package config

import (
	"flag"
	"time"
)

// flags holds command-line values. Each setting has a short and a long name
// bound to the same variable.
type flags struct {
	config  string
	addr    string
	backend string
	db      string
	log     string
	ttl     time.Duration
	timeout time.Duration
	secure  bool
}

func (f *flags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "")
	fs.StringVar(&f.config, "c", "", "")

	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")

	fs.StringVar(&f.backend, "backend", "", "")
	fs.StringVar(&f.backend, "b", "", "")

	fs.StringVar(&f.db, "db", "", "")
	fs.StringVar(&f.db, "d", "", "")

	fs.StringVar(&f.log, "log", "", "")
	fs.StringVar(&f.log, "l", "", "")

	fs.DurationVar(&f.ttl, "session-ttl", 0, "")
	fs.DurationVar(&f.timeout, "timeout", 0, "")
	fs.BoolVar(&f.secure, "secure-cookie", false, "")
}

// apply copies the flags that were set on the command line into c.
func (f *flags) apply(fs *flag.FlagSet, c *Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr", "a":
			c.Addr = f.addr
		case "backend", "b":
			c.BackendURL = f.backend
		case "db", "d":
			c.DBPath = f.db
		case "log", "l":
			c.LogPath = f.log
		case "session-ttl":
			c.SessionTTL = f.ttl
		case "timeout":
			c.HTTPTimeout = f.timeout
		case "secure-cookie":
			c.CookieSecure = f.secure
		}
	})
}
