// Package config holds runtime settings for the authctl command-line client.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for authctl.
//
// ServerURL is the base URL of the HTTP API. SessionFile stores the current
// token pair between invocations.
type Config struct {
	ServerURL   string
	SessionFile string
	Timeout     time.Duration
}

// LoadDefaults populates c with defaults. The session file lives in the
// user config directory, or the working directory when there is none.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionFile = defaultSessionFile()
	c.Timeout = 10 * time.Second
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "authctl-session.json"
	}
	return filepath.Join(dir, "authctl", "session.json")
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// the flags at the head of args. The remaining args (the command and its
// arguments) are returned.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
