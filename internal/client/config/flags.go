package config

import (
	"flag"
	"io"
)

// parseFlags reads the global flags preceding the command:
//
//	-addr string        base URL of the server
//	-session string     session file path
//	-timeout duration   per-request timeout
//	-c, -config string  JSON config file (read by parseJSON)
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "addr", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "session file")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")

	var ignored string
	fs.StringVar(&ignored, "c", "", "JSON config file")
	fs.StringVar(&ignored, "config", "", "JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
