package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/authservice/internal/flagx"
)

// parseFlags overlays selected Config fields from command-line flags.
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC bind address (e.g. ":50051")
//	-b string     database driver: pgx or sqlite
//	-d string     database DSN
//	-s string     access token secret
//	-p string     refresh token secret
//	-t duration   access token validity (e.g. 15m)
//	-r duration   refresh token validity (e.g. 168h)
//	-e string     environment: development or production
//	-k string     cookie signing secret
//	-redis string Redis address for the refresh token cache
//	-l string     log level
//
// Args are filtered through flagx.FilterArgs first so flags owned by other
// components (-c) do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-b", "-d", "-s", "-p", "-t", "-r", "-e", "-k", "-redis", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDriver, "b", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessSecret, "s", config.AccessSecret, "access token secret")
	fs.StringVar(&config.RefreshSecret, "p", config.RefreshSecret, "refresh token secret")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (development|production)")
	fs.StringVar(&config.CookieSecret, "k", config.CookieSecret, "cookie signing secret")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for token cache")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
