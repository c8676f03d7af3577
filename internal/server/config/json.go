package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authservice/internal/flagx"
	"github.com/dmitrijs2005/authservice/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "15m" strings and integer nanoseconds. Absent fields keep
// their previous value.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDriver               *string         `json:"database_driver"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	AccessSecret                 *string         `json:"access_secret"`
	RefreshSecret                *string         `json:"refresh_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	RotateRefreshTokens          *bool           `json:"rotate_refresh_tokens"`
	Environment                  *string         `json:"environment"`
	CookieSecret                 *string         `json:"cookie_secret"`
	RedisAddr                    *string         `json:"redis_addr"`
	RedisCacheTTL                *timex.Duration `json:"redis_cache_ttl"`
	Argon2Memory                 *uint32         `json:"argon2_memory_kib"`
	Argon2Time                   *uint32         `json:"argon2_time"`
	Argon2Parallelism            *uint8          `json:"argon2_parallelism"`
	HashConcurrency              *int64          `json:"hash_concurrency"`
	LogLevel                     *string         `json:"log_level"`
	LogFormat                    *string         `json:"log_format"`
}

// parseJSON overlays values from the file named by -c/-config in args.
// No flag means nothing to load.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessSecret, c.AccessSecret)
	setString(&config.RefreshSecret, c.RefreshSecret)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RotateRefreshTokens != nil {
		config.RotateRefreshTokens = *c.RotateRefreshTokens
	}
	setString(&config.Environment, c.Environment)
	setString(&config.CookieSecret, c.CookieSecret)
	setString(&config.RedisAddr, c.RedisAddr)
	if c.RedisCacheTTL != nil {
		config.RedisCacheTTL = c.RedisCacheTTL.Duration
	}
	if c.Argon2Memory != nil {
		config.Argon2Memory = *c.Argon2Memory
	}
	if c.Argon2Time != nil {
		config.Argon2Time = *c.Argon2Time
	}
	if c.Argon2Parallelism != nil {
		config.Argon2Parallelism = *c.Argon2Parallelism
	}
	if c.HashConcurrency != nil {
		config.HashConcurrency = *c.HashConcurrency
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
