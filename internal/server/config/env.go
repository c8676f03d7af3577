package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// envConfig mirrors the environment variables the server understands.
// It is pre-filled from the current Config so unset variables keep the
// values coming from defaults or the JSON file.
type envConfig struct {
	EndpointAddrHTTP             string        `env:"AUTH_HTTP_ADDR"`
	EndpointAddrGRPC             string        `env:"AUTH_GRPC_ADDR"`
	DatabaseDriver               string        `env:"AUTH_DB_DRIVER"`
	DatabaseDSN                  string        `env:"DATABASE_URL"`
	AccessSecret                 string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret                string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"JWT_ACCESS_EXPIRATION"`
	RefreshTokenValidityDuration time.Duration `env:"JWT_REFRESH_EXPIRATION"`
	RotateRefreshTokens          bool          `env:"AUTH_ROTATE_REFRESH_TOKENS"`
	Environment                  string        `env:"APP_ENV"`
	CookieSecret                 string        `env:"COOKIE_SECRET"`
	RedisAddr                    string        `env:"REDIS_ADDR"`
	RedisCacheTTL                time.Duration `env:"REDIS_CACHE_TTL"`
	Argon2Memory                 uint32        `env:"ARGON2_MEMORY_KIB"`
	Argon2Time                   uint32        `env:"ARGON2_TIME"`
	Argon2Parallelism            uint8         `env:"ARGON2_PARALLELISM"`
	HashConcurrency              int64         `env:"AUTH_HASH_CONCURRENCY"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	LogFormat                    string        `env:"LOG_FORMAT"`
}

// parseEnv loads an optional .env file and overlays environment variables.
func parseEnv(config *Config) error {
	_ = godotenv.Load()

	e := envConfig{
		EndpointAddrHTTP:             config.EndpointAddrHTTP,
		EndpointAddrGRPC:             config.EndpointAddrGRPC,
		DatabaseDriver:               config.DatabaseDriver,
		DatabaseDSN:                  config.DatabaseDSN,
		AccessSecret:                 config.AccessSecret,
		RefreshSecret:                config.RefreshSecret,
		AccessTokenValidityDuration:  config.AccessTokenValidityDuration,
		RefreshTokenValidityDuration: config.RefreshTokenValidityDuration,
		RotateRefreshTokens:          config.RotateRefreshTokens,
		Environment:                  config.Environment,
		CookieSecret:                 config.CookieSecret,
		RedisAddr:                    config.RedisAddr,
		RedisCacheTTL:                config.RedisCacheTTL,
		Argon2Memory:                 config.Argon2Memory,
		Argon2Time:                   config.Argon2Time,
		Argon2Parallelism:            config.Argon2Parallelism,
		HashConcurrency:              config.HashConcurrency,
		LogLevel:                     config.LogLevel,
		LogFormat:                    config.LogFormat,
	}

	if err := cleanenv.ReadEnv(&e); err != nil {
		return err
	}

	config.EndpointAddrHTTP = e.EndpointAddrHTTP
	config.EndpointAddrGRPC = e.EndpointAddrGRPC
	config.DatabaseDriver = e.DatabaseDriver
	config.DatabaseDSN = e.DatabaseDSN
	config.AccessSecret = e.AccessSecret
	config.RefreshSecret = e.RefreshSecret
	config.AccessTokenValidityDuration = e.AccessTokenValidityDuration
	config.RefreshTokenValidityDuration = e.RefreshTokenValidityDuration
	config.RotateRefreshTokens = e.RotateRefreshTokens
	config.Environment = e.Environment
	config.CookieSecret = e.CookieSecret
	config.RedisAddr = e.RedisAddr
	config.RedisCacheTTL = e.RedisCacheTTL
	config.Argon2Memory = e.Argon2Memory
	config.Argon2Time = e.Argon2Time
	config.Argon2Parallelism = e.Argon2Parallelism
	config.HashConcurrency = e.HashConcurrency
	config.LogLevel = e.LogLevel
	config.LogFormat = e.LogFormat

	return nil
}
