package config

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// EnvConfig mirrors Config for environment variables. Pointers stay nil for
// unset variables so that defaults survive. TTL variables carry the unit in
// their name.
type EnvConfig struct {
	EndpointAddrHTTP     *string  `env:"HTTP_ADDRESS"`
	DatabaseDSN          *string  `env:"DATABASE_URL"`
	SecretKey            *string  `env:"HMAC_KEY"`
	AccessTokenTTLMin    *int     `env:"ACCESS_TOKEN_TTL_MIN"`
	RefreshTokenTTLHr    *int     `env:"REFRESH_TOKEN_TTL_HR"`
	ActivationTokenTTLHr *int     `env:"ACTIVATION_TOKEN_TTL_HR"`
	MaxOpenConns         *int     `env:"DB_MAX_CONNS"`
	Storage              *string  `env:"STORAGE"`
	PasswordHasher       *string  `env:"PASSWORD_HASHER"`
	RedisAddr            *string  `env:"REDIS_ADDR"`
	LogLevel             *string  `env:"LOG_LEVEL"`
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"`
}

// loadDotEnv seeds the process environment from a dotenv file. The file
// named by -env-file must exist; the implicit ./.env is optional. Variables
// already present in the environment are not overwritten.
func loadDotEnv(args []string) {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

func parseEnv(config *Config, args []string) {
	loadDotEnv(args)
	if err := applyEnv(context.Background(), config, envconfig.OsLookuper()); err != nil {
		panic(err)
	}
}

// applyEnv overlays values found through l onto config.
func applyEnv(ctx context.Context, config *Config, l envconfig.Lookuper) error {
	var e EnvConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:        &e,
		Lookuper:      l,
		DefaultNoInit: true,
	}); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.SecretKey)
	setDuration(&config.AccessTokenTTL, e.AccessTokenTTLMin, time.Minute)
	setDuration(&config.RefreshTokenTTL, e.RefreshTokenTTLHr, time.Hour)
	setDuration(&config.ActivationTokenTTL, e.ActivationTokenTTLHr, time.Hour)
	if e.MaxOpenConns != nil {
		config.MaxOpenConns = *e.MaxOpenConns
	}
	setString(&config.Storage, e.Storage)
	setString(&config.PasswordHasher, e.PasswordHasher)
	setString(&config.RedisAddr, e.RedisAddr)
	setString(&config.LogLevel, e.LogLevel)
	if len(e.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = e.CORSAllowedOrigins
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *int, unit time.Duration) {
	if v != nil {
		*dst = time.Duration(*v) * unit
	}
}
