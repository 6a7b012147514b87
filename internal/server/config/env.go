package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type lookupFunc func(key string) (string, bool)

// Environment variable names. The AppSettings ones follow the
// double-underscore section convention.
const (
	envHTTPAddr       = "HTTP_ADDR"
	envGRPCAddr       = "GRPC_ADDR"
	envDatabaseDSN    = "DATABASE_DSN"
	envToken          = "APPSETTINGS__TOKEN"
	envIssuer         = "APPSETTINGS__ISSUER"
	envAudience       = "APPSETTINGS__AUDIENCE"
	envAccessTTL      = "ACCESS_TOKEN_TTL"
	envRefreshTTL     = "REFRESH_TOKEN_TTL"
	envRedisURL       = "REDIS_URL"
	envAuthRateLimit  = "AUTH_RATE_LIMIT_PER_MINUTE"
	envLogLevel       = "LOG_LEVEL"
	envBootstrapAdmin = "BOOTSTRAP_ADMIN"
	envAdminUsername  = "ADMIN_USERNAME"
	envAdminEmail     = "ADMIN_EMAIL"
	envAdminPassword  = "ADMIN_PASSWORD"
)

// loadDotEnv reads ./.env once (values already in the environment win) and
// then behaves like os.LookupEnv.
func loadDotEnv(key string) (string, bool) {
	dotEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ignoring .env: %v\n", err)
		}
	})
	return os.LookupEnv(key)
}

var dotEnvOnce sync.Once

func parseEnv(c *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(envHTTPAddr, &c.HTTPAddr)
	str(envGRPCAddr, &c.GRPCAddr)
	str(envDatabaseDSN, &c.DatabaseDSN)
	str(envToken, &c.SecretKey)
	str(envIssuer, &c.Issuer)
	str(envAudience, &c.Audience)
	str(envRedisURL, &c.RedisURL)
	str(envLogLevel, &c.LogLevel)
	str(envAdminUsername, &c.AdminUsername)
	str(envAdminEmail, &c.AdminEmail)
	str(envAdminPassword, &c.AdminPassword)

	var errs []error
	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	duration(envAccessTTL, &c.AccessTokenValidityDuration)
	duration(envRefreshTTL, &c.RefreshTokenValidityDuration)

	if v, ok := lookup(envAuthRateLimit); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", envAuthRateLimit, err))
		} else {
			c.AuthRateLimitPerMinute = n
		}
	}
	if v, ok := lookup(envBootstrapAdmin); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", envBootstrapAdmin, err))
		} else {
			c.BootstrapAdmin = b
		}
	}

	return errors.Join(errs...)
}
