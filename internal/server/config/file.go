package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/workboard/internal/flagx"
	"github.com/dmitrijs2005/workboard/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON/YAML files. Pointers distinguish
// "absent" from "zero" so a partial file only overrides what it names.
type FileConfig struct {
	HTTPAddr    *string      `json:"http_addr" yaml:"http_addr"`
	GRPCAddr    *string      `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN *string      `json:"database_dsn" yaml:"database_dsn"`
	AppSettings *AppSettings `json:"app_settings" yaml:"app_settings"`

	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`

	RedisURL               *string `json:"redis_url" yaml:"redis_url"`
	AuthRateLimitPerMinute *int    `json:"auth_rate_limit_per_minute" yaml:"auth_rate_limit_per_minute"`
	LogLevel               *string `json:"log_level" yaml:"log_level"`

	BootstrapAdmin *bool   `json:"bootstrap_admin" yaml:"bootstrap_admin"`
	AdminUsername  *string `json:"admin_username" yaml:"admin_username"`
	AdminEmail     *string `json:"admin_email" yaml:"admin_email"`
	AdminPassword  *string `json:"admin_password" yaml:"admin_password"`
}

// AppSettings groups the token signing settings.
type AppSettings struct {
	Token    *string `json:"token" yaml:"token"`
	Issuer   *string `json:"issuer" yaml:"issuer"`
	Audience *string `json:"audience" yaml:"audience"`
}

// parseFile overlays values from the file named by -c/-config, if any.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	if s := fc.AppSettings; s != nil {
		setString(&c.SecretKey, s.Token)
		setString(&c.Issuer, s.Issuer)
		setString(&c.Audience, s.Audience)
	}
	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration != nil {
		c.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	setString(&c.RedisURL, fc.RedisURL)
	if fc.AuthRateLimitPerMinute != nil {
		c.AuthRateLimitPerMinute = *fc.AuthRateLimitPerMinute
	}
	setString(&c.LogLevel, fc.LogLevel)
	if fc.BootstrapAdmin != nil {
		c.BootstrapAdmin = *fc.BootstrapAdmin
	}
	setString(&c.AdminUsername, fc.AdminUsername)
	setString(&c.AdminEmail, fc.AdminEmail)
	setString(&c.AdminPassword, fc.AdminPassword)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
