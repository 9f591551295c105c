package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/models"
)

// Config holds upload settings. Credentials are never part of it: the
// username is a positional argument and the secret is prompted for.
//
// YAML format:
//
//	backend: form
//	endpoint: https://chromedevtools.googlecode.com/files
//	timeout: 30m
//	labels: [Featured, Type-Archive]
//	proxy:
//	  mode: basic
//	  host: proxy.corp
//	  port: 3128
//	  user: builder
//	  no_proxy: "*.internal,10.0.0.0/8"
//	s3:
//	  bucket: chromedevtools-releases
//	  region: us-east-1
//	  prefix: releases/
//	azure:
//	  service_url: https://account.blob.core.windows.net/
//	  container: releases
type Config struct {
	Backend  string        `mapstructure:"backend" validate:"required,oneof=form s3 azure"`
	Endpoint string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Labels   []string      `mapstructure:"labels" validate:"dive,required"`

	Proxy ProxyConfig `mapstructure:"proxy"`
	S3    S3Config    `mapstructure:"s3"`
	Azure AzureConfig `mapstructure:"azure"`
}

// ProxyConfig selects how upload traffic leaves the build machine.
type ProxyConfig struct {
	Mode     string        `mapstructure:"mode" validate:"oneof=no-proxy system basic ntlm"`
	Host     string        `mapstructure:"host" validate:"omitempty,hostname|ip"`
	Port     int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	User     string        `mapstructure:"user"`
	Password models.Secret `mapstructure:"password"`
	NoProxy  string        `mapstructure:"no_proxy"` // Comma-separated hosts/CIDRs to bypass
}

// S3Config configures the s3 backend.
type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Prefix   string `mapstructure:"prefix"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"` // S3-compatible stores
}

// AzureConfig configures the azure backend.
type AzureConfig struct {
	ServiceURL string `mapstructure:"service_url" validate:"omitempty,url"`
	Container  string `mapstructure:"container"`
}

// Validation errors
var (
	ErrMissingEndpoint     = errors.New("endpoint is required for the form backend")
	ErrMissingBucket       = errors.New("s3.bucket is required for the s3 backend")
	ErrMissingRegion       = errors.New("s3.region is required for the s3 backend")
	ErrMissingContainer    = errors.New("azure.container is required for the azure backend")
	ErrMissingProxyHost    = errors.New("proxy.host is required for basic and ntlm proxy modes")
	ErrProxyPasswordNoUser = errors.New("proxy.password is set without proxy.user")
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"backend":  "backend",
	"endpoint": "endpoint",
	"timeout":  "timeout",
	"label":    "labels",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", constants.DefaultBackend)
	v.SetDefault("endpoint", constants.DefaultEndpoint)
	v.SetDefault("timeout", constants.DefaultUploadTimeout)
	v.SetDefault("labels", []string{})

	v.SetDefault("proxy.mode", "system")
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", 0)
	v.SetDefault("proxy.user", "")
	v.SetDefault("proxy.password", "")
	v.SetDefault("proxy.no_proxy", "")

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.endpoint", "")

	v.SetDefault("azure.service_url", "")
	v.SetDefault("azure.container", "")
}

// Load resolves the configuration from, highest priority first: flags that
// were set explicitly, RELENG_* environment variables, the config file, and
// defaults.
//
// If path is empty the default config file is used when it exists; a missing
// default file is not an error. An explicit path must exist.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultConfigPath()); err == nil {
		v.SetConfigFile(DefaultConfigPath())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", DefaultConfigPath(), err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Proxy.Mode = strings.ToLower(strings.TrimSpace(cfg.Proxy.Mode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the settings each backend needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Backend {
	case constants.BackendForm:
		if c.Endpoint == "" {
			return ErrMissingEndpoint
		}
	case constants.BackendS3:
		if c.S3.Bucket == "" {
			return ErrMissingBucket
		}
		if c.S3.Region == "" {
			return ErrMissingRegion
		}
	case constants.BackendAzure:
		if c.Azure.Container == "" {
			return ErrMissingContainer
		}
	}

	switch c.Proxy.Mode {
	case "basic", "ntlm":
		if c.Proxy.Host == "" {
			return ErrMissingProxyHost
		}
	}
	if !c.Proxy.Password.Empty() && c.Proxy.User == "" {
		return ErrProxyPasswordNoUser
	}
	return nil
}
