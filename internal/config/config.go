// Package config loads application configuration from an optional YAML file
// and environment variables. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Environment variable names.
const (
	EnvConfigFile     = "STREAMHUB_CONFIG_FILE"
	EnvAPIURL         = "STREAMHUB_API_URL"
	EnvTokenSecret    = "STREAMHUB_TOKEN_SECRET"
	EnvListenAddr     = "STREAMHUB_LISTEN_ADDR"
	EnvDBPath         = "STREAMHUB_DB_PATH"
	EnvSessionBackend = "STREAMHUB_SESSION_BACKEND"
	EnvRedisAddr      = "STREAMHUB_REDIS_ADDR"
	EnvRedisPrefix    = "STREAMHUB_REDIS_PREFIX"
	EnvHTTPTimeout    = "STREAMHUB_HTTP_TIMEOUT"
	EnvLogLevel       = "STREAMHUB_LOG_LEVEL"
)

// Config holds the application configuration.
type Config struct {
	APIURL         string
	TokenSecret    string
	ListenAddr     string
	DBPath         string
	SessionBackend string
	RedisAddr      string
	RedisPrefix    string
	HTTPTimeout    time.Duration
	LogLevel       slog.Level
}

// HasTokenSecret reports whether stored credentials will be encrypted.
func (c *Config) HasTokenSecret() bool {
	return c.TokenSecret != ""
}

// fileConfig mirrors the YAML file. Pointers distinguish absent keys from
// empty values.
type fileConfig struct {
	APIURL         *string `yaml:"api_url"`
	TokenSecret    *string `yaml:"token_secret"`
	ListenAddr     *string `yaml:"listen_addr"`
	DBPath         *string `yaml:"db_path"`
	SessionBackend *string `yaml:"session_backend"`
	RedisAddr      *string `yaml:"redis_addr"`
	RedisPrefix    *string `yaml:"redis_prefix"`
	HTTPTimeout    *string `yaml:"http_timeout"`
	LogLevel       *string `yaml:"log_level"`
}

// raw holds unparsed values while the layers are merged.
type raw struct {
	apiURL         string
	tokenSecret    string
	listenAddr     string
	dbPath         string
	sessionBackend string
	redisAddr      string
	redisPrefix    string
	httpTimeout    string
	logLevel       string
}

func defaults() raw {
	return raw{
		apiURL:         "http://localhost:8000/",
		listenAddr:     "127.0.0.1:8080",
		dbPath:         "streamhub.db",
		sessionBackend: BackendSQLite,
		redisPrefix:    "streamhub:",
		httpTimeout:    "30s",
		logLevel:       "info",
	}
}

// Load reads configuration and returns a validated Config.
// Defaults: STREAMHUB_API_URL (http://localhost:8000/), STREAMHUB_LISTEN_ADDR
// (127.0.0.1:8080), STREAMHUB_DB_PATH (streamhub.db), STREAMHUB_SESSION_BACKEND
// (sqlite), STREAMHUB_REDIS_PREFIX (streamhub:), STREAMHUB_HTTP_TIMEOUT (30s),
// STREAMHUB_LOG_LEVEL (info). STREAMHUB_TOKEN_SECRET is optional; without it
// credentials are stored unencrypted.
func Load() (*Config, error) {
	r := defaults()

	if path, ok := os.LookupEnv(EnvConfigFile); ok && path != "" {
		if err := r.applyFile(path); err != nil {
			return nil, err
		}
	}
	r.applyEnv()

	return r.build()
}

func (r *raw) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.apiURL, fc.APIURL)
	set(&r.tokenSecret, fc.TokenSecret)
	set(&r.listenAddr, fc.ListenAddr)
	set(&r.dbPath, fc.DBPath)
	set(&r.sessionBackend, fc.SessionBackend)
	set(&r.redisAddr, fc.RedisAddr)
	set(&r.redisPrefix, fc.RedisPrefix)
	set(&r.httpTimeout, fc.HTTPTimeout)
	set(&r.logLevel, fc.LogLevel)
	return nil
}

func (r *raw) applyEnv() {
	for env, dst := range map[string]*string{
		EnvAPIURL:         &r.apiURL,
		EnvTokenSecret:    &r.tokenSecret,
		EnvListenAddr:     &r.listenAddr,
		EnvDBPath:         &r.dbPath,
		EnvSessionBackend: &r.sessionBackend,
		EnvRedisAddr:      &r.redisAddr,
		EnvRedisPrefix:    &r.redisPrefix,
		EnvHTTPTimeout:    &r.httpTimeout,
		EnvLogLevel:       &r.logLevel,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
}

func (r *raw) build() (*Config, error) {
	var errs []error

	apiURL := strings.TrimSpace(r.apiURL)
	if u, err := url.Parse(apiURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL, got %q", EnvAPIURL, r.apiURL))
	} else if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	timeout, err := time.ParseDuration(r.httpTimeout)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s has invalid duration %q: %w", EnvHTTPTimeout, r.httpTimeout, err))
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", EnvHTTPTimeout, timeout))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(r.logLevel)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
	}

	backend := strings.ToLower(strings.TrimSpace(r.sessionBackend))
	switch backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if r.redisAddr == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", EnvRedisAddr, EnvSessionBackend, BackendRedis))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be one of %s, %s, %s; got %q",
			EnvSessionBackend, BackendSQLite, BackendMemory, BackendRedis, r.sessionBackend))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		APIURL:         apiURL,
		TokenSecret:    r.tokenSecret,
		ListenAddr:     r.listenAddr,
		DBPath:         r.dbPath,
		SessionBackend: backend,
		RedisAddr:      r.redisAddr,
		RedisPrefix:    r.redisPrefix,
		HTTPTimeout:    timeout,
		LogLevel:       level,
	}, nil
}
