package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// "postgres" | "memory" (memory solo para dev/tests)
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Issuer         string `yaml:"issuer"`
		AccessTTL      string `yaml:"access_ttl"`
		RefreshTTL     string `yaml:"refresh_ttl"`
		PrivateKeyPath string `yaml:"private_key_path"`
		PublicKeyPath  string `yaml:"public_key_path"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`
}

// Load lee el YAML, aplica overrides de entorno y defaults sanos.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

// applyEnvOverrides permite pisar los campos sensibles vía env (12-factor):
// el DSN y las rutas de claves no deberían vivir en el YAML commiteado.
func (c *Config) applyEnvOverrides() {
	if v := getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := getenv("JWT_PRIVATE_KEY_PATH"); v != "" {
		c.JWT.PrivateKeyPath = v
	}
	if v := getenv("JWT_PUBLIC_KEY_PATH"); v != "" {
		c.JWT.PublicKeyPath = v
	}
	if v := getenv("JWT_ISSUER"); v != "" {
		c.JWT.Issuer = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Rate.Redis.Addr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.JWT.PublicKeyPath == "" {
		c.JWT.PublicKeyPath = "keys/public_key.pem"
	}
	if c.JWT.PrivateKeyPath == "" {
		c.JWT.PrivateKeyPath = "keys/private_key.pem"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "caxur:rl:"
	}
}

// AccessTTL parsea jwt.access_ttl (fallback 15m).
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWT.AccessTTL, 15*time.Minute)
}

// RefreshTTL parsea jwt.refresh_ttl (fallback 30d).
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWT.RefreshTTL, 720*time.Hour)
}

// LoginWindow parsea rate.login.window (fallback 1m).
func (c *Config) LoginWindow() time.Duration {
	return parseDuration(c.Rate.Login.Window, time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return def
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
