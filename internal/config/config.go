package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	PasswordScheme string `mapstructure:"password_scheme"` // bcrypt / pbkdf2 / sha256
	BcryptCost     int    `mapstructure:"bcrypt_cost"`
	EncryptionKey  string `mapstructure:"encryption_key"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

// MirrorConfig describes where the database file is pushed after each write.
type MirrorConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Backend        string `mapstructure:"backend"` // github / dir
	APIURL         string `mapstructure:"api_url"`
	Owner          string `mapstructure:"owner"`
	Repo           string `mapstructure:"repo"`
	Branch         string `mapstructure:"branch"`
	Path           string `mapstructure:"path"`
	Token          string `mapstructure:"token"`
	Dir            string `mapstructure:"dir"`
	MaxRetries     int    `mapstructure:"max_retries"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type AppSubConfig struct {
	MultiUser        bool `mapstructure:"multi_user"`
	StrictCategories bool `mapstructure:"strict_categories"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	App      AppSubConfig   `mapstructure:"app"`
}

const envPrefix = "PFT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "finance_tracker.db")
	v.SetDefault("database.log_mode", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "finance-tracker")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("security.password_scheme", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.encryption_key", "")

	v.SetDefault("log.file", "")

	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.backend", "github")
	v.SetDefault("mirror.api_url", "https://api.github.com")
	v.SetDefault("mirror.owner", "")
	v.SetDefault("mirror.repo", "")
	v.SetDefault("mirror.branch", "main")
	v.SetDefault("mirror.path", "finance_tracker.db")
	v.SetDefault("mirror.token", "")
	v.SetDefault("mirror.dir", "backups")
	v.SetDefault("mirror.max_retries", 0)
	v.SetDefault("mirror.timeout_seconds", 30)

	v.SetDefault("app.multi_user", false)
	v.SetDefault("app.strict_categories", true)
}

// Load reads configuration from path (or ./config.yaml when path is empty).
// A missing config.yaml is not an error when no explicit path was given;
// defaults plus PFT_* environment variables are used instead. An optional
// .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. PFT_MIRROR_TOKEN=...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path is empty")
	}
	switch c.Security.PasswordScheme {
	case "bcrypt", "pbkdf2", "sha256":
	default:
		return fmt.Errorf("config: unknown security.password_scheme %q", c.Security.PasswordScheme)
	}
	if c.App.MultiUser && c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required when app.multi_user is on")
	}
	if c.Mirror.Enabled {
		switch c.Mirror.Backend {
		case "github":
			if c.Mirror.Owner == "" || c.Mirror.Repo == "" {
				return fmt.Errorf("config: mirror.owner and mirror.repo are required for the github backend")
			}
			if c.Mirror.Token == "" {
				return fmt.Errorf("config: mirror.token is required for the github backend (set PFT_MIRROR_TOKEN)")
			}
		case "dir":
			if c.Mirror.Dir == "" {
				return fmt.Errorf("config: mirror.dir is required for the dir backend")
			}
		default:
			return fmt.Errorf("config: unknown mirror.backend %q", c.Mirror.Backend)
		}
		if c.Mirror.Path == "" {
			return fmt.Errorf("config: mirror.path is empty")
		}
		if c.Mirror.MaxRetries < 0 {
			return fmt.Errorf("config: mirror.max_retries must not be negative")
		}
	}
	return nil
}
