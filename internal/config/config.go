// Package config loads the kernel's startup configuration from a YAML
// file plus environment overrides, the way cmd/bd's config layer does
// it (see the teacher's internal/labelmutex.ParseMutexGroups and
// cmd/bd/config.go): a scoped *viper.Viper instance per load rather
// than viper's global singleton, so tests can load independent
// instances without cross-contamination.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage configures the SQL store.
type Storage struct {
	// DSN is the modernc.org/sqlite data source name, e.g. "file:geoplaces.db".
	DSN string `mapstructure:"dsn"`
}

// Server configures the transport surface the core is embedded into.
// Transport itself is out of scope (spec.md §1) but its bind address
// is ambient startup configuration every deployment needs.
type Server struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Tokens holds the account lifecycle's token settings. SweepInterval
// drives the expired-token sweep in cmd/geoplacesd. EmailConfirmTTL,
// PasswordResetTTL and ReviewTokenTTL are loaded but not read by
// accounts.Service, which issues confirmation and reset tokens with
// the fixed accounts.UserTokenTTL (24h).
type Tokens struct {
	EmailConfirmTTL time.Duration `mapstructure:"email_confirm_ttl"`
	PasswordResetTTL time.Duration `mapstructure:"password_reset_ttl"`
	ReviewTokenTTL   time.Duration `mapstructure:"review_token_ttl"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

// PopularTagsCache configures the process-wide cache spec.md §9
// describes for most_popular_place_revision_tags.
type PopularTagsCache struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Reminders configures the stale-place reminder sweep (spec.md §4.8).
type Reminders struct {
	Enabled        bool          `mapstructure:"enabled"`
	UnchangedAfter time.Duration `mapstructure:"unchanged_after"`
	ResendPeriod   time.Duration `mapstructure:"resend_period"`
}

// Notifications configures which notification kinds are forwarded to
// the configured NotificationGateway (spec.md §6: "the core filters by
// a configured allowed-set").
type Notifications struct {
	Allowed []string `mapstructure:"allowed"`
}

// SMTP configures the smtpmail.Gateway, when email delivery is wired
// to SMTP rather than a webhook or no-op.
type SMTP struct {
	Addr     string `mapstructure:"addr"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Webhook configures the webhooknotify.Gateway.
type Webhook struct {
	URL        string `mapstructure:"url"`
	MaxRetries uint64 `mapstructure:"max_retries"`
}

// Config is the kernel's full startup configuration.
type Config struct {
	Storage        Storage          `mapstructure:"storage"`
	Server         Server           `mapstructure:"server"`
	Tokens         Tokens           `mapstructure:"tokens"`
	PopularTags    PopularTagsCache `mapstructure:"popular_tags_cache"`
	Reminders      Reminders        `mapstructure:"reminders"`
	Notifications  Notifications    `mapstructure:"notifications"`
	SMTP           SMTP             `mapstructure:"smtp"`
	Webhook        Webhook          `mapstructure:"webhook"`
	BcryptCost     int              `mapstructure:"bcrypt_cost"`
}

// defaults matches the spec's callouts: 1-hour popular-tags TTL
// (spec.md §9), a 1-hour password_reset_ttl default (loaded only; see
// Tokens), bcrypt.DefaultCost when unset.
func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.dsn", "file:geoplaces.db")
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("tokens.email_confirm_ttl", 24*time.Hour)
	v.SetDefault("tokens.password_reset_ttl", time.Hour)
	v.SetDefault("tokens.review_token_ttl", 7*24*time.Hour)
	v.SetDefault("tokens.sweep_interval", time.Hour)
	v.SetDefault("popular_tags_cache.ttl", time.Hour)
	v.SetDefault("reminders.enabled", false)
	v.SetDefault("reminders.unchanged_after", 90*24*time.Hour)
	v.SetDefault("reminders.resend_period", 14*24*time.Hour)
	v.SetDefault("notifications.allowed", []string{
		"place_added", "place_updated", "event_added", "event_updated",
		"user_registered", "user_reset_password_requested", "reminder_created",
	})
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("bcrypt_cost", 0) // 0 means bcrypt.DefaultCost
}

// Load reads configPath (if non-empty and present) as YAML, overlays
// GEOPLACES_-prefixed environment variables (nested keys joined by
// underscore, e.g. GEOPLACES_STORAGE_DSN), and unmarshals into a
// Config. A missing configPath is not an error: defaults plus
// environment overrides are a complete, valid configuration.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("geoplaces")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
