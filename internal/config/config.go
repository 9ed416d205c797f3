package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// StaffAccount binds a shared secret to a staff identity.
type StaffAccount struct {
	Password string `mapstructure:"password" json:"password"`
	Role     string `mapstructure:"role" json:"role"`
	Label    string `mapstructure:"label" json:"label"`
	Color    string `mapstructure:"color" json:"color"`
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	BodyLimitMB            int
	DatabaseURL            string
	DatabaseMaxOpenConns   int
	DatabaseMaxIdleConns   int
	RedisURL               string
	StatsCacheTTL          time.Duration
	TrackingPrefix         string
	OpenAIAPIKey           string
	AIModel                string
	AITimeout              time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadTimeout          time.Duration
	MaxImageMB             int
	PresenceWindow         time.Duration
	SubmitRateLimit        int
	VerifyRateLimit        int
	PrivilegedRole         string
	StaffAccounts          []StaffAccount
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether verbose error details may be returned to clients.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration values from environment variables, an optional .env file
// and an optional config.yaml.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SUGGEST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetDefault("app.name", "Suggestion Box API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.body_limit_mb", 10)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("stats.cache_ttl", "30s")
	v.SetDefault("tracking.prefix", "SUG")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", "10s")
	v.SetDefault("cloudinary.folder", "suggestion-box/attachments")
	v.SetDefault("upload.timeout", "20s")
	v.SetDefault("upload.max_image_mb", 5)
	v.SetDefault("presence.window", "35s")
	v.SetDefault("ratelimit.submit_max", 5)
	v.SetDefault("ratelimit.verify_max", 10)
	v.SetDefault("staff.privileged_role", string(models.RoleSuperAdmin))

	statsTTL, err := parseDuration(v, "stats.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	aiTimeout, err := parseDuration(v, "ai.timeout")
	if err != nil {
		return Config{}, err
	}
	uploadTimeout, err := parseDuration(v, "upload.timeout")
	if err != nil {
		return Config{}, err
	}
	presenceWindow, err := parseDuration(v, "presence.window")
	if err != nil {
		return Config{}, err
	}

	accounts, err := loadStaffAccounts(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 strings.ToLower(v.GetString("app.env")),
		AppPort:                v.GetString("app.port"),
		BodyLimitMB:            v.GetInt("app.body_limit_mb"),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseMaxOpenConns:   v.GetInt("database.max_open_conns"),
		DatabaseMaxIdleConns:   v.GetInt("database.max_idle_conns"),
		RedisURL:               v.GetString("redis.url"),
		StatsCacheTTL:          statsTTL,
		TrackingPrefix:         strings.ToUpper(strings.TrimSpace(v.GetString("tracking.prefix"))),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AIModel:                v.GetString("ai.model"),
		AITimeout:              aiTimeout,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadTimeout:          uploadTimeout,
		MaxImageMB:             v.GetInt("upload.max_image_mb"),
		PresenceWindow:         presenceWindow,
		SubmitRateLimit:        v.GetInt("ratelimit.submit_max"),
		VerifyRateLimit:        v.GetInt("ratelimit.verify_max"),
		PrivilegedRole:         v.GetString("staff.privileged_role"),
		StaffAccounts:          accounts,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 10
	}

	if cfg.MaxImageMB <= 0 {
		cfg.MaxImageMB = 5
	}

	if cfg.TrackingPrefix == "" {
		cfg.TrackingPrefix = "SUG"
	}

	if !models.StaffRole(cfg.PrivilegedRole).IsValid() {
		return Config{}, fmt.Errorf("privileged role %q is not a known staff role", cfg.PrivilegedRole)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}

// loadStaffAccounts prefers the JSON env override and falls back to the config file.
func loadStaffAccounts(v *viper.Viper) ([]StaffAccount, error) {
	var accounts []StaffAccount

	if raw := strings.TrimSpace(v.GetString("staff.accounts_json")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
			return nil, fmt.Errorf("invalid staff accounts json: %w", err)
		}
	} else if err := v.UnmarshalKey("staff.accounts", &accounts); err != nil {
		return nil, fmt.Errorf("invalid staff accounts: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("at least one staff account must be configured")
	}

	seen := make(map[string]struct{}, len(accounts))
	labels := make(map[string]int, len(accounts))
	for i, account := range accounts {
		account.Password = strings.TrimSpace(account.Password)
		account.Role = strings.ToLower(strings.TrimSpace(account.Role))
		account.Label = strings.TrimSpace(account.Label)

		if account.Password == "" {
			return nil, fmt.Errorf("staff account %d has an empty password", i)
		}
		if !models.StaffRole(account.Role).IsValid() {
			return nil, fmt.Errorf("staff account %d has unknown role %q", i, account.Role)
		}
		if account.Label == "" {
			account.Label = account.Role
		}
		if _, dup := seen[account.Password]; dup {
			return nil, fmt.Errorf("staff account %d reuses another account's password", i)
		}
		seen[account.Password] = struct{}{}
		// Presence is keyed by label, so labels must be distinct too.
		key := strings.ToLower(account.Label)
		if first, dup := labels[key]; dup {
			return nil, fmt.Errorf("staff account %d reuses the label %q of account %d", i, account.Label, first)
		}
		labels[key] = i
		accounts[i] = account
	}

	return accounts, nil
}
