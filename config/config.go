package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment   string             `json:"environment"`
	Server        ServerConfig       `json:"server"`
	Database      DatabaseConfig     `json:"database"`
	Redis         RedisConfig        `json:"redis"`
	Lock          LockConfig         `json:"lock"`
	Idempotency   IdempotencyConfig  `json:"idempotency"`
	Provisioning  ProvisioningConfig `json:"provisioning"`
	Cleanup       CleanupConfig      `json:"cleanup"`
	Notifications NotificationConfig `json:"notifications"`
	Security      SecurityConfig     `json:"security"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// LockConfig points at the remote lock service.
type LockConfig struct {
	BaseURL   string        `json:"base_url"`
	APIKey    string        `json:"api_key"`
	PageLimit int           `json:"page_limit"`
	Timeout   time.Duration `json:"timeout"`
}

// IdempotencyConfig selects the record-store backend. "none" degrades
// the engine to stateless operation.
type IdempotencyConfig struct {
	Backend string `json:"backend"`
	TTLDays int    `json:"ttl_days"`
}

// ProvisioningConfig is the full per-property provisioning surface.
type ProvisioningConfig struct {
	PropertyLocks          map[string]string `json:"property_locks"`
	PropertyNames          map[string]string `json:"property_names"`
	PropertyTimezones      map[string]string `json:"property_timezones"`
	DefaultTimezone        string            `json:"default_timezone"`
	CheckinTime            string            `json:"checkin_time"`
	CheckoutTime           string            `json:"checkout_time"`
	MatchToleranceMinutes  int               `json:"match_tolerance_minutes"`
	DuplicateCodeIsSuccess bool              `json:"duplicate_code_is_success"`
	CancelledStatuses      []string          `json:"cancelled_statuses"`
	CancelKeywords         []string          `json:"cancel_keywords"`
	SchedulerSource        string            `json:"scheduler_source"`
}

type CleanupConfig struct {
	GraceDays     float64 `json:"grace_days"`
	OnlyManaged   bool    `json:"only_managed"`
	OnlyTimeBound bool    `json:"only_time_bound"`
	// AllowCodeOnlyMatch relaxes cancellation matching to code value plus
	// the managed/type filters when no window match is found. On a shared
	// device this can hit an unrelated guest's identical four digits; it
	// exists for malformed and legacy codes and defaults off.
	AllowCodeOnlyMatch bool `json:"allow_code_only_match"`
	DryRun             bool `json:"dry_run"`
}

type NotificationConfig struct {
	Enabled   bool          `json:"enabled"`
	Endpoints []string      `json:"endpoints"`
	Secret    string        `json:"secret"`
	Timeout   time.Duration `json:"timeout"`
}

type SecurityConfig struct {
	WebhookToken string `json:"webhook_token"`
}

func LoadConfig() (*Config, error) {
	config := defaultConfig()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configDir, err := filepath.Abs("config")
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	loadFromEnv(config)

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "lodgekey",
			DBName:  "lodgekey",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			TTL:  30 * 24 * time.Hour,
		},
		Lock: LockConfig{
			BaseURL:   "https://connect.getseam.com",
			PageLimit: 200,
			Timeout:   15 * time.Second,
		},
		Idempotency: IdempotencyConfig{
			Backend: "postgres",
		},
		Provisioning: ProvisioningConfig{
			PropertyLocks:          map[string]string{},
			PropertyNames:          map[string]string{},
			PropertyTimezones:      map[string]string{},
			DefaultTimezone:        "US/Eastern",
			CheckinTime:            "12:30",
			CheckoutTime:           "13:00",
			MatchToleranceMinutes:  15,
			DuplicateCodeIsSuccess: true,
			CancelledStatuses:      []string{"cancelled", "canceled", "declined"},
			CancelKeywords:         []string{"cancel", "decline"},
			SchedulerSource:        "aws.events",
		},
		Cleanup: CleanupConfig{
			GraceDays:     1,
			OnlyManaged:   true,
			OnlyTimeBound: true,
		},
		Notifications: NotificationConfig{
			Timeout: 10 * time.Second,
		},
	}
}

func loadFromEnv(config *Config) {
	setString(&config.Server.Port, "SERVER_PORT")

	setString(&config.Database.Host, "DB_HOST")
	setInt(&config.Database.Port, "DB_PORT")
	setString(&config.Database.User, "DB_USER")
	setString(&config.Database.Password, "DB_PASSWORD")
	setString(&config.Database.DBName, "DB_NAME")
	setString(&config.Database.SSLMode, "DB_SSLMODE")

	setString(&config.Redis.Host, "REDIS_HOST")
	setInt(&config.Redis.Port, "REDIS_PORT")
	setString(&config.Redis.Password, "REDIS_PASSWORD")

	setString(&config.Lock.BaseURL, "LOCK_API_URL")
	setString(&config.Lock.APIKey, "LOCK_API_KEY")
	setInt(&config.Lock.PageLimit, "LOCK_PAGE_LIMIT")

	setString(&config.Idempotency.Backend, "IDEMPOTENCY_BACKEND")
	setInt(&config.Idempotency.TTLDays, "IDEMPOTENCY_TTL_DAYS")

	setMap(&config.Provisioning.PropertyLocks, "PROPERTY_LOCK_MAPPING_JSON")
	setMap(&config.Provisioning.PropertyNames, "PROPERTY_NAME_MAPPING_JSON")
	setMap(&config.Provisioning.PropertyTimezones, "PROPERTY_TIMEZONE_MAPPING_JSON")
	setString(&config.Provisioning.DefaultTimezone, "DEFAULT_TIMEZONE")
	setString(&config.Provisioning.CheckinTime, "DEFAULT_CHECKIN_TIME")
	setString(&config.Provisioning.CheckoutTime, "DEFAULT_CHECKOUT_TIME")
	setInt(&config.Provisioning.MatchToleranceMinutes, "MATCH_TIME_TOLERANCE_MINUTES")
	setBool(&config.Provisioning.DuplicateCodeIsSuccess, "DUPLICATE_CODE_IS_SUCCESS")
	setList(&config.Provisioning.CancelledStatuses, "CANCELLED_STATUSES")
	setList(&config.Provisioning.CancelKeywords, "ACTION_CANCEL_KEYWORDS")
	setString(&config.Provisioning.SchedulerSource, "SCHEDULER_SOURCE")

	setFloat(&config.Cleanup.GraceDays, "CLEANUP_GRACE_DAYS")
	setBool(&config.Cleanup.OnlyManaged, "CLEANUP_ONLY_MANAGED")
	setBool(&config.Cleanup.OnlyTimeBound, "CLEANUP_ONLY_TIMEBOUND")
	setBool(&config.Cleanup.AllowCodeOnlyMatch, "ALLOW_CODE_ONLY_MATCH")
	setBool(&config.Cleanup.DryRun, "CLEANUP_DRY_RUN")

	setBool(&config.Notifications.Enabled, "NOTIFICATIONS_ENABLED")
	setList(&config.Notifications.Endpoints, "NOTIFICATION_ENDPOINTS")
	setString(&config.Notifications.Secret, "NOTIFICATION_SECRET")

	setString(&config.Security.WebhookToken, "WEBHOOK_TOKEN")
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setFloat(target *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

func setBool(target *bool, key string) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		*target = true
	case "0", "false", "no":
		*target = false
	}
}

func setList(target *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			*target = out
		}
	}
}

func setMap(target *map[string]string, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	parsed := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return
	}
	*target = parsed
}

// GetDatabaseURL assembles the Postgres DSN for gorm.
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// NameToID inverts the property display-name map for by-name lookup.
// Keys are lowercased and trimmed.
func (p *ProvisioningConfig) NameToID() map[string]string {
	out := make(map[string]string, len(p.PropertyNames))
	for id, name := range p.PropertyNames {
		out[strings.ToLower(strings.TrimSpace(name))] = id
	}
	return out
}

// DisplayName returns the configured property name, else a fallback.
func (p *ProvisioningConfig) DisplayName(propertyID, fallback string) string {
	if name, ok := p.PropertyNames[propertyID]; ok && name != "" {
		return name
	}
	if fallback != "" {
		return fallback
	}
	return "Your Rental"
}

// LocationFor resolves the property's timezone, falling back to the
// default timezone.
func (p *ProvisioningConfig) LocationFor(propertyID string) (*time.Location, error) {
	tz := p.PropertyTimezones[propertyID]
	if tz == "" {
		tz = p.DefaultTimezone
	}
	return time.LoadLocation(tz)
}

// Tolerance is the match tolerance as a duration.
func (p *ProvisioningConfig) Tolerance() time.Duration {
	return time.Duration(p.MatchToleranceMinutes) * time.Minute
}

func (p *ProvisioningConfig) IsCancelledStatus(status string) bool {
	for _, s := range p.CancelledStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

func (p *ProvisioningConfig) IsCancelAction(action string) bool {
	if action == "" {
		return false
	}
	for _, keyword := range p.CancelKeywords {
		if strings.Contains(strings.ToLower(action), strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// GracePeriod is the cleanup grace as a duration.
func (c *CleanupConfig) GracePeriod() time.Duration {
	return time.Duration(c.GraceDays * 24 * float64(time.Hour))
}
