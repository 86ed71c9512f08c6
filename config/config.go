package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	JWTTTLHours        int
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Database: DBDriver is one of mysql, postgres, sqlite
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Public site details exposed to renderers
	SiteName     string
	SiteURL      string
	ImageDomains []string
	UploadMaxMB  int
	// SMTP for the newsletter welcome mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Redis for caching and token revocation
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Signup abuse limits (registrations and newsletter)
	SignupMaxPerIPPerDay int
	SignupCooldownSec    int
	// Initial data
	SeedEnabled       bool
	SeedAdminEmail    string
	SeedAdminPassword string
}

// ErrMissingJWTSecret is returned when no signing secret was configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// fileConfig mirrors the grouped layout of config/config.json.
type fileConfig struct {
	App struct {
		AppPort            string   `json:"AppPort"`
		JWTSecret          string   `json:"JWTSecret"`
		JWTTTLHours        int      `json:"JWTTTLHours"`
		RateLimitPerMinute int      `json:"RateLimitPerMinute"`
		AllowedOrigins     []string `json:"AllowedOrigins"`
	} `json:"app"`
	Database struct {
		Driver      string `json:"Driver"`
		DatabaseURI string `json:"DatabaseURI"`
		DBHost      string `json:"DBHost"`
		DBPort      string `json:"DBPort"`
		DBUser      string `json:"DBUser"`
		DBPassword  string `json:"DBPassword"`
		DBName      string `json:"DBName"`
	} `json:"database"`
	Redis struct {
		RedisHost       string `json:"RedisHost"`
		RedisPort       int    `json:"RedisPort"`
		RedisDB         int    `json:"RedisDB"`
		RedisPassword   string `json:"RedisPassword"`
		CacheTTLSeconds int    `json:"CacheTTLSeconds"`
	} `json:"redis"`
	Site struct {
		Name         string   `json:"Name"`
		URL          string   `json:"URL"`
		ImageDomains []string `json:"ImageDomains"`
		UploadMaxMB  int      `json:"UploadMaxMB"`
	} `json:"site"`
	SMTP struct {
		SMTPHost     string `json:"SMTPHost"`
		SMTPPort     int    `json:"SMTPPort"`
		SMTPUsername string `json:"SMTPUsername"`
		SMTPPassword string `json:"SMTPPassword"`
		SMTPFrom     string `json:"SMTPFrom"`
		SMTPFromName string `json:"SMTPFromName"`
		SMTPTLS      bool   `json:"SMTPTLS"`
	} `json:"smtp"`
	Log struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		GinMode    string `json:"GinMode"`
		GinPath    string `json:"GinPath"`
		MaxSizeMB  int    `json:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays"`
		Compress   bool   `json:"Compress"`
	} `json:"log"`
	Signup struct {
		MaxPerIPPerDay int `json:"MaxPerIPPerDay"`
		CooldownSec    int `json:"CooldownSec"`
	} `json:"signup"`
	Seed struct {
		Enabled       bool   `json:"Enabled"`
		AdminEmail    string `json:"AdminEmail"`
		AdminPassword string `json:"AdminPassword"`
	} `json:"seed"`
}

// Load builds the configuration. Precedence: .env -> config/config.json -> defaults -> environment.
func Load() (AppConfig, error) {
	return LoadFrom(filepath.Join("config", "config.json"))
}

// LoadFrom is Load with an explicit JSON path.
func LoadFrom(path string) (AppConfig, error) {
	var cfg AppConfig

	// .env only seeds the process environment; real env vars win.
	_ = godotenv.Load(".env")

	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	if cfg.DBPort == "" {
		cfg.DBPort = defaultDBPort(cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		return cfg, ErrMissingJWTSecret
	}
	return cfg, nil
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}

	out.AppPort = fc.App.AppPort
	out.JWTSecret = fc.App.JWTSecret
	out.JWTTTLHours = fc.App.JWTTTLHours
	out.RateLimitPerMinute = fc.App.RateLimitPerMinute
	out.AllowedOrigins = fc.App.AllowedOrigins

	out.DBDriver = fc.Database.Driver
	out.DatabaseURI = fc.Database.DatabaseURI
	out.DBHost = fc.Database.DBHost
	out.DBPort = fc.Database.DBPort
	out.DBUser = fc.Database.DBUser
	out.DBPassword = fc.Database.DBPassword
	out.DBName = fc.Database.DBName

	out.RedisHost = fc.Redis.RedisHost
	out.RedisPort = fc.Redis.RedisPort
	out.RedisDB = fc.Redis.RedisDB
	out.RedisPassword = fc.Redis.RedisPassword
	out.CacheTTLSeconds = fc.Redis.CacheTTLSeconds

	out.SiteName = fc.Site.Name
	out.SiteURL = fc.Site.URL
	out.ImageDomains = fc.Site.ImageDomains
	out.UploadMaxMB = fc.Site.UploadMaxMB

	out.SMTPHost = fc.SMTP.SMTPHost
	out.SMTPPort = fc.SMTP.SMTPPort
	out.SMTPUsername = fc.SMTP.SMTPUsername
	out.SMTPPassword = fc.SMTP.SMTPPassword
	out.SMTPFrom = fc.SMTP.SMTPFrom
	out.SMTPFromName = fc.SMTP.SMTPFromName
	out.SMTPTLS = fc.SMTP.SMTPTLS

	out.LogLevel = fc.Log.Level
	out.LogPath = fc.Log.Path
	out.GinMode = fc.Log.GinMode
	out.GinPath = fc.Log.GinPath
	out.LogMaxSizeMB = fc.Log.MaxSizeMB
	out.LogMaxBackups = fc.Log.MaxBackups
	out.LogMaxAgeDays = fc.Log.MaxAgeDays
	out.LogCompress = fc.Log.Compress

	out.SignupMaxPerIPPerDay = fc.Signup.MaxPerIPPerDay
	out.SignupCooldownSec = fc.Signup.CooldownSec

	out.SeedEnabled = fc.Seed.Enabled
	out.SeedAdminEmail = fc.Seed.AdminEmail
	out.SeedAdminPassword = fc.Seed.AdminPassword
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 72
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "blogcms"
	}
	if c.SiteName == "" {
		c.SiteName = "BlogCMS"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:8080"
	}
	if c.UploadMaxMB == 0 {
		c.UploadMaxMB = 5
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.SMTPFromName == "" {
		c.SMTPFromName = c.SiteName
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 300
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.SignupMaxPerIPPerDay == 0 {
		c.SignupMaxPerIPPerDay = 10
	}
	if c.SignupCooldownSec == 0 {
		c.SignupCooldownSec = 5
	}
	if c.SeedAdminEmail == "" {
		c.SeedAdminEmail = "admin@blogcms.com"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	str := map[string]*string{
		"APP_PORT":            &c.AppPort,
		"JWT_SECRET":          &c.JWTSecret,
		"GIN_MODE":            &c.GinMode,
		"GIN_PATH":            &c.GinPath,
		"DB_DRIVER":           &c.DBDriver,
		"DATABASE_URI":        &c.DatabaseURI,
		"DB_HOST":             &c.DBHost,
		"DB_PORT":             &c.DBPort,
		"DB_USER":             &c.DBUser,
		"DB_PASSWORD":         &c.DBPassword,
		"DB_NAME":             &c.DBName,
		"SITE_NAME":           &c.SiteName,
		"SITE_URL":            &c.SiteURL,
		"SMTP_HOST":           &c.SMTPHost,
		"SMTP_USERNAME":       &c.SMTPUsername,
		"SMTP_PASSWORD":       &c.SMTPPassword,
		"SMTP_FROM":           &c.SMTPFrom,
		"SMTP_FROM_NAME":      &c.SMTPFromName,
		"REDIS_HOST":          &c.RedisHost,
		"REDIS_PASSWORD":      &c.RedisPassword,
		"LOG_LEVEL":           &c.LogLevel,
		"LOG_PATH":            &c.LogPath,
		"SEED_ADMIN_EMAIL":    &c.SeedAdminEmail,
		"SEED_ADMIN_PASSWORD": &c.SeedAdminPassword,
	}
	for key, dst := range str {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"JWT_TTL_HOURS":             &c.JWTTTLHours,
		"RATE_LIMIT_PER_MINUTE":     &c.RateLimitPerMinute,
		"UPLOAD_MAX_MB":             &c.UploadMaxMB,
		"SMTP_PORT":                 &c.SMTPPort,
		"REDIS_PORT":                &c.RedisPort,
		"REDIS_DB":                  &c.RedisDB,
		"CACHE_TTL_SECONDS":         &c.CacheTTLSeconds,
		"LOG_MAX_SIZE_MB":           &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":           &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":          &c.LogMaxAgeDays,
		"SIGNUP_MAX_PER_IP_PER_DAY": &c.SignupMaxPerIPPerDay,
		"SIGNUP_COOLDOWN_SEC":       &c.SignupCooldownSec,
	}
	for key, dst := range ints {
		v := getEnv(key, "")
		if v == "" {
			continue
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*dst = i
	}

	bools := map[string]*bool{
		"SMTP_TLS":     &c.SMTPTLS,
		"LOG_COMPRESS": &c.LogCompress,
		"SEED_ENABLED": &c.SeedEnabled,
	}
	for key, dst := range bools {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true"
		}
	}

	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("IMAGE_DOMAINS", ""); v != "" {
		c.ImageDomains = splitAndTrim(v)
	}
	return nil
}

// MailEnabled reports whether enough SMTP settings exist to send mail.
func (c AppConfig) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func defaultDBPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
