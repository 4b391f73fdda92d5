package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/attendance-portal/internal/calendar"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const dateLayout = "2006-01-02"

type Config struct {
	Env            string
	Port           int
	APIPrefix      string
	// TrustedProxies lists the proxy CIDRs/IPs whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Course    CourseConfig
	CheckIns  CheckInsConfig
	Exports   ExportsConfig
	Tips      TipsConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CourseConfig holds the fixed schedule of the single course served by this deployment.
type CourseConfig struct {
	Code        string
	Location    *time.Location
	TermStart   time.Time
	TermEnd     time.Time
	ClassDays   calendar.WeekdaySet
	AdminEmails []string
}

// CheckInsConfig tunes the admin check-in listing.
type CheckInsConfig struct {
	CacheTTL time.Duration
}

// ExportsConfig controls where published exports live and how long their links stay valid.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// TipsConfig points at the quote endpoint behind the cloud tip widget.
type TipsConfig struct {
	URL     string
	Timeout time.Duration
}

// RateLimitConfig caps sign-in attempts per client IP.
type RateLimitConfig struct {
	SignInPerMinute int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.TrustedProxies = splitAndTrim(v.GetString("TRUSTED_PROXIES"))

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	course, err := loadCourse(v)
	if err != nil {
		return nil, err
	}
	cfg.Course = course

	cfg.CheckIns = CheckInsConfig{
		CacheTTL: parseDuration(v.GetString("CHECKINS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 15*time.Minute),
	}

	cfg.Tips = TipsConfig{
		URL:     v.GetString("TIPS_URL"),
		Timeout: parseDuration(v.GetString("TIPS_TIMEOUT"), 3*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		SignInPerMinute: v.GetInt("SIGNIN_RATE_PER_MINUTE"),
	}

	return cfg, nil
}

func loadCourse(v *viper.Viper) (CourseConfig, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return CourseConfig{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	termEnd, err := time.ParseInLocation(dateLayout, v.GetString("TERM_END_DATE"), loc)
	if err != nil {
		return CourseConfig{}, fmt.Errorf("invalid TERM_END_DATE: %w", err)
	}

	var termStart time.Time
	if raw := v.GetString("TERM_START_DATE"); raw != "" {
		termStart, err = time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return CourseConfig{}, fmt.Errorf("invalid TERM_START_DATE: %w", err)
		}
	}

	days, err := calendar.ParseWeekdays(v.GetString("CLASS_DAYS"))
	if err != nil {
		return CourseConfig{}, fmt.Errorf("invalid CLASS_DAYS: %w", err)
	}

	return CourseConfig{
		Code:        v.GetString("COURSE_CODE"),
		Location:    loc,
		TermStart:   termStart,
		TermEnd:     termEnd,
		ClassDays:   days,
		AdminEmails: splitAndTrim(v.GetString("ADMIN_EMAILS")),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "attendance-portal")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMEZONE", "America/Los_Angeles")
	v.SetDefault("COURSE_CODE", "CS642")
	v.SetDefault("TERM_START_DATE", "2025-08-25")
	v.SetDefault("TERM_END_DATE", "2025-12-17")
	v.SetDefault("CLASS_DAYS", "MON,WED")
	v.SetDefault("ADMIN_EMAILS", "")

	v.SetDefault("CHECKINS_CACHE_TTL", "30s")
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "15m")

	v.SetDefault("TIPS_URL", "https://api.quotable.io/random?tags=technology|science|innovation")
	v.SetDefault("TIPS_TIMEOUT", "3s")

	v.SetDefault("SIGNIN_RATE_PER_MINUTE", 20)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
