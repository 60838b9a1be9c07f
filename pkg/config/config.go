package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Export    ExportConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig controls the allocation endpoints, async runs and the
// defaults applied to programs without stored settings.
type SchedulerConfig struct {
	Enabled      bool
	CacheTTL     time.Duration
	Workers      int
	QueueSize    int
	RunRetention time.Duration
	Defaults     SchedulerDefaults
}

// SchedulerDefaults mirrors the allocation settings a program can override.
type SchedulerDefaults struct {
	PrioritizeRoomSize      bool
	AvoidBackToBack         bool
	BalanceLecturerLoad     bool
	MaxDailyHours           int
	PreferredStartTime      int
	PreferredEndTime        int
	AllowWeekends           bool
	SpreadCoursesAcrossDays bool
	MaxSessionsPerDay       int
	RespectCreditHours      bool
	ConsiderRoomCapacity    bool
}

// ExportConfig tunes timetable exports.
type ExportConfig struct {
	PDFTitle string
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:      v.GetBool("ENABLE_SCHEDULER"),
		CacheTTL:     parseDuration(v.GetString("SCHEDULER_CACHE_TTL"), 15*time.Minute),
		Workers:      v.GetInt("SCHEDULER_WORKERS"),
		QueueSize:    v.GetInt("SCHEDULER_QUEUE_SIZE"),
		RunRetention: parseDuration(v.GetString("SCHEDULER_RUN_RETENTION"), time.Hour),
		Defaults: SchedulerDefaults{
			PrioritizeRoomSize:      v.GetBool("SCHEDULER_DEFAULT_PRIORITIZE_ROOM_SIZE"),
			AvoidBackToBack:         v.GetBool("SCHEDULER_DEFAULT_AVOID_BACK_TO_BACK"),
			BalanceLecturerLoad:     v.GetBool("SCHEDULER_DEFAULT_BALANCE_LECTURER_LOAD"),
			MaxDailyHours:           v.GetInt("SCHEDULER_DEFAULT_MAX_DAILY_HOURS"),
			PreferredStartTime:      v.GetInt("SCHEDULER_DEFAULT_START_HOUR"),
			PreferredEndTime:        v.GetInt("SCHEDULER_DEFAULT_END_HOUR"),
			AllowWeekends:           v.GetBool("SCHEDULER_DEFAULT_ALLOW_WEEKENDS"),
			SpreadCoursesAcrossDays: v.GetBool("SCHEDULER_DEFAULT_SPREAD_ACROSS_DAYS"),
			MaxSessionsPerDay:       v.GetInt("SCHEDULER_DEFAULT_MAX_SESSIONS_PER_DAY"),
			RespectCreditHours:      v.GetBool("SCHEDULER_DEFAULT_RESPECT_CREDIT_HOURS"),
			ConsiderRoomCapacity:    v.GetBool("SCHEDULER_DEFAULT_CONSIDER_ROOM_CAPACITY"),
		},
	}

	cfg.Export = ExportConfig{
		PDFTitle: v.GetString("EXPORT_PDF_TITLE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "sma-timetable")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_CACHE_TTL", "15m")
	v.SetDefault("SCHEDULER_WORKERS", 2)
	v.SetDefault("SCHEDULER_QUEUE_SIZE", 16)
	v.SetDefault("SCHEDULER_RUN_RETENTION", "1h")

	v.SetDefault("SCHEDULER_DEFAULT_PRIORITIZE_ROOM_SIZE", true)
	v.SetDefault("SCHEDULER_DEFAULT_AVOID_BACK_TO_BACK", false)
	v.SetDefault("SCHEDULER_DEFAULT_BALANCE_LECTURER_LOAD", true)
	v.SetDefault("SCHEDULER_DEFAULT_MAX_DAILY_HOURS", 6)
	v.SetDefault("SCHEDULER_DEFAULT_START_HOUR", 8)
	v.SetDefault("SCHEDULER_DEFAULT_END_HOUR", 18)
	v.SetDefault("SCHEDULER_DEFAULT_ALLOW_WEEKENDS", false)
	v.SetDefault("SCHEDULER_DEFAULT_SPREAD_ACROSS_DAYS", true)
	v.SetDefault("SCHEDULER_DEFAULT_MAX_SESSIONS_PER_DAY", 1)
	v.SetDefault("SCHEDULER_DEFAULT_RESPECT_CREDIT_HOURS", true)
	v.SetDefault("SCHEDULER_DEFAULT_CONSIDER_ROOM_CAPACITY", false)

	v.SetDefault("EXPORT_PDF_TITLE", "Weekly Timetable")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
