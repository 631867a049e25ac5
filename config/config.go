package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	JWTAudience        string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// bcrypt hash of the key accepted by the catalog admin endpoints
	AdminKeyHash string
	// Check-in calendar
	Timezone        string
	DefaultTag      string
	MaxClockSkewSec int
	UserLockSeconds int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	AutoMigrate bool
	// Redis for locks/caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Tracing
	OtelEnabled     bool
	OtelEndpoint    string
	OtelSampleRatio float64
	OtelServiceName string

	Rewards RewardConfig
}

// RewardConfig is the hot-reloadable part of the configuration.
type RewardConfig struct {
	CheckinXP        int
	CheckinPoints    int
	CheckinTickets   int
	TicketMilestones []int
	PityThreshold    int
	DailyQuestCount  int
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
	vp     *viper.Viper
)

// DefaultPath is where Load looks for the JSON configuration file.
var DefaultPath = filepath.Join("config", "config.json")

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()

	// Precedence: config/config.json -> defaults -> environment variable overrides
	v, c, err := LoadFrom(DefaultPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if c.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	mu.Lock()
	cfg, vp, loaded = c, v, true
	mu.Unlock()
	return c
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Set replaces the cached configuration. Used by tools and tests that build config in code.
func Set(c AppConfig) {
	mu.Lock()
	cfg, loaded = c, true
	mu.Unlock()
}

// LoadFrom reads the JSON file at path when present, applies defaults and env overrides.
// A missing file is not an error; invalid JSON is.
func LoadFrom(path string) (*viper.Viper, AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, AppConfig{}, fmt.Errorf("read %s: %w", path, err)
			}
		}
	}

	return v, fromViper(v), nil
}

// Watch re-reads the config file on change and hands the new reward settings to onChange.
// No-op when the configuration did not come from a file.
func Watch(onChange func(RewardConfig)) {
	mu.RLock()
	v := vp
	mu.RUnlock()
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next := fromViper(v)
		mu.Lock()
		cfg.Rewards = next.Rewards
		mu.Unlock()
		log.Printf("config reloaded from %s", e.Name)
		onChange(next.Rewards)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.jwtaudience", "authenticated")
	v.SetDefault("app.ratelimitperminute", 60)
	v.SetDefault("app.allowedorigins", []string{"*"})
	v.SetDefault("app.timezone", "Asia/Tokyo")
	v.SetDefault("app.defaulttag", "office")
	v.SetDefault("app.maxclockskewsec", 300)
	v.SetDefault("app.userlockseconds", 10)

	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.logpath", "logs/go_gin.log")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dbhost", "127.0.0.1")
	v.SetDefault("database.dbport", "3306")
	v.SetDefault("database.dbuser", "root")
	v.SetDefault("database.dbname", "officing")
	v.SetDefault("database.automigrate", true)

	v.SetDefault("redis.redishost", "127.0.0.1")
	v.SetDefault("redis.redisport", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxagedays", 7)

	v.SetDefault("otel.sampleratio", 1.0)
	v.SetDefault("otel.servicename", "officing")

	v.SetDefault("rewards.checkinxp", 50)
	v.SetDefault("rewards.checkinpoints", 10)
	v.SetDefault("rewards.checkintickets", 1)
	v.SetDefault("rewards.ticketmilestones", []int{4, 8, 12})
	v.SetDefault("rewards.pitythreshold", 10)
	v.SetDefault("rewards.dailyquestcount", 3)
}

// bindEnv maps known environment variables onto config keys.
func bindEnv(v *viper.Viper) {
	pairs := map[string]string{
		"app.port":               "APP_PORT",
		"app.jwtsecret":          "JWT_SECRET",
		"app.jwtaudience":        "JWT_AUDIENCE",
		"app.ratelimitperminute": "RATE_LIMIT_PER_MINUTE",
		"app.allowedorigins":     "CORS_ALLOWED_ORIGINS",
		"app.adminkeyhash":       "ADMIN_KEY_HASH",
		"app.timezone":           "APP_TIMEZONE",
		"app.defaulttag":         "DEFAULT_TAG",
		"app.maxclockskewsec":    "MAX_CLOCK_SKEW_SEC",
		"app.userlockseconds":    "USER_LOCK_SECONDS",
		"gin.mode":               "GIN_MODE",
		"gin.logpath":            "GIN_PATH",
		"database.driver":        "DB_DRIVER",
		"database.databaseuri":   "DATABASE_URI",
		"database.dbhost":        "DB_HOST",
		"database.dbport":        "DB_PORT",
		"database.dbuser":        "DB_USER",
		"database.dbpassword":    "DB_PASSWORD",
		"database.dbname":        "DB_NAME",
		"database.automigrate":   "DB_AUTO_MIGRATE",
		"redis.redishost":        "REDIS_HOST",
		"redis.redisport":        "REDIS_PORT",
		"redis.redisdb":          "REDIS_DB",
		"redis.redispassword":    "REDIS_PASSWORD",
		"log.level":              "LOG_LEVEL",
		"log.path":               "LOG_PATH",
		"log.maxsizemb":          "LOG_MAX_SIZE_MB",
		"log.maxbackups":         "LOG_MAX_BACKUPS",
		"log.maxagedays":         "LOG_MAX_AGE_DAYS",
		"log.compress":           "LOG_COMPRESS",
		"otel.enabled":           "OTEL_ENABLED",
		"otel.endpoint":          "OTEL_EXPORTER_OTLP_ENDPOINT",
		"otel.sampleratio":       "OTEL_SAMPLE_RATIO",
		"otel.servicename":       "OTEL_SERVICE_NAME",
		"rewards.pitythreshold":  "PITY_THRESHOLD",
	}
	for key, env := range pairs {
		_ = v.BindEnv(key, env)
	}
}

func fromViper(v *viper.Viper) AppConfig {
	return AppConfig{
		AppPort:            v.GetString("app.port"),
		JWTSecret:          v.GetString("app.jwtsecret"),
		JWTAudience:        v.GetString("app.jwtaudience"),
		RateLimitPerMinute: v.GetInt("app.ratelimitperminute"),
		AllowedOrigins:     readList(v, "app.allowedorigins"),
		AdminKeyHash:       v.GetString("app.adminkeyhash"),
		Timezone:           v.GetString("app.timezone"),
		DefaultTag:         v.GetString("app.defaulttag"),
		MaxClockSkewSec:    v.GetInt("app.maxclockskewsec"),
		UserLockSeconds:    v.GetInt("app.userlockseconds"),

		GinMode: v.GetString("gin.mode"),
		GinPath: v.GetString("gin.logpath"),

		DBDriver:    strings.ToLower(v.GetString("database.driver")),
		DatabaseURI: v.GetString("database.databaseuri"),
		DBHost:      v.GetString("database.dbhost"),
		DBPort:      v.GetString("database.dbport"),
		DBUser:      v.GetString("database.dbuser"),
		DBPassword:  v.GetString("database.dbpassword"),
		DBName:      v.GetString("database.dbname"),
		AutoMigrate: v.GetBool("database.automigrate"),

		RedisHost:     v.GetString("redis.redishost"),
		RedisPort:     v.GetInt("redis.redisport"),
		RedisDB:       v.GetInt("redis.redisdb"),
		RedisPassword: v.GetString("redis.redispassword"),

		LogLevel:      v.GetString("log.level"),
		LogPath:       v.GetString("log.path"),
		LogMaxSizeMB:  v.GetInt("log.maxsizemb"),
		LogMaxBackups: v.GetInt("log.maxbackups"),
		LogMaxAgeDays: v.GetInt("log.maxagedays"),
		LogCompress:   v.GetBool("log.compress"),

		OtelEnabled:     v.GetBool("otel.enabled"),
		OtelEndpoint:    v.GetString("otel.endpoint"),
		OtelSampleRatio: v.GetFloat64("otel.sampleratio"),
		OtelServiceName: v.GetString("otel.servicename"),

		Rewards: RewardConfig{
			CheckinXP:        v.GetInt("rewards.checkinxp"),
			CheckinPoints:    v.GetInt("rewards.checkinpoints"),
			CheckinTickets:   v.GetInt("rewards.checkintickets"),
			TicketMilestones: v.GetIntSlice("rewards.ticketmilestones"),
			PityThreshold:    v.GetInt("rewards.pitythreshold"),
			DailyQuestCount:  v.GetInt("rewards.dailyquestcount"),
		},
	}
}

// readList accepts both a JSON array and a comma separated env value.
func readList(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	items := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
