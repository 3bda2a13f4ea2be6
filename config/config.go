package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort        string
	JWTSecret      string
	AllowedOrigins []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Engagement accounting
	DailyPointsLimit    int
	PointsPerQuestion   int
	BonusMultiplier     int
	PassingScoreDefault int
	Timezone            string
	// Rate limiting per sensitivity class
	RatePublicWindowMs    int
	RatePublicMax         int
	RateProtectedWindowMs int
	RateProtectedMax      int
	// Audit recorder
	AuditQueueSize int
	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for rate-limit counters and caching
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
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration from environment variables. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting replaces the cached configuration. Test helper only.
func SetForTesting(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		if v := getString(g, "Mode"); v != "" {
			out.GinMode = v
		}
		if v := getString(g, "LogPath"); v != "" {
			out.GinPath = v
		}
	}

	if eg, ok := raw["engagement"].(map[string]any); ok {
		if v := getInt(eg, "DailyPointsLimit"); v != 0 {
			out.DailyPointsLimit = v
		}
		if v := getInt(eg, "PointsPerQuestion"); v != 0 {
			out.PointsPerQuestion = v
		}
		if v := getInt(eg, "BonusMultiplier"); v != 0 {
			out.BonusMultiplier = v
		}
		if v := getInt(eg, "PassingScoreDefault"); v != 0 {
			out.PassingScoreDefault = v
		}
		if v := getString(eg, "Timezone"); v != "" {
			out.Timezone = v
		}
	}

	if rl, ok := raw["ratelimit"].(map[string]any); ok {
		if v := getInt(rl, "PublicWindowMs"); v != 0 {
			out.RatePublicWindowMs = v
		}
		if v := getInt(rl, "PublicMax"); v != 0 {
			out.RatePublicMax = v
		}
		if v := getInt(rl, "ProtectedWindowMs"); v != 0 {
			out.RateProtectedWindowMs = v
		}
		if v := getInt(rl, "ProtectedMax"); v != 0 {
			out.RateProtectedMax = v
		}
	}

	if au, ok := raw["audit"].(map[string]any); ok {
		if v := getInt(au, "QueueSize"); v != 0 {
			out.AuditQueueSize = v
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getString(lg, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DailyPointsLimit == 0 {
		c.DailyPointsLimit = 100
	}
	if c.PointsPerQuestion == 0 {
		c.PointsPerQuestion = 10
	}
	if c.BonusMultiplier == 0 {
		c.BonusMultiplier = 2
	}
	if c.PassingScoreDefault == 0 {
		c.PassingScoreDefault = 70
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.RatePublicWindowMs == 0 {
		c.RatePublicWindowMs = 15 * 60 * 1000
	}
	if c.RatePublicMax == 0 {
		c.RatePublicMax = 200
	}
	if c.RateProtectedWindowMs == 0 {
		c.RateProtectedWindowMs = 60 * 1000
	}
	if c.RateProtectedMax == 0 {
		c.RateProtectedMax = 120
	}
	if c.AuditQueueSize == 0 {
		c.AuditQueueSize = 1024
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "engage"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
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
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("DAILY_POINTS_LIMIT", ""); v != "" {
		c.DailyPointsLimit = mustParseInt(v)
	}
	if v := getEnv("POINTS_PER_QUESTION", ""); v != "" {
		c.PointsPerQuestion = mustParseInt(v)
	}
	if v := getEnv("BONUS_MULTIPLIER", ""); v != "" {
		c.BonusMultiplier = mustParseInt(v)
	}
	if v := getEnv("PASSING_SCORE_DEFAULT", ""); v != "" {
		c.PassingScoreDefault = mustParseInt(v)
	}
	if v := getEnv("ENGAGE_TIMEZONE", ""); v != "" {
		c.Timezone = v
	}
	if v := getEnv("RATE_PUBLIC_WINDOW_MS", ""); v != "" {
		c.RatePublicWindowMs = mustParseInt(v)
	}
	if v := getEnv("RATE_PUBLIC_MAX", ""); v != "" {
		c.RatePublicMax = mustParseInt(v)
	}
	if v := getEnv("RATE_PROTECTED_WINDOW_MS", ""); v != "" {
		c.RateProtectedWindowMs = mustParseInt(v)
	}
	if v := getEnv("RATE_PROTECTED_MAX", ""); v != "" {
		c.RateProtectedMax = mustParseInt(v)
	}
	if v := getEnv("AUDIT_QUEUE_SIZE", ""); v != "" {
		c.AuditQueueSize = mustParseInt(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
