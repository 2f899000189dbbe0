package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Backend struct {
	URL         string
	CookieNames []string
	Timeout     time.Duration
	RateLimit   float64
}

type Preferences struct {
	Driver      string
	PostgresURI string
	SQLitePath  string
	FilePath    string
}

type Log struct {
	File    string
	MaxSize int64
	Backups int
}

type Viewer struct {
	Username string
	UserID   string
	Timezone string
}

type Config struct {
	Backend        Backend
	Preferences    Preferences
	Viewer         Viewer
	Log            Log
	ListenAddr     string
	AllowedOrigins []string
	MaxViews       int
	ViewIdle       time.Duration
	SecretKey      string
	CookieName     string
	BrowserCookies string
	Debug          bool
}

func LoadConfig() *Config {
	return &Config{
		Backend: Backend{
			URL:         strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
			CookieNames: splitList(getEnv("BACKEND_COOKIES", "session")),
			Timeout:     getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
			RateLimit:   getEnvFloat("BACKEND_RATE_LIMIT", 10),
		},
		Preferences: Preferences{
			Driver:      getEnv("PREFERENCES_DRIVER", "sqlite3"),
			PostgresURI: getEnv("POSTGRES_URI", ""),
			SQLitePath:  getEnv("SQLITE_PATH", "postpilot.db"),
			FilePath:    getEnv("PREFERENCES_FILE", defaultPreferencesFile()),
		},
		Viewer: Viewer{
			Username: getEnv("VIEWER_USERNAME", ""),
			UserID:   getEnv("VIEWER_USER_ID", ""),
			Timezone: getEnv("VIEWER_TIMEZONE", os.Getenv("TZ")),
		},
		Log: Log{
			File:    getEnv("LOG_FILE", defaultLogFile()),
			MaxSize: int64(getEnvInt("LOG_MAX_SIZE", 5*1024*1024)),
			Backups: getEnvInt("LOG_BACKUPS", 3),
		},
		ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "")),
		MaxViews:       getEnvInt("VIEW_CACHE_SIZE", 1000),
		ViewIdle:       getEnvDuration("VIEW_IDLE_TIMEOUT", 30*time.Minute),
		SecretKey:      getEnv("SECRET_KEY", ""),
		CookieName:     getEnv("COOKIE_NAME", "postpilot_viewer"),
		BrowserCookies: getEnv("BROWSER_COOKIES", ""),
		Debug:          getEnvBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultPreferencesFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "preferences.json"
	}
	return filepath.Join(dir, "postpilot", "preferences.json")
}

// defaultLogFile follows the XDG state directory convention.
func defaultLogFile() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "postpilot", "postpilot.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "postpilot.log"
	}
	return filepath.Join(home, ".local", "state", "postpilot", "postpilot.log")
}
