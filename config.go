// config.go
//
// Process configuration for the NeuroTerm server.
// Responsibilities:
//   - Load an optional .env file (development convenience).
//   - Read every knob from the environment with a sane default.
//
// Unparseable values fall back to the default and are logged, never fatal.

package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/neuroterm/internal/riddle"
)

// Config is everything main needs to assemble the server.
type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool
	DBPath    string

	GeminiAPIKey   string
	GeminiModel    string
	RiddlesFile    string
	RiddleTimeout  time.Duration
	RiddleFallback bool
	RiddleRate     float64
	RiddleBurst    int

	BootPacing    bool
	SessionSecret string
	SessionIdle   time.Duration
	ClientOrigin  string
	SecureCookies bool

	Console bool
}

func loadConfig() Config {
	_ = godotenv.Load()
	return Config{
		Port:      getEnv("PORT", "5175"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: envBool("LOG_PRETTY", false),
		DBPath:    getEnv("DB_PATH", "./data/neuroterm.db"),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", riddle.DefaultModel),
		RiddlesFile:    os.Getenv("RIDDLES_FILE"),
		RiddleTimeout:  envDuration("RIDDLE_TIMEOUT", 15*time.Second),
		RiddleFallback: envBool("RIDDLE_FALLBACK", true),
		RiddleRate:     envFloat("RIDDLE_RATE", 0.5),
		RiddleBurst:    envInt("RIDDLE_BURST", 3),

		BootPacing:    envBool("BOOT_PACING", true),
		SessionSecret: getEnv("SESSION_SECRET", "dev_secret_change_me"),
		SessionIdle:   envDuration("SESSION_IDLE", 2*time.Hour),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		SecureCookies: os.Getenv("NODE_ENV") == "production",

		Console: envBool("CONSOLE", false),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid bool, using default")
		return def
	}
	return b
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid int, using default")
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid number, using default")
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
		return def
	}
	return d
}
