// Package config materializes the tool's settings from .env and the
// environment. Every knob has a default; nothing here can fail.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"podscrub/internal/retry"
)

type Config struct {
	// LLM access. An empty APIKey is valid: analysis then degrades
	// instead of calling out.
	APIKey  string
	BaseURL string
	Model   string

	// Transcription engine; any whisper-compatible endpoint works.
	TranscribeURL   string
	TranscribeModel string

	OutputDir string
	MediaDir  string
	KeepMedia bool

	// ExpectLanguage warns on mismatching transcripts; empty disables.
	ExpectLanguage string

	MaxAttempts int
	RetryDelay  time.Duration
	HTTPTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // loads .env

	// PODSCRUB_LANGUAGE=none turns the language check off
	lang := envOr("PODSCRUB_LANGUAGE", "en")
	if lang == "none" {
		lang = ""
	}

	def := retry.Default()
	return &Config{
		APIKey:          os.Getenv("OPENAI_API_KEY"),
		BaseURL:         os.Getenv("OPENAI_BASE_URL"),
		Model:           envOr("PODSCRUB_MODEL", "gpt-4o-mini"),
		TranscribeURL:   envOr("PODSCRUB_TRANSCRIBE_URL", "https://api.openai.com/v1/audio/transcriptions"),
		TranscribeModel: envOr("PODSCRUB_TRANSCRIBE_MODEL", "whisper-1"),
		OutputDir:       envOr("PODSCRUB_OUTPUT_DIR", "output"),
		MediaDir:        envOr("PODSCRUB_MEDIA_DIR", filepath.Join(os.TempDir(), "podscrub")),
		KeepMedia:       envBool("PODSCRUB_KEEP_MEDIA", false),
		ExpectLanguage:  lang,
		MaxAttempts:     envInt("PODSCRUB_MAX_ATTEMPTS", def.MaxAttempts),
		RetryDelay:      envDuration("PODSCRUB_RETRY_DELAY", def.Delay),
		HTTPTimeout:     envDuration("PODSCRUB_HTTP_TIMEOUT", 60*time.Second),
	}
}

func (c *Config) HasCredentials() bool {
	return c.APIKey != ""
}

// RetryPolicy is what LLM calls run under.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.MaxAttempts, Delay: c.RetryDelay}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
