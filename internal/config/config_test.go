package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.TranscribeModel != "whisper-1" {
		t.Errorf("TranscribeModel = %q", cfg.TranscribeModel)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.RetryDelay != 30*time.Second {
		t.Errorf("RetryDelay = %v, want 30s", cfg.RetryDelay)
	}
	if cfg.KeepMedia {
		t.Error("KeepMedia should default to temporary storage")
	}
	if cfg.ExpectLanguage != "en" {
		t.Errorf("ExpectLanguage = %q, want en", cfg.ExpectLanguage)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PODSCRUB_MODEL", "gpt-4o")
	t.Setenv("PODSCRUB_MAX_ATTEMPTS", "5")
	t.Setenv("PODSCRUB_RETRY_DELAY", "2s")
	t.Setenv("PODSCRUB_KEEP_MEDIA", "true")
	t.Setenv("PODSCRUB_OUTPUT_DIR", "/tmp/out")

	cfg := Load()
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d", cfg.MaxAttempts)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
	if !cfg.KeepMedia {
		t.Error("KeepMedia should be on")
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("PODSCRUB_MAX_ATTEMPTS", "lots")
	t.Setenv("PODSCRUB_RETRY_DELAY", "soon")
	t.Setenv("PODSCRUB_KEEP_MEDIA", "maybe")

	cfg := Load()
	if cfg.MaxAttempts != 3 || cfg.RetryDelay != 30*time.Second || cfg.KeepMedia {
		t.Errorf("bad values should fall back to defaults, got %+v", cfg)
	}
}

func TestLoadLanguageNoneDisablesCheck(t *testing.T) {
	t.Setenv("PODSCRUB_LANGUAGE", "none")
	if cfg := Load(); cfg.ExpectLanguage != "" {
		t.Errorf("ExpectLanguage = %q, want disabled", cfg.ExpectLanguage)
	}
}

func TestHasCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if Load().HasCredentials() {
		t.Error("no key should mean no credentials")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if !Load().HasCredentials() {
		t.Error("key present should mean credentials")
	}
}

func TestRetryPolicy(t *testing.T) {
	t.Setenv("PODSCRUB_MAX_ATTEMPTS", "4")
	t.Setenv("PODSCRUB_RETRY_DELAY", "500ms")
	p := Load().RetryPolicy()
	if p.MaxAttempts != 4 || p.Delay != 500*time.Millisecond {
		t.Errorf("RetryPolicy() = %+v", p)
	}
}
