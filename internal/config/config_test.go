package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Run("getEnv existing", func(t *testing.T) {
		os.Setenv("TEST_GET_ENV", "test_value")
		defer os.Unsetenv("TEST_GET_ENV")

		if got := getEnv("TEST_GET_ENV", "default"); got != "test_value" {
			t.Errorf("getEnv() = %q, want %q", got, "test_value")
		}
	})

	t.Run("getEnv missing uses default", func(t *testing.T) {
		if got := getEnv("TEST_MISSING_VAR", "default_value"); got != "default_value" {
			t.Errorf("getEnv() = %q, want %q", got, "default_value")
		}
	})

	t.Run("getEnvInt invalid uses default", func(t *testing.T) {
		os.Setenv("TEST_INT_INVALID", "not-a-number")
		defer os.Unsetenv("TEST_INT_INVALID")

		if got := getEnvInt("TEST_INT_INVALID", 99); got != 99 {
			t.Errorf("getEnvInt() = %d, want 99", got)
		}
	})

	t.Run("getEnvBool variants", func(t *testing.T) {
		tests := []struct {
			value string
			want  bool
		}{
			{"true", true},
			{"1", true},
			{"yes", true},
			{"false", false},
			{"0", false},
		}
		for _, tt := range tests {
			os.Setenv("TEST_BOOL", tt.value)
			if got := getEnvBool("TEST_BOOL", false); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		}
		os.Unsetenv("TEST_BOOL")
	})

	t.Run("getEnvDuration", func(t *testing.T) {
		os.Setenv("TEST_DURATION", "30s")
		defer os.Unsetenv("TEST_DURATION")

		if got := getEnvDuration("TEST_DURATION", time.Minute); got != 30*time.Second {
			t.Errorf("getEnvDuration() = %v, want 30s", got)
		}
	})

	t.Run("getEnvSlice splits on comma", func(t *testing.T) {
		os.Setenv("TEST_SLICE", "a,b,c")
		defer os.Unsetenv("TEST_SLICE")

		got := getEnvSlice("TEST_SLICE", nil)
		if len(got) != 3 || got[0] != "a" || got[2] != "c" {
			t.Errorf("getEnvSlice() = %v, want [a b c]", got)
		}
	})

	t.Run("getEnvWithFallback prefers primary", func(t *testing.T) {
		os.Setenv("TEST_PRIMARY", "primary")
		os.Setenv("TEST_FALLBACK", "fallback")
		defer os.Unsetenv("TEST_PRIMARY")
		defer os.Unsetenv("TEST_FALLBACK")

		if got := getEnvWithFallback("TEST_PRIMARY", "TEST_FALLBACK", ""); got != "primary" {
			t.Errorf("getEnvWithFallback() = %q, want %q", got, "primary")
		}
	})
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.WorkerConcurrency != 3 {
		t.Errorf("WorkerConcurrency = %d, want 3", cfg.WorkerConcurrency)
	}
	if cfg.BrowserPoolSize != 3 {
		t.Errorf("BrowserPoolSize = %d, want 3", cfg.BrowserPoolSize)
	}
	if !cfg.ScreenshotEnabled {
		t.Error("ScreenshotEnabled should default to true")
	}
	if len(cfg.EncryptionKey) != 32 {
		t.Errorf("EncryptionKey length = %d, want 32", len(cfg.EncryptionKey))
	}
	if cfg.StorageEnabled {
		t.Error("StorageEnabled should be false without bucket config")
	}
}

func TestDeriveEncryptionKeyDeterministic(t *testing.T) {
	k1 := deriveEncryptionKey("secret-a")
	k2 := deriveEncryptionKey("secret-a")
	k3 := deriveEncryptionKey("secret-b")

	if string(k1) != string(k2) {
		t.Error("same secret should derive the same key")
	}
	if string(k1) == string(k3) {
		t.Error("different secrets should derive different keys")
	}
}

func TestPlanPriceID(t *testing.T) {
	cfg := &Config{
		StripePriceStarter: "price_starter",
		StripePriceGrowth:  "price_growth",
		StripePriceScale:   "price_scale",
	}

	tests := []struct {
		plan string
		want string
	}{
		{"starter", "price_starter"},
		{"growth", "price_growth"},
		{"scale", "price_scale"},
		{"bogus", ""},
	}
	for _, tt := range tests {
		if got := cfg.PlanPriceID(tt.plan); got != tt.want {
			t.Errorf("PlanPriceID(%q) = %q, want %q", tt.plan, got, tt.want)
		}
	}
}
