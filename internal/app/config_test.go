package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("STREAK_TIMEZONE", "America/New_York")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.StreakLocation.String() != "America/New_York" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.Policy.PassThreshold != 50 || !cfg.Policy.EnforceUnlock {
		t.Fatalf("policy = %+v", cfg.Policy)
	}
}

func TestLoadConfigPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("pass_threshold: 70\nchapter_bonus: 200\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PROGRESSION_POLICY_FILE", path)
	t.Setenv("ENFORCE_UNLOCK", "false")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Policy.PassThreshold != 70 || cfg.Policy.ChapterBonus != 200 || cfg.Policy.PerfectBonus != 50 {
		t.Fatalf("policy = %+v", cfg.Policy)
	}
	if cfg.Policy.EnforceUnlock {
		t.Fatalf("ENFORCE_UNLOCK=false ignored")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":   {"DB_DRIVER", "mysql"},
		"timezone": {"STREAK_TIMEZONE", "Mars/Olympus"},
		"policy":   {"PROGRESSION_POLICY_FILE", "/does/not/exist.yaml"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DB_DRIVER", "sqlite")
			t.Setenv(kv[0], kv[1])
			if _, err := LoadConfig(logger.Nop()); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}
