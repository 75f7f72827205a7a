package progression

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("pass_threshold: 70\nchapter_bonus: 250\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	cfg, err := LoadConfigFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.PassThreshold != 70 || cfg.ChapterBonus != 250 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PerfectBonus != DefaultConfig().PerfectBonus || !cfg.EnforceUnlock {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("pass_threshold: 140\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if _, err := LoadConfigFile(path, DefaultConfig()); err == nil {
		t.Fatalf("expected validation error")
	}
}
