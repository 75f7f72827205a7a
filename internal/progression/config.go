package progression

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the quiz and reward policy applied by the engine.
type Config struct {
	PassThreshold     int   `yaml:"pass_threshold"`
	PerfectBonus      int64 `yaml:"perfect_bonus"`
	ExcellentBonus    int64 `yaml:"excellent_bonus"`
	ExcellentAt       int   `yaml:"excellent_at"`
	ChapterBonus      int64 `yaml:"chapter_bonus"`
	StreakBonusPerDay int64 `yaml:"streak_bonus_per_day"`
	StreakBonusCap    int64 `yaml:"streak_bonus_cap"`
	DefaultLessonXP   int64 `yaml:"default_lesson_xp"`
	// EnforceUnlock rejects completions of lessons that are still locked.
	EnforceUnlock bool `yaml:"enforce_unlock"`
}

func DefaultConfig() Config {
	return Config{
		PassThreshold:     50,
		PerfectBonus:      50,
		ExcellentBonus:    25,
		ExcellentAt:       90,
		ChapterBonus:      100,
		StreakBonusPerDay: 5,
		StreakBonusCap:    50,
		DefaultLessonXP:   10,
		EnforceUnlock:     true,
	}
}

func (c Config) Validate() error {
	if c.PassThreshold < 0 || c.PassThreshold > 100 {
		return fmt.Errorf("pass_threshold must be within 0..100, got %d", c.PassThreshold)
	}
	if c.ExcellentAt < 0 || c.ExcellentAt > 100 {
		return fmt.Errorf("excellent_at must be within 0..100, got %d", c.ExcellentAt)
	}
	if c.PerfectBonus < 0 || c.ExcellentBonus < 0 || c.ChapterBonus < 0 {
		return fmt.Errorf("bonuses must be non-negative")
	}
	if c.StreakBonusPerDay < 0 || c.StreakBonusCap < 0 {
		return fmt.Errorf("streak bonus settings must be non-negative")
	}
	if c.DefaultLessonXP < 0 {
		return fmt.Errorf("default_lesson_xp must be non-negative")
	}
	return nil
}

// LoadConfigFile overlays a YAML policy file on top of base. Keys absent from the file keep
// their base values.
func LoadConfigFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read progression policy: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("parse progression policy: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return base, fmt.Errorf("invalid progression policy: %w", err)
	}
	return cfg, nil
}
