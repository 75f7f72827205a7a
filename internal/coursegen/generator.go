// Package coursegen turns a topic request into a normalized, unsaved course.
package coursegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/platform/llm"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// ErrGenerationFailed wraps every provider, parse and content failure.
var ErrGenerationFailed = errors.New("course generation failed")

var ErrInvalidParams = errors.New("invalid generation parameters")

var Difficulties = []string{"beginner", "intermediate", "advanced"}

const (
	DefaultChapterCount      = 3
	DefaultLessonsPerChapter = 3
	MaxChapterCount          = 10
	MaxLessonsPerChapter     = 8
	maxTopicLen              = 200
)

type Params struct {
	Topic             string
	Difficulty        string
	ChapterCount      int
	LessonsPerChapter int
}

// Normalize trims and defaults the request. Counts above the caps are clamped.
func (p Params) Normalize() (Params, error) {
	p.Topic = clean(p.Topic)
	if p.Topic == "" {
		return p, fmt.Errorf("%w: topic is required", ErrInvalidParams)
	}
	if len(p.Topic) > maxTopicLen {
		return p, fmt.Errorf("%w: topic longer than %d characters", ErrInvalidParams, maxTopicLen)
	}
	p.Difficulty = strings.ToLower(clean(p.Difficulty))
	if p.Difficulty == "" {
		p.Difficulty = Difficulties[0]
	}
	known := false
	for _, d := range Difficulties {
		known = known || d == p.Difficulty
	}
	if !known {
		return p, fmt.Errorf("%w: difficulty must be one of %s", ErrInvalidParams, strings.Join(Difficulties, ", "))
	}
	p.ChapterCount = clampCount(p.ChapterCount, DefaultChapterCount, MaxChapterCount)
	p.LessonsPerChapter = clampCount(p.LessonsPerChapter, DefaultLessonsPerChapter, MaxLessonsPerChapter)
	return p, nil
}

func clampCount(n, def, limit int) int {
	switch {
	case n <= 0:
		return def
	case n > limit:
		return limit
	default:
		return n
	}
}

type Config struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

type Generator struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

func NewGenerator(provider llm.Provider, cfg Config, baseLog *logger.Logger) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 16384
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	return &Generator{provider: provider, cfg: cfg, log: baseLog.With("component", "CourseGenerator")}
}

// Generate runs one provider round trip and returns the course without ids or owner.
func (g *Generator) Generate(ctx context.Context, p Params) (*course.Course, error) {
	p, err := p.Normalize()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(p),
		Schema:      &llm.Schema{Name: "course", Definition: courseSchema},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		g.log.Warn("course generation provider call failed", "topic", p.Topic, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	c, err := parseCourse(resp.Text, p)
	if err != nil {
		g.log.Warn("course generation output rejected", "topic", p.Topic, "model", resp.Model, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	c.Model = resp.Model

	lessons := 0
	for _, ch := range c.Chapters {
		lessons += len(ch.Lessons)
	}
	g.log.Info("course generated",
		"topic", p.Topic,
		"model", resp.Model,
		"chapters", len(c.Chapters),
		"lessons", lessons,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return c, nil
}

func parseCourse(text string, p Params) (*course.Course, error) {
	raw, err := repairJSON(text)
	if err != nil {
		return nil, fmt.Errorf("repair json: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := validateShape(doc); err != nil {
		return nil, err
	}
	var rc rawCourse
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&rc); err != nil {
		return nil, fmt.Errorf("decode course: %w", err)
	}
	return normalize(rc, p)
}
