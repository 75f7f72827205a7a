package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Config struct {
	Provider string
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Retry    RetryConfig
	Timeout  time.Duration
}

// New builds the configured provider wrapped as caller -> retry -> instrumentation -> sdk.
func New(ctx context.Context, cfg Config, log *logger.Logger, obs Observer) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		base, err = NewGemini(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAI(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(WithInstrumentation(base, log, obs), cfg.Retry), nil
}
