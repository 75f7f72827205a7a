package llm

import (
	"context"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// Observer receives one call per provider attempt.
type Observer interface {
	ObserveLLMRequest(provider, model, status string, dur time.Duration, usage Usage)
}

type instrumented struct {
	inner Provider
	log   *logger.Logger
	obs   Observer
}

// WithInstrumentation logs and records every attempt. Wrap it inside WithRetry so each
// attempt is observed.
func WithInstrumentation(p Provider, log *logger.Logger, obs Observer) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{inner: p, log: log.With("provider", p.Name(), "model", p.Model()), obs: obs}
}

func (i *instrumented) Name() string  { return i.inner.Name() }
func (i *instrumented) Model() string { return i.inner.Model() }

func (i *instrumented) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := i.inner.Generate(ctx, req)
	dur := time.Since(start)

	status := "ok"
	var usage Usage
	if err != nil {
		status = string(KindOf(err))
		if status == "" {
			status = "error"
		}
		i.log.Warn("llm request failed", "status", status, "duration_ms", dur.Milliseconds(), "error", err)
	} else {
		usage = resp.Usage
		i.log.Debug("llm request", "duration_ms", dur.Milliseconds(), "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
	}
	if i.obs != nil {
		i.obs.ObserveLLMRequest(i.inner.Name(), i.inner.Model(), status, dur, usage)
	}
	return resp, err
}
