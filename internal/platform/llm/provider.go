// Package llm is the text-generation boundary used by course generation.
package llm

import (
	"context"
)

// Provider turns a prompt into raw model text. Callers own parsing and validation.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Name() string
	Model() string
}

type Request struct {
	System      string
	Prompt      string
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Schema asks the provider for native structured output. Providers that cannot honor it
// fall back to plain text and the caller still validates.
type Schema struct {
	Name       string
	Definition map[string]any
}

type Response struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

const (
	FinishStop      = "stop"
	FinishMaxTokens = "max_tokens"
	FinishOther     = "other"
)
