package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

func TestNewWiresLocalStack(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("AUTH_MODE", "disabled")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	log := logger.Nop()
	cfg, err := LoadConfig(log)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	ctx := context.Background()
	a, err := New(ctx, log, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)

	if a.Clients.Redis != nil || a.Clients.LLM != nil || a.Metrics == nil {
		t.Fatalf("unexpected clients: %+v", a.Clients)
	}
	res, err := a.Services.XP.AddXP(ctx, domainagg.AwardXPInput{UserID: "wired", Amount: 25})
	if err != nil || res.Ledger.TotalXP != 25 {
		t.Fatalf("AddXP through wired stack: %+v err=%v", res, err)
	}

	_, err = a.Services.Course.Generate(ctx, "wired", coursegen.Params{Topic: "Go"})
	ae, ok := apierr.As(err)
	if !ok || ae.Status != http.StatusServiceUnavailable || ae.Code != services.CodeUnavailable {
		t.Fatalf("generation without llm: %v", err)
	}
}
