package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/coursecraft-backend/internal/platform/llm"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/api/xp/:userId", "200", 20*time.Millisecond)
	m.ObserveXP("quiz_complete", 85, true)
	m.ObserveXP("quiz_complete", 0, false)
	m.ObserveQuiz(true, 100)
	m.ObserveAggregateOperation("progression.complete_quiz", "success", time.Millisecond)
	m.IncAggregateRetry("progression.complete_quiz")
	m.ObserveLLMRequest("gemini", "gemini-2.0-flash", "ok", time.Second, llm.Usage{InputTokens: 10, OutputTokens: 20})

	if got := testutil.ToFloat64(m.xpAwarded.WithLabelValues("quiz_complete")); got != 85 {
		t.Fatalf("xp awarded = %v", got)
	}
	if got := testutil.ToFloat64(m.xpAwards.WithLabelValues("quiz_complete")); got != 1 {
		t.Fatalf("xp awards = %v, zero award should not count", got)
	}
	if got := testutil.ToFloat64(m.levelUps); got != 1 {
		t.Fatalf("level ups = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"cc_api_requests_total", "cc_llm_tokens_total", "cc_aggregate_retries_total"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("exposition missing %s", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveXP("x", 1, true)
	m.IncCourseGeneration("ok")
	m.StartDBCollector(context.Background(), logger.Nop(), nil, 0)
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" a=1, b = 2 ,broken,c=")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("headers = %v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), logger.Nop(), OtelConfig{})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
