package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecraft-backend/internal/events"
	httpH "github.com/yungbote/coursecraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursecraft-backend/internal/http/middleware"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/llm"
	"github.com/yungbote/coursecraft-backend/internal/progression"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

const courseReply = `{"title":"Go","description":"d","chapters":[
 {"title":"One","lessons":[{"title":"L1","content":"c","xp":10,
   "quiz":{"questions":[{"question":"q?","options":["a","b"],"correctAnswer":"a"}]}},
  {"title":"L2","content":"c","xp":10}]},
 {"title":"Two","lessons":[{"title":"L3","content":"c","xp":10}]}]}`

type testAPI struct {
	router  *gin.Engine
	metrics *observability.Metrics
}

func newTestAPI(t *testing.T, replies ...llm.FakeReply) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	ledgers := repos.NewXPLedgerRepo(db, log)
	journal := repos.NewXPEventRepo(db, log)
	courses := repos.NewCourseRepo(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}
	progress := aggregates.NewProgressionAggregate(aggregates.ProgressionAggregateDeps{
		Base:         base,
		Ledgers:      ledgers,
		Achievements: repos.NewAchievementRepo(db, log),
		Events:       journal,
		Courses:      courses,
		Policy:       progression.DefaultConfig(),
	})
	courseAgg := aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{Base: base, Courses: courses})

	m := observability.New()
	emitter := events.NewEmitter(log, &events.Recorder{})
	gen := coursegen.NewGenerator(llm.NewFake(replies...), coursegen.Config{}, log)
	verifier, err := services.NewVerifier(services.AuthConfig{Mode: services.AuthModeDisabled}, nil, log)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	r := NewRouter(RouterConfig{
		Log:             log,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, verifier),
		Metrics:         m,
		XPHandler:       httpH.NewXPHandler(log, services.NewXPService(log, progress, ledgers, journal, emitter, m)),
		ProgressHandler: httpH.NewProgressHandler(log, services.NewProgressService(log, progress, emitter, m)),
		CourseHandler:   httpH.NewCourseHandler(log, services.NewCourseService(log, gen, courseAgg, courses, m)),
		HealthHandler: httpH.NewHealthHandler(map[string]httpH.Pinger{
			"db": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}),
	})
	return &testAPI{router: r, metrics: m}
}

func (a *testAPI) do(t *testing.T, method, path, user string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(httpMW.HeaderUserID, user)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestXPEndpoints(t *testing.T) {
	api := newTestAPI(t)
	user := testutil.UserID("api")

	status, body := api.do(t, http.MethodGet, "/api/xp/"+user, user, nil)
	if status != http.StatusOK || body["totalXP"].(float64) != 0 || body["currentLevel"].(float64) != 1 {
		t.Fatalf("GET ledger: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodPost, "/api/xp/add", user, map[string]any{"userId": user, "amount": 120, "source": "manual"})
	if status != http.StatusOK || body["leveledUp"] != true || body["totalXP"].(float64) != 120 {
		t.Fatalf("add xp: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodPost, "/api/xp/add", user, map[string]any{"userId": user, "amount": 0})
	if status != http.StatusBadRequest || errorCode(body) != services.CodeInvalidAmount {
		t.Fatalf("zero xp: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodPost, "/api/xp/add", user, map[string]any{"userId": user, "amount": int64(1) << 62})
	if status != http.StatusBadRequest || errorCode(body) != services.CodeInvalidBody {
		t.Fatalf("oversized xp: %d %v", status, body)
	}
	if _, body = api.do(t, http.MethodGet, "/api/xp/"+user, user, nil); body["totalXP"].(float64) != 120 {
		t.Fatalf("oversized xp changed the ledger: %v", body)
	}

	status, body = api.do(t, http.MethodPost, "/api/xp/streak/"+user, user, nil)
	if status != http.StatusOK || body["streakContinued"] != true || body["currentStreak"].(float64) != 1 {
		t.Fatalf("streak: %d %v", status, body)
	}

	ach := map[string]any{"userId": user, "name": "First", "description": "d", "xpReward": 10}
	if status, body = api.do(t, http.MethodPost, "/api/xp/achievement", user, ach); status != http.StatusOK {
		t.Fatalf("achievement: %d %v", status, body)
	}
	status, body = api.do(t, http.MethodPost, "/api/xp/achievement", user, ach)
	if status != http.StatusBadRequest || errorCode(body) != services.CodeAchievementExists {
		t.Fatalf("duplicate achievement: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodGet, "/api/xp/rank/"+user, "someone", nil)
	if status != http.StatusOK || body["rank"].(float64) < 1 {
		t.Fatalf("rank: %d %v", status, body)
	}
	status, body = api.do(t, http.MethodGet, "/api/xp/rank/nobody", "someone", nil)
	if status != http.StatusNotFound || errorCode(body) != services.CodeLedgerNotFound {
		t.Fatalf("missing rank: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodGet, "/api/leaderboard?limit=5", "someone", nil)
	board, _ := body["leaderboard"].([]any)
	if status != http.StatusOK || len(board) == 0 {
		t.Fatalf("leaderboard: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodGet, "/api/xp/"+user+"/history", user, nil)
	history, _ := body["history"].([]any)
	if status != http.StatusOK || len(history) != 2 {
		t.Fatalf("history: %d %v", status, body)
	}
}

func TestAuthRules(t *testing.T) {
	api := newTestAPI(t)

	if status, _ := api.do(t, http.MethodGet, "/api/leaderboard", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", status)
	}
	status, body := api.do(t, http.MethodPost, "/api/xp/add", "alice", map[string]any{"userId": "bob", "amount": 10})
	if status != http.StatusForbidden || errorCode(body) != services.CodeForbidden {
		t.Fatalf("foreign user: %d %v", status, body)
	}
	status, body = api.do(t, http.MethodPost, "/api/xp/add", "alice", map[string]any{"amount": 10})
	if status != http.StatusBadRequest || errorCode(body) != services.CodeInvalidBody {
		t.Fatalf("missing userId: %d %v", status, body)
	}
	fields, _ := body["error"].(map[string]any)["fields"].(map[string]any)
	if _, ok := fields["userId"]; !ok {
		t.Fatalf("field errors should use json names: %v", body)
	}
	if status, _ := api.do(t, http.MethodGet, "/healthcheck", "", nil); status != http.StatusOK {
		t.Fatalf("healthcheck: %d", status)
	}
	if status, _ := api.do(t, http.MethodGet, "/readyz", "", nil); status != http.StatusOK {
		t.Fatalf("readyz: %d", status)
	}
}

func TestCourseFlow(t *testing.T) {
	api := newTestAPI(t, llm.FakeReply{Text: courseReply}, llm.FakeReply{Text: "sorry, I cannot"})
	user := testutil.UserID("learner")

	status, body := api.do(t, http.MethodPost, "/api/courses/generate", user, map[string]any{"topic": "Go", "difficulty": "beginner", "chapterCount": 2, "lessonsPerChapter": 2})
	if status != http.StatusCreated {
		t.Fatalf("generate: %d %v", status, body)
	}
	created := body["course"].(map[string]any)
	courseID := created["id"].(string)

	status, body = api.do(t, http.MethodPost, "/api/courses/generate", user, map[string]any{"topic": "Rust"})
	if status != http.StatusBadGateway || errorCode(body) != services.CodeGenerationFailed {
		t.Fatalf("failed generation: %d %v", status, body)
	}
	status, body = api.do(t, http.MethodPost, "/api/courses/generate", user, map[string]any{"topic": "Go", "difficulty": "expert"})
	if status != http.StatusBadRequest {
		t.Fatalf("bad difficulty: %d %v", status, body)
	}

	status, body = api.do(t, http.MethodPost, "/api/lesson/complete", user, map[string]any{"userId": user, "courseId": courseID, "chapterIndex": 1, "lessonIndex": 0})
	if status != http.StatusConflict || errorCode(body) != services.CodeLessonLocked {
		t.Fatalf("locked lesson: %d %v", status, body)
	}

	quiz := map[string]any{"userId": user, "courseId": courseID, "chapterIndex": 0, "lessonIndex": 0, "score": 1, "totalQuestions": 1}
	status, body = api.do(t, http.MethodPost, "/api/quiz/complete", user, quiz)
	if status != http.StatusOK || body["passed"] != true || body["percentage"].(float64) != 100 || body["nextLessonUnlocked"] != true {
		t.Fatalf("quiz: %d %v", status, body)
	}
	if body["xpAwarded"].(float64) <= 0 || body["chapterCompleted"] != false {
		t.Fatalf("quiz rewards: %v", body)
	}

	status, body = api.do(t, http.MethodPost, "/api/lesson/complete", user, map[string]any{"userId": user, "courseId": courseID, "chapterIndex": 0, "lessonIndex": 1})
	if status != http.StatusOK || body["chapterCompleted"] != true || body["nextChapterUnlocked"] != true {
		t.Fatalf("lesson: %d %v", status, body)
	}
	if _, ok := body["percentage"]; ok {
		t.Fatalf("lesson completion should not carry quiz fields: %v", body)
	}

	status, body = api.do(t, http.MethodGet, "/api/courses/"+courseID, user, nil)
	if status != http.StatusOK {
		t.Fatalf("view: %d %v", status, body)
	}
	view := body["course"].(map[string]any)
	chapters := view["chapters"].([]any)
	second := chapters[1].(map[string]any)
	if second["unlocked"] != true || view["progress"].(float64) != 66 {
		t.Fatalf("view flags: %v", view)
	}

	if status, _ := api.do(t, http.MethodGet, "/api/courses/"+courseID, "stranger", nil); status != http.StatusNotFound {
		t.Fatalf("stranger view: %d", status)
	}
	status, body = api.do(t, http.MethodGet, "/api/courses", user, nil)
	if list, _ := body["courses"].([]any); status != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: %d %v", status, body)
	}
	if status, _ := api.do(t, http.MethodDelete, "/api/courses/"+courseID, user, nil); status != http.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	if status, _ := api.do(t, http.MethodGet, "/api/courses/"+courseID, user, nil); status != http.StatusNotFound {
		t.Fatalf("view after delete: %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodGet, "/healthcheck", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("cc_api_requests_total")) {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
