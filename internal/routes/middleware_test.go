package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"todo-api/internal/routes"
	"todo-api/testutil"
)

func TestRequestLogger_StartedAndFinished(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	w := env.Do(t, http.MethodGet, "/todos/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	entries := env.Logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "[GET /todos/ 2030-06-01T12:00:00Z] Started.", entries[0].Message)
	assert.Equal(t, "[GET /todos/ 2030-06-01T12:00:00Z] Finished.", entries[1].Message)

	fields := entries[1].ContextMap()
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, w.Header().Get(routes.RequestIDHeader), fields[routes.RequestIDKey])
}

func TestRequestLogger_AppliesToEveryRoute(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	env.Do(t, http.MethodGet, "/no/such/route", nil)
	env.Do(t, http.MethodGet, "/tasks/1", nil)

	assert.Equal(t, 1, env.Logs.FilterMessage("[GET /no/such/route 2030-06-01T12:00:00Z] Started.").Len())
	assert.Equal(t, 1, env.Logs.FilterMessage("[GET /no/such/route 2030-06-01T12:00:00Z] Finished.").Len())
	assert.Equal(t, 1, env.Logs.FilterMessage("[GET /tasks/1 2030-06-01T12:00:00Z] Finished.").Len())
}

func TestRequestLogger_FinishedLoggedOnPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	now := func() time.Time { return testutil.FixedNow }

	r := gin.New()
	r.Use(routes.RequestLogger(logger, now), routes.Recovery(logger))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "[GET /boom 2030-06-01T12:00:00Z] Started.", entries[0].Message)
	assert.Equal(t, "panic recovered", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "[GET /boom 2030-06-01T12:00:00Z] Finished.", entries[2].Message)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[2].ContextMap()["status"])
}

func TestRequestLogger_FinishedLoggedWithoutRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	now := func() time.Time { return testutil.FixedNow }

	r := gin.New()
	r.Use(routes.RequestLogger(zap.New(core), now))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	assert.Panics(t, func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.Equal(t, 1, logs.FilterMessage("[GET /boom 2030-06-01T12:00:00Z] Finished.").Len())
}

func TestRequestID_GeneratedAndPropagated(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	w := env.Do(t, http.MethodGet, "/healthz", nil)
	_, err := uuid.Parse(w.Header().Get(routes.RequestIDHeader))
	assert.NoError(t, err, "Expected a generated UUID request id")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(routes.RequestIDHeader, "client-supplied")
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, "client-supplied", w.Header().Get(routes.RequestIDHeader))
}

func TestRewriteLegacyPaths(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	cases := []struct {
		method   string
		path     string
		location string
	}{
		{http.MethodGet, "/tasks/5", "/todos/5"},
		{http.MethodGet, "/tasks/", "/todos/"},
		{http.MethodGet, "/tasks/5?verbose=1", "/todos/5?verbose=1"},
		{http.MethodDelete, "/tasks/9", "/todos/9"},
		{http.MethodPost, "/tasks/a/b", "/todos/a/b"},
		{http.MethodGet, "/tasks/a%2Fb", "/todos/a%2Fb"},
		{http.MethodGet, "/tasks/%35", "/todos/%35"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := env.Do(t, tc.method, tc.path, nil)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tc.location, w.Header().Get("Location"))
		})
	}
}

// /todos/ の外を指すリダイレクトは作らない
func TestRewriteLegacyPaths_RejectsDotSegments(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	for _, path := range []string{"/tasks/../metrics", "/tasks/../../healthz", "/tasks/./5", "/tasks/%2E%2E/metrics", "/tasks/a/.."} {
		t.Run(path, func(t *testing.T) {
			w := env.Do(t, http.MethodGet, path, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, w.Header().Get("Location"))
			assert.JSONEq(t, `{"error":"Invalid path"}`, w.Body.String())
		})
	}
}

func TestRewriteLegacyPaths_DoesNotTouchOtherPaths(t *testing.T) {
	env := testutil.SetupTestRouter(t, testutil.NewTodo(5, "five"))

	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, "/tasks", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, "/mytasks/5", nil).Code)
	assert.Equal(t, http.StatusOK, env.Do(t, http.MethodGet, "/todos/5", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	env.CreateTestTodo(t, testutil.NewTodo(1, "metric"))
	w := env.Do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `todo_api_http_requests_total{method="POST",route="/todos",status="201"} 1`), body)
	assert.Contains(t, body, "todo_api_todos_stored 1")
	assert.Contains(t, body, "todo_api_todos_created_total 1")
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
