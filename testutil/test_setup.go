// Package testutil はテストで共通して使うセットアップ関数を提供します。
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"todo-api/internal/metrics"
	"todo-api/internal/models"
	"todo-api/internal/repositories"
	"todo-api/internal/routes"
)

// FixedNow はテストで使う固定の現在時刻です。
var FixedNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

// TestEnv はテスト用に組み立てたルーターとその依存関係です。
type TestEnv struct {
	Router  *gin.Engine
	Store   *repositories.InMemoryTaskStore
	Logs    *observer.ObservedLogs
	Metrics *metrics.Metrics
}

// SetupTestRouter はテスト用のGinルーターとインメモリストアをセットアップします。
// ログは observer に記録され、現在時刻は FixedNow に固定されます。
func SetupTestRouter(t *testing.T, seed ...models.Todo) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	store := repositories.NewInMemoryTaskStore(seed...)
	m := metrics.New()

	r := routes.SetupRouter(store, routes.Options{
		AllowOrigins: []string{"http://localhost:3000"},
		Logger:       zap.New(core),
		Metrics:      m,
		Now:          func() time.Time { return FixedNow },
	})

	return &TestEnv{Router: r, Store: store, Logs: logs, Metrics: m}
}

// Do はルーターにリクエストを送り、レスポンスを返します。body が nil でなければJSONとして送ります。
func (e *TestEnv) Do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		return e.DoRaw(t, method, path, nil)
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return e.DoRaw(t, method, path, bytes.NewReader(data))
}

// DoRaw は body をそのまま送ります。不正なJSONのテストに使います。
func (e *TestEnv) DoRaw(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// NewTodo は FixedNow より後が期限の未完了Todoを作成します。
func NewTodo(id int, name string) models.Todo {
	return models.Todo{
		ID:      id,
		Name:    name,
		DueDate: models.NewDueDate(FixedNow.Add(24 * time.Hour)),
	}
}

// CreateTestTodo は POST /todos でTODOを作成し、201であることを確認します。
func (e *TestEnv) CreateTestTodo(t *testing.T, todo models.Todo) models.Todo {
	t.Helper()

	resp := e.Do(t, http.MethodPost, "/todos", todo)
	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	var created models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return created
}
