// Package routesはroutingを行います。
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/handlers"
	"todo-api/internal/metrics"
	"todo-api/internal/repositories"
	"todo-api/internal/services"
)

// Options はルーターの依存関係です。
type Options struct {
	AllowOrigins []string
	Logger       *zap.Logger
	// Metrics が nil の場合 /metrics は登録しません。
	Metrics *metrics.Metrics
	// Now はバリデーションとログで使う現在時刻です。nil の場合は time.Now。
	Now func() time.Time
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
// ミドルウェアは登録順に実行されます: リクエストID -> ログ -> リカバリー -> CORS -> メトリクス -> /tasks リダイレクト
func SetupRouter(store repositories.TaskStore, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := gin.New()

	// CORS対策
	config := cors.DefaultConfig()
	config.AllowOrigins = opts.AllowOrigins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	config.ExposeHeaders = []string{"Location", RequestIDHeader}

	r.Use(RequestID())
	r.Use(RequestLogger(logger, now))
	r.Use(Recovery(logger))
	r.Use(cors.New(config))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(RewriteLegacyPaths())

	// サービス
	todoService := services.NewTodoService(store, opts.Metrics)

	// ハンドラー
	todoHandler := handlers.NewTodoHandler(todoService)

	// ルーティング
	r.GET("/healthz", todoHandler.HealthHandler)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics.Handler())
	}

	todos := r.Group("/todos")
	{
		todos.GET("", todoHandler.GetTodosHandler)
		todos.GET("/", todoHandler.GetTodosHandler)
		todos.GET("/:id", todoHandler.GetTodoByIDHandler)
		todos.POST("", ValidateNewTodo(now, opts.Metrics), todoHandler.CreateTodoHandler)
		todos.DELETE("/:id", todoHandler.DeleteTodoHandler)
	}

	return r
}
