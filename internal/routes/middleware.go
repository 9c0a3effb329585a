package routes

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader はリクエストIDをやり取りするヘッダーです。
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey は gin.Context にリクエストIDを保存するキーです。
	RequestIDKey = "request_id"

	legacyPrefix = "/tasks/"
	todosPrefix  = "/todos/"
)

// RequestID はリクエストIDをコンテキストとレスポンスヘッダーに設定するミドルウェアです。
// クライアントがヘッダーで送ってきた場合はそれを使います。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger はすべてのリクエストの開始と終了をログに出力するミドルウェアです。
// 終了ログは defer で出力するため、後続のハンドラーがpanicした場合も記録されます。
func RequestLogger(logger *zap.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.Request.URL.Path

		var fields []zap.Field
		if id := c.GetString(RequestIDKey); id != "" {
			fields = append(fields, zap.String(RequestIDKey, id))
		}

		logger.Info(traceLine(method, path, now(), "Started."), fields...)

		start := time.Now()
		defer func() {
			logger.Info(traceLine(method, path, now(), "Finished."),
				append(fields,
					zap.Int("status", c.Writer.Status()),
					zap.Duration("latency", time.Since(start)),
				)...)
		}()

		c.Next()
	}
}

func traceLine(method, path string, ts time.Time, tag string) string {
	return fmt.Sprintf("[%s %s %s] %s", method, path, ts.UTC().Format(time.RFC3339), tag)
}

// Recovery はpanicを zap に記録し、500を返すミドルウェアです。
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("error", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// RewriteLegacyPaths は /tasks/ で始まるパスを /todos/ にリダイレクトします。
// パーセントエンコードはそのまま引き継ぎ、"." や ".." を含むパスは 400 を返します。
func RewriteLegacyPaths() gin.HandlerFunc {
	return func(c *gin.Context) {
		escaped := c.Request.URL.EscapedPath()
		if !strings.HasPrefix(escaped, legacyPrefix) {
			return
		}

		if hasDotSegment(strings.TrimPrefix(c.Request.URL.Path, legacyPrefix)) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid path"})
			return
		}

		target := todosPrefix + strings.TrimPrefix(escaped, legacyPrefix)
		if q := c.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// hasDotSegment は p に "." または ".." のセグメントがあるかを返します。
func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}
