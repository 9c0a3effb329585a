// Package metrics は Prometheus のメトリクスを提供します。
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリケーションが公開するメトリクスの集合です。
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal *prometheus.CounterVec
	TodosStored   prometheus.Gauge
	TodosCreated  prometheus.Counter
	ValidationErr *prometheus.CounterVec
}

// New は専用のレジストリにメトリクスを登録して返します。
// テストごとに New を呼んでもグローバルレジストリと衝突しません。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_api_http_requests_total",
			Help: "Number of handled HTTP requests.",
		}, []string{"method", "route", "status"}),
		TodosStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "todo_api_todos_stored",
			Help: "Number of todos currently held by the store.",
		}),
		TodosCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todo_api_todos_created_total",
			Help: "Number of todos accepted by POST /todos.",
		}),
		ValidationErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_api_validation_errors_total",
			Help: "Number of rejected creation payloads, by field.",
		}, []string{"field"}),
	}
	m.registry.MustRegister(m.RequestsTotal, m.TodosStored, m.TodosCreated, m.ValidationErr)
	return m
}

// Registry は内部のレジストリを返します。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は /metrics 用の gin ハンドラーです。
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware はリクエスト数をカウントします。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
