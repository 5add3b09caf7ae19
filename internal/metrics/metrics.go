// Package metrics содержит метрики Prometheus сервиса мониторинга рисков.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "risk_monitor"

var (
	// HTTPRequestsTotal считает HTTP-запросы по методу, шаблону пути и классу статуса.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern and status class.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration время обработки запроса.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RiskScoresTotal считает выполненные оценки по уровню риска.
	RiskScoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_scores_total",
			Help:      "Total user risk assessments by resulting level.",
		},
		[]string{"level"},
	)

	// RiskScoreDuration время расчёта по операции (analysis, ranking, stats).
	RiskScoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score_duration_seconds",
			Help:      "Time spent loading histories and scoring them, by operation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"operation"},
	)

	// CacheLookupsTotal считает обращения к кэшу анализа (hit, miss, error).
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Risk analysis cache lookups by result.",
		},
		[]string{"result"},
	)

	// AlertsPublishedTotal считает алерты по уровню и результату публикации.
	AlertsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Risk alerts published to the broker by level and result.",
		},
		[]string{"level", "result"},
	)

	// NotificationsTotal считает письма по алертам по уровню и результату отправки.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Risk alert notifications by level and result.",
		},
		[]string{"level", "result"},
	)

	// DBOpenConnections число открытых соединений с базой.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBInUseConnections число занятых соединений.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount текущее число горутин.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RiskScoresTotal,
		RiskScoreDuration,
		CacheLookupsTotal,
		AlertsPublishedTotal,
		NotificationsTotal,
		DBOpenConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// Handler отдаёт метрики для /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware записывает метрики запроса. Путь берётся из шаблона маршрута chi,
// чтобы ID пользователей не раздували число серий.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := routePattern(r)
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, statusBucket(ww.Status())).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusBucket группирует коды ответа по классам (2xx, 4xx, ...).
func statusBucket(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}

// ObserveScore учитывает одну оценку с уровнем level.
func ObserveScore(level string) {
	RiskScoresTotal.WithLabelValues(level).Inc()
}

// Since записывает длительность операции, начатой в start.
func Since(operation string, start time.Time) {
	RiskScoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// StartDBStatsCollector периодически снимает sql.DBStats и число горутин.
// Запускается в отдельной горутине и завершается по ctx.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}
