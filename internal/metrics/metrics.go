// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// APIクライアント・認証フロー・画像プロキシから利用する。
type Collector struct {
	apiRequests  *prometheus.CounterVec
	apiLatency   prometheus.Histogram
	authAttempts *prometheus.CounterVec
	imageProxy   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sunyiweb_api_requests_total",
			Help: "リモートAPI呼び出しの合計数（操作・ステータス別）",
		}, []string{"operation", "status"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sunyiweb_api_request_duration_seconds",
			Help:    "リモートAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sunyiweb_auth_attempts_total",
			Help: "認証試行の合計数（種別・結果別）",
		}, []string{"kind", "result"}),
		imageProxy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sunyiweb_image_proxy_total",
			Help: "画像プロキシリクエストの合計数（結果別）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.authAttempts,
		c.imageProxy,
	)

	return c
}

// RecordAPIRequest はリモートAPI呼び出しの結果を記録する。
// statusはHTTPステータスコード（トランスポート失敗時は0）。
func (c *Collector) RecordAPIRequest(operation string, status int, duration time.Duration) {
	c.apiRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	c.apiLatency.Observe(duration.Seconds())
}

// RecordAuthAttempt は認証試行を記録する。
// kindは"login"または"register"、resultは"success"または"failure"。
func (c *Collector) RecordAuthAttempt(kind, result string) {
	c.authAttempts.WithLabelValues(kind, result).Inc()
}

// RecordImageProxy は画像プロキシリクエストの結果を記録する。
// resultは"success"、"blocked"、"fetch_error"などの結果ラベル。
func (c *Collector) RecordImageProxy(result string) {
	c.imageProxy.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
