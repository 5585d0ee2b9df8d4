package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/sunyi-web/internal/security"
)

// ImageProxyMetrics は画像プロキシのメトリクス収集インターフェース。
type ImageProxyMetrics interface {
	// RecordImageProxy は画像プロキシリクエストの結果を記録する。
	RecordImageProxy(result string)
}

// nopImageProxyMetrics はメトリクス収集を行わないImageProxyMetricsの実装。
type nopImageProxyMetrics struct{}

func (nopImageProxyMetrics) RecordImageProxy(result string) {}

// ImageHandler は外部画像のプロキシ配信を行うHTTPハンドラー。
// ライブのポスターやプロフィール画像は主催者・ユーザーが入力した外部URLのため、
// SSRF防止付きクライアント経由でのみ取得し、画像以外のコンテンツは配信しない。
type ImageHandler struct {
	guard      security.SSRFGuardService
	safeClient *http.Client
	maxSize    int64
	logger     *slog.Logger
	metrics    ImageProxyMetrics
}

// NewImageHandler はImageHandlerを生成する。
// safeClientにはSSRFGuardService.NewSafeClientで生成したクライアントを渡す。
// metricsがnilの場合はメトリクス収集を行わない。
func NewImageHandler(guard security.SSRFGuardService, safeClient *http.Client, maxSize int64, logger *slog.Logger, metrics ImageProxyMetrics) *ImageHandler {
	if metrics == nil {
		metrics = nopImageProxyMetrics{}
	}
	return &ImageHandler{
		guard:      guard,
		safeClient: safeClient,
		maxSize:    maxSize,
		logger:     logger,
		metrics:    metrics,
	}
}

// Proxy は外部画像を取得してそのまま配信する。
// GET /img?src=<URL>
func (h *ImageHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		h.metrics.RecordImageProxy("missing_src")
		http.Error(w, "src parameter is required", http.StatusBadRequest)
		return
	}

	// 事前の静的検証。DNS解決後のIP検証はsafeClientのDialer側で行われる。
	if err := h.guard.ValidateURL(src); err != nil {
		h.metrics.RecordImageProxy("blocked")
		h.logger.Warn("画像URLをブロックしました",
			slog.String("url", src),
			slog.String("error", err.Error()),
		)
		http.Error(w, "forbidden image source", http.StatusForbidden)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
	if err != nil {
		h.metrics.RecordImageProxy("invalid_url")
		http.Error(w, "invalid image URL", http.StatusBadRequest)
		return
	}

	resp, err := h.safeClient.Do(req)
	if err != nil {
		h.metrics.RecordImageProxy("fetch_error")
		h.logger.Warn("画像の取得に失敗しました",
			slog.String("url", src),
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to fetch image", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.metrics.RecordImageProxy("bad_status")
		http.Error(w, "failed to fetch image", http.StatusBadGateway)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.metrics.RecordImageProxy("not_image")
		http.Error(w, "source is not an image", http.StatusUnsupportedMediaType)
		return
	}

	// サイズ上限を超えた読み込みを防ぐ。上限+1バイト読めた場合は超過と判定する。
	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		h.metrics.RecordImageProxy("fetch_error")
		http.Error(w, "failed to read image", http.StatusBadGateway)
		return
	}
	if int64(len(body)) > h.maxSize {
		h.metrics.RecordImageProxy("too_large")
		http.Error(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	h.metrics.RecordImageProxy("success")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(body)
}
