// Package app はアプリケーションの起動・初期化・シャットダウンを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/sunyi-web/internal/api"
	"github.com/hitoshi/sunyi-web/internal/config"
	"github.com/hitoshi/sunyi-web/internal/handler"
	"github.com/hitoshi/sunyi-web/internal/logger"
	"github.com/hitoshi/sunyi-web/internal/metrics"
	"github.com/hitoshi/sunyi-web/internal/middleware"
	"github.com/hitoshi/sunyi-web/internal/security"
	"github.com/hitoshi/sunyi-web/internal/session"
	"github.com/hitoshi/sunyi-web/internal/tokenstore"
	"github.com/hitoshi/sunyi-web/internal/view"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	return runServe(cfg)
}

// runServe はWebサーバーモードで起動する。
// 全依存関係をワイヤリングし、起動時にセッション復元を1回行い、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. トークンストアの初期化
	tokens := tokenstore.NewFileStore(cfg.TokenFile)

	// 3. APIクライアントの初期化
	apiClient := api.NewClient(
		&http.Client{Timeout: cfg.APITimeout},
		slog.Default(),
		cfg.APIBaseURL,
		tokens,
		collector,
	)

	// 4. セッションストアの初期化と起動時復元
	sess := session.NewStore(apiClient, tokens)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), cfg.APITimeout)
	sess.Restore(restoreCtx)
	cancelRestore()

	// 5. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewDescriptionSanitizer()

	// 6. テンプレートレンダラーの初期化
	renderer, err := view.NewRenderer(slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:   slog.Default(),
		Renderer: renderer,

		Session: sess,
		GigAPI:  apiClient,
		UserAPI: apiClient,

		Sanitizer: sanitizer,
		SSRFGuard: ssrfGuard,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		ImageClient:  ssrfGuard.NewSafeClient(cfg.ImageProxyTimeout, cfg.ImageProxyMaxSize),
		ImageMaxSize: cfg.ImageProxyMaxSize,

		RateLimiter: rateLimiter,

		AuthMetrics:    collector,
		ImageMetrics:   collector,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
