package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sunyi-web/internal/middleware"
	"github.com/hitoshi/sunyi-web/internal/security"
	"github.com/hitoshi/sunyi-web/internal/view"
	"github.com/hitoshi/sunyi-web/internal/view/static"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger   *slog.Logger
	Renderer *view.Renderer

	// セッションとAPIクライアント
	Session SessionService
	GigAPI  GigAPIInterface
	UserAPI UserAPIInterface

	// セキュリティ
	Sanitizer  security.DescriptionSanitizerService
	SSRFGuard  security.SSRFGuardService
	CSRFConfig middleware.CSRFConfig

	// 画像プロキシ
	ImageClient  *http.Client
	ImageMaxSize int64

	// レート制限
	RateLimiter *middleware.RateLimiter

	// メトリクス（nil可）
	AuthMetrics    AuthMetrics
	ImageMetrics   ImageProxyMetrics
	MetricsHandler http.Handler
}

// NewRouter は全ページのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders
//
// ページルートにはさらにレート制限とCSRF保護が適用される。
// /health、/metrics、/static はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.Session, deps.Renderer, deps.AuthMetrics)
	gigHandler := NewGigHandler(deps.GigAPI, deps.Session, deps.Renderer, deps.Sanitizer)
	profileHandler := NewProfileHandler(deps.UserAPI, deps.Session, deps.Renderer)
	imageHandler := NewImageHandler(deps.SSRFGuard, deps.ImageClient, deps.ImageMaxSize, deps.Logger, deps.ImageMetrics)

	// --- 運用系ルート（レート制限・CSRFの外） ---

	r.Get("/health", handleHealth)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))

	// --- ページルート ---
	// ミドルウェアスタック: RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// ライブ閲覧
		r.Get("/", gigHandler.Home)
		r.Get("/organizers/{id}", gigHandler.OrganizerGigs)

		// 認証（POSTには認証専用レート制限を追加）
		r.Get("/login", authHandler.ShowLogin)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
		r.Get("/register", authHandler.ShowRegister)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)

		// ライブ管理
		r.Route("/gigs", func(r chi.Router) {
			r.Get("/new", gigHandler.ShowCreateForm)
			r.Post("/new", gigHandler.CreateGig)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", gigHandler.GigDetail)
				r.Get("/edit", gigHandler.ShowEditForm)
				r.Post("/edit", gigHandler.UpdateGig)
				r.Post("/delete", gigHandler.DeleteGig)
			})
		})

		// プロフィール
		r.Get("/profile", profileHandler.ShowProfile)
		r.Post("/profile", profileHandler.UpdateProfile)

		// 画像プロキシ
		r.Get("/img", imageHandler.Proxy)
	})

	return r
}

// handleHealth はヘルスチェックレスポンスを返す。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
