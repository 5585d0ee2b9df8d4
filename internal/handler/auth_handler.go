package handler

import (
	"net/http"

	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/view"
)

// AuthMetrics は認証ハンドラーのメトリクス収集インターフェース。
type AuthMetrics interface {
	// RecordAuthAttempt は認証試行の結果を記録する。
	// kindは "login" または "register"、resultは "success" または "failure"。
	RecordAuthAttempt(kind, result string)
}

// nopAuthMetrics はメトリクス収集を行わないAuthMetricsの実装。
type nopAuthMetrics struct{}

func (nopAuthMetrics) RecordAuthAttempt(kind, result string) {}

// AuthHandler はログイン・登録・ログアウトページのHTTPハンドラー。
type AuthHandler struct {
	sess     SessionService
	renderer *view.Renderer
	metrics  AuthMetrics
}

// NewAuthHandler はAuthHandlerを生成する。metricsがnilの場合はメトリクス収集を行わない。
func NewAuthHandler(sess SessionService, renderer *view.Renderer, metrics AuthMetrics) *AuthHandler {
	if metrics == nil {
		metrics = nopAuthMetrics{}
	}
	return &AuthHandler{
		sess:     sess,
		renderer: renderer,
		metrics:  metrics,
	}
}

// ShowLogin はログインフォームを表示する。
// GET /login
// ログイン済みの場合はホームにリダイレクトする。
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.sess.Current() != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, http.StatusOK, "login.html", newPageData(r, h.sess, "ログイン"))
}

// Login はログインフォームの送信を処理する。
// POST /login
// 失敗時はフォームをエラーメッセージ付きで再表示する。セッションは変更されない。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	if email == "" || password == "" {
		data := newPageData(r, h.sess, "ログイン")
		data.Error = "メールアドレスとパスワードを入力してください。"
		h.renderer.Render(w, http.StatusBadRequest, "login.html", data)
		return
	}

	if err := h.sess.LogIn(r.Context(), email, password); err != nil {
		h.metrics.RecordAuthAttempt("login", "failure")
		data := newPageData(r, h.sess, "ログイン")
		data.Error = errorMessage(err)
		h.renderer.Render(w, http.StatusUnauthorized, "login.html", data)
		return
	}

	h.metrics.RecordAuthAttempt("login", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowRegister はアカウント登録フォームを表示する。
// GET /register
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if h.sess.Current() != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, http.StatusOK, "register.html", newPageData(r, h.sess, "アカウント登録"))
}

// Register は登録フォームの送信を処理する。成功時はそのままログイン状態になる。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	role := model.UserRole(r.PostFormValue("role"))

	if username == "" || email == "" || password == "" {
		data := newPageData(r, h.sess, "アカウント登録")
		data.Error = "ユーザー名・メールアドレス・パスワードを入力してください。"
		h.renderer.Render(w, http.StatusBadRequest, "register.html", data)
		return
	}
	if role != model.RoleUser && role != model.RoleOrganizer {
		data := newPageData(r, h.sess, "アカウント登録")
		data.Error = "役割の指定が不正です。"
		h.renderer.Render(w, http.StatusBadRequest, "register.html", data)
		return
	}

	if err := h.sess.Register(r.Context(), username, email, password, role); err != nil {
		h.metrics.RecordAuthAttempt("register", "failure")
		data := newPageData(r, h.sess, "アカウント登録")
		data.Error = errorMessage(err)
		h.renderer.Render(w, http.StatusUnprocessableEntity, "register.html", data)
		return
	}

	h.metrics.RecordAuthAttempt("register", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はログアウトを処理する。常に成功しホームにリダイレクトする。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sess.LogOut()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
