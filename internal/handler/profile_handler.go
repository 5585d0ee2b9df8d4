package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/view"
)

// UserAPIInterface はプロフィールハンドラーが必要とするAPIクライアントのインターフェース。
type UserAPIInterface interface {
	// GetUser はIDでユーザーを取得する。
	GetUser(ctx context.Context, id string) (*model.User, error)
	// UpdateUser はユーザープロフィールを更新する。nilのフィールドは変更されない。
	UpdateUser(ctx context.Context, id string, input model.UpdateUserInput) (*model.User, error)
}

// ProfileHandler はプロフィールページのHTTPハンドラー。
type ProfileHandler struct {
	api      UserAPIInterface
	sess     SessionService
	renderer *view.Renderer
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(api UserAPIInterface, sess SessionService, renderer *view.Renderer) *ProfileHandler {
	return &ProfileHandler{
		api:      api,
		sess:     sess,
		renderer: renderer,
	}
}

// ShowProfile はプロフィールページを表示する。要ログイン。
// GET /profile
// セッションのIdentityはセッション存続中不変のため、表示にはAPIから
// 最新のユーザー情報を取得する（更新直後の再表示を正しくするため）。
func (h *ProfileHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	current := h.sess.Current()
	if current == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.api.GetUser(r.Context(), current.ID)
	if err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	data := newPageData(r, h.sess, "プロフィール")
	data.Data = view.ProfileData{User: user}
	h.renderer.Render(w, http.StatusOK, "profile.html", data)
}

// UpdateProfile はプロフィール編集フォームの送信を処理する。要ログイン。
// POST /profile
// 空欄のフィールドはリクエストから省略され、サーバー側で変更されない。
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current := h.sess.Current()
	if current == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	input := model.UpdateUserInput{}
	if username := strings.TrimSpace(r.PostFormValue("username")); username != "" {
		input.Username = &username
	}
	if bio := r.PostFormValue("bio"); bio != "" {
		input.Bio = &bio
	}
	if profileImage := strings.TrimSpace(r.PostFormValue("profile_image")); profileImage != "" {
		input.ProfileImage = &profileImage
	}

	if _, err := h.api.UpdateUser(r.Context(), current.ID, input); err != nil {
		user, getErr := h.api.GetUser(r.Context(), current.ID)
		if getErr != nil {
			renderError(h.renderer, w, r, h.sess, err)
			return
		}
		data := newPageData(r, h.sess, "プロフィール")
		data.Error = errorMessage(err)
		data.Data = view.ProfileData{User: user}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "profile.html", data)
		return
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
