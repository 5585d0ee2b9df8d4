// Package handler はサーバーレンダリングページのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/sunyi-web/internal/middleware"
	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/view"
)

// SessionService はハンドラーが必要とするセッション操作のインターフェース。
type SessionService interface {
	// LogIn は資格情報でログインし、成功時にセッションとトークンを永続化する。
	LogIn(ctx context.Context, email, password string) error
	// Register は新規アカウントを登録し、成功時にそのままログイン状態にする。
	Register(ctx context.Context, username, email, password string, role model.UserRole) error
	// LogOut はセッションと永続トークンを消去する。冪等。
	LogOut()
	// Current は現在のIdentityを返す。未ログインの場合はnil。
	Current() *model.User
	// IsOrganizer はログイン中かつ主催者役割の場合にtrueを返す。
	IsOrganizer() bool
}

// newPageData はセッション状態とCSRFトークンを反映した共通ページデータを生成する。
func newPageData(r *http.Request, sess SessionService, title string) view.PageData {
	return view.PageData{
		Title:       title,
		CurrentUser: sess.Current(),
		IsOrganizer: sess.IsOrganizer(),
		CSRFToken:   middleware.CSRFTokenFromContext(r.Context()),
	}
}

// httpStatusForAPIError はAPIErrorをページレスポンスのHTTPステータスに変換する。
// リモートAPIの4xxはそのまま透過し、トランスポート失敗とリモート5xxは502として扱う。
func httpStatusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeOrganizerRequired:
		return http.StatusForbidden
	case model.ErrCodeInvalidInput:
		return http.StatusBadRequest
	}

	if apiErr.HTTPStatus >= 400 && apiErr.HTTPStatus < 500 {
		return apiErr.HTTPStatus
	}
	return http.StatusBadGateway
}

// renderError はエラーをエラーページとしてレンダリングする。
// APIError以外のエラーは内部エラーとして汎用メッセージを表示する。
func renderError(rd *view.Renderer, w http.ResponseWriter, r *http.Request, sess SessionService, err error) {
	data := newPageData(r, sess, "エラー")

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		data.Data = view.ErrorData{
			Code:     apiErr.Code,
			Message:  apiErr.Message,
			Action:   apiErr.Action,
			HomeLink: true,
		}
		rd.Render(w, httpStatusForAPIError(apiErr), "error.html", data)
		return
	}

	data.Data = view.ErrorData{
		Message:  "内部エラーが発生しました。",
		Action:   "しばらく待ってから再度お試しください。",
		HomeLink: true,
	}
	rd.Render(w, http.StatusInternalServerError, "error.html", data)
}

// errorMessage はフォーム再表示用にエラーメッセージを抽出する。
func errorMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "エラーが発生しました。しばらく待ってから再度お試しください。"
}
