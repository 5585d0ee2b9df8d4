// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法、およびリモートAPIのHTTPステータスを含む。
type APIError struct {
	Code       string // エラーコード
	Message    string // エラーメッセージ
	Category   string // カテゴリ: auth, validation, api, system
	Action     string // ユーザー向け対処方法
	HTTPStatus int    // リモートAPIのHTTPステータス（トランスポート失敗時は0）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeTransportFailure   = "TRANSPORT_FAILURE"
	ErrCodeAuthFailed         = "AUTHENTICATION_FAILED"
	ErrCodeRegistrationFailed = "REGISTRATION_FAILED"
	ErrCodeSessionRestoreFail = "SESSION_RESTORE_FAILED"
	ErrCodeResourceOpFailed   = "RESOURCE_OPERATION_FAILED"
	ErrCodeOrganizerRequired  = "ORGANIZER_REQUIRED"
	ErrCodeInvalidInput       = "INVALID_INPUT"
)

// NewTransportFailureError はネットワーク到達不能エラーを生成する。
// 接続自体が完了しなかった場合に使用し、HTTPステータスは持たない。
func NewTransportFailureError(reason string) *APIError {
	return &APIError{
		Code:       ErrCodeTransportFailure,
		Message:    fmt.Sprintf("サーバーに接続できませんでした: %s", reason),
		Category:   "api",
		Action:     "ネットワーク接続を確認し、しばらく待ってから再度お試しください。",
		HTTPStatus: 0,
	}
}

// NewAuthenticationFailedError はログイン拒否エラーを生成する。
// サーバーからのメッセージがある場合はそれを、ない場合は汎用メッセージを使用する。
func NewAuthenticationFailedError(status int, serverMessage string) *APIError {
	msg := serverMessage
	if msg == "" {
		msg = "メールアドレスまたはパスワードが正しくありません。"
	}
	return &APIError{
		Code:       ErrCodeAuthFailed,
		Message:    msg,
		Category:   "auth",
		Action:     "入力内容を確認して再度ログインしてください。",
		HTTPStatus: status,
	}
}

// NewRegistrationFailedError はアカウント登録拒否エラーを生成する。
func NewRegistrationFailedError(status int, serverMessage string) *APIError {
	msg := serverMessage
	if msg == "" {
		msg = "アカウント登録に失敗しました。"
	}
	return &APIError{
		Code:       ErrCodeRegistrationFailed,
		Message:    msg,
		Category:   "auth",
		Action:     "入力内容を確認して再度お試しください。",
		HTTPStatus: status,
	}
}

// NewSessionRestorationFailedError はセッション復元失敗エラーを生成する。
// セッションストア内部でのみ使用し、呼び出し元には伝播しない。
func NewSessionRestorationFailedError(status int) *APIError {
	return &APIError{
		Code:       ErrCodeSessionRestoreFail,
		Message:    "保存されたトークンが無効になっています。",
		Category:   "auth",
		Action:     "再度ログインしてください。",
		HTTPStatus: status,
	}
}

// NewResourceOperationFailedError はライブ・ユーザーのCRUD操作失敗エラーを生成する。
// HTTPステータスとサーバーからのメッセージを保持する。
func NewResourceOperationFailedError(status int, serverMessage string) *APIError {
	msg := serverMessage
	if msg == "" {
		msg = fmt.Sprintf("サーバーがステータス %d を返しました。", status)
	}
	return &APIError{
		Code:       ErrCodeResourceOpFailed,
		Message:    msg,
		Category:   "api",
		Action:     "しばらく待ってから再度お試しください。",
		HTTPStatus: status,
	}
}

// NewOrganizerRequiredError は主催者権限が必要な操作への拒否エラーを生成する。
func NewOrganizerRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeOrganizerRequired,
		Message:  "この操作には主催者アカウントが必要です。",
		Category: "auth",
		Action:   "主催者としてログインするか、主催者アカウントを登録してください。",
	}
}

// NewInvalidInputError はフォーム入力の検証エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
