// Package model はドメインモデルを定義する。
package model

import "time"

// UserRole はユーザーの役割を表す。
// リモートAPIのワイヤ値と一致させる（"user" が一般参加者、"organizer" が主催者）。
type UserRole string

const (
	// RoleUser は一般参加者（ライブを探す側）の役割。
	RoleUser UserRole = "user"
	// RoleOrganizer はライブを作成・管理できる主催者の役割。
	RoleOrganizer UserRole = "organizer"
)

// User は認証済みユーザー（Identity）を表す。
// ログイン・登録レスポンスで丸ごと置き換えられ、セッション存続中は不変として扱う。
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         UserRole  `json:"role"`
	Bio          *string   `json:"bio"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsOrganizer はユーザーが主催者役割かどうかを返す。
func (u *User) IsOrganizer() bool {
	return u.Role == RoleOrganizer
}

// LoginInput はログインリクエストのボディ。
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput はアカウント登録リクエストのボディ。
type RegisterInput struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// UpdateUserInput はプロフィール更新リクエストのボディ。
// nilのフィールドはリクエストから省略され、サーバー側で変更されない。
type UpdateUserInput struct {
	Username     *string `json:"username,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// AuthResponse は認証系エンドポイント（登録・ログイン）のレスポンス。
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
