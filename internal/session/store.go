// Package session はプロセス全体で唯一の認証セッションスロットを管理する。
// ログイン・登録・ログアウト・起動時復元の操作と、役割に基づく
// 機能ゲート（主催者判定）を提供する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/tokenstore"
)

// APIClient はセッションストアが必要とするAPIクライアントのインターフェース。
// 資格情報の交換と現在ユーザーの取得のみを使用する。
type APIClient interface {
	Login(ctx context.Context, input model.LoginInput) (*model.AuthResponse, error)
	Register(ctx context.Context, input model.RegisterInput) (*model.AuthResponse, error)
	CurrentUser(ctx context.Context) (*model.User, error)
}

// Store は認証済みセッションの単一スロット。
// Identityとトークンは必ず同時に設定・消去される（復元中を除き、
// トークンだけが存在する状態は観測されない）。
//
// セッションを変更する操作はロックで直列化される。LogInとLogOutが
// 競合した場合は後に完了した変更が勝つ。
type Store struct {
	api    APIClient
	tokens tokenstore.Store

	mu        sync.RWMutex
	user      *model.User
	token     string
	restoring bool
}

// NewStore はStoreを生成する。
// 復元フラグはRestoreが完了するまでtrueのままとなる。
func NewStore(api APIClient, tokens tokenstore.Store) *Store {
	return &Store{
		api:       api,
		tokens:    tokens,
		restoring: true,
	}
}

// Restore は起動時に1回呼び出され、永続化されたトークンからセッションを復元する。
// トークンが存在しない場合はネットワーク呼び出しなしで空セッションのまま完了する。
// トークンがサーバーに拒否された場合は永続トークンを削除し、空セッションに戻す。
// 復元失敗は「未ログイン」と同義のため、エラーは呼び出し元に伝播しない。
func (s *Store) Restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.restoring = false
		s.mu.Unlock()
	}()

	token, err := s.tokens.Load()
	if err != nil {
		slog.Warn("永続トークンの読み込みに失敗しました。未ログインとして起動します",
			slog.String("error", err.Error()),
		)
		return
	}
	if token == "" {
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		// 無効トークンの自己修復: 永続トークンを削除して未ログイン状態に戻す
		slog.Info("セッションの復元に失敗しました。保存されたトークンを破棄します",
			slog.String("error", err.Error()),
		)
		if clearErr := s.tokens.Clear(); clearErr != nil {
			slog.Error("無効トークンの削除に失敗しました",
				slog.String("error", clearErr.Error()),
			)
		}
		s.mu.Lock()
		s.user = nil
		s.token = ""
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	slog.Info("セッションを復元しました",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
}

// LogIn は資格情報でログインし、成功時にセッションとトークンを永続化する。
// 失敗時はAPIレイヤーのエラーをそのまま伝播し、セッションには一切触れない。
func (s *Store) LogIn(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, model.LoginInput{Email: email, Password: password})
	if err != nil {
		return err
	}

	if err := s.tokens.Save(resp.Token); err != nil {
		return fmt.Errorf("トークンの永続化に失敗しました: %w", err)
	}

	s.mu.Lock()
	user := resp.User
	s.user = &user
	s.token = resp.Token
	s.mu.Unlock()

	slog.Info("ログインしました",
		slog.String("user_id", resp.User.ID),
		slog.String("role", string(resp.User.Role)),
	)
	return nil
}

// Register は新規アカウントを登録し、成功時にそのままログイン状態にする。
// 成功・失敗の契約はLogInと同じ。
func (s *Store) Register(ctx context.Context, username, email, password string, role model.UserRole) error {
	resp, err := s.api.Register(ctx, model.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return err
	}

	if err := s.tokens.Save(resp.Token); err != nil {
		return fmt.Errorf("トークンの永続化に失敗しました: %w", err)
	}

	s.mu.Lock()
	user := resp.User
	s.user = &user
	s.token = resp.Token
	s.mu.Unlock()

	slog.Info("アカウントを登録しました",
		slog.String("user_id", resp.User.ID),
		slog.String("role", string(resp.User.Role)),
	)
	return nil
}

// LogOut はセッションと永続トークンを消去する。ネットワーク呼び出しは行わない。
// 常に成功し、2回連続で呼んでも2回目はno-opとなる（冪等）。
func (s *Store) LogOut() {
	s.mu.Lock()
	wasLoggedIn := s.user != nil
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.tokens.Clear(); err != nil {
		// 永続トークンの削除失敗はログのみ。セッション自体は消去済み。
		slog.Error("永続トークンの削除に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	if wasLoggedIn {
		slog.Info("ログアウトしました")
	}
}

// Current は現在のIdentityを返す。未ログインの場合はnil。
func (s *Store) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token は現在のベアラートークンを返す。未ログインの場合は空文字列。
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Restoring は起動時の復元処理が進行中かどうかを返す。
func (s *Store) Restoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restoring
}

// IsOrganizer はセッションのIdentityが存在し、かつ主催者役割である場合にtrueを返す。
// ログイン・ログアウト直後の陳腐化を避けるため、毎回計算しキャッシュしない。
func (s *Store) IsOrganizer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsOrganizer()
}
