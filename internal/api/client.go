// Package api はSunyiリモートAPIの型付きクライアントを提供する。
// ベアラートークンの付与はこのレイヤーに一元化される。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/tokenstore"
)

// MetricsRecorder はAPIクライアントのメトリクス収集インターフェース。
type MetricsRecorder interface {
	// RecordAPIRequest はリモートAPI呼び出しの結果を記録する。
	// statusはHTTPステータスコード（トランスポート失敗時は0）。
	RecordAPIRequest(operation string, status int, duration time.Duration)
}

// nopMetrics はメトリクス収集を行わないMetricsRecorderの実装。
type nopMetrics struct{}

func (nopMetrics) RecordAPIRequest(operation string, status int, duration time.Duration) {}

// Client はSunyi APIの型付きHTTPクライアント。
// 各操作はちょうど1回のラウンドトリップを行い、リトライ・キャッシュ・
// リクエスト重複排除は行わない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	tokens     tokenstore.Store
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは起動時に確定し、以降変更されない。
// metricsがnilの場合はメトリクス収集を行わない。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string, tokens tokenstore.Store, metrics MetricsRecorder) *Client {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		metrics:    metrics,
	}
}

// errorBody はリモートAPIのエラーレスポンスボディ。
type errorBody struct {
	Error string `json:"error"`
}

// do は1回のAPIラウンドトリップを実行する。
// 2xxレスポンスの場合はボディをoutにデコードし、ステータスコードを返す。
// 非2xxレスポンスの場合はエラーボディのメッセージを返す（エラーにはしない。
// エラー種別へのマッピングは各操作が行う）。
// トランスポート失敗はTransportFailureエラーとして返す。
// ベアラートークンは呼び出し時点で毎回永続ストレージから読み直す。
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) (int, string, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, "", fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "SunyiWeb/1.0")

	// トークンはメモリにキャッシュせず、呼び出しごとにストレージから読む。
	// 存在しない場合はヘッダーなしでそのまま送信する。
	token, err := c.tokens.Load()
	if err != nil {
		c.logger.Warn("トークンの読み込みに失敗しました。未認証として送信します",
			slog.String("error", err.Error()),
		)
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordAPIRequest(operation, 0, duration)
		c.logger.Error("リモートAPIの呼び出しに失敗しました",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return 0, "", model.NewTransportFailureError(err.Error())
	}
	defer resp.Body.Close()

	c.metrics.RecordAPIRequest(operation, resp.StatusCode, duration)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", model.NewTransportFailureError(err.Error())
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				c.logger.Error("レスポンスボディのパースに失敗しました",
					slog.String("operation", operation),
					slog.String("error", err.Error()),
				)
				return resp.StatusCode, "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
			}
		}
		return resp.StatusCode, "", nil
	}

	// 非2xx: サーバーのエラーメッセージを抽出する（存在しない場合は空文字列）
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	c.logger.Warn("リモートAPIがエラーステータスを返しました",
		slog.String("operation", operation),
		slog.Int("http_status", resp.StatusCode),
	)
	return resp.StatusCode, eb.Error, nil
}

// success は2xxステータスかどうかを返す。
func success(status int) bool {
	return status >= 200 && status < 300
}

// Register は新規アカウントを登録する。
// POST /api/auth/register
func (c *Client) Register(ctx context.Context, input model.RegisterInput) (*model.AuthResponse, error) {
	var out model.AuthResponse
	status, serverMsg, err := c.do(ctx, "register", http.MethodPost, "/api/auth/register", input, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewRegistrationFailedError(status, serverMsg)
	}
	return &out, nil
}

// Login は資格情報による認証を行う。
// POST /api/auth/login
func (c *Client) Login(ctx context.Context, input model.LoginInput) (*model.AuthResponse, error) {
	var out model.AuthResponse
	status, serverMsg, err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", input, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewAuthenticationFailedError(status, serverMsg)
	}
	return &out, nil
}

// CurrentUser は現在のトークンに対応するユーザー情報を取得する。
// GET /api/auth/me
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var out model.User
	status, serverMsg, err := c.do(ctx, "current_user", http.MethodGet, "/api/auth/me", nil, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return &out, nil
}

// ListGigs はライブの一覧を取得する。
// GET /api/gigs
func (c *Client) ListGigs(ctx context.Context) ([]model.Gig, error) {
	var out []model.Gig
	status, serverMsg, err := c.do(ctx, "list_gigs", http.MethodGet, "/api/gigs", nil, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return out, nil
}

// GetGig はIDでライブを取得する。
// GET /api/gigs/{id}
func (c *Client) GetGig(ctx context.Context, id string) (*model.Gig, error) {
	var out model.Gig
	status, serverMsg, err := c.do(ctx, "get_gig", http.MethodGet, "/api/gigs/"+id, nil, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return &out, nil
}

// CreateGig は新しいライブを作成する。主催者権限が必要。
// POST /api/gigs
func (c *Client) CreateGig(ctx context.Context, input model.CreateGigInput) (*model.Gig, error) {
	var out model.Gig
	status, serverMsg, err := c.do(ctx, "create_gig", http.MethodPost, "/api/gigs", input, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return &out, nil
}

// UpdateGig はライブを更新する。nilのフィールドは変更されない。
// PUT /api/gigs/{id}
func (c *Client) UpdateGig(ctx context.Context, id string, input model.UpdateGigInput) (*model.Gig, error) {
	var out model.Gig
	status, serverMsg, err := c.do(ctx, "update_gig", http.MethodPut, "/api/gigs/"+id, input, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return &out, nil
}

// DeleteGig はライブを削除する。
// DELETE /api/gigs/{id}
func (c *Client) DeleteGig(ctx context.Context, id string) error {
	status, serverMsg, err := c.do(ctx, "delete_gig", http.MethodDelete, "/api/gigs/"+id, nil, nil)
	if err != nil {
		return err
	}
	if !success(status) {
		return model.NewResourceOperationFailedError(status, serverMsg)
	}
	return nil
}

// ListGigsByOrganizer は主催者IDでライブの一覧を取得する。
// GET /api/gigs/organizer/{id}
func (c *Client) ListGigsByOrganizer(ctx context.Context, organizerID string) ([]model.Gig, error) {
	var out []model.Gig
	status, serverMsg, err := c.do(ctx, "list_gigs_by_organizer", http.MethodGet, "/api/gigs/organizer/"+organizerID, nil, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return out, nil
}

// GetUser はIDでユーザーを取得する。
// GET /api/users/{id}
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var out model.User
	status, serverMsg, err := c.do(ctx, "get_user", http.MethodGet, "/api/users/"+id, nil, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return &out, nil
}

// UpdateUser はユーザープロフィールを更新する。nilのフィールドは変更されない。
// PUT /api/users/{id}
func (c *Client) UpdateUser(ctx context.Context, id string, input model.UpdateUserInput) (*model.User, error) {
	var out model.User
	status, serverMsg, err := c.do(ctx, "update_user", http.MethodPut, "/api/users/"+id, input, &out)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, model.NewResourceOperationFailedError(status, serverMsg)
	}
	return &out, nil
}
