// Package view はサーバーサイドレンダリングのテンプレート群とレンダラーを提供する。
// テンプレートはembedでバイナリに埋め込まれ、起動時に一括パースされる。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sunyi-web/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PageData は全ページ共通のテンプレートデータ。
// Dataにページ固有のデータを格納する。
type PageData struct {
	Title       string
	CurrentUser *model.User
	IsOrganizer bool
	CSRFToken   string
	Error       string
	Data        any
}

// GigFormData はライブ作成・編集フォームのページ固有データ。
// 編集時はGigに既存値が入り、新規作成時はnil。
type GigFormData struct {
	Gig       *model.Gig
	IsEdit    bool
	ActionURL string
	Genres    string // カンマ区切りの編集用表現
}

// GigDetailData はライブ詳細ページのページ固有データ。
type GigDetailData struct {
	Gig             *model.Gig
	DescriptionHTML template.HTML // サニタイズ済みの説明文
	CanManage       bool          // ログイン中の主催者が自分のライブを見ている場合
}

// GigListData はライブ一覧（ホーム・主催者別）のページ固有データ。
type GigListData struct {
	Gigs      []model.Gig
	Organizer *model.User // 主催者別一覧の場合のみ設定
}

// ProfileData はプロフィールページのページ固有データ。
type ProfileData struct {
	User *model.User
}

// ErrorData はエラーページのページ固有データ。
type ErrorData struct {
	Code     string
	Message  string
	Action   string
	HomeLink bool
}

// templateFuncs はテンプレートから使用できる補助関数。
var templateFuncs = template.FuncMap{
	// derefStr は*stringを空文字列フォールバック付きで展開する
	"derefStr": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	// derefPrice は*float64をフォーム入力値用の文字列に展開する。nilは空文字列
	"derefPrice": func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprintf("%.0f", *p)
	},
	// yen は価格を表示用に整形する。nilは「無料/未定」扱い
	"yen": func(p *float64) string {
		if p == nil {
			return "料金未定"
		}
		if *p == 0 {
			return "無料"
		}
		return fmt.Sprintf("¥%.0f", *p)
	},
}

// Renderer はパース済みテンプレートを保持し、ページをレンダリングする。
type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
// テンプレートの構文エラーは起動時に検出される。
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{
		templates: t,
		logger:    logger,
	}, nil
}

// Render は指定テンプレートをレンダリングしてレスポンスに書き込む。
// 部分的なレスポンス書き込みを避けるため、バッファに一度レンダリングしてから出力する。
// レンダリング失敗時は500を返す。
func (rd *Renderer) Render(w http.ResponseWriter, statusCode int, name string, data PageData) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := buf.WriteTo(w); err != nil {
		rd.logger.Error("failed to write response",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}
