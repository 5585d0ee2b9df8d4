package handler

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/security"
	"github.com/hitoshi/sunyi-web/internal/view"
)

// GigAPIInterface はライブページハンドラーが必要とするAPIクライアントのインターフェース。
type GigAPIInterface interface {
	// ListGigs はライブの一覧を取得する。
	ListGigs(ctx context.Context) ([]model.Gig, error)
	// GetGig はIDでライブを取得する。
	GetGig(ctx context.Context, id string) (*model.Gig, error)
	// CreateGig は新しいライブを作成する。主催者権限が必要。
	CreateGig(ctx context.Context, input model.CreateGigInput) (*model.Gig, error)
	// UpdateGig はライブを更新する。nilのフィールドは変更されない。
	UpdateGig(ctx context.Context, id string, input model.UpdateGigInput) (*model.Gig, error)
	// DeleteGig はライブを削除する。
	DeleteGig(ctx context.Context, id string) error
	// ListGigsByOrganizer は主催者IDでライブの一覧を取得する。
	ListGigsByOrganizer(ctx context.Context, organizerID string) ([]model.Gig, error)
	// GetUser はIDでユーザーを取得する。主催者ページのヘッダーで使用する。
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// GigHandler はライブの閲覧・作成・編集・削除ページのHTTPハンドラー。
type GigHandler struct {
	api       GigAPIInterface
	sess      SessionService
	renderer  *view.Renderer
	sanitizer security.DescriptionSanitizerService
}

// NewGigHandler はGigHandlerを生成する。
func NewGigHandler(api GigAPIInterface, sess SessionService, renderer *view.Renderer, sanitizer security.DescriptionSanitizerService) *GigHandler {
	return &GigHandler{
		api:       api,
		sess:      sess,
		renderer:  renderer,
		sanitizer: sanitizer,
	}
}

// Home はライブ一覧のホームページを表示する。
// GET /
func (h *GigHandler) Home(w http.ResponseWriter, r *http.Request) {
	gigs, err := h.api.ListGigs(r.Context())
	if err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	data := newPageData(r, h.sess, "近くのライブ")
	data.Data = view.GigListData{Gigs: gigs}
	h.renderer.Render(w, http.StatusOK, "home.html", data)
}

// GigDetail はライブ詳細ページを表示する。
// GET /gigs/{id}
// 説明文はサニタイズしてからHTMLとしてレンダリングする。
func (h *GigHandler) GigDetail(w http.ResponseWriter, r *http.Request) {
	gigID := chi.URLParam(r, "id")

	gig, err := h.api.GetGig(r.Context(), gigID)
	if err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	current := h.sess.Current()
	canManage := current != nil && current.IsOrganizer() && current.ID == gig.OrganizerID

	data := newPageData(r, h.sess, gig.Title)
	data.Data = view.GigDetailData{
		Gig:             gig,
		DescriptionHTML: sanitizedHTML(h.sanitizer, gig.Description),
		CanManage:       canManage,
	}
	h.renderer.Render(w, http.StatusOK, "gig_detail.html", data)
}

// ShowCreateForm はライブ作成フォームを表示する。主催者のみ。
// GET /gigs/new
func (h *GigHandler) ShowCreateForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireOrganizer(w, r) {
		return
	}

	data := newPageData(r, h.sess, "ライブを作成")
	data.Data = view.GigFormData{ActionURL: "/gigs/new"}
	h.renderer.Render(w, http.StatusOK, "gig_form.html", data)
}

// CreateGig はライブ作成フォームの送信を処理する。主催者のみ。
// POST /gigs/new
func (h *GigHandler) CreateGig(w http.ResponseWriter, r *http.Request) {
	if !h.requireOrganizer(w, r) {
		return
	}

	input, err := parseCreateGigForm(r)
	if err != nil {
		data := newPageData(r, h.sess, "ライブを作成")
		data.Error = errorMessage(err)
		data.Data = view.GigFormData{ActionURL: "/gigs/new"}
		h.renderer.Render(w, http.StatusBadRequest, "gig_form.html", data)
		return
	}

	gig, err := h.api.CreateGig(r.Context(), input)
	if err != nil {
		data := newPageData(r, h.sess, "ライブを作成")
		data.Error = errorMessage(err)
		data.Data = view.GigFormData{ActionURL: "/gigs/new"}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "gig_form.html", data)
		return
	}

	http.Redirect(w, r, "/gigs/"+gig.ID, http.StatusSeeOther)
}

// ShowEditForm はライブ編集フォームを表示する。主催者のみ。
// GET /gigs/{id}/edit
func (h *GigHandler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireOrganizer(w, r) {
		return
	}

	gigID := chi.URLParam(r, "id")
	gig, err := h.api.GetGig(r.Context(), gigID)
	if err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	data := newPageData(r, h.sess, "ライブを編集")
	data.Data = view.GigFormData{
		Gig:       gig,
		IsEdit:    true,
		ActionURL: "/gigs/" + gig.ID + "/edit",
		Genres:    strings.Join(gig.Genres, ", "),
	}
	h.renderer.Render(w, http.StatusOK, "gig_form.html", data)
}

// UpdateGig はライブ編集フォームの送信を処理する。主催者のみ。
// POST /gigs/{id}/edit
// 所有権の最終確認はリモートAPI側で行われる。
func (h *GigHandler) UpdateGig(w http.ResponseWriter, r *http.Request) {
	if !h.requireOrganizer(w, r) {
		return
	}

	gigID := chi.URLParam(r, "id")

	input, err := parseUpdateGigForm(r)
	if err != nil {
		data := newPageData(r, h.sess, "ライブを編集")
		data.Error = errorMessage(err)
		data.Data = view.GigFormData{IsEdit: true, ActionURL: "/gigs/" + gigID + "/edit"}
		h.renderer.Render(w, http.StatusBadRequest, "gig_form.html", data)
		return
	}

	gig, err := h.api.UpdateGig(r.Context(), gigID, input)
	if err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	http.Redirect(w, r, "/gigs/"+gig.ID, http.StatusSeeOther)
}

// DeleteGig はライブ削除フォームの送信を処理する。主催者のみ。
// POST /gigs/{id}/delete
func (h *GigHandler) DeleteGig(w http.ResponseWriter, r *http.Request) {
	if !h.requireOrganizer(w, r) {
		return
	}

	gigID := chi.URLParam(r, "id")
	if err := h.api.DeleteGig(r.Context(), gigID); err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// OrganizerGigs は主催者別のライブ一覧ページを表示する。
// GET /organizers/{id}
func (h *GigHandler) OrganizerGigs(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "id")

	gigs, err := h.api.ListGigsByOrganizer(r.Context(), organizerID)
	if err != nil {
		renderError(h.renderer, w, r, h.sess, err)
		return
	}

	// 主催者情報はヘッダー表示用。取得失敗はページ全体の失敗にしない。
	organizer, err := h.api.GetUser(r.Context(), organizerID)
	if err != nil {
		organizer = nil
	}

	title := "主催ライブ"
	if organizer != nil {
		title = organizer.Username + "のライブ"
	}

	data := newPageData(r, h.sess, title)
	data.Data = view.GigListData{Gigs: gigs, Organizer: organizer}
	h.renderer.Render(w, http.StatusOK, "organizer_gigs.html", data)
}

// requireOrganizer は主催者権限を確認し、権限がない場合はエラーページを表示してfalseを返す。
// 未ログインの場合はログインページにリダイレクトする。
func (h *GigHandler) requireOrganizer(w http.ResponseWriter, r *http.Request) bool {
	if h.sess.Current() == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return false
	}
	if !h.sess.IsOrganizer() {
		renderError(h.renderer, w, r, h.sess, model.NewOrganizerRequiredError())
		return false
	}
	return true
}

// sanitizedHTML は説明文をサニタイズしてテンプレート用HTMLに変換する。
func sanitizedHTML(s security.DescriptionSanitizerService, raw string) template.HTML {
	return template.HTML(s.Sanitize(raw))
}

// --- フォームパース ---

// gigFormValues はライブフォームの検証済み入力値。
type gigFormValues struct {
	title        string
	description  string
	venueName    string
	venueAddress string
	latitude     float64
	longitude    float64
	date         string
	startTime    string
	endTime      *string
	price        *float64
	genres       []string
}

// parseGigFormValues はライブフォームの入力を検証して抽出する。
func parseGigFormValues(r *http.Request) (*gigFormValues, error) {
	v := &gigFormValues{
		title:        strings.TrimSpace(r.PostFormValue("title")),
		description:  r.PostFormValue("description"),
		venueName:    strings.TrimSpace(r.PostFormValue("venue_name")),
		venueAddress: strings.TrimSpace(r.PostFormValue("venue_address")),
		date:         r.PostFormValue("date"),
		startTime:    r.PostFormValue("start_time"),
	}

	if v.title == "" {
		return nil, model.NewInvalidInputError("タイトルは必須です")
	}
	if v.venueName == "" {
		return nil, model.NewInvalidInputError("会場名は必須です")
	}
	if v.venueAddress == "" {
		return nil, model.NewInvalidInputError("会場住所は必須です")
	}
	if v.date == "" {
		return nil, model.NewInvalidInputError("開催日は必須です")
	}
	if v.startTime == "" {
		return nil, model.NewInvalidInputError("開始時刻は必須です")
	}

	lat, err := strconv.ParseFloat(r.PostFormValue("latitude"), 64)
	if err != nil {
		return nil, model.NewInvalidInputError("緯度が数値ではありません")
	}
	lng, err := strconv.ParseFloat(r.PostFormValue("longitude"), 64)
	if err != nil {
		return nil, model.NewInvalidInputError("経度が数値ではありません")
	}
	if lat < -90 || lat > 90 {
		return nil, model.NewInvalidInputError("緯度は-90から90の範囲で指定してください")
	}
	if lng < -180 || lng > 180 {
		return nil, model.NewInvalidInputError("経度は-180から180の範囲で指定してください")
	}
	v.latitude = lat
	v.longitude = lng

	if endTime := r.PostFormValue("end_time"); endTime != "" {
		v.endTime = &endTime
	}

	if priceStr := r.PostFormValue("price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			return nil, model.NewInvalidInputError("料金は0以上の数値で指定してください")
		}
		v.price = &price
	}

	for _, g := range strings.Split(r.PostFormValue("genres"), ",") {
		if g = strings.TrimSpace(g); g != "" {
			v.genres = append(v.genres, g)
		}
	}

	return v, nil
}

// parseCreateGigForm はライブ作成フォームをCreateGigInputに変換する。
func parseCreateGigForm(r *http.Request) (model.CreateGigInput, error) {
	v, err := parseGigFormValues(r)
	if err != nil {
		return model.CreateGigInput{}, err
	}
	return model.CreateGigInput{
		Title:        v.title,
		Description:  v.description,
		VenueName:    v.venueName,
		VenueAddress: v.venueAddress,
		Latitude:     v.latitude,
		Longitude:    v.longitude,
		Date:         v.date,
		StartTime:    v.startTime,
		EndTime:      v.endTime,
		Price:        v.price,
		Genres:       v.genres,
	}, nil
}

// parseUpdateGigForm はライブ編集フォームをUpdateGigInputに変換する。
// 編集フォームは全フィールドを送信するため、全フィールドを設定する。
func parseUpdateGigForm(r *http.Request) (model.UpdateGigInput, error) {
	v, err := parseGigFormValues(r)
	if err != nil {
		return model.UpdateGigInput{}, err
	}
	return model.UpdateGigInput{
		Title:        &v.title,
		Description:  &v.description,
		VenueName:    &v.venueName,
		VenueAddress: &v.venueAddress,
		Latitude:     &v.latitude,
		Longitude:    &v.longitude,
		Date:         &v.date,
		StartTime:    &v.startTime,
		EndTime:      v.endTime,
		Price:        v.price,
		Genres:       v.genres,
	}, nil
}
