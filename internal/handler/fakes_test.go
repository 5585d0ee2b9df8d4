package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/sunyi-web/internal/model"
	"github.com/hitoshi/sunyi-web/internal/view"
)

// fakeSession はSessionServiceのテスト用フェイク。
type fakeSession struct {
	current     *model.User
	loginErr    error
	registerErr error

	loginCalls    int
	registerCalls int
	logoutCalls   int
	lastEmail     string
	lastUsername  string
	lastRole      model.UserRole
}

func (f *fakeSession) LogIn(ctx context.Context, email, password string) error {
	f.loginCalls++
	f.lastEmail = email
	if f.loginErr != nil {
		return f.loginErr
	}
	f.current = &model.User{ID: "u1", Username: "tanaka", Email: email, Role: model.RoleUser}
	return nil
}

func (f *fakeSession) Register(ctx context.Context, username, email, password string, role model.UserRole) error {
	f.registerCalls++
	f.lastUsername = username
	f.lastRole = role
	if f.registerErr != nil {
		return f.registerErr
	}
	f.current = &model.User{ID: "u1", Username: username, Email: email, Role: role}
	return nil
}

func (f *fakeSession) LogOut() {
	f.logoutCalls++
	f.current = nil
}

func (f *fakeSession) Current() *model.User { return f.current }

func (f *fakeSession) IsOrganizer() bool {
	return f.current != nil && f.current.IsOrganizer()
}

// fakeGigAPI はGigAPIInterfaceのテスト用フェイク。
type fakeGigAPI struct {
	gigs    []model.Gig
	gig     *model.Gig
	user    *model.User
	listErr error
	getErr  error
	opErr   error
	userErr error

	lastCreateInput model.CreateGigInput
	lastUpdateID    string
	lastUpdateInput model.UpdateGigInput
	lastDeleteID    string
	createCalls     int
	deleteCalls     int
}

func (f *fakeGigAPI) ListGigs(ctx context.Context) ([]model.Gig, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.gigs, nil
}

func (f *fakeGigAPI) GetGig(ctx context.Context, id string) (*model.Gig, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.gig, nil
}

func (f *fakeGigAPI) CreateGig(ctx context.Context, input model.CreateGigInput) (*model.Gig, error) {
	f.createCalls++
	f.lastCreateInput = input
	if f.opErr != nil {
		return nil, f.opErr
	}
	return &model.Gig{ID: "new-gig", Title: input.Title}, nil
}

func (f *fakeGigAPI) UpdateGig(ctx context.Context, id string, input model.UpdateGigInput) (*model.Gig, error) {
	f.lastUpdateID = id
	f.lastUpdateInput = input
	if f.opErr != nil {
		return nil, f.opErr
	}
	return &model.Gig{ID: id}, nil
}

func (f *fakeGigAPI) DeleteGig(ctx context.Context, id string) error {
	f.deleteCalls++
	f.lastDeleteID = id
	return f.opErr
}

func (f *fakeGigAPI) ListGigsByOrganizer(ctx context.Context, organizerID string) ([]model.Gig, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.gigs, nil
}

func (f *fakeGigAPI) GetUser(ctx context.Context, id string) (*model.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

// fakeUserAPI はUserAPIInterfaceのテスト用フェイク。
type fakeUserAPI struct {
	user      *model.User
	getErr    error
	updateErr error

	lastUpdateID    string
	lastUpdateInput model.UpdateUserInput
	updateCalls     int
}

func (f *fakeUserAPI) GetUser(ctx context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.user, nil
}

func (f *fakeUserAPI) UpdateUser(ctx context.Context, id string, input model.UpdateUserInput) (*model.User, error) {
	f.updateCalls++
	f.lastUpdateID = id
	f.lastUpdateInput = input
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.user, nil
}

// fakeSSRFGuard はSSRFGuardServiceのテスト用フェイク。
type fakeSSRFGuard struct {
	validateErr error
}

func (f *fakeSSRFGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (f *fakeSSRFGuard) ValidateURL(rawURL string) error {
	return f.validateErr
}

// fakeSanitizer はDescriptionSanitizerServiceのテスト用フェイク。
// 実際のサニタイズは行わず、入力をそのまま返す。
type fakeSanitizer struct {
	lastInput string
}

func (f *fakeSanitizer) Sanitize(raw string) string {
	f.lastInput = raw
	return raw
}

// newTestRenderer はテスト用のRendererを生成する。
func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	rd, err := view.NewRenderer(logger)
	if err != nil {
		t.Fatalf("テンプレートのパースに失敗: %v", err)
	}
	return rd
}

// organizerUser はテスト用の主催者ユーザーを返す。
func organizerUser() *model.User {
	return &model.User{ID: "org-1", Username: "yamada", Email: "yamada@example.com", Role: model.RoleOrganizer}
}

// attendeeUser はテスト用の一般ユーザーを返す。
func attendeeUser() *model.User {
	return &model.User{ID: "att-1", Username: "suzuki", Email: "suzuki@example.com", Role: model.RoleUser}
}
