package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/users"

	"github.com/stretchr/testify/mock"
)

var (
	plainUser = &models.User{ID: 1, Username: "john", Email: "john@example.com", Role: models.RoleUser, IsActive: true}
	otherUser = &models.User{ID: 2, Username: "jane", Email: "jane@example.com", Role: models.RoleUser, IsActive: true}
	moderator = &models.User{ID: 3, Username: "mod", Email: "mod@example.com", Role: models.RoleModerator, IsActive: true}
	admin     = &models.User{ID: 4, Username: "boss", Email: "boss@example.com", Role: models.RoleAdmin, IsActive: true}
	superuser = &models.User{ID: 5, Username: "root", Email: "root@example.com", Role: models.RoleUser, IsSuperuser: true, IsActive: true}
)

// fakeAuth accepts tokens of the form "token-<username>" for known users.
type fakeAuth struct {
	mock.Mock
	users map[string]*models.User
}

func newFakeAuth() *fakeAuth {
	f := &fakeAuth{users: make(map[string]*models.User)}
	for _, u := range []*models.User{plainUser, otherUser, moderator, admin, superuser} {
		f.users["token-"+u.Username] = u
	}
	f.users["token-idle"] = &models.User{ID: 9, Username: "idle"}
	return f
}

func (f *fakeAuth) Signup(ctx context.Context, username, email string) (*models.User, error) {
	args := f.Called(username, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (f *fakeAuth) ObtainToken(ctx context.Context, username, code string) (string, error) {
	args := f.Called(username, code)
	return args.String(0), args.Error(1)
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, auth.ErrUserInactive
	}
	return user, nil
}

// The mocks embed their interface so only the methods a test needs are
// implemented; calling anything else panics.

type mockUsers struct {
	mock.Mock
	UserService
}

func (m *mockUsers) List(_ context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	args := m.Called(search, f.Page)
	result, _ := args.Get(0).([]models.User)
	return result, args.Int(1), args.Error(2)
}

func (m *mockUsers) UpdateMe(_ context.Context, me *models.User, patch users.Patch) (*models.User, error) {
	args := m.Called(me.Username, patch)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type mockCatalog struct {
	mock.Mock
	CatalogService
}

func (m *mockCatalog) CreateCategory(_ context.Context, name, slug string) (*models.Category, error) {
	args := m.Called(name, slug)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCatalog) ListCategories(_ context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	args := m.Called(search, f.Page)
	result, _ := args.Get(0).([]models.Category)
	return result, args.Int(1), args.Error(2)
}

func (m *mockCatalog) DeleteCategory(_ context.Context, slug string) error {
	return m.Called(slug).Error(0)
}

func (m *mockCatalog) UpdateTitle(_ context.Context, id int64, in models.TitleInput) (*models.Title, error) {
	args := m.Called(id, in)
	t, _ := args.Get(0).(*models.Title)
	return t, args.Error(1)
}

func (m *mockCatalog) CreateTitle(_ context.Context, in models.TitleInput) (*models.Title, error) {
	args := m.Called(in)
	t, _ := args.Get(0).(*models.Title)
	return t, args.Error(1)
}

func (m *mockCatalog) ListTitles(_ context.Context, f models.TitleFilter, fl filters.Filters) ([]models.Title, int, error) {
	args := m.Called(f, fl.Sort)
	result, _ := args.Get(0).([]models.Title)
	return result, args.Int(1), args.Error(2)
}

type mockReviews struct {
	mock.Mock
	ReviewService
}

func (m *mockReviews) CreateReview(_ context.Context, titleID int64, author *models.User, text string, score int32) (*models.Review, error) {
	args := m.Called(titleID, author.ID, text, score)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *mockReviews) GetReview(_ context.Context, titleID, reviewID int64) (*models.Review, error) {
	args := m.Called(titleID, reviewID)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *mockReviews) UpdateReview(_ context.Context, titleID, reviewID int64, text *string, score *int32) (*models.Review, error) {
	args := m.Called(titleID, reviewID, text, score)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *mockReviews) DeleteReview(_ context.Context, titleID, reviewID int64) error {
	return m.Called(titleID, reviewID).Error(0)
}

type testApp struct {
	*Application
	authSvc    *fakeAuth
	usersSvc   *mockUsers
	catalogSvc *mockCatalog
	reviewsSvc *mockReviews
}

func newTestApplication(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{Cors: config.Cors{AllowedOrigins: []string{"*"}}}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ta := &testApp{
		authSvc:    newFakeAuth(),
		usersSvc:   new(mockUsers),
		catalogSvc: new(mockCatalog),
		reviewsSvc: new(mockReviews),
	}
	ta.Application = &Application{
		cfg:       cfg,
		log:       log,
		Http:      &Http{log: log, cfg: cfg},
		validator: validator.New(),
		decoder:   newQueryDecoder(),
		metrics:   metrics.New(),
		auth:      ta.authSvc,
		users:     ta.usersSvc,
		catalog:   ta.catalogSvc,
		reviews:   ta.reviewsSvc,
	}
	return ta
}

// do sends a request through the full router, authenticating as user when
// it is not nil.
func (ta *testApp) do(method, target, body string, user *models.User) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer token-"+user.Username)
	}
	rec := httptest.NewRecorder()
	ta.routes().ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
