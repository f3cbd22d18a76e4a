package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"yamdb/proj/internal/domain/fields"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/catalog"
	"yamdb/proj/internal/services/reviews"
	"yamdb/proj/internal/services/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestHealthcheck(t *testing.T) {
	ta := newTestApplication(t, nil)
	rec := ta.do(http.MethodGet, "/api/v1/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available"`)
}

func TestSignupHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.authSvc.On("Signup", "john", "john@example.com").
			Return(&models.User{ID: 1, Username: "john", Email: "john@example.com"}, nil)
		rec := ta.do(http.MethodPost, "/api/v1/auth/signup/", `{"username":"john","email":"john@example.com"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"username":"john","email":"john@example.com"}`, rec.Body.String())
	})

	t.Run("reserved username never reaches the service", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		rec := ta.do(http.MethodPost, "/api/v1/auth/signup", `{"username":"ME","email":"me@example.com"}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[ErrorResponse](t, rec.Body.Bytes())
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Errors, "username")
		ta.authSvc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
	})

	t.Run("collision", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.authSvc.On("Signup", "john", "other@example.com").
			Return(nil, auth.SignupConflict(nil, &models.User{ID: 1}))
		rec := ta.do(http.MethodPost, "/api/v1/auth/signup", `{"username":"john","email":"other@example.com"}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec.Body.Bytes()).Errors, "username")
	})

	t.Run("mail failure", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.authSvc.On("Signup", "john", "john@example.com").Return(nil, auth.ErrConfirmationCodeDelivery)
		rec := ta.do(http.MethodPost, "/api/v1/auth/signup", `{"username":"john","email":"john@example.com"}`, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		rec := ta.do(http.MethodPost, "/api/v1/auth/signup", `{"username":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTokenHandler(t *testing.T) {
	ta := newTestApplication(t, nil)
	ta.authSvc.On("ObtainToken", "john", "good").Return("jwt", nil)
	ta.authSvc.On("ObtainToken", "john", "bad").Return("", auth.ErrInvalidConfirmationCode)
	ta.authSvc.On("ObtainToken", "ghost", "any").Return("", auth.ErrUserNotFound)

	rec := ta.do(http.MethodPost, "/api/v1/auth/token", `{"username":"john","confirmation_code":"good"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"jwt"}`, rec.Body.String())

	rec = ta.do(http.MethodPost, "/api/v1/auth/token", `{"username":"john","confirmation_code":"bad"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec.Body.Bytes()).Errors, "confirmation_code")

	rec = ta.do(http.MethodPost, "/api/v1/auth/token", `{"username":"ghost","confirmation_code":"any"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(http.MethodPost, "/api/v1/auth/token", `{"username":"john"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersEndpoints(t *testing.T) {
	t.Run("me requires authentication", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		rec := ta.do(http.MethodGet, "/api/v1/users/me/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = ta.do(http.MethodGet, "/api/v1/users/me/", "", plainUser)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec.Body.Bytes())
		assert.Equal(t, "john", body["username"])
		assert.Equal(t, "user", body["role"])
		assert.NotContains(t, body, "confirmation_code")
	})

	t.Run("me patch passes role to service which keeps it", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.usersSvc.On("UpdateMe", "john", mock.MatchedBy(func(p users.Patch) bool {
			return p.Bio != nil && *p.Bio == "hello"
		})).Return(&models.User{Username: "john", Role: models.RoleUser, Bio: "hello"}, nil)
		rec := ta.do(http.MethodPatch, "/api/v1/users/me", `{"bio":"hello","role":"admin"}`, plainUser)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user", decode[map[string]any](t, rec.Body.Bytes())["role"])
	})

	t.Run("list is admin only", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.usersSvc.On("List", "jo", 2).Return([]models.User{*plainUser}, 21, nil)

		assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodGet, "/api/v1/users/", "", nil).Code)
		assert.Equal(t, http.StatusForbidden, ta.do(http.MethodGet, "/api/v1/users/", "", moderator).Code)

		rec := ta.do(http.MethodGet, "/api/v1/users/?search=jo&page=2&page_size=10", "", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[map[string]any](t, rec.Body.Bytes())
		assert.EqualValues(t, 21, page["count"])
		assert.EqualValues(t, 3, page["next_page"])
		assert.Len(t, page["results"], 1)
	})

	t.Run("unknown ordering", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		rec := ta.do(http.MethodGet, "/api/v1/users/?ordering=password", "", admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoriesEndpoints(t *testing.T) {
	ta := newTestApplication(t, nil)
	ta.catalogSvc.On("ListCategories", "", 0).Return([]models.Category(nil), 0, nil)
	ta.catalogSvc.On("CreateCategory", "Films", "films").Return(&models.Category{ID: 1, Name: "Films", Slug: "films"}, nil)
	ta.catalogSvc.On("DeleteCategory", "missing").Return(catalog.ErrCategoryNotFound)

	rec := ta.do(http.MethodGet, "/api/v1/categories/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"next_page":null,"results":[]}`, rec.Body.String())

	body := `{"name":"Films","slug":"films"}`
	assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodPost, "/api/v1/categories/", body, nil).Code)
	assert.Equal(t, http.StatusForbidden, ta.do(http.MethodPost, "/api/v1/categories/", body, plainUser).Code)
	rec = ta.do(http.MethodPost, "/api/v1/categories/", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"name":"Films","slug":"films"}`, rec.Body.String())

	rec = ta.do(http.MethodPost, "/api/v1/categories/", `{"name":"Bad","slug":"not a slug"}`, admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec.Body.Bytes()).Errors, "slug")

	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodDelete, "/api/v1/categories/missing/", "", admin).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ta.do(http.MethodPut, "/api/v1/categories/", body, admin).Code)
}

func TestTitlesEndpoints(t *testing.T) {
	ta := newTestApplication(t, nil)
	rating := fields.Rating(7.5)
	ta.catalogSvc.On("ListTitles", models.TitleFilter{Genre: "drama", Year: 1999}, "-rating").
		Return([]models.Title{{ID: 1, Name: "Matrix", Year: 1999, Rating: &rating, Genre: []models.Genre{}}}, 1, nil)
	ta.catalogSvc.On("CreateTitle", mock.MatchedBy(func(in models.TitleInput) bool {
		return *in.Name == "Dune" && *in.CategorySlug == "films" && len(in.GenreSlugs) == 2
	})).Return(&models.Title{ID: 2, Name: "Dune", Year: 2021, Genre: []models.Genre{}}, nil)

	rec := ta.do(http.MethodGet, "/api/v1/titles?genre=drama&year=1999&ordering=-rating", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rating":7.5`)

	body := `{"name":"Dune","year":2021,"category":"films","genre":["sci-fi","drama"]}`
	assert.Equal(t, http.StatusForbidden, ta.do(http.MethodPost, "/api/v1/titles/", body, moderator).Code)
	assert.Equal(t, http.StatusCreated, ta.do(http.MethodPost, "/api/v1/titles/", body, admin).Code)

	future := time.Now().Year() + 1
	rec = ta.do(http.MethodPost, "/api/v1/titles/", strings.Replace(body, "2021", strconv.Itoa(future), 1), admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec.Body.Bytes()).Errors, "year")

	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/v1/titles/abc/", "", nil).Code)
}

func TestUpdateTitleClearsCategory(t *testing.T) {
	ta := newTestApplication(t, nil)
	ta.catalogSvc.On("UpdateTitle", int64(2), mock.MatchedBy(func(in models.TitleInput) bool {
		return in.CategorySlug != nil && *in.CategorySlug == "" && in.Name == nil && in.GenreSlugs == nil
	})).Return(&models.Title{ID: 2, Name: "Dune", Year: 2021, Genre: []models.Genre{}}, nil)

	rec := ta.do(http.MethodPatch, "/api/v1/titles/2/", `{"category":""}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":null`)

	rec = ta.do(http.MethodPatch, "/api/v1/titles/2/", `{"category":"not a slug"}`, admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec.Body.Bytes()).Errors, "category")
	ta.catalogSvc.AssertNumberOfCalls(t, "UpdateTitle", 1)
}

func TestReviewsEndpoints(t *testing.T) {
	own := &models.Review{ID: 5, TitleID: 1, Text: "ok", Author: "john", Score: 6, AuthorID: plainUser.ID}

	t.Run("create", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.reviewsSvc.On("CreateReview", int64(1), plainUser.ID, "great", int32(9)).
			Return(&models.Review{ID: 5, TitleID: 1, Text: "great", Author: "john", Score: 9}, nil)
		ta.reviewsSvc.On("CreateReview", int64(1), otherUser.ID, "again", int32(3)).
			Return(nil, reviews.ErrReviewAlreadyExists)
		ta.reviewsSvc.On("CreateReview", int64(99), plainUser.ID, "void", int32(3)).
			Return(nil, reviews.ErrTitleNotFound)

		assert.Equal(t, http.StatusUnauthorized,
			ta.do(http.MethodPost, "/api/v1/titles/1/reviews/", `{"text":"great","score":9}`, nil).Code)

		rec := ta.do(http.MethodPost, "/api/v1/titles/1/reviews/", `{"text":"great","score":9}`, plainUser)
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decode[map[string]any](t, rec.Body.Bytes())
		assert.Equal(t, "john", body["author"])
		assert.NotContains(t, body, "author_id")

		rec = ta.do(http.MethodPost, "/api/v1/titles/1/reviews/", `{"text":"again","score":3}`, otherUser)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decode[ErrorResponse](t, rec.Body.Bytes()).Errors)

		assert.Equal(t, http.StatusNotFound,
			ta.do(http.MethodPost, "/api/v1/titles/99/reviews/", `{"text":"void","score":3}`, plainUser).Code)

		assert.Equal(t, http.StatusBadRequest,
			ta.do(http.MethodPost, "/api/v1/titles/1/reviews/", `{"text":"x","score":11}`, plainUser).Code)
	})

	t.Run("object permissions", func(t *testing.T) {
		ta := newTestApplication(t, nil)
		ta.reviewsSvc.On("GetReview", int64(1), int64(5)).Return(own, nil)
		ta.reviewsSvc.On("UpdateReview", int64(1), int64(5), mock.Anything, mock.Anything).Return(own, nil)
		ta.reviewsSvc.On("DeleteReview", int64(1), int64(5)).Return(nil)

		patch := `{"score":7}`
		assert.Equal(t, http.StatusOK, ta.do(http.MethodGet, "/api/v1/titles/1/reviews/5", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodPatch, "/api/v1/titles/1/reviews/5", patch, nil).Code)
		assert.Equal(t, http.StatusForbidden, ta.do(http.MethodPatch, "/api/v1/titles/1/reviews/5", patch, otherUser).Code)
		assert.Equal(t, http.StatusOK, ta.do(http.MethodPatch, "/api/v1/titles/1/reviews/5", patch, plainUser).Code)
		assert.Equal(t, http.StatusOK, ta.do(http.MethodPatch, "/api/v1/titles/1/reviews/5", patch, moderator).Code)
		assert.Equal(t, http.StatusForbidden, ta.do(http.MethodDelete, "/api/v1/titles/1/reviews/5", "", otherUser).Code)
		assert.Equal(t, http.StatusNoContent, ta.do(http.MethodDelete, "/api/v1/titles/1/reviews/5", "", admin).Code)
		ta.reviewsSvc.AssertNumberOfCalls(t, "UpdateReview", 2)
		ta.reviewsSvc.AssertNumberOfCalls(t, "DeleteReview", 1)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ta := newTestApplication(t, nil)
	ta.do(http.MethodGet, "/api/v1/healthcheck", "", nil)
	rec := ta.do(http.MethodGet, "/api/v1/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `yamdb_http_requests_total{method="GET",route="/api/v1/healthcheck",status="200"} 1`)
}

func TestNotFound(t *testing.T) {
	ta := newTestApplication(t, nil)
	rec := ta.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode[ErrorResponse](t, rec.Body.Bytes()).Success)
}
