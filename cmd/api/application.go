package main

import (
	"context"
	"log/slog"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/services/users"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

type AuthService interface {
	Signup(ctx context.Context, username, email string) (*models.User, error)
	ObtainToken(ctx context.Context, username, code string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type UserService interface {
	List(ctx context.Context, search string, filters filters.Filters) ([]models.User, int, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, username string, patch users.Patch) (*models.User, error)
	UpdateMe(ctx context.Context, me *models.User, patch users.Patch) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type CatalogService interface {
	CreateCategory(ctx context.Context, name, slug string) (*models.Category, error)
	ListCategories(ctx context.Context, search string, filters filters.Filters) ([]models.Category, int, error)
	DeleteCategory(ctx context.Context, slug string) error
	CreateGenre(ctx context.Context, name, slug string) (*models.Genre, error)
	ListGenres(ctx context.Context, search string, filters filters.Filters) ([]models.Genre, int, error)
	DeleteGenre(ctx context.Context, slug string) error
	GetTitle(ctx context.Context, id int64) (*models.Title, error)
	ListTitles(ctx context.Context, f models.TitleFilter, filters filters.Filters) ([]models.Title, int, error)
	CreateTitle(ctx context.Context, in models.TitleInput) (*models.Title, error)
	UpdateTitle(ctx context.Context, id int64, in models.TitleInput) (*models.Title, error)
	DeleteTitle(ctx context.Context, id int64) error
}

type ReviewService interface {
	ListReviews(ctx context.Context, titleID int64, filters filters.Filters) ([]models.Review, int, error)
	GetReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	CreateReview(ctx context.Context, titleID int64, author *models.User, text string, score int32) (*models.Review, error)
	UpdateReview(ctx context.Context, titleID, reviewID int64, text *string, score *int32) (*models.Review, error)
	DeleteReview(ctx context.Context, titleID, reviewID int64) error
	ListComments(ctx context.Context, titleID, reviewID int64, filters filters.Filters) ([]models.Comment, int, error)
	GetComment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	CreateComment(ctx context.Context, titleID, reviewID int64, author *models.User, text string) (*models.Comment, error)
	UpdateComment(ctx context.Context, titleID, reviewID, commentID int64, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, titleID, reviewID, commentID int64) error
}

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	validator *govalidator.Validate
	decoder   *schema.Decoder
	metrics   *metrics.Metrics

	auth    AuthService
	users   UserService
	catalog CatalogService
	reviews ReviewService
}

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func NewApplication(cfg *config.Config, log *slog.Logger, svcs *services.Services) *Application {
	return &Application{
		cfg:       cfg,
		log:       log,
		validator: validator.New(),
		decoder:   newQueryDecoder(),
		metrics:   metrics.New(),
		auth:      svcs.Auth,
		users:     svcs.Users,
		catalog:   svcs.Catalog,
		reviews:   svcs.Reviews,
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
