package services

import (
	"log/slog"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/tokens"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/catalog"
	"yamdb/proj/internal/services/reviews"
	"yamdb/proj/internal/services/users"
	"yamdb/proj/internal/storage/postgres"
	"yamdb/proj/internal/storage/postgres/models"
)

type Services struct {
	Auth    *auth.AuthService
	Users   *users.UserService
	Catalog *catalog.CatalogService
	Reviews *reviews.ReviewService
}

func New(log *slog.Logger, cfg *config.Config, storage *postgres.PostgresDB) *Services {
	mailer := mails.New(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Timeout,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.Sender,
		cfg.SMTP.RetriesCount,
	)
	m := models.New(storage)
	return &Services{
		Auth: auth.New(
			log,
			m.Users,
			mailer,
			tokens.NewManager(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL),
			cfg.Auth.ConfirmationCodeTTL,
		),
		Users:   users.New(log, m.Users),
		Catalog: catalog.New(log, m.Categories, m.Genres, m.Titles),
		Reviews: reviews.New(log, m.Titles, m.Reviews, m.Comments),
	}
}
