package models

import (
	"context"
	"fmt"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewModel struct {
	DB *pgxpool.Pool
}

const reviewColumns = `r.id, r.title_id, r.text, u.username, r.score, r.pub_date, r.author_id`

func scanReview(row pgx.CollectableRow) (models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.TitleID, &r.Text, &r.Author, &r.Score, &r.PubDate, &r.AuthorID)
	return r, err
}

func (m *ReviewModel) Exists(ctx context.Context, titleID, authorID int64) (bool, error) {
	var exists bool
	err := m.DB.QueryRow(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM reviews WHERE title_id = $1 AND author_id = $2)",
		titleID,
		authorID,
	).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err)
	}
	return exists, nil
}

func (m *ReviewModel) Insert(ctx context.Context, titleID, authorID int64, text string, score int32) (*models.Review, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`WITH r AS (
			INSERT INTO reviews (title_id, author_id, text, score) VALUES ($1, $2, $3, $4) RETURNING *
		)
		SELECT %s FROM r JOIN users u ON u.id = r.author_id`, reviewColumns),
		titleID,
		authorID,
		text,
		score,
	)
	review, err := pgx.CollectOneRow(rows, scanReview)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &review, nil
}

func (m *ReviewModel) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`SELECT %s FROM reviews r JOIN users u ON u.id = r.author_id
		WHERE r.title_id = $1 AND r.id = $2`, reviewColumns),
		titleID,
		reviewID,
	)
	review, err := pgx.CollectOneRow(rows, scanReview)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &review, nil
}

func (m *ReviewModel) List(ctx context.Context, titleID int64, filters filters.Filters) ([]models.Review, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER(), %s FROM reviews r JOIN users u ON u.id = r.author_id
	WHERE r.title_id = $1
	ORDER BY r.%s %s, r.id ASC
	LIMIT $2 OFFSET $3`, reviewColumns, filters.SortColumn(), filters.SortDirection())
	rows, _ := m.DB.Query(ctx, query, titleID, filters.Limit(), filters.Offset())
	var total int
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Review, error) {
		var r models.Review
		err := row.Scan(&total, &r.ID, &r.TitleID, &r.Text, &r.Author, &r.Score, &r.PubDate, &r.AuthorID)
		return r, err
	})
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	return reviews, total, nil
}

// Update changes text and score; nil values are kept. pub_date is never
// touched after insert.
func (m *ReviewModel) Update(ctx context.Context, titleID, reviewID int64, text *string, score *int32) (*models.Review, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`WITH r AS (
			UPDATE reviews SET text = COALESCE($1, text), score = COALESCE($2, score)
			WHERE title_id = $3 AND id = $4 RETURNING *
		)
		SELECT %s FROM r JOIN users u ON u.id = r.author_id`, reviewColumns),
		text,
		score,
		titleID,
		reviewID,
	)
	review, err := pgx.CollectOneRow(rows, scanReview)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &review, nil
}

func (m *ReviewModel) Delete(ctx context.Context, titleID, reviewID int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM reviews WHERE title_id = $1 AND id = $2", titleID, reviewID)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
