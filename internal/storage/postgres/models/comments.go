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

type CommentModel struct {
	DB *pgxpool.Pool
}

const commentColumns = `c.id, c.review_id, c.text, u.username, c.pub_date, c.author_id`

func scanComment(row pgx.CollectableRow) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.ReviewID, &c.Text, &c.Author, &c.PubDate, &c.AuthorID)
	return c, err
}

func (m *CommentModel) Insert(ctx context.Context, reviewID, authorID int64, text string) (*models.Comment, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`WITH c AS (
			INSERT INTO comments (review_id, author_id, text) VALUES ($1, $2, $3) RETURNING *
		)
		SELECT %s FROM c JOIN users u ON u.id = c.author_id`, commentColumns),
		reviewID,
		authorID,
		text,
	)
	comment, err := pgx.CollectOneRow(rows, scanComment)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &comment, nil
}

func (m *CommentModel) Get(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`SELECT %s FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.review_id = $1 AND c.id = $2`, commentColumns),
		reviewID,
		commentID,
	)
	comment, err := pgx.CollectOneRow(rows, scanComment)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &comment, nil
}

func (m *CommentModel) List(ctx context.Context, reviewID int64, filters filters.Filters) ([]models.Comment, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER(), %s FROM comments c JOIN users u ON u.id = c.author_id
	WHERE c.review_id = $1
	ORDER BY c.%s %s, c.id ASC
	LIMIT $2 OFFSET $3`, commentColumns, filters.SortColumn(), filters.SortDirection())
	rows, _ := m.DB.Query(ctx, query, reviewID, filters.Limit(), filters.Offset())
	var total int
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Comment, error) {
		var c models.Comment
		err := row.Scan(&total, &c.ID, &c.ReviewID, &c.Text, &c.Author, &c.PubDate, &c.AuthorID)
		return c, err
	})
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	return comments, total, nil
}

func (m *CommentModel) Update(ctx context.Context, reviewID, commentID int64, text string) (*models.Comment, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`WITH c AS (
			UPDATE comments SET text = $1 WHERE review_id = $2 AND id = $3 RETURNING *
		)
		SELECT %s FROM c JOIN users u ON u.id = c.author_id`, commentColumns),
		text,
		reviewID,
		commentID,
	)
	comment, err := pgx.CollectOneRow(rows, scanComment)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &comment, nil
}

func (m *CommentModel) Delete(ctx context.Context, reviewID, commentID int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM comments WHERE review_id = $1 AND id = $2", reviewID, commentID)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
