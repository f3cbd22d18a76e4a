package models

import (
	"context"
	"errors"
	"fmt"

	"yamdb/proj/internal/domain/fields"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TitleModel struct {
	DB *pgxpool.Pool
}

var titleSortColumns = map[string]string{
	"id":     "t.id",
	"name":   "t.name",
	"year":   "t.year",
	"rating": "rating",
}

// The rating is computed on read and stays NULL for titles without reviews.
const titleSelect = `
	t.id, t.name, t.year, t.description, c.id, c.name, c.slug,
	(SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t LEFT JOIN categories c ON c.id = t.category_id`

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanTitle(row pgx.CollectableRow, extra ...any) (models.Title, error) {
	var (
		t            models.Title
		categoryID   *int64
		categoryName *string
		categorySlug *string
		rating       *float64
	)
	dest := append(extra, &t.ID, &t.Name, &t.Year, &t.Description, &categoryID, &categoryName, &categorySlug, &rating)
	if err := row.Scan(dest...); err != nil {
		return t, err
	}
	if categoryID != nil {
		t.Category = &models.Category{ID: *categoryID, Name: *categoryName, Slug: *categorySlug}
	}
	t.Rating = fields.NewRating(rating)
	t.Genre = []models.Genre{}
	return t, nil
}

func (m *TitleModel) Get(ctx context.Context, id int64) (*models.Title, error) {
	return m.get(ctx, m.DB, id)
}

func (m *TitleModel) get(ctx context.Context, q queryer, id int64) (*models.Title, error) {
	rows, _ := q.Query(ctx, "SELECT "+titleSelect+" WHERE t.id = $1", id)
	title, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Title, error) {
		return scanTitle(row)
	})
	if err != nil {
		return nil, postgres.MapError(err)
	}
	titles := []models.Title{title}
	if err := m.attachGenres(ctx, q, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

func (m *TitleModel) attachGenres(ctx context.Context, q queryer, titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(titles))
	index := make(map[int64]int, len(titles))
	for i, t := range titles {
		ids = append(ids, t.ID)
		index[t.ID] = i
	}
	rows, _ := q.Query(
		ctx,
		`SELECT tg.title_id, g.id, g.name, g.slug FROM title_genres tg
		JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = ANY($1)
		ORDER BY g.name`,
		ids,
	)
	type titleGenre struct {
		titleID int64
		genre   models.Genre
	}
	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (titleGenre, error) {
		var tg titleGenre
		err := row.Scan(&tg.titleID, &tg.genre.ID, &tg.genre.Name, &tg.genre.Slug)
		return tg, err
	})
	if err != nil {
		return postgres.MapError(err)
	}
	for _, p := range pairs {
		i := index[p.titleID]
		titles[i].Genre = append(titles[i].Genre, p.genre)
	}
	return nil
}

// titleOrderBy keeps unrated titles after rated ones in both directions.
func titleOrderBy(filters filters.Filters) string {
	column := filters.SortColumn()
	order := titleSortColumns[column] + " " + filters.SortDirection()
	if column == "rating" {
		order += " NULLS LAST"
	}
	return order
}

func (m *TitleModel) List(ctx context.Context, f models.TitleFilter, filters filters.Filters) ([]models.Title, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER(), %s
	WHERE ($1 = '' OR c.slug = $1)
	AND ($2 = '' OR EXISTS (
		SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = t.id AND g.slug = $2))
	AND ($3 = '' OR t.name ILIKE '%%' || $3 || '%%')
	AND ($4 = 0 OR t.year = $4)
	ORDER BY %s, t.id ASC
	LIMIT $5 OFFSET $6`, titleSelect, titleOrderBy(filters))
	rows, _ := m.DB.Query(ctx, query, f.Category, f.Genre, f.Name, f.Year, filters.Limit(), filters.Offset())
	var total int
	titles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Title, error) {
		return scanTitle(row, &total)
	})
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	if err := m.attachGenres(ctx, m.DB, titles); err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

func resolveCategory(ctx context.Context, tx pgx.Tx, slug *string) (*int64, error) {
	if slug == nil || *slug == "" {
		return nil, nil
	}
	var id int64
	err := tx.QueryRow(ctx, "SELECT id FROM categories WHERE slug = $1", *slug).Scan(&id)
	if err != nil {
		if err = postgres.MapError(err); errors.Is(err, storage.ErrNotFound) {
			return nil, &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: storage.CategoryReference}
		}
		return nil, err
	}
	return &id, nil
}

func setGenres(ctx context.Context, tx pgx.Tx, titleID int64, slugs []string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM title_genres WHERE title_id = $1", titleID); err != nil {
		return postgres.MapError(err)
	}
	if len(slugs) == 0 {
		return nil
	}
	status, err := tx.Exec(
		ctx,
		`INSERT INTO title_genres (title_id, genre_id)
		SELECT $1, id FROM genres WHERE slug = ANY($2)`,
		titleID,
		slugs,
	)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() != int64(len(uniqueStrings(slugs))) {
		return &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: storage.GenreReference}
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (m *TitleModel) Insert(ctx context.Context, in models.TitleInput) (*models.Title, error) {
	var title *models.Title
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		categoryID, err := resolveCategory(ctx, tx, in.CategorySlug)
		if err != nil {
			return err
		}
		var description string
		if in.Description != nil {
			description = *in.Description
		}
		var id int64
		err = tx.QueryRow(
			ctx,
			"INSERT INTO titles (name, year, description, category_id) VALUES ($1, $2, $3, $4) RETURNING id",
			in.Name,
			in.Year,
			description,
			categoryID,
		).Scan(&id)
		if err != nil {
			return postgres.MapError(err)
		}
		if err := setGenres(ctx, tx, id, uniqueStrings(in.GenreSlugs)); err != nil {
			return err
		}
		title, err = m.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

func (m *TitleModel) Update(ctx context.Context, id int64, in models.TitleInput) (*models.Title, error) {
	var title *models.Title
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		var categoryID *int64
		if in.CategorySlug != nil {
			var err error
			if categoryID, err = resolveCategory(ctx, tx, in.CategorySlug); err != nil {
				return err
			}
		}
		status, err := tx.Exec(
			ctx,
			`UPDATE titles SET
				name = COALESCE($1, name),
				year = COALESCE($2, year),
				description = COALESCE($3, description),
				category_id = CASE WHEN $4 THEN $5 ELSE category_id END
			WHERE id = $6`,
			in.Name,
			in.Year,
			in.Description,
			in.CategorySlug != nil,
			categoryID,
			id,
		)
		if err != nil {
			return postgres.MapError(err)
		}
		if status.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		if in.GenreSlugs != nil {
			if err := setGenres(ctx, tx, id, uniqueStrings(in.GenreSlugs)); err != nil {
				return err
			}
		}
		title, err = m.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

func (m *TitleModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM titles WHERE id = $1", id)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
