package models

import (
	"context"
	"fmt"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// slugTable implements the storage shared by categories and genres,
// which have identical shapes and are addressed by slug.
type slugTable struct {
	DB    *pgxpool.Pool
	table string
}

type slugRow struct {
	ID   int64
	Name string
	Slug string
}

func scanSlugRow(row pgx.CollectableRow) (slugRow, error) {
	var r slugRow
	err := row.Scan(&r.ID, &r.Name, &r.Slug)
	return r, err
}

func (t *slugTable) insert(ctx context.Context, name, slug string) (slugRow, error) {
	rows, _ := t.DB.Query(
		ctx,
		fmt.Sprintf("INSERT INTO %s (name, slug) VALUES ($1, $2) RETURNING id, name, slug", t.table),
		name,
		slug,
	)
	row, err := pgx.CollectOneRow(rows, scanSlugRow)
	if err != nil {
		return slugRow{}, postgres.MapError(err)
	}
	return row, nil
}

func (t *slugTable) getBySlug(ctx context.Context, slug string) (slugRow, error) {
	rows, _ := t.DB.Query(ctx, fmt.Sprintf("SELECT id, name, slug FROM %s WHERE slug = $1", t.table), slug)
	row, err := pgx.CollectOneRow(rows, scanSlugRow)
	if err != nil {
		return slugRow{}, postgres.MapError(err)
	}
	return row, nil
}

func (t *slugTable) list(ctx context.Context, search string, filters filters.Filters) ([]slugRow, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER(), id, name, slug FROM %s
	WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%')
	ORDER BY %s %s, id ASC
	LIMIT $2 OFFSET $3`, t.table, filters.SortColumn(), filters.SortDirection())
	rows, _ := t.DB.Query(ctx, query, search, filters.Limit(), filters.Offset())
	var total int
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (slugRow, error) {
		var r slugRow
		err := row.Scan(&total, &r.ID, &r.Name, &r.Slug)
		return r, err
	})
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	return result, total, nil
}

func (t *slugTable) delete(ctx context.Context, slug string) error {
	status, err := t.DB.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE slug = $1", t.table), slug)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows)
	}
	return nil
}

type CategoryModel struct {
	slugTable
}

func NewCategoryModel(db *pgxpool.Pool) *CategoryModel {
	return &CategoryModel{slugTable{DB: db, table: "categories"}}
}

func (m *CategoryModel) Insert(ctx context.Context, name, slug string) (*models.Category, error) {
	row, err := m.insert(ctx, name, slug)
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: row.ID, Name: row.Name, Slug: row.Slug}, nil
}

func (m *CategoryModel) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	row, err := m.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: row.ID, Name: row.Name, Slug: row.Slug}, nil
}

func (m *CategoryModel) List(ctx context.Context, search string, filters filters.Filters) ([]models.Category, int, error) {
	rows, total, err := m.list(ctx, search, filters)
	if err != nil {
		return nil, 0, err
	}
	categories := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, models.Category{ID: row.ID, Name: row.Name, Slug: row.Slug})
	}
	return categories, total, nil
}

func (m *CategoryModel) Delete(ctx context.Context, slug string) error {
	return m.delete(ctx, slug)
}

type GenreModel struct {
	slugTable
}

func NewGenreModel(db *pgxpool.Pool) *GenreModel {
	return &GenreModel{slugTable{DB: db, table: "genres"}}
}

func (m *GenreModel) Insert(ctx context.Context, name, slug string) (*models.Genre, error) {
	row, err := m.insert(ctx, name, slug)
	if err != nil {
		return nil, err
	}
	return &models.Genre{ID: row.ID, Name: row.Name, Slug: row.Slug}, nil
}

func (m *GenreModel) GetBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	row, err := m.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &models.Genre{ID: row.ID, Name: row.Name, Slug: row.Slug}, nil
}

func (m *GenreModel) List(ctx context.Context, search string, filters filters.Filters) ([]models.Genre, int, error) {
	rows, total, err := m.list(ctx, search, filters)
	if err != nil {
		return nil, 0, err
	}
	genres := make([]models.Genre, 0, len(rows))
	for _, row := range rows {
		genres = append(genres, models.Genre{ID: row.ID, Name: row.Name, Slug: row.Slug})
	}
	return genres, total, nil
}

func (m *GenreModel) Delete(ctx context.Context, slug string) error {
	return m.delete(ctx, slug)
}
