// Package loader seeds the database from the CSV exports in static/data.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"yamdb/proj/internal/domain/models"

	"github.com/jackc/pgx/v5"
)

type dataset struct {
	file  string
	table string
	// serial is false for link tables without an id column.
	serial bool
	query  string
	args   func(record) ([]any, error)
}

// Order matters: every dataset only references tables loaded before it.
var datasets = []dataset{
	{
		file:   "category.csv",
		table:  "categories",
		serial: true,
		query: `INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug`,
		args: slugArgs,
	},
	{
		file:   "genre.csv",
		table:  "genres",
		serial: true,
		query: `INSERT INTO genres (id, name, slug) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug`,
		args: slugArgs,
	},
	{
		file:   "users.csv",
		table:  "users",
		serial: true,
		query: `INSERT INTO users (id, username, email, role, bio, first_name, last_name, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true)
			ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email,
				role = EXCLUDED.role, bio = EXCLUDED.bio, first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name, is_active = true`,
		args: userArgs,
	},
	{
		file:   "titles.csv",
		table:  "titles",
		serial: true,
		query: `INSERT INTO titles (id, name, year, description, category_id) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, year = EXCLUDED.year,
				description = EXCLUDED.description, category_id = EXCLUDED.category_id`,
		args: titleArgs,
	},
	{
		file:  "genre_title.csv",
		table: "title_genres",
		query: `INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		args:  genreTitleArgs,
	},
	{
		file:   "review.csv",
		table:  "reviews",
		serial: true,
		query: `INSERT INTO reviews (id, title_id, author_id, text, score, pub_date) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET title_id = EXCLUDED.title_id, author_id = EXCLUDED.author_id,
				text = EXCLUDED.text, score = EXCLUDED.score, pub_date = EXCLUDED.pub_date`,
		args: reviewArgs,
	},
	{
		file:   "comments.csv",
		table:  "comments",
		serial: true,
		query: `INSERT INTO comments (id, review_id, author_id, text, pub_date) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET review_id = EXCLUDED.review_id, author_id = EXCLUDED.author_id,
				text = EXCLUDED.text, pub_date = EXCLUDED.pub_date`,
		args: commentArgs,
	},
}

func slugArgs(r record) ([]any, error) {
	id, err := r.int64("id")
	if err != nil {
		return nil, err
	}
	name, err := r.str("name")
	if err != nil {
		return nil, err
	}
	slug, err := r.str("slug")
	if err != nil {
		return nil, err
	}
	return []any{id, name, slug}, nil
}

func userArgs(r record) ([]any, error) {
	id, err := r.int64("id")
	if err != nil {
		return nil, err
	}
	username, err := r.str("username")
	if err != nil {
		return nil, err
	}
	if err := models.ValidateUsername(username); err != nil {
		return nil, r.errorf("username %q: %v", username, err)
	}
	email, err := r.str("email")
	if err != nil {
		return nil, err
	}
	role := models.Role(r.optStr("role"))
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, r.errorf("unknown role %q", role)
	}
	return []any{id, username, email, string(role), r.optStr("bio"), r.optStr("first_name"), r.optStr("last_name")}, nil
}

func titleArgs(r record) ([]any, error) {
	id, err := r.int64("id")
	if err != nil {
		return nil, err
	}
	name, err := r.str("name")
	if err != nil {
		return nil, err
	}
	year, err := r.int64("year")
	if err != nil {
		return nil, err
	}
	category, err := r.optInt64("category", "category_id")
	if err != nil {
		return nil, err
	}
	return []any{id, name, int32(year), r.optStr("description"), category}, nil
}

func genreTitleArgs(r record) ([]any, error) {
	titleID, err := r.int64("title_id", "title")
	if err != nil {
		return nil, err
	}
	genreID, err := r.int64("genre_id", "genre")
	if err != nil {
		return nil, err
	}
	return []any{titleID, genreID}, nil
}

func reviewArgs(r record) ([]any, error) {
	id, err := r.int64("id")
	if err != nil {
		return nil, err
	}
	titleID, err := r.int64("title_id", "title")
	if err != nil {
		return nil, err
	}
	author, err := r.int64("author", "author_id")
	if err != nil {
		return nil, err
	}
	text, err := r.str("text")
	if err != nil {
		return nil, err
	}
	score, err := r.int64("score")
	if err != nil {
		return nil, err
	}
	if score < 1 || score > 10 {
		return nil, r.errorf("score %d is out of range", score)
	}
	pubDate, err := r.time("pub_date")
	if err != nil {
		return nil, err
	}
	return []any{id, titleID, author, text, int32(score), pubDate}, nil
}

func commentArgs(r record) ([]any, error) {
	id, err := r.int64("id")
	if err != nil {
		return nil, err
	}
	reviewID, err := r.int64("review_id", "review")
	if err != nil {
		return nil, err
	}
	author, err := r.int64("author", "author_id")
	if err != nil {
		return nil, err
	}
	text, err := r.str("text")
	if err != nil {
		return nil, err
	}
	pubDate, err := r.time("pub_date")
	if err != nil {
		return nil, err
	}
	return []any{id, reviewID, author, text, pubDate}, nil
}

// plan is a dataset with its rows already converted to query arguments.
type plan struct {
	dataset
	rows [][]any
}

// parse reads every known file present in fsys. Nothing touches the
// database until all files have parsed cleanly.
func parse(log *slog.Logger, fsys fs.FS) ([]plan, error) {
	const op = "loader.parse"
	log = log.With("op", op)
	var plans []plan
	for _, ds := range datasets {
		f, err := fsys.Open(ds.file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn("data file is missing, skipping", "file", ds.file)
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t, err := readTable(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, ds.file, err)
		}
		p := plan{dataset: ds, rows: make([][]any, 0, len(t.rows))}
		for _, rec := range t.records() {
			args, err := ds.args(rec)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", op, ds.file, err)
			}
			p.rows = append(p.rows, args)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// writer applies parsed datasets inside one transaction.
type writer struct {
	log *slog.Logger
	db  pgx.Tx
}

// Beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Load upserts every file found in fsys and returns the number of rows
// written per table.
func Load(ctx context.Context, log *slog.Logger, db Beginner, fsys fs.FS) (map[string]int, error) {
	const op = "loader.Load"
	plans, err := parse(log, fsys)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(plans))
	err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		l := &writer{log: log.With("op", op), db: tx}
		for _, p := range plans {
			if err := l.apply(ctx, p); err != nil {
				return err
			}
			counts[p.table] = len(p.rows)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

func (l *writer) apply(ctx context.Context, p plan) error {
	batch := &pgx.Batch{}
	for _, args := range p.rows {
		batch.Queue(p.query, args...)
	}
	if err := l.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s: %w", p.file, err)
	}
	if p.serial {
		// Next generated id must not collide with imported ones.
		q := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			p.table,
		)
		if _, err := l.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("%s: advancing sequence: %w", p.table, err)
		}
	}
	l.log.Info("dataset imported", "file", p.file, "table", p.table, "rows", len(p.rows))
	return nil
}
