package models

import (
	"context"
	"fmt"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserModel struct {
	DB *pgxpool.Pool
}

const userColumns = `id, username, email, first_name, last_name, bio, role,
	is_staff, is_superuser, is_active, confirmation_code, confirmation_expires_at, created_at`

func scanUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio, &u.Role,
		&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.ConfirmationCode, &u.ConfirmationExpiresAt, &u.CreatedAt,
	)
	return u, err
}

func (m *UserModel) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	rows, _ := m.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column), value)
	user, err := pgx.CollectOneRow(rows, scanUser)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &user, nil
}

func (m *UserModel) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.getBy(ctx, "id", id)
}

func (m *UserModel) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.getBy(ctx, "username", username)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getBy(ctx, "email", email)
}

func (m *UserModel) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`INSERT INTO users (username, email, first_name, last_name, bio, role, is_staff, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING %s`, userColumns),
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.IsStaff,
		user.IsSuperuser,
		user.IsActive,
	)
	created, err := pgx.CollectOneRow(rows, scanUser)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &created, nil
}

// Update overwrites the profile fields and role of the user with user.ID.
func (m *UserModel) Update(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4, bio = $5, role = $6
		WHERE id = $7 RETURNING %s`, userColumns),
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.ID,
	)
	updated, err := pgx.CollectOneRow(rows, scanUser)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &updated, nil
}

func (m *UserModel) SetConfirmationCode(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	status, err := m.DB.Exec(
		ctx,
		`UPDATE users SET confirmation_code = $1, confirmation_expires_at = $2 WHERE id = $3`,
		codeHash,
		expiresAt,
		userID,
	)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows)
	}
	return nil
}

// Activate consumes the confirmation code and activates the user in one
// statement, so a code can be exchanged at most once. It returns
// storage.ErrNotFound if the code does not match or has expired.
func (m *UserModel) Activate(ctx context.Context, userID int64, codeHash string, now time.Time) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		fmt.Sprintf(`UPDATE users SET is_active = true, confirmation_code = NULL, confirmation_expires_at = NULL
		WHERE id = $1 AND confirmation_code = $2 AND confirmation_expires_at > $3
		RETURNING %s`, userColumns),
		userID,
		codeHash,
		now,
	)
	user, err := pgx.CollectOneRow(rows, scanUser)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &user, nil
}

func (m *UserModel) List(ctx context.Context, search string, filters filters.Filters) ([]models.User, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER(), %s FROM users
	WHERE ($1 = '' OR username ILIKE '%%' || $1 || '%%')
	ORDER BY %s %s, id ASC
	LIMIT $2 OFFSET $3`, userColumns, filters.SortColumn(), filters.SortDirection())
	rows, _ := m.DB.Query(ctx, query, search, filters.Limit(), filters.Offset())
	var total int
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		var u models.User
		err := row.Scan(
			&total,
			&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio, &u.Role,
			&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.ConfirmationCode, &u.ConfirmationExpiresAt, &u.CreatedAt,
		)
		return u, err
	})
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	return users, total, nil
}

func (m *UserModel) Delete(ctx context.Context, username string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows)
	}
	return nil
}
