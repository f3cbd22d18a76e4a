//go:build integration

package models_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	pgmodels "yamdb/proj/internal/storage/postgres/models"
	"yamdb/proj/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newUser(t *testing.T, m *pgmodels.Models, username string) *models.User {
	t.Helper()
	u, err := m.Users.Insert(context.Background(), &models.User{
		Username: username,
		Email:    username + "@yamdb.fake",
		Role:     models.RoleUser,
		IsActive: true,
	})
	require.NoError(t, err)
	return u
}

func TestStorage(t *testing.T) {
	db := testinfra.NewPostgres(t)
	m := pgmodels.New(db)
	ctx := context.Background()

	_, err := m.Categories.Insert(ctx, "Фильм", "movie")
	require.NoError(t, err)
	_, err = m.Genres.Insert(ctx, "Драма", "drama")
	require.NoError(t, err)
	title, err := m.Titles.Insert(ctx, models.TitleInput{
		Name:         ptr("Побег из Шоушенка"),
		Year:         ptr(int32(1994)),
		CategorySlug: ptr("movie"),
		GenreSlugs:   []string{"drama", "drama"},
	})
	require.NoError(t, err)
	require.NotNil(t, title.Category)
	assert.Len(t, title.Genre, 1)

	t.Run("rating is null without reviews", func(t *testing.T) {
		got, err := m.Titles.Get(ctx, title.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Rating)
	})

	t.Run("unknown slugs are invalid references", func(t *testing.T) {
		_, err := m.Titles.Insert(ctx, models.TitleInput{Name: ptr("x"), Year: ptr(int32(2000)), CategorySlug: ptr("nope")})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
		assert.Equal(t, storage.CategoryReference, storage.Constraint(err))

		_, err = m.Titles.Insert(ctx, models.TitleInput{Name: ptr("x"), Year: ptr(int32(2000)), GenreSlugs: []string{"drama", "nope"}})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
		assert.Equal(t, storage.GenreReference, storage.Constraint(err))
	})

	t.Run("rating is the mean of review scores", func(t *testing.T) {
		alice, bob, carol := newUser(t, m, "alice"), newUser(t, m, "bob"), newUser(t, m, "carol")
		for user, score := range map[*models.User]int32{alice: 10, bob: 7, carol: 6} {
			_, err := m.Reviews.Insert(ctx, title.ID, user.ID, "text", score)
			require.NoError(t, err)
		}
		got, err := m.Titles.Get(ctx, title.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Rating)
		assert.InDelta(t, 7.67, float64(*got.Rating), 0.001)

		unrated, err := m.Titles.Insert(ctx, models.TitleInput{Name: ptr("Unrated"), Year: ptr(int32(2001)), GenreSlugs: []string{"drama"}})
		require.NoError(t, err)
		defer m.Titles.Delete(ctx, unrated.ID)

		safelist := []string{"name", "year", "rating", "id"}
		for _, sort := range []string{"-rating", "rating"} {
			titles, total, err := m.Titles.List(ctx, models.TitleFilter{Genre: "drama"}, filters.Filters{Sort: sort, SortSafelist: safelist})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			assert.Equal(t, title.ID, titles[0].ID, "unrated titles sort last for %s", sort)
			assert.Nil(t, titles[1].Rating)
		}
	})

	t.Run("concurrent duplicate reviews keep one row", func(t *testing.T) {
		dave := newUser(t, m, "dave")
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inserted int
			errs     []error
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := m.Reviews.Insert(ctx, title.ID, dave.ID, fmt.Sprintf("take %d", i), 5)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					inserted++
					return
				}
				errs = append(errs, err)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, inserted)
		for _, err := range errs {
			assert.ErrorIs(t, err, storage.ErrConflict)
			assert.Equal(t, storage.UniqueReviewConstraint, storage.Constraint(err))
		}
		exists, err := m.Reviews.Exists(ctx, title.ID, dave.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("empty category slug clears the category", func(t *testing.T) {
		other, err := m.Titles.Insert(ctx, models.TitleInput{Name: ptr("Other"), Year: ptr(int32(2010)), CategorySlug: ptr("movie")})
		require.NoError(t, err)
		require.NotNil(t, other.Category)
		updated, err := m.Titles.Update(ctx, other.ID, models.TitleInput{CategorySlug: ptr("")})
		require.NoError(t, err)
		assert.Nil(t, updated.Category)
		assert.Equal(t, "Other", updated.Name)
		require.NoError(t, m.Titles.Delete(ctx, other.ID))
	})

	t.Run("deleting a category keeps its titles", func(t *testing.T) {
		require.NoError(t, m.Categories.Delete(ctx, "movie"))
		got, err := m.Titles.Get(ctx, title.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Category)
	})

	t.Run("deleting a review removes its comments", func(t *testing.T) {
		erin := newUser(t, m, "erin")
		review, err := m.Reviews.Insert(ctx, title.ID, erin.ID, "meh", 3)
		require.NoError(t, err)
		comment, err := m.Comments.Insert(ctx, review.ID, erin.ID, "self reply")
		require.NoError(t, err)
		assert.Equal(t, "erin", comment.Author)

		require.NoError(t, m.Reviews.Delete(ctx, title.ID, review.ID))
		_, err = m.Comments.Get(ctx, review.ID, comment.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestActivateIsSingleUse(t *testing.T) {
	db := testinfra.NewPostgres(t)
	m := pgmodels.New(db)
	ctx := context.Background()

	user, err := m.Users.Insert(ctx, &models.User{Username: "newbie", Email: "newbie@yamdb.fake", Role: models.RoleUser})
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	now := time.Now()
	require.NoError(t, m.Users.SetConfirmationCode(ctx, user.ID, "hash", now.Add(time.Hour)))

	_, err = m.Users.Activate(ctx, user.ID, "other", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = m.Users.Activate(ctx, user.ID, "hash", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, storage.ErrNotFound, "expired code")

	activated, err := m.Users.Activate(ctx, user.ID, "hash", now)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.Nil(t, activated.ConfirmationCode)

	_, err = m.Users.Activate(ctx, user.ID, "hash", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserConstraints(t *testing.T) {
	db := testinfra.NewPostgres(t)
	m := pgmodels.New(db)
	ctx := context.Background()

	newUser(t, m, "taken")
	_, err := m.Users.Insert(ctx, &models.User{Username: "taken", Email: "other@yamdb.fake", Role: models.RoleUser})
	assert.ErrorIs(t, err, storage.ErrConflict)
	assert.Equal(t, storage.UsersUsernameKey, storage.Constraint(err))

	_, err = m.Users.Insert(ctx, &models.User{Username: "other", Email: "taken@yamdb.fake", Role: models.RoleUser})
	assert.ErrorIs(t, err, storage.ErrConflict)
	assert.Equal(t, storage.UsersEmailKey, storage.Constraint(err))
}
