package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/storage"
)

var (
	SlugSortSafelist  = []string{"name", "slug", "id"}
	TitleSortSafelist = []string{"name", "year", "rating", "id"}
)

type CategoryStorage interface {
	Insert(ctx context.Context, name, slug string) (*models.Category, error)
	List(ctx context.Context, search string, filters filters.Filters) ([]models.Category, int, error)
	Delete(ctx context.Context, slug string) error
}

type GenreStorage interface {
	Insert(ctx context.Context, name, slug string) (*models.Genre, error)
	List(ctx context.Context, search string, filters filters.Filters) ([]models.Genre, int, error)
	Delete(ctx context.Context, slug string) error
}

type TitleStorage interface {
	Get(ctx context.Context, id int64) (*models.Title, error)
	List(ctx context.Context, f models.TitleFilter, filters filters.Filters) ([]models.Title, int, error)
	Insert(ctx context.Context, in models.TitleInput) (*models.Title, error)
	Update(ctx context.Context, id int64, in models.TitleInput) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type CatalogService struct {
	log        *slog.Logger
	categories CategoryStorage
	genres     GenreStorage
	titles     TitleStorage
	now        func() time.Time
}

func New(log *slog.Logger, categories CategoryStorage, genres GenreStorage, titles TitleStorage) *CatalogService {
	return &CatalogService{
		log:        log,
		categories: categories,
		genres:     genres,
		titles:     titles,
		now:        time.Now,
	}
}

func slugTaken() validator.Errors {
	return validator.NewError("slug", "An entry with this slug already exists")
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	const op = "catalog.CatalogService.CreateCategory"
	log := s.log.With("op", op, "slug", slug)
	category, err := s.categories.Insert(ctx, name, slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("category already exists")
			return nil, slugTaken()
		}
		log.Error("Error creating category", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, search string, filters filters.Filters) ([]models.Category, int, error) {
	const op = "catalog.CatalogService.ListCategories"
	categories, total, err := s.categories.List(ctx, search, filters)
	if err != nil {
		s.log.Error("Error listing categories", "op", op, "errMsg", err.Error())
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return categories, total, nil
}

// DeleteCategory removes the category. Titles referring to it keep existing
// without a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	const op = "catalog.CatalogService.DeleteCategory"
	log := s.log.With("op", op, "slug", slug)
	if err := s.categories.Delete(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("category not found")
			return ErrCategoryNotFound
		}
		log.Error("Error deleting category", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CatalogService) CreateGenre(ctx context.Context, name, slug string) (*models.Genre, error) {
	const op = "catalog.CatalogService.CreateGenre"
	log := s.log.With("op", op, "slug", slug)
	genre, err := s.genres.Insert(ctx, name, slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("genre already exists")
			return nil, slugTaken()
		}
		log.Error("Error creating genre", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return genre, nil
}

func (s *CatalogService) ListGenres(ctx context.Context, search string, filters filters.Filters) ([]models.Genre, int, error) {
	const op = "catalog.CatalogService.ListGenres"
	genres, total, err := s.genres.List(ctx, search, filters)
	if err != nil {
		s.log.Error("Error listing genres", "op", op, "errMsg", err.Error())
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return genres, total, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, slug string) error {
	const op = "catalog.CatalogService.DeleteGenre"
	log := s.log.With("op", op, "slug", slug)
	if err := s.genres.Delete(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("genre not found")
			return ErrGenreNotFound
		}
		log.Error("Error deleting genre", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CatalogService) GetTitle(ctx context.Context, id int64) (*models.Title, error) {
	const op = "catalog.CatalogService.GetTitle"
	log := s.log.With("op", op, "id", id)
	title, err := s.titles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return nil, ErrTitleNotFound
		}
		log.Error("Error getting title", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return title, nil
}

func (s *CatalogService) ListTitles(ctx context.Context, f models.TitleFilter, filters filters.Filters) ([]models.Title, int, error) {
	const op = "catalog.CatalogService.ListTitles"
	titles, total, err := s.titles.List(ctx, f, filters)
	if err != nil {
		s.log.Error("Error listing titles", "op", op, "errMsg", err.Error())
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return titles, total, nil
}

func (s *CatalogService) validateTitle(in models.TitleInput, partial bool) validator.Errors {
	errs := validator.Errors{}
	if !partial {
		if in.Name == nil || *in.Name == "" {
			errs["name"] = "This field is required"
		}
		if in.Year == nil {
			errs["year"] = "This field is required"
		}
	}
	if in.Year != nil && int(*in.Year) > s.now().Year() {
		errs["year"] = "Year can't be greater than the current one"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func referenceErrors(err error) validator.Errors {
	switch storage.Constraint(err) {
	case storage.CategoryReference:
		return validator.NewError("category", "Category with this slug does not exist")
	case storage.GenreReference:
		return validator.NewError("genre", "One or more genres with these slugs do not exist")
	}
	return validator.NewError("genre", "Invalid reference")
}

func (s *CatalogService) CreateTitle(ctx context.Context, in models.TitleInput) (*models.Title, error) {
	const op = "catalog.CatalogService.CreateTitle"
	log := s.log.With("op", op)
	if errs := s.validateTitle(in, false); errs != nil {
		return nil, errs
	}
	title, err := s.titles.Insert(ctx, in)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			log.Info("unknown slug in title", "constraint", storage.Constraint(err))
			return nil, referenceErrors(err)
		}
		log.Error("Error creating title", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("title created", "id", title.ID)
	return title, nil
}

func (s *CatalogService) UpdateTitle(ctx context.Context, id int64, in models.TitleInput) (*models.Title, error) {
	const op = "catalog.CatalogService.UpdateTitle"
	log := s.log.With("op", op, "id", id)
	if errs := s.validateTitle(in, true); errs != nil {
		return nil, errs
	}
	title, err := s.titles.Update(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Info("title not found")
			return nil, ErrTitleNotFound
		case errors.Is(err, storage.ErrInvalidReference):
			log.Info("unknown slug in title", "constraint", storage.Constraint(err))
			return nil, referenceErrors(err)
		}
		log.Error("Error updating title", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return title, nil
}

func (s *CatalogService) DeleteTitle(ctx context.Context, id int64) error {
	const op = "catalog.CatalogService.DeleteTitle"
	log := s.log.With("op", op, "id", id)
	if err := s.titles.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return ErrTitleNotFound
		}
		log.Error("Error deleting title", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
