package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/storage"
)

const (
	MinScore = 1
	MaxScore = 10
)

var SortSafelist = []string{"pub_date", "score", "id"}

type TitleStorage interface {
	Get(ctx context.Context, id int64) (*models.Title, error)
}

type ReviewStorage interface {
	Exists(ctx context.Context, titleID, authorID int64) (bool, error)
	Insert(ctx context.Context, titleID, authorID int64, text string, score int32) (*models.Review, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	List(ctx context.Context, titleID int64, filters filters.Filters) ([]models.Review, int, error)
	Update(ctx context.Context, titleID, reviewID int64, text *string, score *int32) (*models.Review, error)
	Delete(ctx context.Context, titleID, reviewID int64) error
}

type CommentStorage interface {
	Insert(ctx context.Context, reviewID, authorID int64, text string) (*models.Comment, error)
	Get(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	List(ctx context.Context, reviewID int64, filters filters.Filters) ([]models.Comment, int, error)
	Update(ctx context.Context, reviewID, commentID int64, text string) (*models.Comment, error)
	Delete(ctx context.Context, reviewID, commentID int64) error
}

type ReviewService struct {
	log      *slog.Logger
	titles   TitleStorage
	reviews  ReviewStorage
	comments CommentStorage
}

func New(log *slog.Logger, titles TitleStorage, reviews ReviewStorage, comments CommentStorage) *ReviewService {
	return &ReviewService{
		log:      log,
		titles:   titles,
		reviews:  reviews,
		comments: comments,
	}
}

func validateScore(score int32) validator.Errors {
	if score < MinScore || score > MaxScore {
		return validator.NewError("score", fmt.Sprintf("Score must be between %d and %d", MinScore, MaxScore))
	}
	return nil
}

func (s *ReviewService) ensureTitle(ctx context.Context, log *slog.Logger, titleID int64) error {
	if _, err := s.titles.Get(ctx, titleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return ErrTitleNotFound
		}
		log.Error("Error getting title", "errMsg", err.Error())
		return err
	}
	return nil
}

func (s *ReviewService) ListReviews(ctx context.Context, titleID int64, filters filters.Filters) ([]models.Review, int, error) {
	const op = "reviews.ReviewService.ListReviews"
	log := s.log.With("op", op, "title_id", titleID)
	if err := s.ensureTitle(ctx, log, titleID); err != nil {
		return nil, 0, err
	}
	reviews, total, err := s.reviews.List(ctx, titleID, filters)
	if err != nil {
		log.Error("Error listing reviews", "errMsg", err.Error())
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, total, nil
}

func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	const op = "reviews.ReviewService.GetReview"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	review, err := s.reviews.Get(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, ErrReviewNotFound
		}
		log.Error("Error getting review", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return review, nil
}

// CreateReview posts the author's single review of the title. Duplicates are
// rejected up front and again by the storage constraint when two requests
// race.
func (s *ReviewService) CreateReview(ctx context.Context, titleID int64, author *models.User, text string, score int32) (*models.Review, error) {
	const op = "reviews.ReviewService.CreateReview"
	log := s.log.With("op", op, "title_id", titleID, "author_id", author.ID)
	if errs := validateScore(score); errs != nil {
		return nil, errs
	}
	if err := s.ensureTitle(ctx, log, titleID); err != nil {
		return nil, err
	}
	exists, err := s.reviews.Exists(ctx, titleID, author.ID)
	if err != nil {
		log.Error("Error checking review existence", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		log.Info("review already exists")
		return nil, ErrReviewAlreadyExists
	}
	review, err := s.reviews.Insert(ctx, titleID, author.ID, text, score)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict) && storage.Constraint(err) == storage.UniqueReviewConstraint:
			log.Info("review already exists, lost insert race")
			return nil, ErrReviewAlreadyExists
		case errors.Is(err, storage.ErrInvalidReference):
			log.Info("title removed before insert")
			return nil, ErrTitleNotFound
		}
		log.Error("Error creating review", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("review created", "review_id", review.ID)
	return review, nil
}

// UpdateReview changes text and score. Nil values are kept.
func (s *ReviewService) UpdateReview(ctx context.Context, titleID, reviewID int64, text *string, score *int32) (*models.Review, error) {
	const op = "reviews.ReviewService.UpdateReview"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if score != nil {
		if errs := validateScore(*score); errs != nil {
			return nil, errs
		}
	}
	review, err := s.reviews.Update(ctx, titleID, reviewID, text, score)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, ErrReviewNotFound
		}
		log.Error("Error updating review", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, titleID, reviewID int64) error {
	const op = "reviews.ReviewService.DeleteReview"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if err := s.reviews.Delete(ctx, titleID, reviewID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return ErrReviewNotFound
		}
		log.Error("Error deleting review", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("review deleted")
	return nil
}
