package reviews

import (
	"context"
	"errors"
	"fmt"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

var CommentSortSafelist = []string{"pub_date", "id"}

// Comments are always addressed through their review, which in turn must
// belong to the title in the path.

func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID int64, filters filters.Filters) ([]models.Comment, int, error) {
	const op = "reviews.ReviewService.ListComments"
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	comments, total, err := s.comments.List(ctx, reviewID, filters)
	if err != nil {
		s.log.Error("Error listing comments", "op", op, "review_id", reviewID, "errMsg", err.Error())
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return comments, total, nil
}

func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	const op = "reviews.ReviewService.GetComment"
	log := s.log.With("op", op, "review_id", reviewID, "comment_id", commentID)
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.Get(ctx, reviewID, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return nil, ErrCommentNotFound
		}
		log.Error("Error getting comment", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return comment, nil
}

func (s *ReviewService) CreateComment(ctx context.Context, titleID, reviewID int64, author *models.User, text string) (*models.Comment, error) {
	const op = "reviews.ReviewService.CreateComment"
	log := s.log.With("op", op, "review_id", reviewID, "author_id", author.ID)
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.Insert(ctx, reviewID, author.ID, text)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			log.Info("review removed before insert")
			return nil, ErrReviewNotFound
		}
		log.Error("Error creating comment", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("comment created", "comment_id", comment.ID)
	return comment, nil
}

func (s *ReviewService) UpdateComment(ctx context.Context, titleID, reviewID, commentID int64, text string) (*models.Comment, error) {
	const op = "reviews.ReviewService.UpdateComment"
	log := s.log.With("op", op, "review_id", reviewID, "comment_id", commentID)
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.Update(ctx, reviewID, commentID, text)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return nil, ErrCommentNotFound
		}
		log.Error("Error updating comment", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return comment, nil
}

func (s *ReviewService) DeleteComment(ctx context.Context, titleID, reviewID, commentID int64) error {
	const op = "reviews.ReviewService.DeleteComment"
	log := s.log.With("op", op, "review_id", reviewID, "comment_id", commentID)
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, reviewID, commentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return ErrCommentNotFound
		}
		log.Error("Error deleting comment", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
