package main

import (
	"net/http"

	"yamdb/proj/internal/services/reviews"
)

type createReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int32  `json:"score" validate:"required,gte=1,lte=10"`
}

type updateReviewRequest struct {
	Text  *string `json:"text" validate:"omitempty,min=1"`
	Score *int32  `json:"score" validate:"omitempty,gte=1,lte=10"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

func (app *Application) reviewPath(w http.ResponseWriter, r *http.Request) (titleID, reviewID int64, ok bool) {
	if titleID, ok = app.extractIDParam(w, r, "titleID"); !ok {
		return
	}
	reviewID, ok = app.extractIDParam(w, r, "reviewID")
	return
}

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "titleID")
	if !ok {
		return
	}
	q, ok := app.readListQuery(w, r, reviews.SortSafelist)
	if !ok {
		return
	}
	result, total, err := app.reviews.ListReviews(r.Context(), titleID, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newPage(result, total, q.NextPage(total)))
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "titleID")
	if !ok {
		return
	}
	var req createReviewRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	review, err := app.reviews.CreateReview(r.Context(), titleID, requestUser(r), req.Text, req.Score)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, review)
}

func (app *Application) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	review, err := app.reviews.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, review)
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	review, err := app.reviews.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if !app.checkObjectPermission(w, r, review.AuthorID) {
		return
	}
	var req updateReviewRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	review, err = app.reviews.UpdateReview(r.Context(), titleID, reviewID, req.Text, req.Score)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, review)
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	review, err := app.reviews.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if !app.checkObjectPermission(w, r, review.AuthorID) {
		return
	}
	if err := app.reviews.DeleteReview(r.Context(), titleID, reviewID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	q, ok := app.readListQuery(w, r, reviews.CommentSortSafelist)
	if !ok {
		return
	}
	result, total, err := app.reviews.ListComments(r.Context(), titleID, reviewID, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newPage(result, total, q.NextPage(total)))
}

func (app *Application) createComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	comment, err := app.reviews.CreateComment(r.Context(), titleID, reviewID, requestUser(r), req.Text)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, comment)
}

func (app *Application) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "commentID")
	if !ok {
		return
	}
	comment, err := app.reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, comment)
}

func (app *Application) updateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "commentID")
	if !ok {
		return
	}
	comment, err := app.reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if !app.checkObjectPermission(w, r, comment.AuthorID) {
		return
	}
	var req commentRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	comment, err = app.reviews.UpdateComment(r.Context(), titleID, reviewID, commentID, req.Text)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, comment)
}

func (app *Application) deleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "commentID")
	if !ok {
		return
	}
	comment, err := app.reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	if !app.checkObjectPermission(w, r, comment.AuthorID) {
		return
	}
	if err := app.reviews.DeleteComment(r.Context(), titleID, reviewID, commentID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
