package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/services/catalog"

	"github.com/go-chi/chi/v5"
)

type slugEntryRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

func (app *Application) listCategories(w http.ResponseWriter, r *http.Request) {
	q, ok := app.readListQuery(w, r, catalog.SlugSortSafelist)
	if !ok {
		return
	}
	result, total, err := app.catalog.ListCategories(r.Context(), q.Search, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newPage(result, total, q.NextPage(total)))
}

func (app *Application) createCategory(w http.ResponseWriter, r *http.Request) {
	var req slugEntryRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	category, err := app.catalog.CreateCategory(r.Context(), req.Name, req.Slug)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, category)
}

func (app *Application) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := app.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "slug")); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) listGenres(w http.ResponseWriter, r *http.Request) {
	q, ok := app.readListQuery(w, r, catalog.SlugSortSafelist)
	if !ok {
		return
	}
	result, total, err := app.catalog.ListGenres(r.Context(), q.Search, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newPage(result, total, q.NextPage(total)))
}

func (app *Application) createGenre(w http.ResponseWriter, r *http.Request) {
	var req slugEntryRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	genre, err := app.catalog.CreateGenre(r.Context(), req.Name, req.Slug)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, genre)
}

func (app *Application) deleteGenre(w http.ResponseWriter, r *http.Request) {
	if err := app.catalog.DeleteGenre(r.Context(), chi.URLParam(r, "slug")); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

type titleListQuery struct {
	filters.Filters
	models.TitleFilter
}

// titleRequest carries both create and partial update bodies. Genre and
// category are given as slugs; an empty category removes it.
type titleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=256"`
	Year        *int32   `json:"year" validate:"omitempty,gte=0,notfutureyear"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50,slug"`
	Category    *string  `json:"category" validate:"omitempty,max=50,slugorempty"`
}

func (req titleRequest) input() models.TitleInput {
	return models.TitleInput{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	}
}

func (app *Application) listTitles(w http.ResponseWriter, r *http.Request) {
	q := titleListQuery{Filters: filters.Filters{SortSafelist: catalog.TitleSortSafelist}}
	if !app.readQuery(w, r, &q) {
		return
	}
	if !q.ValidSort() {
		app.Http.ValidationError(w, r, map[string]string{"ordering": "Unsupported ordering field"})
		return
	}
	result, total, err := app.catalog.ListTitles(r.Context(), q.TitleFilter, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newPage(result, total, q.NextPage(total)))
}

func (app *Application) getTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "titleID")
	if !ok {
		return
	}
	title, err := app.catalog.GetTitle(r.Context(), id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, title)
}

func (app *Application) createTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	title, err := app.catalog.CreateTitle(r.Context(), req.input())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, title)
}

func (app *Application) updateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "titleID")
	if !ok {
		return
	}
	var req titleRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	title, err := app.catalog.UpdateTitle(r.Context(), id, req.input())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, title)
}

func (app *Application) deleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "titleID")
	if !ok {
		return
	}
	if err := app.catalog.DeleteTitle(r.Context(), id); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
