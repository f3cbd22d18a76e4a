package models

import "yamdb/proj/internal/storage/postgres"

type Models struct {
	Users      *UserModel
	Categories *CategoryModel
	Genres     *GenreModel
	Titles     *TitleModel
	Reviews    *ReviewModel
	Comments   *CommentModel
}

func New(db *postgres.PostgresDB) *Models {
	return &Models{
		Users:      &UserModel{db.Conn},
		Categories: NewCategoryModel(db.Conn),
		Genres:     NewGenreModel(db.Conn),
		Titles:     &TitleModel{db.Conn},
		Reviews:    &ReviewModel{db.Conn},
		Comments:   &CommentModel{db.Conn},
	}
}
