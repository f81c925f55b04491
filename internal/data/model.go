package data

import (
	"time"

	"movieflix/internal/biz"
)

// schemaDDL creates the warehouse table and the rating table that references
// it. Both are create-if-absent; there is no migration step.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS filme (
		id SERIAL PRIMARY KEY,
		titulo TEXT,
		nota_media REAL,
		qtd_avaliacoes INTEGER,
		genero TEXT,
		pais TEXT,
		ano_lancamento INTEGER,
		diretor TEXT,
		atores TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ratings_user (
		id SERIAL PRIMARY KEY,
		movie_id INTEGER NOT NULL REFERENCES filme(id) ON DELETE CASCADE,
		usuario VARCHAR(128),
		rating REAL NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_user_movie_id ON ratings_user (movie_id)`,
}

// Movie represents the filme warehouse table
type Movie struct {
	ID            int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Titulo        string  `gorm:"column:titulo"`
	NotaMedia     float64 `gorm:"column:nota_media"`
	QtdAvaliacoes int64   `gorm:"column:qtd_avaliacoes"`
	Genero        *string `gorm:"column:genero"`
	Pais          *string `gorm:"column:pais"`
	AnoLancamento *int    `gorm:"column:ano_lancamento"`
	Diretor       *string `gorm:"column:diretor"`
	Atores        *string `gorm:"column:atores"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "filme"
}

// Rating represents the ratings_user table
type Rating struct {
	ID      int64   `gorm:"column:id;primaryKey;autoIncrement"`
	MovieID int64   `gorm:"column:movie_id;not null"`
	Usuario *string `gorm:"column:usuario;size:128"`
	Rating  float64 `gorm:"column:rating;not null"`
	// Assigned by the database default.
	CreatedAt time.Time `gorm:"column:created_at;->"`
}

// TableName overrides the table name
func (Rating) TableName() string {
	return "ratings_user"
}

// RatingAggregate represents the aggregated rating result
type RatingAggregate struct {
	Average float64
	Count   int64
}

// ViewRow is a row of any of the materialized views
type ViewRow struct {
	ID            int64   `gorm:"column:id"`
	Titulo        string  `gorm:"column:titulo"`
	Genero        *string `gorm:"column:genero"`
	NotaMedia     float64 `gorm:"column:nota_media"`
	QtdAvaliacoes int64   `gorm:"column:qtd_avaliacoes"`
	AnoLancamento *int    `gorm:"column:ano_lancamento"`
	Pais          *string `gorm:"column:pais"`
}

func movieToModel(m *biz.Movie) *Movie {
	return &Movie{
		ID:            m.ID,
		Titulo:        m.Titulo,
		NotaMedia:     m.NotaMedia,
		QtdAvaliacoes: m.QtdAvaliacoes,
		Genero:        nullable(m.Genero),
		Pais:          nullable(m.Pais),
		AnoLancamento: m.AnoLancamento,
		Diretor:       m.Diretor,
		Atores:        m.Atores,
	}
}

func modelToMovie(m *Movie) *biz.Movie {
	movie := &biz.Movie{
		ID:            m.ID,
		Titulo:        m.Titulo,
		NotaMedia:     m.NotaMedia,
		QtdAvaliacoes: m.QtdAvaliacoes,
		AnoLancamento: m.AnoLancamento,
		Diretor:       m.Diretor,
		Atores:        m.Atores,
	}
	if m.Genero != nil {
		movie.Genero = *m.Genero
	}
	if m.Pais != nil {
		movie.Pais = *m.Pais
	}
	return movie
}

func viewRowToBiz(r *ViewRow) *biz.ViewRow {
	return &biz.ViewRow{
		ID:            r.ID,
		Titulo:        r.Titulo,
		Genero:        r.Genero,
		NotaMedia:     r.NotaMedia,
		QtdAvaliacoes: r.QtdAvaliacoes,
		AnoLancamento: r.AnoLancamento,
		Pais:          r.Pais,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
