package data

import (
	"context"
	"errors"
	"testing"

	"movieflix/internal/biz"
	"movieflix/internal/conf"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMovies() []*biz.Movie {
	year := 1995
	director := "John Lasseter"
	return []*biz.Movie{
		{Titulo: "Toy Story", NotaMedia: 7.7, QtdAvaliacoes: 5415, Genero: "Animation, Comedy", AnoLancamento: &year, Diretor: &director},
		{Titulo: "Jumanji", NotaMedia: 6.9, QtdAvaliacoes: 2413, Genero: "Adventure"},
		{ID: 77, Titulo: "Grumpier Old Men"},
	}
}

func expectLoadPrefix(mock sqlmock.Sqlmock) {
	expectSchema(mock)
	mock.ExpectBegin()
	mock.ExpectExec(q("SELECT pg_advisory_xact_lock(")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("TRUNCATE TABLE filme RESTART IDENTITY CASCADE")).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestReplaceAllInsertsInBatchesAtomically(t *testing.T) {
	d, mock := newTestData(t)
	repo := NewWarehouseRepo(d, &conf.ETL{BatchSize: 2}, testLogger)

	expectLoadPrefix(mock)
	mock.ExpectQuery(q(`INSERT INTO "filme"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(q(`INSERT INTO "filme"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	loaded, err := repo.ReplaceAll(context.Background(), sampleMovies())
	require.NoError(t, err)
	assert.Equal(t, int64(3), loaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllTwiceLoadsSameRows(t *testing.T) {
	d, mock := newTestData(t)
	repo := NewWarehouseRepo(d, nil, testLogger)

	for i := 0; i < 2; i++ {
		expectLoadPrefix(mock)
		mock.ExpectQuery(q(`INSERT INTO "filme"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
		mock.ExpectCommit()
	}

	first, err := repo.ReplaceAll(context.Background(), sampleMovies())
	require.NoError(t, err)
	second, err := repo.ReplaceAll(context.Background(), sampleMovies())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllFailureMidAppendRollsBack(t *testing.T) {
	d, mock := newTestData(t)
	repo := NewWarehouseRepo(d, &conf.ETL{BatchSize: 2}, testLogger)

	expectLoadPrefix(mock)
	mock.ExpectQuery(q(`INSERT INTO "filme"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(q(`INSERT INTO "filme"`)).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	loaded, err := repo.ReplaceAll(context.Background(), sampleMovies())
	require.Error(t, err)
	assert.Zero(t, loaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllSchemaFailure(t *testing.T) {
	d, mock := newTestData(t)
	repo := NewWarehouseRepo(d, nil, testLogger)

	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS filme")).WillReturnError(errors.New("permission denied"))

	_, err := repo.ReplaceAll(context.Background(), sampleMovies())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieModelRoundTrip(t *testing.T) {
	in := sampleMovies()[0]
	out := modelToMovie(movieToModel(in))
	assert.Equal(t, in, out)

	empty := movieToModel(&biz.Movie{Titulo: "x"})
	assert.Nil(t, empty.Genero)
	assert.Nil(t, empty.Pais)
}
