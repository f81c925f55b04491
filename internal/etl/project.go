package etl

import "movieflix/internal/biz"

// Project maps merged records onto warehouse rows. Identifiers are left
// unset, the warehouse assigns them on load.
func Project(merged []MergedRecord) []*biz.Movie {
	movies := make([]*biz.Movie, 0, len(merged))
	for i := range merged {
		movies = append(movies, project(&merged[i]))
	}
	return movies
}

func project(r *MergedRecord) *biz.Movie {
	m := &biz.Movie{
		Titulo:        r.Title,
		Genero:        Join(r.Genres),
		Pais:          Join(r.Countries),
		AnoLancamento: r.ReleaseYear,
	}
	if r.VoteAverage != nil {
		m.NotaMedia = *r.VoteAverage
	}
	if r.VoteCount != nil {
		m.QtdAvaliacoes = *r.VoteCount
	}
	if r.Credits != nil {
		m.Diretor = r.Credits.Director
		if len(r.Credits.Actors) > 0 {
			atores := Join(r.Credits.Actors)
			m.Atores = &atores
		}
	}
	return m
}
