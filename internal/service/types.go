package service

type HealthCheckRequest struct{}

type HealthCheckReply struct {
	Status string `json:"status"`
}

type ListMoviesRequest struct {
	Limit  int
	Offset int
}

type GetMovieRequest struct {
	ID int64
}

type CreateMovieRequest struct {
	Titulo        string  `json:"titulo" validate:"required,max=512"`
	AnoLancamento *int    `json:"ano_lancamento" validate:"omitempty,gte=1800,lte=3000"`
	Genero        *string `json:"genero"`
	Pais          *string `json:"pais"`
	Diretor       *string `json:"diretor"`
	Atores        *string `json:"atores"`
}

type MovieReply struct {
	ID            int64   `json:"id"`
	Titulo        string  `json:"titulo"`
	NotaMedia     float64 `json:"nota_media"`
	QtdAvaliacoes int64   `json:"qtd_avaliacoes"`
	Genero        *string `json:"genero"`
	Pais          *string `json:"pais"`
	AnoLancamento *int    `json:"ano_lancamento"`
	Diretor       *string `json:"diretor"`
	Atores        *string `json:"atores"`
}

type SubmitRatingRequest struct {
	MovieID int64    `json:"movie_id" validate:"required,gt=0"`
	Usuario *string  `json:"usuario" validate:"omitempty,max=128"`
	Rating  *float64 `json:"rating" validate:"required,gte=0,lte=5"`
}

type SubmitRatingReply struct {
	MovieID       int64   `json:"movie_id"`
	NotaMedia     float64 `json:"nota_media"`
	QtdAvaliacoes int64   `json:"qtd_avaliacoes"`
}

type RefreshViewsRequest struct{}

type RefreshViewsReply struct {
	Refreshed bool   `json:"refreshed"`
	Mode      string `json:"mode"`
}

type ListViewRequest struct {
	Name  string
	Limit int
}

type ViewRowReply struct {
	ID            int64   `json:"id"`
	Titulo        string  `json:"titulo"`
	Genero        *string `json:"genero"`
	NotaMedia     float64 `json:"nota_media"`
	QtdAvaliacoes int64   `json:"qtd_avaliacoes"`
	AnoLancamento *int    `json:"ano_lancamento"`
	Pais          *string `json:"pais"`
}

type RankingsRequest struct {
	Kind  string
	Limit int
}

type RankingReply struct {
	MovieID int64   `json:"movie_id"`
	Score   float64 `json:"score"`
}
