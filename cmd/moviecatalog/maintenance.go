package main

import (
	"moviecatalog/internal/biz"
)

// maintenance bundles the use cases the offline subcommands drive.
type maintenance struct {
	movies  *biz.MovieUseCase
	ratings *biz.RatingUseCase
}

func newMaintenanceSet(movies *biz.MovieUseCase, ratings *biz.RatingUseCase) *maintenance {
	return &maintenance{movies: movies, ratings: ratings}
}
