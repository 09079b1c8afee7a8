package service

import (
	"context"
	"net/http"

	"moviecatalog/internal/biz"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// SearchService exposes catalog searches over HTTP
type SearchService struct {
	searchUC *biz.SearchUseCase
}

// NewSearchService creates a new SearchService
func NewSearchService(searchUC *biz.SearchUseCase) *SearchService {
	return &SearchService{searchUC: searchUC}
}

// RegisterSearchServiceHTTPServer mounts the search routes.
func RegisterSearchServiceHTTPServer(s *khttp.Server, svc *SearchService) {
	r := s.Route("/")
	r.GET("/search/movies", route(OperationSearchMovies, false, http.StatusOK, svc.SearchMovies))
	r.GET("/search/people", route(OperationSearchPeople, false, http.StatusOK, svc.SearchPeople))
}

type SearchRequest struct {
	Query string `json:"query" validate:"max=200"`
	Page  int32  `json:"page" validate:"min=0"`
}

// SearchMovies implements movie search
func (s *SearchService) SearchMovies(ctx context.Context, req *SearchRequest) (*biz.SearchPage[biz.MovieResult], error) {
	return s.searchUC.SearchMovies(ctx, req.Query, req.Page)
}

// SearchPeople implements person search
func (s *SearchService) SearchPeople(ctx context.Context, req *SearchRequest) (*biz.SearchPage[biz.PersonResult], error) {
	return s.searchUC.SearchPeople(ctx, req.Query, req.Page)
}
