package biz

import (
	"context"
	"strings"
)

const maxSearchPage = 500

// SearchUseCase proxies catalog searches
type SearchUseCase struct {
	catalog CatalogClient
}

// NewSearchUseCase creates a new SearchUseCase instance
func NewSearchUseCase(catalog CatalogClient) *SearchUseCase {
	return &SearchUseCase{catalog: catalog}
}

// SearchMovies returns one page of movie hits. A blank query yields an
// empty page without calling the catalog.
func (uc *SearchUseCase) SearchMovies(ctx context.Context, query string, page int32) (*SearchPage[MovieResult], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchPage[MovieResult]{Results: []MovieResult{}, Page: 1}, nil
	}
	return uc.catalog.SearchMovies(ctx, query, clampPage(page))
}

// SearchPeople returns one page of person hits.
func (uc *SearchUseCase) SearchPeople(ctx context.Context, query string, page int32) (*SearchPage[PersonResult], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchPage[PersonResult]{Results: []PersonResult{}, Page: 1}, nil
	}
	return uc.catalog.SearchPeople(ctx, query, clampPage(page))
}

func clampPage(page int32) int32 {
	if page < 1 {
		return 1
	}
	if page > maxSearchPage {
		return maxSearchPage
	}
	return page
}
