package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBlankQuerySkipsCatalog(t *testing.T) {
	uc := NewSearchUseCase(nil)

	movies, err := uc.SearchMovies(context.Background(), "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, movies.Results)
	assert.Equal(t, int32(1), movies.Page)

	people, err := uc.SearchPeople(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Empty(t, people.Results)
}

func TestSearchClampsPage(t *testing.T) {
	uc := NewSearchUseCase(newFakeCatalog())

	page, err := uc.SearchMovies(context.Background(), " fight club ", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), page.Page)
	assert.Equal(t, "fight club", page.Results[0].Title)

	people, err := uc.SearchPeople(context.Background(), "pitt", 9999)
	require.NoError(t, err)
	assert.Equal(t, int32(maxSearchPage), people.Page)
}
