package biz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/singleflight"
)

// materializeTimeout bounds a shared materialization, which outlives the
// request that started it.
const materializeTimeout = 30 * time.Second

// MovieUseCase materializes provider movies, persons and genres into the
// local store. The local copy is the record of truth once written.
type MovieUseCase struct {
	movies  MovieRepo
	genres  GenreRepo
	persons PersonRepo
	tx      Transaction
	catalog CatalogClient
	flight  singleflight.Group
	log     *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(movies MovieRepo, genres GenreRepo, persons PersonRepo, tx Transaction, catalog CatalogClient, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		movies:  movies,
		genres:  genres,
		persons: persons,
		tx:      tx,
		catalog: catalog,
		log:     log.NewHelper(logger),
	}
}

// EnsureMovie returns the local movie for a provider id, fetching and
// persisting it first when it is not stored yet.
func (uc *MovieUseCase) EnsureMovie(ctx context.Context, id int64) (*Movie, error) {
	if id <= 0 {
		return nil, invalidArgument("invalid movie id %d", id)
	}

	movie, err := uc.movies.GetMovie(ctx, id)
	if err == nil {
		return movie, nil
	}
	if !errors.Is(err, ErrMovieNotFound) {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	// Concurrent requests for the same id share one materialization. The
	// shared fetch is detached from any single caller so one cancelled request
	// does not fail the others; each caller still stops waiting on its own ctx.
	ch := uc.flight.DoChan(strconv.FormatInt(id, 10), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), materializeTimeout)
		defer cancel()
		return uc.materialize(fctx, id)
	})
	select {
	case <-ctx.Done():
		return nil, ErrRequestCanceled.WithCause(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			uc.log.WithContext(ctx).Debugf("movie %d materialized by a concurrent request", id)
		}
		return res.Val.(*Movie), nil
	}
}

func (uc *MovieUseCase) materialize(ctx context.Context, id int64) (*Movie, error) {
	// A request that lost the flight race may arrive after the winner committed.
	if movie, err := uc.movies.GetMovie(ctx, id); err == nil {
		return movie, nil
	} else if !errors.Is(err, ErrMovieNotFound) {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	details, err := uc.catalog.GetMovieDetails(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCatalogNotFound) {
			return nil, ErrMovieNotFound.WithCause(err)
		}
		if errors.Is(err, ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, ErrUpstreamUnavailable.WithCause(err)
	}

	movie := &Movie{
		ID:          id,
		Title:       details.Title,
		ReleaseDate: details.ReleaseDate,
		Description: details.Overview,
		PosterURL:   details.PosterURL,
	}

	// Persons are resolved before the transaction so no network call runs
	// while it is open.
	resolved := make(map[int64]*Person)
	var fresh []*Person
	resolve := func(personID int64, name string) (*Person, error) {
		if p, ok := resolved[personID]; ok {
			return p, nil
		}
		p, isNew, err := uc.resolvePerson(ctx, personID, name)
		if err != nil {
			return nil, err
		}
		resolved[personID] = p
		if isNew {
			fresh = append(fresh, p)
		}
		return p, nil
	}

	for _, c := range details.Cast {
		if c.ID <= 0 {
			continue
		}
		p, err := resolve(c.ID, c.Name)
		if err != nil {
			return nil, err
		}
		movie.Cast = append(movie.Cast, &CastCredit{
			MovieID:   id,
			Person:    p,
			Character: c.Character,
			Order:     c.Order,
		})
	}

	seenDirectors := make(map[int64]bool)
	for _, d := range details.Directors {
		if d.ID <= 0 || seenDirectors[d.ID] {
			continue
		}
		seenDirectors[d.ID] = true
		p, err := resolve(d.ID, d.Name)
		if err != nil {
			return nil, err
		}
		movie.Directors = append(movie.Directors, p)
	}

	genreNames := normalizeGenreNames(details.Genres)

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		for _, name := range genreNames {
			g, err := uc.EnsureGenre(ctx, name)
			if err != nil {
				return err
			}
			movie.Genres = append(movie.Genres, g)
		}
		for _, p := range fresh {
			if err := uc.persons.CreatePerson(ctx, p); err != nil {
				return fmt.Errorf("failed to create person %d: %w", p.ID, err)
			}
		}
		return uc.movies.CreateMovie(ctx, movie)
	})
	switch {
	case errors.Is(err, ErrMovieExists):
		uc.log.WithContext(ctx).Infof("movie %d was materialized concurrently, reading stored copy", id)
	case err != nil:
		return nil, fmt.Errorf("failed to materialize movie %d: %w", id, err)
	default:
		uc.log.WithContext(ctx).Infow(
			"msg", "movie materialized",
			"movie_id", id,
			"genres", len(movie.Genres),
			"directors", len(movie.Directors),
			"cast", len(movie.Cast),
			"new_persons", len(fresh),
		)
	}

	return uc.movies.GetMovie(ctx, id)
}

// DeleteMovie evicts a materialized movie with its credits, favorites and
// comments. The next read materializes it again from the catalog.
func (uc *MovieUseCase) DeleteMovie(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalidArgument("invalid movie id %d", id)
	}
	if err := uc.movies.DeleteMovie(ctx, id); err != nil {
		return err
	}
	uc.log.WithContext(ctx).Infof("movie %d evicted", id)
	return nil
}

// EnsureGenre returns the genre with the given name, creating it if absent.
func (uc *MovieUseCase) EnsureGenre(ctx context.Context, name string) (*Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArgument("genre name is required")
	}

	g, err := uc.genres.GetGenreByName(ctx, name)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, ErrGenreNotFound) {
		return nil, fmt.Errorf("failed to get genre %q: %w", name, err)
	}

	g, err = uc.genres.EnsureGenre(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create genre %q: %w", name, err)
	}
	return g, nil
}

// EnsurePerson returns the local person for a provider id, fetching and
// storing it first when needed.
func (uc *MovieUseCase) EnsurePerson(ctx context.Context, id int64) (*Person, error) {
	if id <= 0 {
		return nil, invalidArgument("invalid person id %d", id)
	}

	p, isNew, err := uc.resolvePerson(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if isNew {
		if err := uc.persons.CreatePerson(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to create person %d: %w", id, err)
		}
	}
	return p, nil
}

// resolvePerson looks the person up locally and falls back to the catalog.
// When the catalog no longer knows the id, the credited name is used; with
// no name to fall back on the person is reported as not found.
func (uc *MovieUseCase) resolvePerson(ctx context.Context, id int64, creditedName string) (*Person, bool, error) {
	p, err := uc.persons.GetPerson(ctx, id)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, ErrPersonNotFound) {
		return nil, false, fmt.Errorf("failed to get person %d: %w", id, err)
	}

	details, err := uc.catalog.GetPersonDetails(ctx, id)
	switch {
	case err == nil:
		name := details.Name
		if name == "" {
			name = creditedName
		}
		return &Person{
			ID:        id,
			Name:      name,
			BirthDate: details.Birthday,
			Biography: details.Biography,
		}, true, nil
	case errors.Is(err, ErrCatalogNotFound) && creditedName != "":
		uc.log.WithContext(ctx).Warnf("person %d missing from catalog, storing credited name only", id)
		return &Person{ID: id, Name: creditedName}, true, nil
	case errors.Is(err, ErrCatalogNotFound):
		return nil, false, ErrPersonNotFound.WithCause(err)
	case errors.Is(err, ErrUpstreamUnavailable):
		return nil, false, err
	default:
		return nil, false, ErrUpstreamUnavailable.WithCause(err)
	}
}

// normalizeGenreNames trims names, drops blanks and keeps the first
// occurrence of each name.
func normalizeGenreNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
