package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"moviecatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func movieCacheKey(id int64) string {
	return fmt.Sprintf("movie:%d", id)
}

// GetMovie returns the movie with its genres, directors and cast. The
// relations come from the cache when Redis is enabled; vote counters are
// never cached and always read from the movie row.
func (r *movieRepo) GetMovie(ctx context.Context, id int64) (*biz.Movie, error) {
	if r.data.rdb != nil {
		cached, err := r.data.rdb.Get(ctx, movieCacheKey(id)).Result()
		if err == nil {
			var g movieGraph
			if err := json.Unmarshal([]byte(cached), &g); err == nil {
				r.log.Debugf("cache hit for movie: %d", id)
				if err := r.refreshVotes(ctx, &g); err != nil {
					if errors.Is(err, biz.ErrMovieNotFound) {
						r.data.rdb.Del(ctx, movieCacheKey(id))
					}
					return nil, err
				}
				return graphToBiz(&g), nil
			}
		}
	}

	g, err := r.loadGraph(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.data.rdb != nil {
		if data, err := json.Marshal(cacheableGraph(g)); err == nil {
			r.data.rdb.Set(ctx, movieCacheKey(id), data, r.data.movieTTL)
		}
	}

	return graphToBiz(g), nil
}

func (r *movieRepo) loadGraph(ctx context.Context, id int64) (*movieGraph, error) {
	db := r.data.DB(ctx)

	g := &movieGraph{}
	if err := db.First(&g.Movie, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	if err := db.Model(&Genre{}).
		Joins("JOIN movie_genres ON movie_genres.genre_id = genres.id").
		Where("movie_genres.movie_id = ?", id).
		Order("movie_genres.position").
		Find(&g.Genres).Error; err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}

	if err := db.Model(&Person{}).
		Joins("JOIN movie_directors ON movie_directors.person_id = persons.id").
		Where("movie_directors.movie_id = ?", id).
		Order("movie_directors.position").
		Find(&g.Directors).Error; err != nil {
		return nil, fmt.Errorf("failed to load directors: %w", err)
	}

	if err := db.Preload("Person").
		Where("movie_id = ?", id).
		Order("position").
		Find(&g.Cast).Error; err != nil {
		return nil, fmt.Errorf("failed to load cast: %w", err)
	}

	return g, nil
}

// refreshVotes overwrites the graph's vote counters with the stored ones.
func (r *movieRepo) refreshVotes(ctx context.Context, g *movieGraph) error {
	var row Movie
	err := r.data.DB(ctx).
		Select("id", "vote_total", "vote_count", "rating").
		First(&row, g.Movie.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biz.ErrMovieNotFound
		}
		return fmt.Errorf("failed to get movie votes: %w", err)
	}
	g.Movie.VoteTotal = row.VoteTotal
	g.Movie.VoteCount = row.VoteCount
	g.Movie.Rating = row.Rating
	return nil
}

// cacheableGraph returns a shallow copy of g without vote counters. A
// graph read before a vote commits can land in the cache after that vote
// invalidated it, so counters must not be served from there.
func cacheableGraph(g *movieGraph) *movieGraph {
	c := *g
	c.Movie.VoteTotal = 0
	c.Movie.VoteCount = 0
	c.Movie.Rating = 0
	return &c
}

// CreateMovie inserts the movie row and everything it owns. Genres and
// persons referenced by the movie must already be stored.
func (r *movieRepo) CreateMovie(ctx context.Context, movie *biz.Movie) error {
	db := r.data.DB(ctx)

	row := &Movie{
		ID:          movie.ID,
		Title:       movie.Title,
		ReleaseDate: movie.ReleaseDate,
		Description: movie.Description,
		PosterURL:   movie.PosterURL,
		VoteTotal:   movie.VoteTotal(),
		VoteCount:   movie.VoteCount(),
		Rating:      movie.Rating(),
	}

	// The primary key decides concurrent materializations of the same id.
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(row)
	if result.Error != nil {
		return fmt.Errorf("failed to create movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrMovieExists
	}

	if len(movie.Genres) > 0 {
		links := make([]MovieGenre, 0, len(movie.Genres))
		for i, g := range movie.Genres {
			links = append(links, MovieGenre{MovieID: movie.ID, GenreID: g.ID, Position: i})
		}
		if err := db.Omit(clause.Associations).Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link genres: %w", err)
		}
	}

	if len(movie.Directors) > 0 {
		links := make([]MovieDirector, 0, len(movie.Directors))
		for i, p := range movie.Directors {
			links = append(links, MovieDirector{MovieID: movie.ID, PersonID: p.ID, Position: i})
		}
		if err := db.Omit(clause.Associations).Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link directors: %w", err)
		}
	}

	if len(movie.Cast) > 0 {
		credits := make([]CastCredit, 0, len(movie.Cast))
		for _, c := range movie.Cast {
			credits = append(credits, CastCredit{
				MovieID:   movie.ID,
				PersonID:  c.Person.ID,
				Character: c.Character,
				Position:  c.Order,
			})
		}
		if err := db.Omit(clause.Associations).Create(&credits).Error; err != nil {
			return fmt.Errorf("failed to create cast credits: %w", err)
		}
		for i := range credits {
			movie.Cast[i].ID = credits[i].ID
			movie.Cast[i].MovieID = movie.ID
		}
	}

	return nil
}

// GetMovieForUpdate loads the bare movie row under a row lock. Relations
// are not loaded.
func (r *movieRepo) GetMovieForUpdate(ctx context.Context, id int64) (*biz.Movie, error) {
	var row Movie
	err := r.data.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return modelToBiz(&row), nil
}

func (r *movieRepo) UpdateVotes(ctx context.Context, movie *biz.Movie) error {
	result := r.data.DB(ctx).
		Model(&Movie{}).
		Where("id = ?", movie.ID).
		Updates(map[string]interface{}{
			"vote_total": movie.VoteTotal(),
			"vote_count": movie.VoteCount(),
			"rating":     movie.Rating(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update votes: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrMovieNotFound
	}

	r.invalidate(ctx, movie.ID)
	return nil
}

// DeleteMovie removes the movie with its credits, links, favorites and
// comments. Genres and persons are shared and stay.
func (r *movieRepo) DeleteMovie(ctx context.Context, id int64) error {
	err := NewTransaction(r.data).InTx(ctx, func(ctx context.Context) error {
		db := r.data.DB(ctx)
		for _, owned := range []interface{}{&Comment{}, &UserFavorite{}, &CastCredit{}, &MovieGenre{}, &MovieDirector{}} {
			if err := db.Where("movie_id = ?", id).Delete(owned).Error; err != nil {
				return fmt.Errorf("failed to delete %T rows: %w", owned, err)
			}
		}
		result := db.Delete(&Movie{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete movie: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return biz.ErrMovieNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, id)
	return nil
}

// invalidate drops the cached movie once the current transaction, if any,
// has committed.
func (r *movieRepo) invalidate(ctx context.Context, id int64) {
	if r.data.rdb == nil {
		return
	}
	r.data.afterCommit(ctx, func() {
		r.data.rdb.Del(context.WithoutCancel(ctx), movieCacheKey(id))
	})
}

// Helper: Convert data.Movie to biz.Movie
func modelToBiz(m *Movie) *biz.Movie {
	movie := &biz.Movie{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Description: m.Description,
		PosterURL:   m.PosterURL,
	}
	movie.SetVotes(m.VoteTotal, m.VoteCount)
	return movie
}

func personToBiz(p *Person) *biz.Person {
	return &biz.Person{
		ID:        p.ID,
		Name:      p.Name,
		BirthDate: p.BirthDate,
		Biography: p.Biography,
	}
}

func graphToBiz(g *movieGraph) *biz.Movie {
	movie := modelToBiz(&g.Movie)

	movie.Genres = make([]*biz.Genre, 0, len(g.Genres))
	for i := range g.Genres {
		movie.Genres = append(movie.Genres, &biz.Genre{ID: g.Genres[i].ID, Name: g.Genres[i].Name})
	}

	movie.Directors = make([]*biz.Person, 0, len(g.Directors))
	for i := range g.Directors {
		movie.Directors = append(movie.Directors, personToBiz(&g.Directors[i]))
	}

	movie.Cast = make([]*biz.CastCredit, 0, len(g.Cast))
	for i := range g.Cast {
		c := &g.Cast[i]
		movie.Cast = append(movie.Cast, &biz.CastCredit{
			ID:        c.ID,
			MovieID:   c.MovieID,
			Person:    personToBiz(&c.Person),
			Character: c.Character,
			Order:     c.Position,
		})
	}

	return movie
}
