package biz

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	MinVote = 1
	MaxVote = 10

	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

// VoteTotal is the sum of all submitted vote values.
func (m *Movie) VoteTotal() int64 { return m.voteTotal }

// VoteCount is the number of submitted votes.
func (m *Movie) VoteCount() int32 { return m.voteCount }

// Rating is VoteTotal / VoteCount, or 0 without votes.
func (m *Movie) Rating() float64 { return m.rating }

// AddVote records one vote and recomputes the rating.
func (m *Movie) AddVote(value int) {
	m.voteTotal += int64(value)
	m.voteCount++
	m.RecalculateRating()
}

// SetVotes replaces the counters, for rows loaded from storage and
// out-of-band corrections, and recomputes the rating.
func (m *Movie) SetVotes(total int64, count int32) {
	m.voteTotal = total
	m.voteCount = count
	m.RecalculateRating()
}

// RecalculateRating derives the rating from the current counters.
func (m *Movie) RecalculateRating() {
	if m.voteCount > 0 {
		m.rating = float64(m.voteTotal) / float64(m.voteCount)
		return
	}
	m.rating = 0
}

// RatingUseCase handles vote submission and rating maintenance
type RatingUseCase struct {
	movies    MovieRepo
	rankings  RankingRepo
	tx        Transaction
	materials *MovieUseCase
	log       *log.Helper
}

// NewRatingUseCase creates a new RatingUseCase instance
func NewRatingUseCase(movies MovieRepo, rankings RankingRepo, tx Transaction, materials *MovieUseCase, logger log.Logger) *RatingUseCase {
	return &RatingUseCase{
		movies:    movies,
		rankings:  rankings,
		tx:        tx,
		materials: materials,
		log:       log.NewHelper(logger),
	}
}

// AddVote materializes the movie if needed and adds one vote to it.
func (uc *RatingUseCase) AddVote(ctx context.Context, movieID int64, value int) (*Movie, error) {
	if value < MinVote || value > MaxVote {
		return nil, invalidArgument("vote must be between %d and %d", MinVote, MaxVote)
	}

	if _, err := uc.materials.EnsureMovie(ctx, movieID); err != nil {
		return nil, err
	}

	var movie *Movie
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := uc.movies.GetMovieForUpdate(ctx, movieID)
		if err != nil {
			return err
		}
		m.AddVote(value)
		if err := uc.movies.UpdateVotes(ctx, m); err != nil {
			return fmt.Errorf("failed to update votes: %w", err)
		}
		uc.rankings.UpdateRankings(ctx, m)
		movie = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("vote %d recorded for movie %d, rating now %.2f", value, movieID, movie.Rating())
	return movie, nil
}

// RecalculateRating recomputes a stored movie's rating from its counters.
func (uc *RatingUseCase) RecalculateRating(ctx context.Context, movieID int64) (*Movie, error) {
	var movie *Movie
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := uc.movies.GetMovieForUpdate(ctx, movieID)
		if err != nil {
			return err
		}
		m.RecalculateRating()
		if err := uc.movies.UpdateVotes(ctx, m); err != nil {
			return fmt.Errorf("failed to update votes: %w", err)
		}
		uc.rankings.UpdateRankings(ctx, m)
		movie = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movie, nil
}

// TopRated lists voted movies by rating, best first.
func (uc *RatingUseCase) TopRated(ctx context.Context, limit int) ([]*Movie, error) {
	return uc.rankings.TopRated(ctx, rankingLimit(limit))
}

// MostVoted lists voted movies by vote count, most first.
func (uc *RatingUseCase) MostVoted(ctx context.Context, limit int) ([]*Movie, error) {
	return uc.rankings.MostVoted(ctx, rankingLimit(limit))
}

func rankingLimit(limit int) int {
	if limit <= 0 {
		return defaultRankingLimit
	}
	if limit > maxRankingLimit {
		return maxRankingLimit
	}
	return limit
}
