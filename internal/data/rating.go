package data

import (
	"context"
	"fmt"
	"strconv"

	"moviecatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	rankTopKey     = "rank:movies:top"
	rankPopularKey = "rank:movies:popular"
)

type rankingRepo struct {
	data *Data
	log  *log.Helper
}

// NewRankingRepo creates a new ranking repository
func NewRankingRepo(data *Data, logger log.Logger) biz.RankingRepo {
	return &rankingRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// UpdateRankings refreshes the movie's redis ranking entries once the
// current transaction has committed.
func (r *rankingRepo) UpdateRankings(ctx context.Context, movie *biz.Movie) {
	if r.data.rdb == nil {
		return
	}
	id := strconv.FormatInt(movie.ID, 10)
	count, rating := float64(movie.VoteCount()), movie.Rating()

	r.data.afterCommit(ctx, func() {
		ctx := context.WithoutCancel(ctx)
		// Update popular movies ranking (by vote count)
		r.data.rdb.ZAdd(ctx, rankPopularKey, redis.Z{Score: count, Member: id})
		// Update top-rated movies ranking (by rating)
		if count > 0 {
			r.data.rdb.ZAdd(ctx, rankTopKey, redis.Z{Score: rating, Member: id})
		}
	})
}

func (r *rankingRepo) TopRated(ctx context.Context, limit int) ([]*biz.Movie, error) {
	return r.ranked(ctx, rankTopKey, "rating DESC", limit)
}

func (r *rankingRepo) MostVoted(ctx context.Context, limit int) ([]*biz.Movie, error) {
	return r.ranked(ctx, rankPopularKey, "vote_count DESC", limit)
}

// ranked reads ids from the redis sorted set and falls back to the database
// when redis is unavailable or the set is empty.
func (r *rankingRepo) ranked(ctx context.Context, key, order string, limit int) ([]*biz.Movie, error) {
	if r.data.rdb != nil {
		members, err := r.data.rdb.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
		if err != nil {
			r.log.Warnf("failed to read ranking %s: %v", key, err)
		} else if len(members) > 0 {
			return r.loadInOrder(ctx, members)
		}
	}

	var rows []Movie
	err := r.data.DB(ctx).
		Where("vote_count > 0").
		Order(order).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ranking: %w", err)
	}

	movies := make([]*biz.Movie, 0, len(rows))
	for i := range rows {
		movies = append(movies, modelToBiz(&rows[i]))
	}
	return movies, nil
}

func (r *rankingRepo) loadInOrder(ctx context.Context, members []string) ([]*biz.Movie, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	var rows []Movie
	if err := r.data.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ranked movies: %w", err)
	}
	byID := make(map[int64]*Movie, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	movies := make([]*biz.Movie, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			movies = append(movies, modelToBiz(row))
		}
	}
	return movies, nil
}
