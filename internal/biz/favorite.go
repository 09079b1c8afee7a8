package biz

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// FavoriteUseCase handles a user's favorite movies
type FavoriteUseCase struct {
	users     UserRepo
	materials *MovieUseCase
	log       *log.Helper
}

// NewFavoriteUseCase creates a new FavoriteUseCase instance
func NewFavoriteUseCase(users UserRepo, materials *MovieUseCase, logger log.Logger) *FavoriteUseCase {
	return &FavoriteUseCase{
		users:     users,
		materials: materials,
		log:       log.NewHelper(logger),
	}
}

// ToggleFavorite puts the movie in or out of the user's favorites according
// to liked. Applying the state the user already has is a no-op.
func (uc *FavoriteUseCase) ToggleFavorite(ctx context.Context, userID, movieID int64, liked bool) (bool, error) {
	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	movie, err := uc.materials.EnsureMovie(ctx, movieID)
	if err != nil {
		return false, err
	}

	if liked {
		err = uc.users.AddFavorite(ctx, user.ID, movie.ID)
	} else {
		err = uc.users.RemoveFavorite(ctx, user.ID, movie.ID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to change favorite: %w", err)
	}

	uc.log.WithContext(ctx).Infow(
		"msg", "favorite changed",
		"user_id", user.ID,
		"username", user.Username,
		"movie_id", movie.ID,
		"movie_title", movie.Title,
		"liked", liked,
	)
	return liked, nil
}

// IsFavorite reports whether the movie is in the user's favorites. A movie
// that was never materialized cannot be a favorite.
func (uc *FavoriteUseCase) IsFavorite(ctx context.Context, userID, movieID int64) (bool, error) {
	if _, err := uc.users.GetUser(ctx, userID); err != nil {
		return false, err
	}
	return uc.users.IsFavorite(ctx, userID, movieID)
}
