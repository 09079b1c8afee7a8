package data

import (
	"context"
	"errors"
	"fmt"

	"moviecatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo creates a new user repository
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, user *biz.User) error {
	row := &User{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	}
	if err := r.data.DB(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return biz.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

func (r *userRepo) GetUser(ctx context.Context, id int64) (*biz.User, error) {
	var row User
	if err := r.data.DB(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userToBiz(&row), nil
}

func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*biz.User, error) {
	var row User
	if err := r.data.DB(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userToBiz(&row), nil
}

func (r *userRepo) UpdateUsername(ctx context.Context, id int64, username string) error {
	result := r.data.DB(ctx).Model(&User{}).Where("id = ?", id).Update("username", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return biz.ErrUsernameTaken
		}
		return fmt.Errorf("failed to update username: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrUserNotFound
	}
	return nil
}

// AddFavorite is idempotent: the (user, movie) primary key absorbs repeats.
func (r *userRepo) AddFavorite(ctx context.Context, userID, movieID int64) error {
	err := r.data.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&UserFavorite{UserID: userID, MovieID: movieID}).Error
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *userRepo) RemoveFavorite(ctx context.Context, userID, movieID int64) error {
	err := r.data.DB(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&UserFavorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (r *userRepo) IsFavorite(ctx context.Context, userID, movieID int64) (bool, error) {
	var count int64
	err := r.data.DB(ctx).
		Model(&UserFavorite{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// ListFavorites returns bare movie rows, most recently favorited first.
func (r *userRepo) ListFavorites(ctx context.Context, userID int64) ([]*biz.Movie, error) {
	var rows []Movie
	err := r.data.DB(ctx).
		Model(&Movie{}).
		Joins("JOIN user_favorites ON user_favorites.movie_id = movies.id").
		Where("user_favorites.user_id = ?", userID).
		Order("user_favorites.created_at DESC").
		Order("movies.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	movies := make([]*biz.Movie, 0, len(rows))
	for i := range rows {
		movies = append(movies, modelToBiz(&rows[i]))
	}
	return movies, nil
}

func userToBiz(u *User) *biz.User {
	return &biz.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}
