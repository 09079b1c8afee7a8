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

type genreRepo struct {
	data *Data
	log  *log.Helper
}

// NewGenreRepo creates a new genre repository
func NewGenreRepo(data *Data, logger log.Logger) biz.GenreRepo {
	return &genreRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *genreRepo) GetGenreByName(ctx context.Context, name string) (*biz.Genre, error) {
	var row Genre
	if err := r.data.DB(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrGenreNotFound
		}
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	return &biz.Genre{ID: row.ID, Name: row.Name}, nil
}

// EnsureGenre relies on the unique index on name: a concurrent insert of the
// same name is skipped and the stored row is read back.
func (r *genreRepo) EnsureGenre(ctx context.Context, name string) (*biz.Genre, error) {
	db := r.data.DB(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&Genre{Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}

	return r.GetGenreByName(ctx, name)
}
