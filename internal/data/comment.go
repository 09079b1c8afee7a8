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

type commentRepo struct {
	data *Data
	log  *log.Helper
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(data *Data, logger log.Logger) biz.CommentRepo {
	return &commentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *commentRepo) CreateComment(ctx context.Context, comment *biz.Comment) error {
	row := &Comment{
		UserID:    comment.UserID,
		MovieID:   comment.MovieID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	if err := r.data.DB(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = row.ID
	return nil
}

func (r *commentRepo) GetComment(ctx context.Context, id int64) (*biz.Comment, error) {
	var row Comment
	err := r.data.DB(ctx).
		Preload("User").
		Preload("Movie").
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return commentToBiz(&row), nil
}

func (r *commentRepo) DeleteComment(ctx context.Context, id int64) error {
	result := r.data.DB(ctx).Delete(&Comment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrCommentNotFound
	}
	return nil
}

// ListByMovie returns the movie's comments oldest first.
func (r *commentRepo) ListByMovie(ctx context.Context, movieID int64) ([]*biz.Comment, error) {
	return r.list(ctx, "movie_id = ?", movieID, "created_at ASC")
}

// ListByUser returns the user's comments newest first.
func (r *commentRepo) ListByUser(ctx context.Context, userID int64) ([]*biz.Comment, error) {
	return r.list(ctx, "user_id = ?", userID, "created_at DESC")
}

func (r *commentRepo) list(ctx context.Context, where string, arg int64, order string) ([]*biz.Comment, error) {
	var rows []Comment
	err := r.data.DB(ctx).
		Preload("User").
		Preload("Movie").
		Where(where, arg).
		Order(order).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]*biz.Comment, 0, len(rows))
	for i := range rows {
		comments = append(comments, commentToBiz(&rows[i]))
	}
	return comments, nil
}

func commentToBiz(c *Comment) *biz.Comment {
	return &biz.Comment{
		ID:         c.ID,
		UserID:     c.UserID,
		Username:   c.User.Username,
		MovieID:    c.MovieID,
		MovieTitle: c.Movie.Title,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}
