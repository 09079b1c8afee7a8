package biz

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
)

const maxCommentLength = 4000

// CommentUseCase handles comments on movies
type CommentUseCase struct {
	comments  CommentRepo
	users     UserRepo
	materials *MovieUseCase
	now       func() time.Time
	log       *log.Helper
}

// NewCommentUseCase creates a new CommentUseCase instance
func NewCommentUseCase(comments CommentRepo, users UserRepo, materials *MovieUseCase, logger log.Logger) *CommentUseCase {
	return &CommentUseCase{
		comments:  comments,
		users:     users,
		materials: materials,
		now:       time.Now,
		log:       log.NewHelper(logger),
	}
}

// AddComment stores a new comment by the user on the movie, materializing
// the movie first if it is not stored yet.
func (uc *CommentUseCase) AddComment(ctx context.Context, userID, movieID int64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidArgument("comment content cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, invalidArgument("comment content exceeds %d characters", maxCommentLength)
	}

	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	movie, err := uc.materials.EnsureMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	comment := &Comment{
		UserID:     user.ID,
		Username:   user.Username,
		MovieID:    movie.ID,
		MovieTitle: movie.Title,
		Content:    content,
		CreatedAt:  uc.now().UTC(),
	}
	if err := uc.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	uc.log.WithContext(ctx).Infow(
		"msg", "comment added",
		"comment_id", comment.ID,
		"user_id", user.ID,
		"username", user.Username,
		"movie_id", movie.ID,
		"movie_title", movie.Title,
	)
	return comment, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (uc *CommentUseCase) DeleteComment(ctx context.Context, commentID, requestingUserID int64) error {
	comment, err := uc.comments.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != requestingUserID {
		return ErrNotCommentAuthor
	}

	if err := uc.comments.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	uc.log.WithContext(ctx).Infow(
		"msg", "comment deleted",
		"comment_id", commentID,
		"user_id", comment.UserID,
		"username", comment.Username,
		"movie_title", comment.MovieTitle,
	)
	return nil
}

// ListMovieComments returns a movie's comments, oldest first.
func (uc *CommentUseCase) ListMovieComments(ctx context.Context, movieID int64) ([]*Comment, error) {
	return uc.comments.ListByMovie(ctx, movieID)
}
