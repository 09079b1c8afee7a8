package service

import (
	"context"
	"net/http"
	"time"

	"moviecatalog/internal/biz"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// MovieService exposes movies, comments, favorites and votes over HTTP
type MovieService struct {
	movieUC    *biz.MovieUseCase
	ratingUC   *biz.RatingUseCase
	commentUC  *biz.CommentUseCase
	favoriteUC *biz.FavoriteUseCase
}

// NewMovieService creates a new MovieService
func NewMovieService(movieUC *biz.MovieUseCase, ratingUC *biz.RatingUseCase, commentUC *biz.CommentUseCase, favoriteUC *biz.FavoriteUseCase) *MovieService {
	return &MovieService{
		movieUC:    movieUC,
		ratingUC:   ratingUC,
		commentUC:  commentUC,
		favoriteUC: favoriteUC,
	}
}

// RegisterMovieServiceHTTPServer mounts the movie routes.
func RegisterMovieServiceHTTPServer(s *khttp.Server, svc *MovieService) {
	r := s.Route("/")
	r.GET("/movie/{id}", route(OperationGetMovie, false, http.StatusOK, svc.GetMovie))
	r.PUT("/movie/{id}/comments", route(OperationAddComment, true, http.StatusCreated, svc.AddComment))
	r.DELETE("/comment/{id}", route(OperationDeleteComment, false, http.StatusOK, svc.DeleteComment))
	r.PUT("/movie/{id}/changeLikedStatus", route(OperationChangeLikedStatus, false, http.StatusOK, svc.ChangeLikedStatus))
	r.GET("/movie/{id}/isLiked", route(OperationIsLiked, false, http.StatusOK, svc.IsLiked))
	r.PUT("/movie/{id}/vote", route(OperationVote, true, http.StatusOK, svc.Vote))
	r.GET("/movies/top", route(OperationTopRated, false, http.StatusOK, svc.TopRated))
	r.GET("/movies/popular", route(OperationMostVoted, false, http.StatusOK, svc.MostVoted))
}

type MovieRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type AddCommentRequest struct {
	ID      int64  `json:"id" validate:"gt=0"`
	Content string `json:"content" validate:"required"`
}

type CommentRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type ChangeLikedStatusRequest struct {
	ID    int64 `json:"id" validate:"gt=0"`
	Liked bool  `json:"liked"`
}

type VoteRequest struct {
	ID    int64 `json:"id" validate:"gt=0"`
	Value int   `json:"value" validate:"min=1,max=10"`
}

type RankingRequest struct {
	Limit int `json:"limit" validate:"min=0,max=100"`
}

type PersonReply struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CastReply struct {
	PersonID  int64  `json:"personId"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

type CommentReply struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	MovieTitle string `json:"movieTitle"`
	MovieID    int64  `json:"movieId"`
}

type MovieReply struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ReleaseDate string          `json:"releaseDate"`
	Description string          `json:"description"`
	PosterURL   string          `json:"posterUrl"`
	Genres      []string        `json:"genres"`
	Directors   []*PersonReply  `json:"directors"`
	Cast        []*CastReply    `json:"cast"`
	VoteTotal   int64           `json:"voteTotal"`
	VoteCount   int32           `json:"voteCount"`
	Rating      float64         `json:"rating"`
	Comments    []*CommentReply `json:"comments"`
}

type LikedReply struct {
	MovieID int64 `json:"movieId"`
	Liked   bool  `json:"liked"`
}

type VoteReply struct {
	MovieID   int64   `json:"movieId"`
	VoteTotal int64   `json:"voteTotal"`
	VoteCount int32   `json:"voteCount"`
	Rating    float64 `json:"rating"`
}

type RankedMovieReply struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	PosterURL string  `json:"posterUrl"`
	VoteCount int32   `json:"voteCount"`
	Rating    float64 `json:"rating"`
}

type MovieListReply struct {
	Items []*RankedMovieReply `json:"items"`
}

type DeleteReply struct {
	Message string `json:"message"`
}

// GetMovie returns the local copy of a movie, materializing it on first access
func (s *MovieService) GetMovie(ctx context.Context, req *MovieRequest) (*MovieReply, error) {
	movie, err := s.movieUC.EnsureMovie(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentUC.ListMovieComments(ctx, movie.ID)
	if err != nil {
		return nil, err
	}
	return movieToReply(movie, comments), nil
}

// AddComment implements comment creation
func (s *MovieService) AddComment(ctx context.Context, req *AddCommentRequest) (*CommentReply, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentUC.AddComment(ctx, user.UserID, req.ID, req.Content)
	if err != nil {
		return nil, err
	}
	return commentToReply(comment), nil
}

// DeleteComment implements author-only comment deletion
func (s *MovieService) DeleteComment(ctx context.Context, req *CommentRequest) (*DeleteReply, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.commentUC.DeleteComment(ctx, req.ID, user.UserID); err != nil {
		return nil, err
	}
	return &DeleteReply{Message: "comment deleted"}, nil
}

// ChangeLikedStatus implements the favorite toggle
func (s *MovieService) ChangeLikedStatus(ctx context.Context, req *ChangeLikedStatusRequest) (*LikedReply, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	liked, err := s.favoriteUC.ToggleFavorite(ctx, user.UserID, req.ID, req.Liked)
	if err != nil {
		return nil, err
	}
	return &LikedReply{MovieID: req.ID, Liked: liked}, nil
}

// IsLiked reports whether the caller favorited the movie
func (s *MovieService) IsLiked(ctx context.Context, req *MovieRequest) (*LikedReply, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	liked, err := s.favoriteUC.IsFavorite(ctx, user.UserID, req.ID)
	if err != nil {
		return nil, err
	}
	return &LikedReply{MovieID: req.ID, Liked: liked}, nil
}

// Vote adds one vote to the movie's rating
func (s *MovieService) Vote(ctx context.Context, req *VoteRequest) (*VoteReply, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	movie, err := s.ratingUC.AddVote(ctx, req.ID, req.Value)
	if err != nil {
		return nil, err
	}
	return voteToReply(movie), nil
}

// TopRated lists the best rated movies
func (s *MovieService) TopRated(ctx context.Context, req *RankingRequest) (*MovieListReply, error) {
	movies, err := s.ratingUC.TopRated(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return moviesToListReply(movies), nil
}

// MostVoted lists the movies with the most votes
func (s *MovieService) MostVoted(ctx context.Context, req *RankingRequest) (*MovieListReply, error) {
	movies, err := s.ratingUC.MostVoted(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return moviesToListReply(movies), nil
}

// Helper functions

func movieToReply(movie *biz.Movie, comments []*biz.Comment) *MovieReply {
	reply := &MovieReply{
		ID:          movie.ID,
		Title:       movie.Title,
		ReleaseDate: movie.ReleaseDate,
		Description: movie.Description,
		PosterURL:   movie.PosterURL,
		Genres:      make([]string, 0, len(movie.Genres)),
		Directors:   make([]*PersonReply, 0, len(movie.Directors)),
		Cast:        make([]*CastReply, 0, len(movie.Cast)),
		VoteTotal:   movie.VoteTotal(),
		VoteCount:   movie.VoteCount(),
		Rating:      movie.Rating(),
		Comments:    make([]*CommentReply, 0, len(comments)),
	}
	for _, g := range movie.Genres {
		reply.Genres = append(reply.Genres, g.Name)
	}
	for _, d := range movie.Directors {
		reply.Directors = append(reply.Directors, &PersonReply{ID: d.ID, Name: d.Name})
	}
	for _, c := range movie.Cast {
		reply.Cast = append(reply.Cast, &CastReply{PersonID: c.Person.ID, Name: c.Person.Name, Character: c.Character})
	}
	for _, c := range comments {
		reply.Comments = append(reply.Comments, commentToReply(c))
	}
	return reply
}

func commentToReply(c *biz.Comment) *CommentReply {
	return &CommentReply{
		ID:         c.ID,
		Username:   c.Username,
		Content:    c.Content,
		Timestamp:  c.CreatedAt.UTC().Format(time.RFC3339),
		MovieTitle: c.MovieTitle,
		MovieID:    c.MovieID,
	}
}

func voteToReply(m *biz.Movie) *VoteReply {
	return &VoteReply{
		MovieID:   m.ID,
		VoteTotal: m.VoteTotal(),
		VoteCount: m.VoteCount(),
		Rating:    m.Rating(),
	}
}

func moviesToListReply(movies []*biz.Movie) *MovieListReply {
	reply := &MovieListReply{Items: make([]*RankedMovieReply, 0, len(movies))}
	for _, m := range movies {
		reply.Items = append(reply.Items, &RankedMovieReply{
			ID:        m.ID,
			Title:     m.Title,
			PosterURL: m.PosterURL,
			VoteCount: m.VoteCount(),
			Rating:    m.Rating(),
		})
	}
	return reply
}
