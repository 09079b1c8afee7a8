package service

import (
	"context"
	"net/http"

	"moviecatalog/internal/biz"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// UserService exposes signup, login and profiles over HTTP
type UserService struct {
	userUC *biz.UserUseCase
}

// NewUserService creates a new UserService
func NewUserService(userUC *biz.UserUseCase) *UserService {
	return &UserService{userUC: userUC}
}

// RegisterUserServiceHTTPServer mounts the user routes.
func RegisterUserServiceHTTPServer(s *khttp.Server, svc *UserService) {
	r := s.Route("/")
	r.POST("/signup", route(OperationSignup, true, http.StatusCreated, svc.Signup))
	r.POST("/login", route(OperationLogin, true, http.StatusOK, svc.Login))
	r.GET("/verify", route(OperationVerify, false, http.StatusOK, svc.Verify))
	r.GET("/profile", route(OperationProfile, false, http.StatusOK, svc.Profile))
	r.PUT("/profile/username", route(OperationUpdateUsername, true, http.StatusOK, svc.UpdateUsername))
	r.GET("/healthz", route(OperationHealthCheck, false, http.StatusOK, svc.HealthCheck))
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

type UpdateUsernameRequest struct {
	NewUsername string `json:"newUsername" validate:"required,max=100"`
}

type EmptyRequest struct{}

type AuthReply struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type MovieSummaryReply struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl"`
	Year      int    `json:"year"`
}

type ProfileReply struct {
	ID             int64                `json:"id"`
	Username       string               `json:"username"`
	TotalFavorites int                  `json:"totalFavorites"`
	TotalComments  int                  `json:"totalComments"`
	FavoriteMovies []*MovieSummaryReply `json:"favoriteMovies"`
	Comments       []*CommentReply      `json:"comments"`
}

type HealthReply struct {
	Status string `json:"status"`
}

// Signup implements user registration
func (s *UserService) Signup(ctx context.Context, req *CredentialsRequest) (*AuthReply, error) {
	user, token, err := s.userUC.Signup(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &AuthReply{ID: user.ID, Username: user.Username, Token: token}, nil
}

// Login implements credential login
func (s *UserService) Login(ctx context.Context, req *CredentialsRequest) (*AuthReply, error) {
	user, token, err := s.userUC.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &AuthReply{ID: user.ID, Username: user.Username, Token: token}, nil
}

// Verify echoes the caller's identity when the token is still valid
func (s *UserService) Verify(ctx context.Context, _ *EmptyRequest) (*AuthReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userUC.Verify(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &AuthReply{ID: user.ID, Username: user.Username, Token: bearerToken(ctx)}, nil
}

// Profile returns the caller's favorites and comments
func (s *UserService) Profile(ctx context.Context, _ *EmptyRequest) (*ProfileReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.userUC.Profile(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	reply := &ProfileReply{
		ID:             profile.User.ID,
		Username:       profile.User.Username,
		TotalFavorites: len(profile.Favorites),
		TotalComments:  len(profile.Comments),
		FavoriteMovies: make([]*MovieSummaryReply, 0, len(profile.Favorites)),
		Comments:       make([]*CommentReply, 0, len(profile.Comments)),
	}
	for _, m := range profile.Favorites {
		reply.FavoriteMovies = append(reply.FavoriteMovies, &MovieSummaryReply{
			ID:        m.ID,
			Title:     m.Title,
			PosterURL: m.PosterURL,
			Year:      m.Year,
		})
	}
	for _, c := range profile.Comments {
		reply.Comments = append(reply.Comments, commentToReply(c))
	}
	return reply, nil
}

// UpdateUsername renames the caller and returns a fresh token
func (s *UserService) UpdateUsername(ctx context.Context, req *UpdateUsernameRequest) (*AuthReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, token, err := s.userUC.UpdateUsername(ctx, claims.UserID, req.NewUsername)
	if err != nil {
		return nil, err
	}
	return &AuthReply{ID: user.ID, Username: user.Username, Token: token}, nil
}

// HealthCheck implements health check
func (s *UserService) HealthCheck(ctx context.Context, _ *EmptyRequest) (*HealthReply, error) {
	return &HealthReply{Status: "ok"}, nil
}
