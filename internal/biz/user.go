package biz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserUseCase handles signup, login and profiles
type UserUseCase struct {
	users    UserRepo
	comments CommentRepo
	tokens   *TokenIssuer
	log      *log.Helper
}

// NewUserUseCase creates a new UserUseCase instance
func NewUserUseCase(users UserRepo, comments CommentRepo, tokens *TokenIssuer, logger log.Logger) *UserUseCase {
	return &UserUseCase{
		users:    users,
		comments: comments,
		tokens:   tokens,
		log:      log.NewHelper(logger),
	}
}

// Signup registers a new user and returns it with a fresh token.
func (uc *UserUseCase) Signup(ctx context.Context, username, password string) (*User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", invalidArgument("username cannot be empty")
	}
	if len(password) < minPasswordLength {
		return nil, "", invalidArgument("password must be at least %d characters", minPasswordLength)
	}

	if _, err := uc.users.GetUserByUsername(ctx, username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{Username: username, PasswordHash: string(hash)}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	uc.log.WithContext(ctx).Infow("msg", "user registered", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (*User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", invalidArgument("username cannot be empty")
	}
	if password == "" {
		return nil, "", invalidArgument("password cannot be empty")
	}

	user, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			uc.log.WithContext(ctx).Infow("msg", "login failed", "username", username, "reason", "unknown user")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.log.WithContext(ctx).Infow("msg", "login failed", "user_id", user.ID, "username", username, "reason", "bad password")
		return nil, "", ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	uc.log.WithContext(ctx).Infow("msg", "login succeeded", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Verify confirms the token still names an existing user.
func (uc *UserUseCase) Verify(ctx context.Context, claims *Claims) (*User, error) {
	if claims == nil {
		return nil, ErrInvalidToken
	}
	user, err := uc.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Username != claims.Username {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// Profile returns the user with their favorites and comments.
func (uc *UserUseCase) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	movies, err := uc.users.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	favorites := make([]*MovieSummary, 0, len(movies))
	for _, m := range movies {
		favorites = append(favorites, &MovieSummary{
			ID:        m.ID,
			Title:     m.Title,
			PosterURL: m.PosterURL,
			Year:      releaseYear(m.ReleaseDate),
		})
	}

	comments, err := uc.comments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &Profile{
		User:      user,
		Favorites: favorites,
		Comments:  comments,
	}, nil
}

// UpdateUsername renames the user and returns a token for the new name.
func (uc *UserUseCase) UpdateUsername(ctx context.Context, userID int64, newUsername string) (*User, string, error) {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return nil, "", invalidArgument("new username cannot be empty")
	}

	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	// Renaming to the current name only refreshes the token.
	if user.Username != newUsername {
		if existing, err := uc.users.GetUserByUsername(ctx, newUsername); err == nil {
			if existing.ID != userID {
				return nil, "", ErrUsernameTaken
			}
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, "", fmt.Errorf("failed to check username: %w", err)
		}
		if err := uc.users.UpdateUsername(ctx, userID, newUsername); err != nil {
			return nil, "", err
		}
		user.Username = newUsername
	}

	token, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// releaseYear parses the year out of a YYYY-MM-DD date, 0 if it has none.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
