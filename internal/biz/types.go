package biz

import (
	"context"
	"time"
)

// Movie domain model. The vote counters and the derived rating are only
// reachable through AddVote, SetVotes and RecalculateRating.
type Movie struct {
	ID          int64
	Title       string
	ReleaseDate string
	Description string
	PosterURL   string
	Genres      []*Genre
	Directors   []*Person
	Cast        []*CastCredit

	voteTotal int64
	voteCount int32
	rating    float64
}

// Genre domain model
type Genre struct {
	ID   int64
	Name string
}

// Person domain model
type Person struct {
	ID        int64
	Name      string
	BirthDate string
	Biography string
}

// CastCredit links a movie, a person and the character played.
type CastCredit struct {
	ID        int64
	MovieID   int64
	Person    *Person
	Character string
	Order     int
}

// Comment domain model
type Comment struct {
	ID         int64
	UserID     int64
	Username   string
	MovieID    int64
	MovieTitle string
	Content    string
	CreatedAt  time.Time
}

// User domain model
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// MovieSummary is the short projection used in profiles.
type MovieSummary struct {
	ID        int64
	Title     string
	PosterURL string
	Year      int
}

// Profile aggregates what a user has favorited and written.
type Profile struct {
	User      *User
	Favorites []*MovieSummary
	Comments  []*Comment
}

// MovieDetails is the provider's full record for one movie.
type MovieDetails struct {
	ID          int64
	Title       string
	ReleaseDate string
	Overview    string
	PosterURL   string
	Genres      []string
	Directors   []CrewMember
	Cast        []CastMember
}

// CrewMember is a credited crew entry, already filtered to directors.
type CrewMember struct {
	ID   int64
	Name string
}

// CastMember is one billed cast entry.
type CastMember struct {
	ID        int64
	Name      string
	Character string
	Order     int
}

// PersonDetails is the provider's record for one person.
type PersonDetails struct {
	ID        int64
	Name      string
	Birthday  string
	Biography string
}

// MovieResult is a single movie search hit.
type MovieResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"posterPath"`
	ReleaseDate string `json:"releaseDate"`
}

// PersonResult is a single person search hit.
type PersonResult struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	KnownForDepartment string `json:"knownForDepartment"`
	ProfilePath        string `json:"profilePath"`
}

// SearchPage is one page of provider search results.
type SearchPage[T any] struct {
	Results      []T   `json:"results"`
	Page         int32 `json:"page"`
	TotalPages   int32 `json:"totalPages"`
	TotalResults int32 `json:"totalResults"`
}

// MovieRepo defines the repository interface for movies
type MovieRepo interface {
	// GetMovie loads a movie with its genres, directors and cast.
	GetMovie(ctx context.Context, id int64) (*Movie, error)
	// CreateMovie inserts the movie and its owned rows. It returns
	// ErrMovieExists when a row with the same id is already stored.
	CreateMovie(ctx context.Context, movie *Movie) error
	GetMovieForUpdate(ctx context.Context, id int64) (*Movie, error)
	UpdateVotes(ctx context.Context, movie *Movie) error
	DeleteMovie(ctx context.Context, id int64) error
}

// GenreRepo defines the repository interface for genres
type GenreRepo interface {
	GetGenreByName(ctx context.Context, name string) (*Genre, error)
	// EnsureGenre inserts the name if absent and returns the stored row.
	EnsureGenre(ctx context.Context, name string) (*Genre, error)
}

// PersonRepo defines the repository interface for persons
type PersonRepo interface {
	GetPerson(ctx context.Context, id int64) (*Person, error)
	// CreatePerson is a no-op when the id is already stored.
	CreatePerson(ctx context.Context, person *Person) error
}

// UserRepo defines the repository interface for users and their favorites
type UserRepo interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	AddFavorite(ctx context.Context, userID, movieID int64) error
	RemoveFavorite(ctx context.Context, userID, movieID int64) error
	IsFavorite(ctx context.Context, userID, movieID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]*Movie, error)
}

// CommentRepo defines the repository interface for comments
type CommentRepo interface {
	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id int64) (*Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListByMovie(ctx context.Context, movieID int64) ([]*Comment, error)
	ListByUser(ctx context.Context, userID int64) ([]*Comment, error)
}

// RankingRepo maintains and reads movie rankings
type RankingRepo interface {
	// UpdateRankings records the movie's current rating and vote count.
	UpdateRankings(ctx context.Context, movie *Movie)
	TopRated(ctx context.Context, limit int) ([]*Movie, error)
	MostVoted(ctx context.Context, limit int) ([]*Movie, error)
}

// Transaction runs fn in a single store transaction. Repositories called with
// the ctx handed to fn take part in it.
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogClient defines the interface for the external movie catalog
type CatalogClient interface {
	SearchMovies(ctx context.Context, query string, page int32) (*SearchPage[MovieResult], error)
	SearchPeople(ctx context.Context, query string, page int32) (*SearchPage[PersonResult], error)
	GetMovieDetails(ctx context.Context, id int64) (*MovieDetails, error)
	GetPersonDetails(ctx context.Context, id int64) (*PersonDetails, error)
}
