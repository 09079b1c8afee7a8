package data

import (
	"time"
)

// Movie represents the movies table. ID is the catalog's id.
type Movie struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Title       string    `gorm:"not null;size:512;index:idx_movies_title"`
	ReleaseDate string    `gorm:"size:32"`
	Description string    `gorm:"type:text"`
	PosterURL   string    `gorm:"column:poster_url;size:512"`
	VoteTotal   int64     `gorm:"not null;default:0"`
	VoteCount   int32     `gorm:"not null;default:0"`
	Rating      float64   `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

// Genre represents the genres table. Name is the natural key.
type Genre struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex:uq_genres_name;not null;size:100"`
}

// TableName overrides the table name
func (Genre) TableName() string {
	return "genres"
}

// Person represents the persons table
type Person struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null;size:255"`
	BirthDate string    `gorm:"size:32"`
	Biography string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Person) TableName() string {
	return "persons"
}

// MovieGenre links a movie to a genre, ordered by Position.
type MovieGenre struct {
	MovieID  int64 `gorm:"primaryKey;autoIncrement:false"`
	GenreID  int64 `gorm:"primaryKey;autoIncrement:false;index:idx_movie_genres_genre"`
	Position int   `gorm:"not null;default:0"`

	Movie Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	Genre Genre `gorm:"foreignKey:GenreID;constraint:OnDelete:RESTRICT"`
}

// TableName overrides the table name
func (MovieGenre) TableName() string {
	return "movie_genres"
}

// MovieDirector links a movie to a directing person.
type MovieDirector struct {
	MovieID  int64 `gorm:"primaryKey;autoIncrement:false"`
	PersonID int64 `gorm:"primaryKey;autoIncrement:false;index:idx_movie_directors_person"`
	Position int   `gorm:"not null;default:0"`

	Movie  Movie  `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	Person Person `gorm:"foreignKey:PersonID;constraint:OnDelete:RESTRICT"`
}

// TableName overrides the table name
func (MovieDirector) TableName() string {
	return "movie_directors"
}

// CastCredit represents the cast_credits table, owned by its movie
type CastCredit struct {
	ID        int64  `gorm:"primaryKey"`
	MovieID   int64  `gorm:"not null;index:idx_cast_credits_movie"`
	PersonID  int64  `gorm:"not null;index:idx_cast_credits_person"`
	Character string `gorm:"size:512"`
	Position  int    `gorm:"not null;default:0"`

	Movie  Movie  `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	Person Person `gorm:"foreignKey:PersonID;constraint:OnDelete:RESTRICT"`
}

// TableName overrides the table name
func (CastCredit) TableName() string {
	return "cast_credits"
}

// User represents the users table
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex:uq_users_username;not null;size:100"`
	PasswordHash string    `gorm:"not null;size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// UserFavorite links a user to a favorited movie.
type UserFavorite struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	MovieID   int64     `gorm:"primaryKey;autoIncrement:false;index:idx_user_favorites_movie"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Movie Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (UserFavorite) TableName() string {
	return "user_favorites"
}

// Comment represents the comments table
type Comment struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index:idx_comments_user"`
	MovieID   int64     `gorm:"not null;index:idx_comments_movie"`
	Content   string    `gorm:"not null;type:text"`
	CreatedAt time.Time `gorm:"not null"`

	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Movie Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (Comment) TableName() string {
	return "comments"
}

// movieGraph is a movie row with its resolved relations, the unit cached in
// redis under movie:{id}.
type movieGraph struct {
	Movie     Movie        `json:"movie"`
	Genres    []Genre      `json:"genres"`
	Directors []Person     `json:"directors"`
	Cast      []CastCredit `json:"cast"`
}
