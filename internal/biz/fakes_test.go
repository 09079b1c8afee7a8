package biz

import (
	"context"
	"sort"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// In-memory repositories shared by the use case tests.

type fakeMovieRepo struct {
	mu      sync.Mutex
	movies  map[int64]*Movie
	deleted []int64
}

func newFakeMovieRepo() *fakeMovieRepo {
	return &fakeMovieRepo{movies: make(map[int64]*Movie)}
}

func (r *fakeMovieRepo) GetMovie(_ context.Context, id int64) (*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	c := *m
	return &c, nil
}

func (r *fakeMovieRepo) CreateMovie(_ context.Context, movie *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[movie.ID]; ok {
		return ErrMovieExists
	}
	c := *movie
	r.movies[movie.ID] = &c
	return nil
}

func (r *fakeMovieRepo) GetMovieForUpdate(ctx context.Context, id int64) (*Movie, error) {
	return r.GetMovie(ctx, id)
}

func (r *fakeMovieRepo) UpdateVotes(_ context.Context, movie *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[movie.ID]
	if !ok {
		return ErrMovieNotFound
	}
	m.SetVotes(movie.VoteTotal(), movie.VoteCount())
	return nil
}

func (r *fakeMovieRepo) DeleteMovie(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(r.movies, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeMovieRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movies)
}

type fakeGenreRepo struct {
	mu     sync.Mutex
	byName map[string]*Genre
	nextID int64
}

func newFakeGenreRepo() *fakeGenreRepo {
	return &fakeGenreRepo{byName: make(map[string]*Genre)}
}

func (r *fakeGenreRepo) GetGenreByName(_ context.Context, name string) (*Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byName[name]
	if !ok {
		return nil, ErrGenreNotFound
	}
	return g, nil
}

func (r *fakeGenreRepo) EnsureGenre(_ context.Context, name string) (*Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.byName[name]; ok {
		return g, nil
	}
	r.nextID++
	g := &Genre{ID: r.nextID, Name: name}
	r.byName[name] = g
	return g, nil
}

type fakePersonRepo struct {
	mu      sync.Mutex
	persons map[int64]*Person
	creates int
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{persons: make(map[int64]*Person)}
}

func (r *fakePersonRepo) GetPerson(_ context.Context, id int64) (*Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.persons[id]
	if !ok {
		return nil, ErrPersonNotFound
	}
	return p, nil
}

func (r *fakePersonRepo) CreatePerson(_ context.Context, p *Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[p.ID]; ok {
		return nil
	}
	r.creates++
	r.persons[p.ID] = p
	return nil
}

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCatalog struct {
	mu          sync.Mutex
	movies      map[int64]*MovieDetails
	persons     map[int64]*PersonDetails
	movieErr    error
	personErrs  map[int64]error
	movieCalls  int
	personCalls int
	gate        chan struct{}
	entered     chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		movies:     make(map[int64]*MovieDetails),
		persons:    make(map[int64]*PersonDetails),
		personErrs: make(map[int64]error),
	}
}

func (c *fakeCatalog) SearchMovies(_ context.Context, query string, page int32) (*SearchPage[MovieResult], error) {
	return &SearchPage[MovieResult]{Results: []MovieResult{{ID: 1, Title: query}}, Page: page, TotalPages: 1, TotalResults: 1}, nil
}

func (c *fakeCatalog) SearchPeople(_ context.Context, query string, page int32) (*SearchPage[PersonResult], error) {
	return &SearchPage[PersonResult]{Results: []PersonResult{{ID: 1, Name: query}}, Page: page, TotalPages: 1, TotalResults: 1}, nil
}

func (c *fakeCatalog) GetMovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	if c.entered != nil {
		select {
		case c.entered <- struct{}{}:
		default:
		}
	}
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movieCalls++
	if c.movieErr != nil {
		return nil, c.movieErr
	}
	d, ok := c.movies[id]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return d, nil
}

func (c *fakeCatalog) GetPersonDetails(_ context.Context, id int64) (*PersonDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personCalls++
	if err, ok := c.personErrs[id]; ok {
		return nil, err
	}
	d, ok := c.persons[id]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return d, nil
}

func (c *fakeCatalog) calls() (movies, persons int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.movieCalls, c.personCalls
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[int64]*User
	favorites map[[2]int64]bool
	nextID    int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[int64]*User),
		favorites: make(map[[2]int64]bool),
	}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) UpdateUsername(_ context.Context, id int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Username = username
	return nil
}

func (r *fakeUserRepo) AddFavorite(_ context.Context, userID, movieID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.favorites[[2]int64{userID, movieID}] = true
	return nil
}

func (r *fakeUserRepo) RemoveFavorite(_ context.Context, userID, movieID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.favorites, [2]int64{userID, movieID})
	return nil
}

func (r *fakeUserRepo) IsFavorite(_ context.Context, userID, movieID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.favorites[[2]int64{userID, movieID}], nil
}

func (r *fakeUserRepo) ListFavorites(_ context.Context, userID int64) ([]*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Movie
	for k := range r.favorites {
		if k[0] == userID {
			out = append(out, &Movie{ID: k[1], Title: "movie", ReleaseDate: "1999-10-15"})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) favoriteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.favorites)
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[int64]*Comment
	nextID   int64
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[int64]*Comment)}
}

func (r *fakeCommentRepo) CreateComment(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.comments[c.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) GetComment(_ context.Context, id int64) (*Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommentRepo) DeleteComment(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeCommentRepo) list(match func(*Comment) bool) []*Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Comment
	for _, c := range r.comments {
		if match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeCommentRepo) ListByMovie(_ context.Context, movieID int64) ([]*Comment, error) {
	return r.list(func(c *Comment) bool { return c.MovieID == movieID }), nil
}

func (r *fakeCommentRepo) ListByUser(_ context.Context, userID int64) ([]*Comment, error) {
	return r.list(func(c *Comment) bool { return c.UserID == userID }), nil
}

type fakeRankingRepo struct {
	mu      sync.Mutex
	updated map[int64]float64
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{updated: make(map[int64]float64)}
}

func (r *fakeRankingRepo) UpdateRankings(_ context.Context, movie *Movie) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated[movie.ID] = movie.Rating()
}

func (r *fakeRankingRepo) TopRated(_ context.Context, limit int) ([]*Movie, error) {
	return make([]*Movie, 0, limit), nil
}

func (r *fakeRankingRepo) MostVoted(_ context.Context, limit int) ([]*Movie, error) {
	return make([]*Movie, 0, limit), nil
}

// fixture wires every use case against the fakes.
type fixture struct {
	movies   *fakeMovieRepo
	genres   *fakeGenreRepo
	persons  *fakePersonRepo
	catalog  *fakeCatalog
	users    *fakeUserRepo
	comments *fakeCommentRepo
	rankings *fakeRankingRepo

	movieUC    *MovieUseCase
	ratingUC   *RatingUseCase
	favoriteUC *FavoriteUseCase
	commentUC  *CommentUseCase
}

func newFixture() *fixture {
	f := &fixture{
		movies:   newFakeMovieRepo(),
		genres:   newFakeGenreRepo(),
		persons:  newFakePersonRepo(),
		catalog:  newFakeCatalog(),
		users:    newFakeUserRepo(),
		comments: newFakeCommentRepo(),
		rankings: newFakeRankingRepo(),
	}
	logger := log.DefaultLogger
	f.movieUC = NewMovieUseCase(f.movies, f.genres, f.persons, fakeTx{}, f.catalog, logger)
	f.ratingUC = NewRatingUseCase(f.movies, f.rankings, fakeTx{}, f.movieUC, logger)
	f.favoriteUC = NewFavoriteUseCase(f.users, f.movieUC, logger)
	f.commentUC = NewCommentUseCase(f.comments, f.users, f.movieUC, logger)
	return f
}

// addFightClub registers movie 550 with the catalog.
func (f *fixture) addFightClub() {
	f.catalog.movies[550] = &MovieDetails{
		ID:          550,
		Title:       "Fight Club",
		ReleaseDate: "1999-10-15",
		Overview:    "A ticking-time-bomb insomniac and a slippery soap salesman.",
		PosterURL:   "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
		Genres:      []string{"Drama", " Thriller ", "Drama", ""},
		Directors:   []CrewMember{{ID: 7467, Name: "David Fincher"}},
		Cast: []CastMember{
			{ID: 819, Name: "Edward Norton", Character: "The Narrator", Order: 0},
			{ID: 287, Name: "Brad Pitt", Character: "Tyler Durden", Order: 1},
		},
	}
	f.catalog.persons[7467] = &PersonDetails{ID: 7467, Name: "David Fincher", Birthday: "1962-08-28"}
	f.catalog.persons[819] = &PersonDetails{ID: 819, Name: "Edward Norton", Birthday: "1969-08-18"}
	f.catalog.persons[287] = &PersonDetails{ID: 287, Name: "Brad Pitt", Birthday: "1963-12-18"}
}

// addSeven registers movie 807, which shares genres and people with 550.
func (f *fixture) addSeven() {
	f.catalog.movies[807] = &MovieDetails{
		ID:          807,
		Title:       "Se7en",
		ReleaseDate: "1995-09-22",
		Genres:      []string{"Crime", "Drama", "Thriller"},
		Directors:   []CrewMember{{ID: 7467, Name: "David Fincher"}},
		Cast: []CastMember{
			{ID: 287, Name: "Brad Pitt", Character: "Detective David Mills", Order: 0},
			{ID: 192, Name: "Morgan Freeman", Character: "Detective William Somerset", Order: 1},
		},
	}
	f.catalog.persons[192] = &PersonDetails{ID: 192, Name: "Morgan Freeman", Birthday: "1937-06-01"}
}

func (f *fixture) addUser(name string) *User {
	u := &User{Username: name, PasswordHash: "x"}
	_ = f.users.CreateUser(context.Background(), u)
	return u
}
