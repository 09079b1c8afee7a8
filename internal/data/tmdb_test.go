package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"moviecatalog/internal/biz"
	"moviecatalog/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fightClubJSON = `{
  "id": 550,
  "title": "Fight Club",
  "release_date": "1999-10-15",
  "overview": "A ticking-time-bomb insomniac and a slippery soap salesman.",
  "poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
  "genres": [{"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}],
  "credits": {
    "cast": [
      {"id": 819, "name": "Edward Norton", "character": "The Narrator", "order": 0},
      {"id": 287, "name": "Brad Pitt", "character": "Tyler Durden", "order": 1}
    ],
    "crew": [
      {"id": 7467, "name": "David Fincher", "job": "Director"},
      {"id": 7474, "name": "Ross Grayson Bell", "job": "Producer"}
    ]
  }
}`

const sevenJSON = `{
  "id": 807,
  "title": "Se7en",
  "release_date": "1995-09-22",
  "overview": "Two homicide detectives are on a desperate hunt for a serial killer.",
  "poster_path": "/6yoghtyTpznpBik8EngEmJskVUO.jpg",
  "genres": [{"id": 80, "name": "Crime"}, {"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}],
  "credits": {
    "cast": [
      {"id": 287, "name": "Brad Pitt", "character": "Detective David Mills", "order": 0},
      {"id": 192, "name": "Morgan Freeman", "character": "Detective William Somerset", "order": 1}
    ],
    "crew": [
      {"id": 7467, "name": "David Fincher", "job": "Director"}
    ]
  }
}`

var personJSON = map[string]string{
	"/person/819":  `{"id": 819, "name": "Edward Norton", "birthday": "1969-08-18", "biography": "Actor."}`,
	"/person/287":  `{"id": 287, "name": "Brad Pitt", "birthday": "1963-12-18", "biography": "Actor."}`,
	"/person/7467": `{"id": 7467, "name": "David Fincher", "birthday": null, "biography": "Director."}`,
	"/person/192":  `{"id": 192, "name": "Morgan Freeman", "birthday": "1937-06-01", "biography": "Actor."}`,
}

// fakeTMDb serves the subset of the TMDb API the client uses and counts
// requests per path.
type fakeTMDb struct {
	*httptest.Server
	hits      map[string]*int32
	failMovie atomic.Int32
}

func newFakeTMDb(t *testing.T) *fakeTMDb {
	t.Helper()
	f := &fakeTMDb{hits: map[string]*int32{}}
	for _, p := range []string{"/movie/550", "/movie/807", "/person/819", "/person/287", "/person/7467", "/person/192", "/search/movie"} {
		f.hits[p] = new(int32)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/movie/550", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(f.hits["/movie/550"], 1)
		if f.failMovie.Load() > 0 {
			f.failMovie.Add(-1)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Query().Get("append_to_response") != "credits" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(fightClubJSON))
	})
	mux.HandleFunc("/movie/807", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(f.hits["/movie/807"], 1)
		_, _ = w.Write([]byte(sevenJSON))
	})
	for path, body := range personJSON {
		path, body := path, body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(f.hits[path], 1)
			_, _ = w.Write([]byte(body))
		})
	}
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(f.hits["/search/movie"], 1)
		_, _ = w.Write([]byte(`{"page": 1, "total_pages": 1, "total_results": 2, "results": [
			{"id": 550, "title": "Fight Club", "poster_path": "/p.jpg", "release_date": "1999-10-15"},
			{"id": 0, "title": "broken"}
		]}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code": 34, "status_message": "The resource you requested could not be found."}`))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeTMDb) count(path string) int32 {
	return atomic.LoadInt32(f.hits[path])
}

func newTestCatalog(url string, d *Data) biz.CatalogClient {
	return NewCatalogClient(&conf.TMDb{
		Url:        url,
		ApiKey:     "v3key",
		Language:   "en-US",
		ImageUrl:   "https://image.tmdb.org/t/p/w500",
		Timeout:    conf.NewDuration(2 * time.Second),
		MaxRetries: 2,
	}, d, log.DefaultLogger)
}

func TestCatalogGetMovieDetails(t *testing.T) {
	srv := newFakeTMDb(t)
	c := newTestCatalog(srv.URL, nil)

	d, err := c.GetMovieDetails(context.Background(), 550)
	require.NoError(t, err)

	assert.Equal(t, "Fight Club", d.Title)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", d.PosterURL)
	assert.Equal(t, []string{"Drama", "Thriller"}, d.Genres)
	require.Len(t, d.Directors, 1, "only the Director job is kept")
	assert.Equal(t, int64(7467), d.Directors[0].ID)
	require.Len(t, d.Cast, 2)
	assert.Equal(t, "Tyler Durden", d.Cast[1].Character)
}

func TestCatalogGetPersonDetailsNullBirthday(t *testing.T) {
	srv := newFakeTMDb(t)
	c := newTestCatalog(srv.URL, nil)

	p, err := c.GetPersonDetails(context.Background(), 7467)
	require.NoError(t, err)
	assert.Equal(t, "David Fincher", p.Name)
	assert.Empty(t, p.Birthday)
}

func TestCatalogNotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestCatalog(srv.URL, nil).GetMovieDetails(context.Background(), 1)
	assert.True(t, errors.Is(err, biz.ErrCatalogNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCatalogRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestCatalog(srv.URL, nil).GetMovieDetails(context.Background(), 1)
	assert.True(t, errors.Is(err, biz.ErrUpstreamUnavailable))
	assert.Equal(t, 503, errors.Code(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestCatalogRecoversAfterTransientFailure(t *testing.T) {
	srv := newFakeTMDb(t)
	srv.failMovie.Store(1)

	d, err := newTestCatalog(srv.URL, nil).GetMovieDetails(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", d.Title)
	assert.Equal(t, int32(2), srv.count("/movie/550"))
}

func TestCatalogUnauthorizedIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestCatalog(srv.URL, nil).GetMovieDetails(context.Background(), 1)
	assert.True(t, errors.Is(err, biz.ErrUpstreamUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCatalogTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewCatalogClient(&conf.TMDb{
		Url:     srv.URL,
		Timeout: conf.NewDuration(50 * time.Millisecond),
	}, nil, log.DefaultLogger)

	_, err := c.GetMovieDetails(context.Background(), 1)
	assert.True(t, errors.Is(err, biz.ErrUpstreamUnavailable))
}

func TestCatalogCredentials(t *testing.T) {
	var gotKey, gotAuth, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		gotAuth = r.Header.Get("Authorization")
		gotLang = r.URL.Query().Get("language")
		_, _ = w.Write([]byte(`{"id": 1, "name": "x"}`))
	}))
	defer srv.Close()

	_, err := newTestCatalog(srv.URL, nil).GetPersonDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "v3key", gotKey)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "en-US", gotLang)

	bearer := NewCatalogClient(&conf.TMDb{Url: srv.URL, ApiKey: "eyJhbGciOiJIUzI1NiJ9.token"}, nil, log.DefaultLogger)
	_, err = bearer.GetPersonDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, gotKey)
	assert.Equal(t, "Bearer eyJhbGciOiJIUzI1NiJ9.token", gotAuth)
}

func TestCatalogSearchMoviesDropsInvalidHits(t *testing.T) {
	srv := newFakeTMDb(t)

	page, err := newTestCatalog(srv.URL, nil).SearchMovies(context.Background(), "fight club", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(550), page.Results[0].ID)
	assert.Equal(t, int32(2), page.TotalResults)
}
