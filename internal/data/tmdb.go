package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviecatalog/internal/biz"
	"moviecatalog/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultCatalogTimeout = 5 * time.Second
	directorJob           = "Director"
)

type catalogClient struct {
	client     *http.Client
	baseURL    string
	imageURL   string
	apiKey     string
	language   string
	maxRetries int
	data       *Data
	log        *log.Helper
}

// NewCatalogClient creates a new TMDb catalog client
func NewCatalogClient(c *conf.TMDb, data *Data, logger log.Logger) biz.CatalogClient {
	timeout := c.Timeout.AsDuration()
	if timeout <= 0 {
		timeout = defaultCatalogTimeout
	}
	return &catalogClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(c.Url, "/"),
		imageURL:   strings.TrimRight(c.ImageUrl, "/"),
		apiKey:     c.ApiKey,
		language:   c.Language,
		maxRetries: int(c.MaxRetries),
		data:       data,
		log:        log.NewHelper(logger),
	}
}

type tmdbMovieDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	Genres      []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			ID        int64  `json:"id"`
			Name      string `json:"name"`
			Character string `json:"character"`
			Order     int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

type tmdbPersonDetails struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Birthday  *string `json:"birthday"`
	Biography string  `json:"biography"`
}

type tmdbSearchPage[T any] struct {
	Page         int32 `json:"page"`
	Results      []T   `json:"results"`
	TotalPages   int32 `json:"total_pages"`
	TotalResults int32 `json:"total_results"`
}

type tmdbMovieHit struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

type tmdbPersonHit struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	KnownForDepartment string `json:"known_for_department"`
	ProfilePath        string `json:"profile_path"`
}

func (c *catalogClient) GetMovieDetails(ctx context.Context, id int64) (*biz.MovieDetails, error) {
	var resp tmdbMovieDetails
	path := fmt.Sprintf("/movie/%d", id)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"credits"}}, &resp); err != nil {
		return nil, err
	}

	details := &biz.MovieDetails{
		ID:          resp.ID,
		Title:       resp.Title,
		ReleaseDate: resp.ReleaseDate,
		Overview:    resp.Overview,
		PosterURL:   c.posterURL(resp.PosterPath),
	}
	for _, g := range resp.Genres {
		details.Genres = append(details.Genres, g.Name)
	}
	for _, m := range resp.Credits.Cast {
		details.Cast = append(details.Cast, biz.CastMember{
			ID:        m.ID,
			Name:      m.Name,
			Character: m.Character,
			Order:     m.Order,
		})
	}
	for _, m := range resp.Credits.Crew {
		if m.Job == directorJob {
			details.Directors = append(details.Directors, biz.CrewMember{ID: m.ID, Name: m.Name})
		}
	}
	return details, nil
}

func (c *catalogClient) GetPersonDetails(ctx context.Context, id int64) (*biz.PersonDetails, error) {
	var resp tmdbPersonDetails
	if err := c.get(ctx, fmt.Sprintf("/person/%d", id), nil, &resp); err != nil {
		return nil, err
	}

	details := &biz.PersonDetails{
		ID:        resp.ID,
		Name:      resp.Name,
		Biography: resp.Biography,
	}
	if resp.Birthday != nil {
		details.Birthday = *resp.Birthday
	}
	return details, nil
}

func (c *catalogClient) SearchMovies(ctx context.Context, query string, page int32) (*biz.SearchPage[biz.MovieResult], error) {
	cacheKey := c.searchCacheKey("movies", query, page)
	out := &biz.SearchPage[biz.MovieResult]{}
	if c.cachedSearch(ctx, cacheKey, out) {
		return out, nil
	}

	var resp tmdbSearchPage[tmdbMovieHit]
	params := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(int(page))},
		"include_adult": {"false"},
	}
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, err
	}

	out.Page, out.TotalPages, out.TotalResults = resp.Page, resp.TotalPages, resp.TotalResults
	out.Results = make([]biz.MovieResult, 0, len(resp.Results))
	for _, h := range resp.Results {
		if h.ID <= 0 {
			continue
		}
		out.Results = append(out.Results, biz.MovieResult{
			ID:          h.ID,
			Title:       h.Title,
			Overview:    h.Overview,
			PosterPath:  h.PosterPath,
			ReleaseDate: h.ReleaseDate,
		})
	}

	c.storeSearch(ctx, cacheKey, out)
	return out, nil
}

func (c *catalogClient) SearchPeople(ctx context.Context, query string, page int32) (*biz.SearchPage[biz.PersonResult], error) {
	cacheKey := c.searchCacheKey("people", query, page)
	out := &biz.SearchPage[biz.PersonResult]{}
	if c.cachedSearch(ctx, cacheKey, out) {
		return out, nil
	}

	var resp tmdbSearchPage[tmdbPersonHit]
	params := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(int(page))},
		"include_adult": {"false"},
	}
	if err := c.get(ctx, "/search/person", params, &resp); err != nil {
		return nil, err
	}

	out.Page, out.TotalPages, out.TotalResults = resp.Page, resp.TotalPages, resp.TotalResults
	out.Results = make([]biz.PersonResult, 0, len(resp.Results))
	for _, h := range resp.Results {
		if h.ID <= 0 {
			continue
		}
		out.Results = append(out.Results, biz.PersonResult{
			ID:                 h.ID,
			Name:               h.Name,
			KnownForDepartment: h.KnownForDepartment,
			ProfilePath:        h.ProfilePath,
		})
	}

	c.storeSearch(ctx, cacheKey, out)
	return out, nil
}

// get performs a GET with retries. Not-found answers are final; everything
// else is retried with a linear backoff and reported as unavailable.
func (c *catalogClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return biz.ErrUpstreamUnavailable.WithCause(ctx.Err())
			case <-time.After(backoff):
			}
			c.log.WithContext(ctx).Infof("retrying catalog request %s, attempt %d/%d", path, attempt, c.maxRetries)
		}

		err := c.doRequest(ctx, path, params, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, biz.ErrCatalogNotFound) || errors.Is(err, errNotRetryable) {
			break
		}
	}

	if errors.Is(lastErr, biz.ErrCatalogNotFound) {
		return lastErr
	}
	c.log.WithContext(ctx).Warnf("catalog request %s failed after %d attempts: %v", path, c.maxRetries+1, lastErr)
	return biz.ErrUpstreamUnavailable.WithCause(lastErr)
}

var errNotRetryable = errors.New("not retryable")

func (c *catalogClient) doRequest(ctx context.Context, path string, params url.Values, out interface{}) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if c.language != "" {
		q.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w: %w", errNotRetryable, err)
	}

	// v4 read access tokens are JWTs and go in the header, v3 keys in the query.
	if strings.HasPrefix(c.apiKey, "eyJ") {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return biz.ErrCatalogNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: catalog rejected credentials", errNotRetryable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *catalogClient) posterURL(path string) string {
	if path == "" {
		return ""
	}
	if c.imageURL == "" {
		return path
	}
	return c.imageURL + path
}

func (c *catalogClient) searchCacheKey(kind, query string, page int32) string {
	return fmt.Sprintf("search:%s:%s:%d:%s", kind, c.language, page, strings.ToLower(query))
}

func (c *catalogClient) cachedSearch(ctx context.Context, key string, out interface{}) bool {
	if c.data == nil || c.data.rdb == nil {
		return false
	}
	cached, err := c.data.rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(cached), out); err != nil {
		return false
	}
	c.log.Debugf("cache hit for %s", key)
	return true
}

func (c *catalogClient) storeSearch(ctx context.Context, key string, v interface{}) {
	if c.data == nil || c.data.rdb == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		c.data.rdb.Set(ctx, key, data, c.data.searchTTL)
	}
}
