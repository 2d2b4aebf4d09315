package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	defaultUserAgent = "reel/dev"

	// Outbound requests across the whole client share one bucket.
	requestsPerSecond = 128

	defaultRetryDelay  = 50 * time.Millisecond
	defaultMaxAttempts = 24
)

// Client implements Provider against an HTTP catalog API.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache
	logger     *slog.Logger

	retryDelay  time.Duration
	maxAttempts int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header, conventionally "app/version".
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithCacheTTL sets how long cached bodies stay valid.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache.ttl = ttl }
}

// WithCacheLimit sets the cached-bytes ceiling that triggers eviction.
func WithCacheLimit(maxBytes int64) Option {
	return func(c *Client) { c.cache.maxBytes = maxBytes }
}

// WithRetry overrides the fixed retry schedule (for testing).
func WithRetry(delay time.Duration, attempts int) Option {
	return func(c *Client) {
		c.retryDelay = delay
		c.maxAttempts = attempts
	}
}

// NewClient creates a catalog client. Callers own its lifetime and must
// Close it to stop the cache eviction task.
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		cache:       newCache(defaultCacheTTL, defaultMaxBytes),
		logger:      logger.With("component", "catalog"),
		retryDelay:  defaultRetryDelay,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the cache eviction task.
func (c *Client) Close() {
	c.cache.close()
}

// Wire formats. The API names film fields "title"/"release_date" and
// show fields "name"/"first_air_date"; both decode into one struct.
type wireMedia struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	Overview     string      `json:"overview"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	VoteAverage  *float64    `json:"vote_average"`
	PosterPath   *string     `json:"poster_path"`
	BackdropPath *string     `json:"backdrop_path"`
	Runtime      *int        `json:"runtime"`
	GenreIDs     []int64     `json:"genre_ids"`
	Genres       []wireGenre `json:"genres"`
	Seasons      []wireSeason `json:"seasons"`
}

type wireGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireSeason struct {
	SeasonNumber int     `json:"season_number"`
	Name         *string `json:"name"`
	Overview     *string `json:"overview"`
	PosterPath   *string `json:"poster_path"`
}

type wireEpisode struct {
	EpisodeNumber int     `json:"episode_number"`
	Name          *string `json:"name"`
	Overview      *string `json:"overview"`
	StillPath     *string `json:"still_path"`
}

type searchPage struct {
	Results []wireMedia `json:"results"`
}

type genreList struct {
	Genres []wireGenre `json:"genres"`
}

type seasonDetail struct {
	Episodes []wireEpisode `json:"episodes"`
}

type creditsPage struct {
	Cast []struct {
		Name        string  `json:"name"`
		Character   *string `json:"character"`
		ProfilePath *string `json:"profile_path"`
	} `json:"cast"`
}

// Search returns candidates for a title. Zero results report ErrNotFound
// and are not cached, so a later rescan retries the query.
func (c *Client) Search(ctx context.Context, kind Kind, title string, year *int) ([]*ExternalMedia, error) {
	key := cacheKey{op: "search", kind: kind, query: title}
	if year != nil {
		key.year = *year
	}
	body, err := c.cache.getOrFetch(ctx, key, func() ([]byte, error) {
		params := url.Values{}
		params.Set("query", title)
		params.Set("page", "1")
		params.Set("include_adult", "false")
		if year != nil {
			params.Set("year", strconv.Itoa(*year))
		}
		b, err := c.get(ctx, "/search/"+string(kind), params)
		if err != nil {
			return nil, err
		}
		var page searchPage
		if err := json.Unmarshal(b, &page); err != nil {
			return nil, &DeserializationError{Body: b, Detail: err.Error()}
		}
		if len(page.Results) == 0 {
			return nil, ErrNotFound
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var page searchPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &DeserializationError{Body: body, Detail: err.Error()}
	}

	genres := c.genreNames(ctx, kind)
	results := make([]*ExternalMedia, 0, len(page.Results))
	for _, w := range page.Results {
		results = append(results, toExternal(w, genres))
	}
	return results, nil
}

// Lookup fetches one record by its catalog id.
func (c *Client) Lookup(ctx context.Context, kind Kind, id int64) (*ExternalMedia, error) {
	body, err := c.lookupBody(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	var w wireMedia
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, &DeserializationError{Body: body, Detail: err.Error()}
	}
	return toExternal(w, nil), nil
}

// Seasons lists a show's seasons ordered by season number ascending.
func (c *Client) Seasons(ctx context.Context, showID int64) ([]*ExternalSeason, error) {
	body, err := c.lookupBody(ctx, KindShow, showID)
	if err != nil {
		return nil, err
	}
	var w wireMedia
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, &DeserializationError{Body: body, Detail: err.Error()}
	}
	seasons := make([]*ExternalSeason, 0, len(w.Seasons))
	for _, s := range w.Seasons {
		seasons = append(seasons, &ExternalSeason{
			SeasonNumber: s.SeasonNumber,
			Name:         s.Name,
			Description:  s.Overview,
			PosterPath:   s.PosterPath,
		})
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].SeasonNumber < seasons[j].SeasonNumber })
	return seasons, nil
}

// Episodes lists a season's episodes ordered by episode number ascending.
func (c *Client) Episodes(ctx context.Context, showID int64, seasonNumber int) ([]*ExternalEpisode, error) {
	key := cacheKey{op: "episodes", kind: KindShow, id: showID, number: seasonNumber}
	path := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	body, err := c.cache.getOrFetch(ctx, key, func() ([]byte, error) {
		return c.get(ctx, path, url.Values{})
	})
	if err != nil {
		return nil, err
	}
	var detail seasonDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &DeserializationError{Body: body, Detail: err.Error()}
	}
	episodes := make([]*ExternalEpisode, 0, len(detail.Episodes))
	for _, e := range detail.Episodes {
		episodes = append(episodes, &ExternalEpisode{
			Episode:     e.EpisodeNumber,
			Name:        e.Name,
			Description: e.Overview,
			StillPath:   e.StillPath,
		})
	}
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].Episode < episodes[j].Episode })
	return episodes, nil
}

// Cast lists the credited actors of a record.
func (c *Client) Cast(ctx context.Context, kind Kind, id int64) ([]*ExternalActor, error) {
	key := cacheKey{op: "cast", kind: kind, id: id}
	path := fmt.Sprintf("/%s/%d/credits", kind, id)
	body, err := c.cache.getOrFetch(ctx, key, func() ([]byte, error) {
		return c.get(ctx, path, url.Values{})
	})
	if err != nil {
		return nil, err
	}
	var page creditsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &DeserializationError{Body: body, Detail: err.Error()}
	}
	actors := make([]*ExternalActor, 0, len(page.Cast))
	for _, a := range page.Cast {
		actors = append(actors, &ExternalActor{Name: a.Name, Character: a.Character, Photo: a.ProfilePath})
	}
	return actors, nil
}

func (c *Client) lookupBody(ctx context.Context, kind Kind, id int64) ([]byte, error) {
	key := cacheKey{op: "lookup", kind: kind, id: id}
	path := fmt.Sprintf("/%s/%d", kind, id)
	return c.cache.getOrFetch(ctx, key, func() ([]byte, error) {
		return c.get(ctx, path, url.Values{})
	})
}

// genreNames fetches the id-to-name genre table, cached under its own
// key. Failures degrade to unresolved genres rather than failing the
// caller's search.
func (c *Client) genreNames(ctx context.Context, kind Kind) map[int64]string {
	key := cacheKey{op: "genres", kind: kind}
	body, err := c.cache.getOrFetch(ctx, key, func() ([]byte, error) {
		return c.get(ctx, "/genre/"+string(kind)+"/list", url.Values{})
	})
	if err != nil {
		c.logger.Warn("genre list fetch failed", "kind", kind, "error", err)
		return nil
	}
	var list genreList
	if err := json.Unmarshal(body, &list); err != nil {
		c.logger.Warn("genre list unparseable", "kind", kind, "error", err)
		return nil
	}
	names := make(map[int64]string, len(list.Genres))
	for _, g := range list.Genres {
		names[g.ID] = g.Name
	}
	return names
}

// get issues a rate-limited GET with a fixed back-off retry schedule.
// 404 is terminal; other non-200 responses retry and surface as
// RemoteAPIError once attempts are exhausted.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	reqURL := c.baseURL + path + "?" + params.Encode()

	var lastStatus int
	var lastBody string
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode != http.StatusOK:
			lastStatus = resp.StatusCode
			lastBody = string(body)
			lastErr = nil
		case readErr != nil:
			lastErr = readErr
		default:
			return body, nil
		}
	}

	if lastStatus != 0 {
		return nil, &RemoteAPIError{Code: lastStatus, Message: lastBody}
	}
	return nil, fmt.Errorf("%w: %v", ErrInternal, lastErr)
}

func toExternal(w wireMedia, genreNames map[int64]string) *ExternalMedia {
	m := &ExternalMedia{
		ID:           w.ID,
		Title:        w.Title,
		Rating:       w.VoteAverage,
		PosterPath:   w.PosterPath,
		BackdropPath: w.BackdropPath,
		Duration:     w.Runtime,
	}
	if m.Title == "" {
		m.Title = w.Name
	}
	if w.Overview != "" {
		m.Description = &w.Overview
	}
	date := w.ReleaseDate
	if date == "" {
		date = w.FirstAirDate
	}
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			m.Year = &y
		}
	}
	for _, g := range w.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	// Search rows carry only ids; unknown ids are dropped.
	for _, id := range w.GenreIDs {
		if name, ok := genreNames[id]; ok {
			m.Genres = append(m.Genres, name)
		}
	}
	return m
}

var _ Provider = (*Client)(nil)
