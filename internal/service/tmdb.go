package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/user/reelist/internal/config"
)

const (
	// TMDB allows roughly 40 requests per 10 seconds.
	tmdbRatePerSecond = 4

	// TMDB's application-level code for "resource not found".
	tmdbStatusNotFound = 34
)

// TMDBClient talks to the TMDB v3 API (the credits-style provider).
type TMDBClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewTMDBClient(cfg *config.Config) *TMDBClient {
	return &TMDBClient{
		baseURL:    strings.TrimSuffix(cfg.TMDBBaseURL, "/"),
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		limiter:    rate.NewLimiter(tmdbRatePerSecond, tmdbRatePerSecond),
	}
}

// tmdbMovieDetails is the detail payload with credits appended: structured
// genre objects, a cast list and a crew list with job tags.
type tmdbMovieDetails struct {
	ID           int     `json:"id"`
	IMDbID       string  `json:"imdb_id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Runtime      int     `json:"runtime"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

type tmdbSearchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		ReleaseDate string `json:"release_date"`
		PosterPath  string `json:"poster_path"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
}

// tmdbStatus is TMDB's application-level error envelope. It can arrive in
// a 200 body as well as a non-2xx one, so the body is checked on every call.
type tmdbStatus struct {
	Success       *bool  `json:"success"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// MovieDetails fetches a movie with its credits in one call.
func (c *TMDBClient) MovieDetails(ctx context.Context, tmdbID string) (*tmdbMovieDetails, error) {
	endpoint := fmt.Sprintf("%s/movie/%s?api_key=%s&append_to_response=credits",
		c.baseURL, url.PathEscape(tmdbID), url.QueryEscape(c.apiKey))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var details tmdbMovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, &ProviderError{Provider: "tmdb", Message: "malformed response", Err: err}
	}

	slog.Debug("fetched TMDB movie details", "tmdb_id", tmdbID, "title", details.Title)
	return &details, nil
}

// SearchMovies runs a paged title search.
func (c *TMDBClient) SearchMovies(ctx context.Context, query string, page int) (*tmdbSearchResponse, error) {
	endpoint := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s&page=%d",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query), page)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var results tmdbSearchResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &ProviderError{Provider: "tmdb", Message: "malformed response", Err: err}
	}
	return &results, nil
}

func (c *TMDBClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{Provider: "tmdb", Message: "rate limit wait failed", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: "tmdb", Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "tmdb", Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "tmdb", Message: "failed to read response", Err: err}
	}

	// Soft failures are encoded in the body, so check it before trusting
	// the status code.
	var status tmdbStatus
	if err := json.Unmarshal(body, &status); err == nil && status.Success != nil && !*status.Success {
		if status.StatusCode == tmdbStatusNotFound || resp.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{Message: status.StatusMessage}
		}
		return nil, &ProviderError{Provider: "tmdb", Message: status.StatusMessage}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "tmdb", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	return body, nil
}
