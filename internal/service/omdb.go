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

// OMDb's free tier is 1000 requests/day; 1 req/sec keeps us well clear.
const omdbRatePerSecond = 1

const omdbFalse = "False"

// OMDBClient talks to the OMDb API (the flat-string provider: delimited
// genre/actor lists, free-text runtime, "N/A" sentinels).
type OMDBClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewOMDBClient(cfg *config.Config) *OMDBClient {
	return &OMDBClient{
		baseURL:    strings.TrimSuffix(cfg.OMDBBaseURL, "/"),
		apiKey:     cfg.OMDBAPIKey,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		limiter:    rate.NewLimiter(omdbRatePerSecond, omdbRatePerSecond),
	}
}

type omdbMovieDetails struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbVotes  string `json:"imdbVotes"`
	IMDbID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Response   string `json:"Response"` // "True" or "False"
	Error      string `json:"Error"`    // set when Response is "False"
}

type omdbSearchResponse struct {
	Search []struct {
		IMDbID string `json:"imdbID"`
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		Poster string `json:"Poster"`
		Type   string `json:"Type"`
	} `json:"Search"`
	TotalResults string `json:"totalResults"`
	Response     string `json:"Response"`
	Error        string `json:"Error"`
}

// ByIMDbID fetches the detail payload for one IMDb id. A soft "not found"
// (Response "False" in a 200 body) is a NotFoundError carrying the
// provider's message.
func (c *OMDBClient) ByIMDbID(ctx context.Context, imdbID string) (*omdbMovieDetails, error) {
	endpoint := fmt.Sprintf("%s/?i=%s&apikey=%s",
		c.baseURL, url.QueryEscape(imdbID), url.QueryEscape(c.apiKey))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var details omdbMovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, &ProviderError{Provider: "omdb", Message: "malformed response", Err: err}
	}
	if details.Response == omdbFalse {
		return nil, &NotFoundError{Message: details.Error}
	}

	slog.Debug("fetched OMDb movie details", "imdb_id", imdbID, "title", details.Title)
	return &details, nil
}

// Search runs a paged title search. A soft failure is returned in the
// response struct, not as an error: the caller decides how to surface it.
func (c *OMDBClient) Search(ctx context.Context, query string, page int) (*omdbSearchResponse, error) {
	endpoint := fmt.Sprintf("%s/?s=%s&page=%d&apikey=%s",
		c.baseURL, url.QueryEscape(query), page, url.QueryEscape(c.apiKey))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var results omdbSearchResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &ProviderError{Provider: "omdb", Message: "malformed response", Err: err}
	}
	return &results, nil
}

func (c *OMDBClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{Provider: "omdb", Message: "rate limit wait failed", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: "omdb", Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "omdb", Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "omdb", Message: "failed to read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body[:min(len(body), 512)]))
		return nil, &ProviderError{Provider: "omdb", Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, detail)}
	}

	return body, nil
}
