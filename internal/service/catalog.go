package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/user/reelist/internal/model"
	"github.com/user/reelist/internal/repository"
)

// Namespace selects which provider identifier scheme a MovieRef uses. The
// two namespaces are independent; both are stored, neither is unified into
// the other.
type Namespace string

const (
	NamespaceTMDB Namespace = "tmdb"
	NamespaceIMDB Namespace = "imdb"
)

// MovieRef names a movie in one provider namespace.
type MovieRef struct {
	Namespace Namespace
	ID        string
}

func (ref MovieRef) key() string {
	return string(ref.Namespace) + ":" + ref.ID
}

var (
	imdbIDPattern = regexp.MustCompile(`^tt\d+$`)
	tmdbIDPattern = regexp.MustCompile(`^\d+$`)
)

// CatalogService owns the canonical movie records: it resolves external
// references against the store and lazily fetches, normalizes and persists
// provider payloads on first reference.
type CatalogService struct {
	movieRepo *repository.MovieRepository
	tmdb      *TMDBClient
	omdb      *OMDBClient
	group     singleflight.Group
}

func NewCatalogService(movieRepo *repository.MovieRepository, tmdb *TMDBClient, omdb *OMDBClient) *CatalogService {
	return &CatalogService{
		movieRepo: movieRepo,
		tmdb:      tmdb,
		omdb:      omdb,
	}
}

// ResolveOrFetch returns the local record for ref, creating it on first
// reference. A store hit never touches the network. Concurrent calls for
// the same ref share one fetch in-process; across processes the unique
// constraint on external_id settles the race and the loser reads the
// winner's row.
func (s *CatalogService) ResolveOrFetch(ctx context.Context, ref MovieRef) (*model.Movie, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	val, err, _ := s.group.Do(ref.key(), func() (interface{}, error) {
		return s.resolveOrFetch(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return val.(*model.Movie), nil
}

func (s *CatalogService) resolveOrFetch(ctx context.Context, ref MovieRef) (*model.Movie, error) {
	movie, err := s.lookupLocal(ref)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup for %s failed: %w", ref.key(), err)
	}
	if movie != nil {
		return movie, nil
	}

	fetched, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	movie, created, err := s.movieRepo.GetOrCreate(fetched)
	if err != nil {
		return nil, fmt.Errorf("failed to persist movie %s: %w", fetched.ExternalID, err)
	}
	if created {
		slog.Info("movie record created", "external_id", movie.ExternalID, "title", movie.Title)
	}
	return movie, nil
}

func (s *CatalogService) lookupLocal(ref MovieRef) (*model.Movie, error) {
	if ref.Namespace == NamespaceIMDB {
		return s.movieRepo.FindByIMDbID(ref.ID)
	}
	return s.movieRepo.FindByExternalID(ref.ID)
}

func (s *CatalogService) fetch(ctx context.Context, ref MovieRef) (*model.Movie, error) {
	if ref.Namespace == NamespaceIMDB {
		details, err := s.omdb.ByIMDbID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return movieFromOMDB(details), nil
	}

	details, err := s.tmdb.MovieDetails(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	return movieFromTMDB(details), nil
}

func validateRef(ref MovieRef) error {
	switch ref.Namespace {
	case NamespaceIMDB:
		if !imdbIDPattern.MatchString(ref.ID) {
			return &ValidationError{Field: "external_id", Message: `IMDb ids look like "tt0133093"`}
		}
	case NamespaceTMDB:
		if !tmdbIDPattern.MatchString(ref.ID) {
			return &ValidationError{Field: "external_id", Message: "TMDB ids are numeric"}
		}
	default:
		return &ValidationError{Field: "namespace", Message: fmt.Sprintf("unknown namespace %q", ref.Namespace)}
	}
	return nil
}

// SearchResult is a lightweight provider search hit; nothing here is
// persisted.
type SearchResult struct {
	ExternalID string    `json:"external_id"`
	Namespace  Namespace `json:"namespace"`
	Title      string    `json:"title"`
	Year       string    `json:"year"`
	PosterURL  string    `json:"poster_url"`
}

// SearchPage is one page of provider search results. A provider soft
// failure becomes an empty page with Message set, not an error.
type SearchPage struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
	Message      string         `json:"message,omitempty"`
}

// Search passes the query through to the namespace's provider.
func (s *CatalogService) Search(ctx context.Context, ns Namespace, query string, page int) (*SearchPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if page < 1 {
		page = 1
	}

	switch ns {
	case NamespaceIMDB:
		return s.searchOMDB(ctx, query, page)
	case NamespaceTMDB:
		return s.searchTMDB(ctx, query, page)
	default:
		return nil, &ValidationError{Field: "namespace", Message: fmt.Sprintf("unknown namespace %q", ns)}
	}
}

func (s *CatalogService) searchOMDB(ctx context.Context, query string, page int) (*SearchPage, error) {
	resp, err := s.omdb.Search(ctx, query, page)
	if err != nil {
		return nil, err
	}
	if resp.Response == omdbFalse {
		return &SearchPage{Results: []SearchResult{}, Message: resp.Error}, nil
	}

	out := &SearchPage{Results: make([]SearchResult, 0, len(resp.Search))}
	out.TotalResults, _ = strconv.Atoi(resp.TotalResults)
	for _, r := range resp.Search {
		out.Results = append(out.Results, SearchResult{
			ExternalID: r.IMDbID,
			Namespace:  NamespaceIMDB,
			Title:      r.Title,
			Year:       r.Year,
			PosterURL:  cleanValue(r.Poster),
		})
	}
	return out, nil
}

func (s *CatalogService) searchTMDB(ctx context.Context, query string, page int) (*SearchPage, error) {
	resp, err := s.tmdb.SearchMovies(ctx, query, page)
	if err != nil {
		return nil, err
	}

	out := &SearchPage{
		Results:      make([]SearchResult, 0, len(resp.Results)),
		TotalResults: resp.TotalResults,
	}
	for _, r := range resp.Results {
		var year string
		if len(r.ReleaseDate) >= 4 {
			year = r.ReleaseDate[:4]
		}
		var poster string
		if r.PosterPath != "" {
			poster = tmdbPosterBaseURL + r.PosterPath
		}
		out.Results = append(out.Results, SearchResult{
			ExternalID: strconv.Itoa(r.ID),
			Namespace:  NamespaceTMDB,
			Title:      r.Title,
			Year:       year,
			PosterURL:  poster,
		})
	}
	return out, nil
}
