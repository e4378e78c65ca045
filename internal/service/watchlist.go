package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/user/reelist/internal/model"
	"github.com/user/reelist/internal/repository"
)

// WatchFilter narrows a watchlist listing by watched state.
type WatchFilter string

const (
	FilterAll       WatchFilter = "all"
	FilterWatched   WatchFilter = "watched"
	FilterUnwatched WatchFilter = "unwatched"
)

// WatchlistService owns per-user watchlist entries: the (user, movie)
// uniqueness invariant, the watched_at derivation, and the lazy
// materialization of movies referenced only by external id.
type WatchlistService struct {
	watchlistRepo *repository.WatchlistRepository
	movieRepo     *repository.MovieRepository
	catalog       *CatalogService
	validate      *validator.Validate
}

func NewWatchlistService(repos *repository.Repositories, catalog *CatalogService) *WatchlistService {
	return &WatchlistService{
		watchlistRepo: repos.Watchlist,
		movieRepo:     repos.Movie,
		catalog:       catalog,
		validate:      validator.New(),
	}
}

type addInput struct {
	Rating *int   `validate:"omitempty,min=1,max=5"`
	Note   string `validate:"max=1000"`
}

type addFromExternalInput struct {
	IMDbID string `validate:"required,startswith=tt"`
	addInput
}

type updateInput struct {
	Rating *int    `validate:"omitempty,min=1,max=5"`
	Note   *string `validate:"omitempty,max=1000"`
}

func (s *WatchlistService) check(input interface{}) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &ValidationError{
			Field:   strings.ToLower(f.Field()),
			Message: fmt.Sprintf("failed %q constraint", f.Tag()),
		}
	}
	return err
}

// AddExisting puts an already-cataloged movie on the user's list. A
// reference to a movie that does not exist locally is a validation error,
// not a trigger for a provider fetch.
func (s *WatchlistService) AddExisting(ctx context.Context, userID int, movieID uint, rating *int, note string) (*model.WatchlistItem, error) {
	if err := s.check(addInput{Rating: rating, Note: note}); err != nil {
		return nil, err
	}

	movie, err := s.movieRepo.FindByID(movieID)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, &ValidationError{Field: "movie_id", Message: "movie does not exist"}
	}

	return s.create(userID, movie, rating, note)
}

// AddFromExternal puts a movie on the user's list by IMDb id alone,
// materializing the catalog record on first reference.
func (s *WatchlistService) AddFromExternal(ctx context.Context, userID int, imdbID string, rating *int, note string) (*model.WatchlistItem, error) {
	input := addFromExternalInput{IMDbID: imdbID, addInput: addInput{Rating: rating, Note: note}}
	if err := s.check(input); err != nil {
		return nil, err
	}

	// Fast path: a movie already on the list never triggers a provider
	// call, and the caller gets the existing item back.
	existing, err := s.watchlistRepo.GetByUserAndIMDbID(userID, imdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "movie already in watchlist", Existing: existing}
	}

	movie, err := s.catalog.ResolveOrFetch(ctx, MovieRef{Namespace: NamespaceIMDB, ID: imdbID})
	if err != nil {
		return nil, err
	}

	return s.create(userID, movie, rating, note)
}

func (s *WatchlistService) create(userID int, movie *model.Movie, rating *int, note string) (*model.WatchlistItem, error) {
	item := &model.WatchlistItem{
		UserID:  userID,
		MovieID: movie.ID,
		Rating:  rating,
		Note:    note,
		AddedAt: time.Now(),
	}

	if err := s.watchlistRepo.Create(item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race; surface the winner's item.
			existing, lookupErr := s.watchlistRepo.GetByUserAndMovie(userID, movie.ID)
			if lookupErr != nil || existing == nil {
				return nil, &ConflictError{Message: "movie already in watchlist"}
			}
			return nil, &ConflictError{Message: "movie already in watchlist", Existing: existing}
		}
		return nil, fmt.Errorf("failed to create watchlist item: %w", err)
	}

	item.Movie = movie
	return item, nil
}

// Get returns the user's item by id.
func (s *WatchlistService) Get(ctx context.Context, userID int, itemID uint) (*model.WatchlistItem, error) {
	item, err := s.watchlistRepo.GetByID(userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Message: "watchlist item not found"}
	}
	return item, nil
}

// SetWatched toggles the watched flag and maintains the derived timestamp:
// turning the flag on stamps watched_at once and keeps the original stamp
// on repeats; turning it off always clears it.
func (s *WatchlistService) SetWatched(ctx context.Context, userID int, itemID uint, watched bool) (*model.WatchlistItem, error) {
	item, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item.IsWatched = watched
	if watched {
		if item.WatchedAt == nil {
			now := time.Now()
			item.WatchedAt = &now
		}
	} else {
		item.WatchedAt = nil
	}

	if err := s.watchlistRepo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update watchlist item: %w", err)
	}
	return item, nil
}

// UpdateRatingNote edits the user-facing fields. Nil leaves a field
// unchanged. No derived-field side effects.
func (s *WatchlistService) UpdateRatingNote(ctx context.Context, userID int, itemID uint, rating *int, note *string) (*model.WatchlistItem, error) {
	if err := s.check(updateInput{Rating: rating, Note: note}); err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if rating != nil {
		item.Rating = rating
	}
	if note != nil {
		item.Note = *note
	}

	if err := s.watchlistRepo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update watchlist item: %w", err)
	}
	return item, nil
}

// List returns the user's items newest-added first.
func (s *WatchlistService) List(ctx context.Context, userID int, filter WatchFilter) ([]*model.WatchlistItem, error) {
	var watched *bool
	switch filter {
	case FilterAll, "":
	case FilterWatched:
		w := true
		watched = &w
	case FilterUnwatched:
		w := false
		watched = &w
	default:
		return nil, &ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter %q", filter)}
	}

	return s.watchlistRepo.ListByUser(userID, watched)
}

// Remove deletes the user's item.
func (s *WatchlistService) Remove(ctx context.Context, userID int, itemID uint) error {
	n, err := s.watchlistRepo.Remove(userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	if n == 0 {
		return &NotFoundError{Message: "watchlist item not found"}
	}
	return nil
}

// WatchlistCounts tallies a user's list for dashboard-style summaries.
type WatchlistCounts struct {
	Total   int64 `json:"total"`
	Watched int64 `json:"watched"`
}

// Counts returns the user's total and watched tallies.
func (s *WatchlistService) Counts(ctx context.Context, userID int) (*WatchlistCounts, error) {
	total, watched, err := s.watchlistRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	return &WatchlistCounts{Total: total, Watched: watched}, nil
}
