package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/reelist/internal/model"
	"github.com/user/reelist/internal/repository"
)

func newTestWatchlist(t *testing.T, providerURL string) (*WatchlistService, *repository.Repositories) {
	t.Helper()
	repos := newTestRepos(t)
	catalog := newTestCatalog(t, repos, providerURL)
	return NewWatchlistService(repos, catalog), repos
}

func seedCatalogMovie(t *testing.T, repos *repository.Repositories, externalID, title string) *model.Movie {
	t.Helper()
	movie, _, err := repos.Movie.GetOrCreate(&model.Movie{
		ExternalID: externalID,
		Title:      title,
	})
	require.NoError(t, err)
	return movie
}

func TestWatchlistService_AddFromExternal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, matrixOMDBBody)
	}))
	defer server.Close()

	svc, repos := newTestWatchlist(t, server.URL)
	ctx := context.Background()

	// First reference materializes the movie and creates the item.
	item, err := svc.AddFromExternal(ctx, 1, "tt0133093", nil, "rewatch soon")
	require.NoError(t, err)
	require.NotNil(t, item.Movie)
	assert.Equal(t, "The Matrix", item.Movie.Title)
	assert.False(t, item.IsWatched)
	assert.Nil(t, item.WatchedAt)
	assert.Equal(t, "rewatch soon", item.Note)
	assert.EqualValues(t, 1, calls.Load())

	movie, err := repos.Movie.FindByIMDbID("tt0133093")
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, item.MovieID, movie.ID)

	// Same user again: conflict carrying the existing item, no fetch.
	_, err = svc.AddFromExternal(ctx, 1, "tt0133093", nil, "")
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	require.NotNil(t, conflict.Existing)
	assert.Equal(t, item.ID, conflict.Existing.ID)
	assert.EqualValues(t, 1, calls.Load())

	// Another user: new item over the same movie record, still no fetch.
	other, err := svc.AddFromExternal(ctx, 2, "tt0133093", nil, "")
	require.NoError(t, err)
	assert.Equal(t, item.MovieID, other.MovieID)
	assert.NotEqual(t, item.ID, other.ID)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWatchlistService_AddFromExternal_Validation(t *testing.T) {
	svc, _ := newTestWatchlist(t, "http://127.0.0.1:0")
	ctx := context.Background()

	var valErr *ValidationError

	_, err := svc.AddFromExternal(ctx, 1, "0133093", nil, "")
	require.True(t, errors.As(err, &valErr))

	_, err = svc.AddFromExternal(ctx, 1, "", nil, "")
	require.True(t, errors.As(err, &valErr))

	six := 6
	_, err = svc.AddFromExternal(ctx, 1, "tt0133093", &six, "")
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "rating", valErr.Field)
}

func TestWatchlistService_AddExisting(t *testing.T) {
	svc, repos := newTestWatchlist(t, "http://127.0.0.1:0")
	ctx := context.Background()

	movie := seedCatalogMovie(t, repos, "603", "The Matrix")

	rating := 5
	item, err := svc.AddExisting(ctx, 1, movie.ID, &rating, "classic")
	require.NoError(t, err)
	require.NotNil(t, item.Rating)
	assert.Equal(t, 5, *item.Rating)

	// Unknown movie id is a validation error, never a provider fetch.
	_, err = svc.AddExisting(ctx, 1, movie.ID+100, nil, "")
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "movie_id", valErr.Field)

	// Duplicate add is a conflict.
	_, err = svc.AddExisting(ctx, 1, movie.ID, nil, "")
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	require.NotNil(t, conflict.Existing)
	assert.Equal(t, item.ID, conflict.Existing.ID)
}

func TestWatchlistService_SetWatched(t *testing.T) {
	svc, repos := newTestWatchlist(t, "http://127.0.0.1:0")
	ctx := context.Background()

	movie := seedCatalogMovie(t, repos, "603", "The Matrix")
	item, err := svc.AddExisting(ctx, 1, movie.ID, nil, "")
	require.NoError(t, err)

	// Watching stamps the timestamp.
	watched, err := svc.SetWatched(ctx, 1, item.ID, true)
	require.NoError(t, err)
	assert.True(t, watched.IsWatched)
	require.NotNil(t, watched.WatchedAt)
	first := *watched.WatchedAt

	// Watching again keeps the original stamp.
	time.Sleep(10 * time.Millisecond)
	again, err := svc.SetWatched(ctx, 1, item.ID, true)
	require.NoError(t, err)
	require.NotNil(t, again.WatchedAt)
	assert.True(t, again.WatchedAt.Equal(first))

	// Unwatching always clears it.
	cleared, err := svc.SetWatched(ctx, 1, item.ID, false)
	require.NoError(t, err)
	assert.False(t, cleared.IsWatched)
	assert.Nil(t, cleared.WatchedAt)

	// A new watch cycle gets a fresh stamp.
	rewatched, err := svc.SetWatched(ctx, 1, item.ID, true)
	require.NoError(t, err)
	require.NotNil(t, rewatched.WatchedAt)
	assert.True(t, rewatched.WatchedAt.After(first) || rewatched.WatchedAt.Equal(first))

	// Other users cannot touch the item.
	_, err = svc.SetWatched(ctx, 2, item.ID, true)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestWatchlistService_UpdateRatingNote(t *testing.T) {
	svc, repos := newTestWatchlist(t, "http://127.0.0.1:0")
	ctx := context.Background()

	movie := seedCatalogMovie(t, repos, "603", "The Matrix")
	rating := 3
	item, err := svc.AddExisting(ctx, 1, movie.ID, &rating, "first pass")
	require.NoError(t, err)

	// Nil rating leaves it alone; note is replaced.
	note := "holds up"
	updated, err := svc.UpdateRatingNote(ctx, 1, item.ID, nil, &note)
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 3, *updated.Rating)
	assert.Equal(t, "holds up", updated.Note)

	// Nil note leaves it alone; rating is replaced.
	five := 5
	updated, err = svc.UpdateRatingNote(ctx, 1, item.ID, &five, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, *updated.Rating)
	assert.Equal(t, "holds up", updated.Note)

	// Updates never touch the watched state.
	assert.False(t, updated.IsWatched)
	assert.Nil(t, updated.WatchedAt)

	zero := 0
	_, err = svc.UpdateRatingNote(ctx, 1, item.ID, &zero, nil)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	_, err = svc.UpdateRatingNote(ctx, 1, item.ID+100, nil, &note)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestWatchlistService_ListAndCounts(t *testing.T) {
	svc, repos := newTestWatchlist(t, "http://127.0.0.1:0")
	ctx := context.Background()

	first := seedCatalogMovie(t, repos, "603", "The Matrix")
	second := seedCatalogMovie(t, repos, "604", "The Matrix Reloaded")
	third := seedCatalogMovie(t, repos, "605", "The Matrix Revolutions")

	a, err := svc.AddExisting(ctx, 1, first.ID, nil, "")
	require.NoError(t, err)
	b, err := svc.AddExisting(ctx, 1, second.ID, nil, "")
	require.NoError(t, err)
	_, err = svc.AddExisting(ctx, 2, third.ID, nil, "")
	require.NoError(t, err)

	_, err = svc.SetWatched(ctx, 1, a.ID, true)
	require.NoError(t, err)

	all, err := svc.List(ctx, 1, FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, item := range all {
		assert.Equal(t, 1, item.UserID)
		require.NotNil(t, item.Movie)
	}

	watched, err := svc.List(ctx, 1, FilterWatched)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, a.ID, watched[0].ID)

	unwatched, err := svc.List(ctx, 1, FilterUnwatched)
	require.NoError(t, err)
	require.Len(t, unwatched, 1)
	assert.Equal(t, b.ID, unwatched[0].ID)

	_, err = svc.List(ctx, 1, WatchFilter("recent"))
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "filter", valErr.Field)

	counts, err := svc.Counts(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts.Total)
	assert.EqualValues(t, 1, counts.Watched)

	counts, err = svc.Counts(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
	assert.Zero(t, counts.Watched)
}

func TestWatchlistService_Remove(t *testing.T) {
	svc, repos := newTestWatchlist(t, "http://127.0.0.1:0")
	ctx := context.Background()

	movie := seedCatalogMovie(t, repos, "603", "The Matrix")
	item, err := svc.AddExisting(ctx, 1, movie.ID, nil, "")
	require.NoError(t, err)

	// Removing someone else's item is a not-found, not a silent success.
	err = svc.Remove(ctx, 2, item.ID)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))

	require.NoError(t, svc.Remove(ctx, 1, item.ID))

	_, err = svc.Get(ctx, 1, item.ID)
	require.True(t, errors.As(err, &notFound))

	// Re-adding after removal works; the movie record survives removal.
	_, err = svc.AddExisting(ctx, 1, movie.ID, nil, "")
	require.NoError(t, err)
}
