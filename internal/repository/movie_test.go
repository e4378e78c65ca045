package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/reelist/internal/model"
)

func TestMovieRepository_FindByExternalID_Miss(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	movie, err := repo.FindByExternalID("tt0000000")
	require.NoError(t, err)
	assert.Nil(t, movie)
}

func TestMovieRepository_GetOrCreate(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	movie, created, err := repo.GetOrCreate(&model.Movie{
		ExternalID: "tt0133093",
		IMDbID:     "tt0133093",
		Title:      "The Matrix",
		Genres:     model.StringList{"Action", "Sci-Fi"},
		Cast:       model.StringList{"Keanu Reeves", "Laurence Fishburne"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, movie.ID)

	found, err := repo.FindByIMDbID("tt0133093")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, movie.ID, found.ID)
	assert.Equal(t, model.StringList{"Action", "Sci-Fi"}, found.Genres)
	assert.Equal(t, model.StringList{"Keanu Reeves", "Laurence Fishburne"}, found.Cast)
}

func TestMovieRepository_GetOrCreate_ConflictReturnsExisting(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	first, created, err := repo.GetOrCreate(&model.Movie{
		ExternalID: "tt0133093",
		Title:      "The Matrix",
	})
	require.NoError(t, err)
	require.True(t, created)

	// A second writer inserting the same identifier must get the first
	// writer's row back, not an error or a duplicate.
	second, created, err := repo.GetOrCreate(&model.Movie{
		ExternalID: "tt0133093",
		Title:      "The Matrix (stale fetch)",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "The Matrix", second.Title)

	var count int64
	require.NoError(t, repo.db.Model(&model.Movie{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMovieRepository_FindByID(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	movie, _, err := repo.GetOrCreate(&model.Movie{ExternalID: "603", Title: "The Matrix"})
	require.NoError(t, err)

	found, err := repo.FindByID(movie.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "603", found.ExternalID)

	missing, err := repo.FindByID(movie.ID + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
