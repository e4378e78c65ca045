package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/user/reelist/internal/model"
)

// The two providers describe the same movie in different shapes: TMDB nests
// credits and structured genre objects, OMDb flattens everything into
// comma-delimited strings with "N/A" standing in for absent values. Both
// shapes converge here on the canonical model.Movie. Parse failures inside
// normalization never fail record creation; fields degrade to their
// empty/absent value instead.

const (
	omdbNotAvailable = "N/A"
	maxCastMembers   = 10

	tmdbDateLayout = "2006-01-02"
	omdbDateLayout = "02 Jan 2006"

	tmdbPosterBaseURL   = "https://image.tmdb.org/t/p/w500"
	tmdbBackdropBaseURL = "https://image.tmdb.org/t/p/w1280"
)

func movieFromTMDB(d *tmdbMovieDetails) *model.Movie {
	movie := &model.Movie{
		ExternalID:  strconv.Itoa(d.ID),
		IMDbID:      d.IMDbID,
		Title:       d.Title,
		Overview:    d.Overview,
		ReleaseDate: parseDate(tmdbDateLayout, d.ReleaseDate),
		VoteAverage: d.VoteAverage,
		VoteCount:   d.VoteCount,
	}

	if d.PosterPath != "" {
		movie.PosterURL = tmdbPosterBaseURL + d.PosterPath
	}
	if d.BackdropPath != "" {
		movie.BackdropURL = tmdbBackdropBaseURL + d.BackdropPath
	}
	if d.Runtime > 0 {
		runtime := d.Runtime
		movie.Runtime = &runtime
	}

	for _, g := range d.Genres {
		movie.Genres = append(movie.Genres, g.Name)
	}
	for i, member := range d.Credits.Cast {
		if i == maxCastMembers {
			break
		}
		movie.Cast = append(movie.Cast, member.Name)
	}
	for _, member := range d.Credits.Crew {
		if member.Job == "Director" {
			movie.Director = member.Name
			break
		}
	}

	return movie
}

func movieFromOMDB(d *omdbMovieDetails) *model.Movie {
	// Records from the IMDb namespace carry the same id in both fields.
	return &model.Movie{
		ExternalID:  d.IMDbID,
		IMDbID:      d.IMDbID,
		Title:       cleanValue(d.Title),
		Overview:    cleanValue(d.Plot),
		ReleaseDate: parseDate(omdbDateLayout, d.Released),
		PosterURL:   cleanValue(d.Poster),
		VoteAverage: parseRating(d.IMDbRating),
		VoteCount:   parseVotes(d.IMDbVotes),
		Runtime:     parseRuntime(d.Runtime),
		Genres:      splitList(d.Genre),
		Director:    cleanValue(d.Director),
		Cast:        splitList(d.Actors),
	}
}

// cleanValue maps OMDb's "N/A" placeholder to the empty string so the
// sentinel is never stored literally.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if s == omdbNotAvailable {
		return ""
	}
	return s
}

func parseDate(layout, value string) *time.Time {
	value = cleanValue(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil
	}
	return &t
}

// parseRuntime reads the leading integer token of a free-text duration
// such as "148 min".
func parseRuntime(value string) *int {
	value = cleanValue(value)
	if value == "" {
		return nil
	}
	minutes, err := strconv.Atoi(strings.Fields(value)[0])
	if err != nil {
		return nil
	}
	return &minutes
}

func parseRating(value string) float64 {
	value = cleanValue(value)
	if value == "" {
		return 0
	}
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return rating
}

// parseVotes strips thousands separators before parsing ("1,234,567").
func parseVotes(value string) int {
	value = cleanValue(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		return 0
	}
	votes, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return votes
}

// splitList turns a comma-delimited string into a trimmed ordered list.
func splitList(value string) model.StringList {
	value = cleanValue(value)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	list := make(model.StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}
