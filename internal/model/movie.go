package model

import (
	"time"
)

// Movie is the canonical local record for a movie fetched from an external
// metadata provider. ExternalID is the dedup key: a record is never
// duplicated for the same value. IMDbID keeps the alternate provider
// namespace for cross-referencing; records materialized through the IMDb
// namespace carry the same id in both fields.
type Movie struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ExternalID  string     `json:"external_id" gorm:"uniqueIndex;not null"`
	IMDbID      string     `json:"imdb_id" gorm:"column:imdb_id;index"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	ReleaseDate *time.Time `json:"release_date"`
	PosterURL   string     `json:"poster_url"`
	BackdropURL string     `json:"backdrop_url"`
	VoteAverage float64    `json:"vote_average"`
	VoteCount   int        `json:"vote_count"`
	Runtime     *int       `json:"runtime"` // minutes, nil when the provider gave none
	Genres      StringList `json:"genres"`
	Director    string     `json:"director"`
	Cast        StringList `json:"cast" gorm:"column:cast_members"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
