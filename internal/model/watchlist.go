package model

import (
	"time"
)

// WatchlistItem links a user to a movie on their personal list. The user
// identity is owned by an external identity provider and consumed here as
// an opaque foreign key. A user may hold at most one item per movie.
//
// WatchedAt is derived from IsWatched: it is non-nil exactly when the item
// is watched. The rule lives in the watchlist service, not in a save hook.
type WatchlistItem struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    int        `json:"user_id" gorm:"uniqueIndex:idx_watchlist_user_movie;not null"`
	MovieID   uint       `json:"movie_id" gorm:"uniqueIndex:idx_watchlist_user_movie;not null"`
	Movie     *Movie     `json:"movie,omitempty"`
	IsWatched bool       `json:"is_watched"`
	Rating    *int       `json:"rating"` // 1-5, nil when unrated
	Note      string     `json:"note"`
	AddedAt   time.Time  `json:"added_at"`
	WatchedAt *time.Time `json:"watched_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
