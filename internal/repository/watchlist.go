package repository

import (
	"errors"

	"github.com/user/reelist/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Create inserts the item. A (user_id, movie_id) violation surfaces as
// gorm.ErrDuplicatedKey; the service layer maps it to a conflict. The
// constraint, not the caller's existence check, is the source of truth.
func (r *WatchlistRepository) Create(item *model.WatchlistItem) error {
	return r.db.Create(item).Error
}

// GetByID returns the user's item with the given id, movie preloaded.
// A miss (or another user's item) returns (nil, nil).
func (r *WatchlistRepository) GetByID(userID int, id uint) (*model.WatchlistItem, error) {
	var item model.WatchlistItem
	err := r.db.Preload("Movie").
		Where("user_id = ? AND id = ?", userID, id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *WatchlistRepository) GetByUserAndMovie(userID int, movieID uint) (*model.WatchlistItem, error) {
	var item model.WatchlistItem
	err := r.db.Preload("Movie").
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByUserAndIMDbID joins movies so the lazy-add path can detect an
// existing entry before touching the provider.
func (r *WatchlistRepository) GetByUserAndIMDbID(userID int, imdbID string) (*model.WatchlistItem, error) {
	var item model.WatchlistItem
	err := r.db.Preload("Movie").
		Joins("JOIN movies ON movies.id = watchlist_items.movie_id").
		Where("watchlist_items.user_id = ? AND movies.imdb_id = ?", userID, imdbID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByUser returns the user's items newest-added first. A nil watched
// filter returns everything.
func (r *WatchlistRepository) ListByUser(userID int, watched *bool) ([]*model.WatchlistItem, error) {
	q := r.db.Preload("Movie").Where("user_id = ?", userID)
	if watched != nil {
		q = q.Where("is_watched = ?", *watched)
	}

	var items []*model.WatchlistItem
	err := q.Order("added_at DESC").Find(&items).Error
	return items, err
}

// Update persists the full item so cleared fields (a nil watched_at)
// write back as NULL. The preloaded movie is never written back.
func (r *WatchlistRepository) Update(item *model.WatchlistItem) error {
	return r.db.Omit(clause.Associations).Save(item).Error
}

// Remove deletes the user's item and reports how many rows went away.
func (r *WatchlistRepository) Remove(userID int, id uint) (int64, error) {
	res := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&model.WatchlistItem{})
	return res.RowsAffected, res.Error
}

// CountByUser tallies the user's items, total and watched.
func (r *WatchlistRepository) CountByUser(userID int) (total int64, watched int64, err error) {
	err = r.db.Model(&model.WatchlistItem{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.Model(&model.WatchlistItem{}).
		Where("user_id = ? AND is_watched = ?", userID, true).
		Count(&watched).Error
	if err != nil {
		return 0, 0, err
	}
	return total, watched, nil
}
