package repository

import (
	"errors"
	"fmt"

	"github.com/user/reelist/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// FindByExternalID looks a movie up by its primary external identifier.
// A miss returns (nil, nil).
func (r *MovieRepository) FindByExternalID(externalID string) (*model.Movie, error) {
	return r.findOne("external_id = ?", externalID)
}

// FindByIMDbID looks a movie up in the alternate identifier namespace.
func (r *MovieRepository) FindByIMDbID(imdbID string) (*model.Movie, error) {
	return r.findOne("imdb_id = ?", imdbID)
}

// FindByID looks a movie up by its local primary key.
func (r *MovieRepository) FindByID(id uint) (*model.Movie, error) {
	return r.findOne("id = ?", id)
}

func (r *MovieRepository) findOne(query string, arg interface{}) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.Where(query, arg).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetOrCreate inserts movie unless a row with the same external_id already
// exists, in which case that row is returned instead. The unique constraint
// makes the insert atomic: a writer that loses the race reads the winner's
// row rather than erroring or duplicating.
func (r *MovieRepository) GetOrCreate(movie *model.Movie) (*model.Movie, bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(movie)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return movie, true, nil
	}

	existing, err := r.FindByExternalID(movie.ExternalID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("movie %s missing after conflicting insert", movie.ExternalID)
	}
	return existing, false, nil
}
