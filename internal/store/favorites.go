package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// FavoritesRecordName is the name of the single persisted favorites record.
const FavoritesRecordName = "favoriteLocations"

// NamedRecord is a named JSON document. The favorites list is stored as the
// record named FavoritesRecordName.
type NamedRecord struct {
	Name      string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"type:json"`
	UpdatedAt time.Time
}

// FavoritesRepo persists the ordered favorites list. Every Save overwrites
// the record in full.
type FavoritesRepo struct {
	db *gorm.DB
}

// OpenSQLite opens the favorites database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// NewFavoritesRepo migrates the schema and returns a repo.
func NewFavoritesRepo(db *gorm.DB) (*FavoritesRepo, error) {
	if err := db.AutoMigrate(&NamedRecord{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", weather.ErrPersistence, err)
	}
	return &FavoritesRepo{db: db}, nil
}

// Load returns the persisted favorites, or an empty list when none were saved.
func (r *FavoritesRepo) Load(ctx context.Context) ([]string, error) {
	var rec NamedRecord
	err := r.db.WithContext(ctx).Where("name = ?", FavoritesRecordName).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", weather.ErrPersistence, err)
	}

	cities := []string{}
	if len(rec.Value) == 0 {
		return cities, nil
	}
	if err := json.Unmarshal(rec.Value, &cities); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", weather.ErrPersistence, err)
	}
	return cities, nil
}

// Save overwrites the favorites record with cities.
func (r *FavoritesRepo) Save(ctx context.Context, cities []string) error {
	if cities == nil {
		cities = []string{}
	}
	raw, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", weather.ErrPersistence, err)
	}

	rec := NamedRecord{
		Name:      FavoritesRecordName,
		Value:     datatypes.JSON(raw),
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: write: %w", weather.ErrPersistence, err)
	}
	return nil
}
