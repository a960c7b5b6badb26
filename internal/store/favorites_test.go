package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestFavoritesLoadEmpty(t *testing.T) {
	repo, err := NewFavoritesRepo(openTestDB(t))
	require.NoError(t, err)

	cities, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cities)
	assert.NotNil(t, cities)
}

func TestFavoritesSaveOverwrites(t *testing.T) {
	db := openTestDB(t)
	repo, err := NewFavoritesRepo(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []string{"Izmir", "Istanbul"}))
	require.NoError(t, repo.Save(ctx, []string{"Istanbul", "Ankara", "Izmir"}))

	cities, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Istanbul", "Ankara", "Izmir"}, cities)

	var count int64
	require.NoError(t, db.Model(&NamedRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var rec NamedRecord
	require.NoError(t, db.Take(&rec).Error)
	assert.Equal(t, FavoritesRecordName, rec.Name)
	assert.JSONEq(t, `["Istanbul","Ankara","Izmir"]`, string(rec.Value))
}

func TestFavoritesSaveEmpty(t *testing.T) {
	repo, err := NewFavoritesRepo(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []string{"Izmir"}))
	require.NoError(t, repo.Save(ctx, nil))

	cities, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestFavoritesCorruptRecord(t *testing.T) {
	db := openTestDB(t)
	repo, err := NewFavoritesRepo(db)
	require.NoError(t, err)

	require.NoError(t, db.Create(&NamedRecord{Name: FavoritesRecordName, Value: []byte(`{"not":"a list"}`)}).Error)

	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, weather.ErrPersistence)
}

func TestFavoritesClosedDatabase(t *testing.T) {
	db := openTestDB(t)
	repo, err := NewFavoritesRepo(db)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = repo.Save(context.Background(), []string{"Izmir"})
	assert.ErrorIs(t, err, weather.ErrPersistence)
}
