package cleanup

import (
	"context"
	"testing"

	"photo-curator/feature/cleanup/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A :memory: database exists per connection; a second connection would see
	// an empty schema.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Image{},
		&models.Face{},
		&models.Person{},
		&models.CleanupState{},
	))
	return db
}

func setupEmptySQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestFindImagesAfter(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	images := []models.Image{
		{UserID: "alice", FileKey: "alice/files/a.jpg", Model: 1},
		{UserID: "alice", FileKey: "alice/files/b.jpg", Model: 1},
		{UserID: "alice", FileKey: "alice/files/old.jpg", Model: 2}, // other model
		{UserID: "bob", FileKey: "bob/files/c.jpg", Model: 1},      // other user
		{UserID: "alice", FileKey: "alice/files/d.jpg", Model: 1},
	}
	require.NoError(t, db.Create(&images).Error)

	t.Run("FiltersUserAndModel", func(t *testing.T) {
		got, err := repo.FindImagesAfter(ctx, "alice", 1, 0, 100)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for _, img := range got {
			assert.Equal(t, "alice", img.UserID)
			assert.Equal(t, 1, img.Model)
		}
	})

	t.Run("OrderedAscending", func(t *testing.T) {
		got, err := repo.FindImagesAfter(ctx, "alice", 1, 0, 100)
		require.NoError(t, err)
		for i := 1; i < len(got); i++ {
			assert.Greater(t, got[i].ID, got[i-1].ID)
		}
	})

	t.Run("CursorIsExclusive", func(t *testing.T) {
		all, err := repo.FindImagesAfter(ctx, "alice", 1, 0, 100)
		require.NoError(t, err)
		require.NotEmpty(t, all)

		rest, err := repo.FindImagesAfter(ctx, "alice", 1, all[0].ID, 100)
		require.NoError(t, err)
		assert.Len(t, rest, len(all)-1)
		for _, img := range rest {
			assert.Greater(t, img.ID, all[0].ID)
		}
	})

	t.Run("RespectsLimit", func(t *testing.T) {
		got, err := repo.FindImagesAfter(ctx, "alice", 1, 0, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("EmptyPastEnd", func(t *testing.T) {
		got, err := repo.FindImagesAfter(ctx, "alice", 1, 1_000_000, 100)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestListUsers(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Image{UserID: "bob", FileKey: "bob/files/a.jpg", Model: 1}).Error)
	require.NoError(t, db.Create(&models.Image{UserID: "alice", FileKey: "alice/files/b.jpg", Model: 1}).Error)
	// carol has no images left but still carries scan state.
	require.NoError(t, db.Create(&models.CleanupState{UserID: "carol", NeedsScan: true}).Error)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)
}

func TestScanState(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	t.Run("DefaultsForUnknownUser", func(t *testing.T) {
		cp, err := repo.Checkpoint(ctx, "ghost")
		require.NoError(t, err)
		assert.Zero(t, cp)

		// A user never seen before needs a first pass.
		needs, err := repo.NeedsScan(ctx, "ghost")
		require.NoError(t, err)
		assert.True(t, needs)

		forced, err := repo.FullResync(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, forced)
	})

	t.Run("CheckpointRoundtrip", func(t *testing.T) {
		require.NoError(t, repo.SetCheckpoint(ctx, "alice", 1234))

		cp, err := repo.Checkpoint(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(1234), cp)

		require.NoError(t, repo.SetCheckpoint(ctx, "alice", 0))
		cp, err = repo.Checkpoint(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, cp)
	})

	t.Run("UpsertCreatesRowOnce", func(t *testing.T) {
		require.NoError(t, repo.SetCheckpoint(ctx, "bob", 10))
		require.NoError(t, repo.SetCheckpoint(ctx, "bob", 20))

		var count int64
		db.Model(&models.CleanupState{}).Where("user_id = ?", "bob").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("ColumnsAreIndependent", func(t *testing.T) {
		require.NoError(t, repo.SetCheckpoint(ctx, "carol", 55))
		require.NoError(t, repo.SetNeedsScan(ctx, "carol", false))
		require.NoError(t, repo.SetFullResync(ctx, "carol", true))

		cp, err := repo.Checkpoint(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, uint64(55), cp)

		needs, err := repo.NeedsScan(ctx, "carol")
		require.NoError(t, err)
		assert.False(t, needs)

		forced, err := repo.FullResync(ctx, "carol")
		require.NoError(t, err)
		assert.True(t, forced)
	})

	t.Run("FreshRowCarriesWrittenValue", func(t *testing.T) {
		// Writing a non-checkpoint column first must not lose the scan-needed
		// default on the freshly created row.
		require.NoError(t, repo.SetFullResync(ctx, "dave", true))

		needs, err := repo.NeedsScan(ctx, "dave")
		require.NoError(t, err)
		assert.True(t, needs)

		forced, err := repo.FullResync(ctx, "dave")
		require.NoError(t, err)
		assert.True(t, forced)
	})
}
