package cleanup

import (
	"context"
	"testing"

	"photo-curator/feature/cleanup/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// Deletion must invalidate person clusters before the faces disappear, then
// remove faces, then the image. sqlmock enforces the statement order.
func TestDeleteImage_CascadeOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	purger := NewGormPurger(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT DISTINCT `person_id` FROM `faces`").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"person_id"}).AddRow(7).AddRow(9))
	mock.ExpectExec("UPDATE `people` SET `is_valid`=").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `faces` WHERE image_id =").
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM `images`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := purger.DeleteImage(context.Background(), &models.Image{ID: 42, UserID: "alice"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteImage_NoClusteredFaces(t *testing.T) {
	db, mock := setupMockDB(t)
	purger := NewGormPurger(db)

	// No face of the image belongs to a cluster: the people table is not touched.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT DISTINCT `person_id` FROM `faces`").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"person_id"}))
	mock.ExpectExec("DELETE FROM `faces` WHERE image_id =").
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `images`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := purger.DeleteImage(context.Background(), &models.Image{ID: 42, UserID: "alice"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteImage_RollbackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	purger := NewGormPurger(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT DISTINCT `person_id` FROM `faces`").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"person_id"}).AddRow(7))
	mock.ExpectExec("UPDATE `people` SET `is_valid`=").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := purger.DeleteImage(context.Background(), &models.Image{ID: 42, UserID: "alice"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to invalidate persons")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// End-state check against a real database: only the stale image and its faces
// are gone, clusters survive but are marked for re-clustering, and unrelated
// records are untouched.
func TestDeleteImage_EndState(t *testing.T) {
	db := setupSQLiteDB(t)
	purger := NewGormPurger(db)

	personA := models.Person{UserID: "alice", Name: "A", IsValid: true}
	personB := models.Person{UserID: "alice", Name: "B", IsValid: true}
	require.NoError(t, db.Create(&personA).Error)
	require.NoError(t, db.Create(&personB).Error)

	stale := models.Image{UserID: "alice", FileKey: "alice/files/gone.jpg", Model: 1}
	kept := models.Image{UserID: "alice", FileKey: "alice/files/kept.jpg", Model: 1}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&kept).Error)

	faces := []models.Face{
		{ImageID: stale.ID, PersonID: &personA.ID, Confidence: 0.9},
		{ImageID: stale.ID, Confidence: 0.5}, // unclustered
		{ImageID: kept.ID, PersonID: &personB.ID, Confidence: 0.8},
	}
	require.NoError(t, db.Create(&faces).Error)

	err := purger.DeleteImage(context.Background(), &stale)
	require.NoError(t, err)

	var imageCount, faceCount int64
	db.Model(&models.Image{}).Count(&imageCount)
	db.Model(&models.Face{}).Count(&faceCount)
	assert.Equal(t, int64(1), imageCount)
	assert.Equal(t, int64(1), faceCount)

	var remaining models.Face
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, kept.ID, remaining.ImageID)

	// The cluster that lost a face is invalid, the untouched one stays valid.
	var a, b models.Person
	require.NoError(t, db.First(&a, personA.ID).Error)
	require.NoError(t, db.First(&b, personB.ID).Error)
	assert.False(t, a.IsValid)
	assert.True(t, b.IsValid)
}
