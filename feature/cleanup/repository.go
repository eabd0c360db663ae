package cleanup

import (
	"context"
	"errors"

	"photo-curator/feature/cleanup/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence boundary of the cleanup engine: ordered batch
// fetches over image records plus the per-user scan state.
type Repository interface {
	// FindImagesAfter returns up to limit images of the user and model with
	// ID greater than afterID, ordered by ID ascending. The ordering is what
	// makes the checkpoint a valid resume point.
	FindImagesAfter(ctx context.Context, userID string, model int, afterID uint64, limit int) ([]models.Image, error)

	// ListUsers enumerates every user with image records or scan state.
	ListUsers(ctx context.Context) ([]string, error)

	Checkpoint(ctx context.Context, userID string) (uint64, error)
	SetCheckpoint(ctx context.Context, userID string, id uint64) error

	NeedsScan(ctx context.Context, userID string) (bool, error)
	SetNeedsScan(ctx context.Context, userID string, needs bool) error

	FullResync(ctx context.Context, userID string) (bool, error)
	SetFullResync(ctx context.Context, userID string, forced bool) error
}

// GormRepository implements Repository on a gorm connection.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a Repository backed by the given connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FindImagesAfter pushes the filter down to SQL; the images table is large
// and must never be loaded whole.
func (r *GormRepository) FindImagesAfter(ctx context.Context, userID string, model int, afterID uint64, limit int) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND model = ? AND id > ?", userID, model, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ListUsers returns the union of users present in the images table and the
// scan state table, ordered for a deterministic sweep.
func (r *GormRepository) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).
		Raw("SELECT user_id FROM images UNION SELECT user_id FROM cleanup_states ORDER BY user_id").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// state loads the user's scan state. A user without a row gets the zero-value
// defaults: fresh checkpoint, scan needed, no forced resync.
func (r *GormRepository) state(ctx context.Context, userID string) (models.CleanupState, error) {
	var st models.CleanupState
	err := r.db.WithContext(ctx).First(&st, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CleanupState{UserID: userID, NeedsScan: true}, nil
	}
	if err != nil {
		return models.CleanupState{}, err
	}
	return st, nil
}

// upsert writes a single state column for the user, creating the row if needed.
func (r *GormRepository) upsert(ctx context.Context, userID, column string, value any) error {
	st := models.CleanupState{UserID: userID, NeedsScan: true}
	applyColumn(&st, column, value)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{column: value}),
		}).
		Create(&st).Error
}

func (r *GormRepository) Checkpoint(ctx context.Context, userID string) (uint64, error) {
	st, err := r.state(ctx, userID)
	if err != nil {
		return 0, err
	}
	return st.Checkpoint, nil
}

func (r *GormRepository) SetCheckpoint(ctx context.Context, userID string, id uint64) error {
	return r.upsert(ctx, userID, "checkpoint", id)
}

func (r *GormRepository) NeedsScan(ctx context.Context, userID string) (bool, error) {
	st, err := r.state(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.NeedsScan, nil
}

func (r *GormRepository) SetNeedsScan(ctx context.Context, userID string, needs bool) error {
	return r.upsert(ctx, userID, "needs_scan", needs)
}

func (r *GormRepository) FullResync(ctx context.Context, userID string) (bool, error) {
	st, err := r.state(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.FullResync, nil
}

func (r *GormRepository) SetFullResync(ctx context.Context, userID string, forced bool) error {
	return r.upsert(ctx, userID, "full_resync", forced)
}

// applyColumn mirrors the upsert assignment onto the insert row so a fresh row
// carries the written value, not just the defaults.
func applyColumn(st *models.CleanupState, column string, value any) {
	switch column {
	case "checkpoint":
		if v, ok := value.(uint64); ok {
			st.Checkpoint = v
		}
	case "needs_scan":
		if v, ok := value.(bool); ok {
			st.NeedsScan = v
		}
	case "full_resync":
		if v, ok := value.(bool); ok {
			st.FullResync = v
		}
	}
}
