package cleanup

import (
	"context"
	"fmt"

	"photo-curator/feature/cleanup/models"

	"gorm.io/gorm"
)

// Purger removes a stale image together with its dependent records.
type Purger interface {
	DeleteImage(ctx context.Context, image *models.Image) error
}

// GormPurger implements Purger in a single transaction.
type GormPurger struct {
	db *gorm.DB
}

// NewGormPurger creates a Purger on the given connection.
func NewGormPurger(db *gorm.DB) *GormPurger {
	return &GormPurger{db: db}
}

// DeleteImage cascades in a strict order: person clusters holding one of the
// image's faces are invalidated first (invalidation inspects face membership,
// so the faces must still exist), then the faces are removed, then the image
// itself. Violating this order corrupts cluster aggregation, so the sequence
// is encapsulated here and shared by every maintenance path.
func (p *GormPurger) DeleteImage(ctx context.Context, image *models.Image) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var personIDs []uint64
		err := tx.Model(&models.Face{}).
			Where("image_id = ? AND person_id IS NOT NULL", image.ID).
			Distinct().
			Pluck("person_id", &personIDs).Error
		if err != nil {
			return fmt.Errorf("failed to collect affected persons: %w", err)
		}

		if len(personIDs) > 0 {
			err = tx.Model(&models.Person{}).
				Where("id IN ?", personIDs).
				Update("is_valid", false).Error
			if err != nil {
				return fmt.Errorf("failed to invalidate persons: %w", err)
			}
		}

		if err := tx.Where("image_id = ?", image.ID).Delete(&models.Face{}).Error; err != nil {
			return fmt.Errorf("failed to delete faces: %w", err)
		}

		if err := tx.Delete(&models.Image{}, image.ID).Error; err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}

		return nil
	})
}
