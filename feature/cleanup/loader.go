package cleanup

import (
	"photo-curator/core/vfs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature wires the cleanup feature: repository, purger, engine, service
// and HTTP handler.
func NewFeature(db *gorm.DB, tree vfs.Tree, logger *zap.Logger, cfg Config) *Feature {
	repo := NewGormRepository(db)
	engine := NewEngine(repo, tree, NewGormPurger(db), logger, cfg)
	svc := NewService(repo, engine, logger)
	h := NewHandler(svc, db, logger)
	return &Feature{service: svc, handler: h, enabled: cfg.Enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "cleanup"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the cleanup service so the scheduler can drive sweeps.
func (f *Feature) Service() *Service {
	return f.service
}
