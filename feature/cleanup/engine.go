package cleanup

import (
	"context"
	"runtime"

	"photo-curator/core/vfs"
	"photo-curator/feature/cleanup/models"

	"go.uber.org/zap"
)

// Yielder hands control back to the hosting scheduler at safe points. The
// engine yields every YieldEvery processed records within a batch and once
// after every committed batch; those points double as safe-abort points,
// since the checkpoint was persisted at the previous batch boundary.
type Yielder interface {
	Yield(ctx context.Context) error
}

// GoYielder is the default Yielder: it honors context cancellation and lets
// the runtime schedule other goroutines.
type GoYielder struct{}

func (GoYielder) Yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// allowedMounts is the mount policy: records on any other mount are stale.
var allowedMounts = map[vfs.MountType]struct{}{
	vfs.MountHome: {},
}

// Engine drives one user's stale image scan: cursor-based batch fetching, a
// bulk existence check with a per-record fallback, deletion of stale records
// and checkpoint persistence for exact resume.
type Engine struct {
	repo    Repository
	tree    vfs.Tree
	purger  Purger
	yielder Yielder
	logger  *zap.Logger

	batchSize  int
	yieldEvery int
	model      int
}

// NewEngine creates an engine with the given collaborators. Zero values in
// cfg fall back to the documented defaults.
func NewEngine(repo Repository, tree vfs.Tree, purger Purger, logger *zap.Logger, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.YieldEvery <= 0 {
		cfg.YieldEvery = 200
	}
	if cfg.Model <= 0 {
		cfg.Model = 1
	}
	return &Engine{
		repo:       repo,
		tree:       tree,
		purger:     purger,
		yielder:    GoYielder{},
		logger:     logger,
		batchSize:  cfg.BatchSize,
		yieldEvery: cfg.YieldEvery,
		model:      cfg.Model,
	}
}

// SetYielder replaces the cooperative yield hook. Tests use this to count
// suspension points.
func (e *Engine) SetYielder(y Yielder) {
	e.yielder = y
}

// Run scans one user and returns the number of removed image records.
//
// Any storage or database error aborts the scan without persisting the
// in-flight batch's cursor; a retry resumes at the last committed checkpoint,
// redoing at most one batch.
func (e *Engine) Run(ctx context.Context, userID string) (int, error) {
	needs, err := e.repo.NeedsScan(ctx, userID)
	if err != nil {
		return 0, err
	}
	forced, err := e.repo.FullResync(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !needs && !forced {
		e.logger.Debug("cleanup not needed, skipping user", zap.String("user", userID))
		return 0, nil
	}

	cursor, err := e.repo.Checkpoint(ctx, userID)
	if err != nil {
		return 0, err
	}

	// Cache and counters are scoped to this run; nothing leaks across users.
	cache := NewExclusionCache(e.tree)
	removed := 0

	for {
		batch, err := e.repo.FindImagesAfter(ctx, userID, e.model, cursor, e.batchSize)
		if err != nil {
			return removed, err
		}
		if len(batch) == 0 {
			break
		}

		keys := make([]string, len(batch))
		for i := range batch {
			keys[i] = batch[i].FileKey
		}

		// One round trip classifies the whole batch; only keys the index
		// still knows need the per-record fallback.
		present, err := e.tree.ExistsBatch(ctx, userID, keys)
		if err != nil {
			return removed, err
		}

		processed := 0
		for i := range batch {
			image := &batch[i]

			stale, err := e.classify(ctx, image, present, cache)
			if err != nil {
				return removed, err
			}
			if stale {
				if err := e.purger.DeleteImage(ctx, image); err != nil {
					return removed, err
				}
				removed++
			}

			// The cursor advances over kept records too; disposition is
			// fully resolved either way.
			cursor = image.ID

			processed++
			if processed%e.yieldEvery == 0 {
				if err := e.yielder.Yield(ctx); err != nil {
					return removed, err
				}
			}
		}

		if err := e.repo.SetCheckpoint(ctx, userID, cursor); err != nil {
			return removed, err
		}
		if err := e.yielder.Yield(ctx); err != nil {
			return removed, err
		}
	}

	// A completed scan has no meaningful resume point.
	if err := e.repo.SetCheckpoint(ctx, userID, 0); err != nil {
		return removed, err
	}
	if err := e.repo.SetNeedsScan(ctx, userID, false); err != nil {
		return removed, err
	}
	if forced {
		if err := e.repo.SetFullResync(ctx, userID, false); err != nil {
			return removed, err
		}
	}

	hits, misses := cache.Stats()
	e.logger.Info("cleanup scan finished",
		zap.String("user", userID),
		zap.Int("removed", removed),
		zap.Int("exclusion_cache_hits", hits),
		zap.Int("exclusion_cache_misses", misses),
	)

	return removed, nil
}

// classify decides whether an image record is stale. Absence from the bulk
// result is decisive and skips resolution entirely; otherwise the record
// falls through to node resolution, mount policy and the exclusion marker
// check. An unresolvable node despite a positive bulk result is expected
// drift between the index and the live view, not an error.
func (e *Engine) classify(ctx context.Context, image *models.Image, present map[string]struct{}, cache *ExclusionCache) (bool, error) {
	if _, ok := present[image.FileKey]; !ok {
		return true, nil
	}

	node, err := e.tree.Resolve(ctx, image.UserID, image.FileKey)
	if err != nil {
		return false, err
	}
	if node == nil {
		return true, nil
	}
	if _, ok := allowedMounts[node.Mount]; !ok {
		return true, nil
	}

	return cache.IsExcluded(ctx, node)
}
