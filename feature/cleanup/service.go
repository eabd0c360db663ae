package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// runner is the per-user scan contract the service drives; satisfied by *Engine.
type runner interface {
	Run(ctx context.Context, userID string) (int, error)
}

// RunResult records the outcome of one user's scan, kept for the status API.
type RunResult struct {
	UserID   string        `json:"user_id"`
	Removed  int           `json:"removed"`
	Duration time.Duration `json:"duration"`
	RanAt    time.Time     `json:"ran_at"`
	Error    string        `json:"error,omitempty"`
}

// Status is the per-user view exposed over HTTP.
type Status struct {
	UserID     string     `json:"user_id"`
	Checkpoint uint64     `json:"checkpoint"`
	NeedsScan  bool       `json:"needs_scan"`
	FullResync bool       `json:"full_resync"`
	LastRun    *RunResult `json:"last_run,omitempty"`
}

// Service orchestrates cleanup scans across users. Concurrent triggers for
// the same user (HTTP and the scheduler may collide) are collapsed into one
// scan via singleflight.
type Service struct {
	repo   Repository
	engine runner
	logger *zap.Logger

	group singleflight.Group

	mu       sync.Mutex
	lastRuns map[string]RunResult
}

// NewService creates a cleanup service over the given repository and engine.
func NewService(repo Repository, engine runner, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		logger:   logger,
		lastRuns: make(map[string]RunResult),
	}
}

// RunUser scans a single user, deduplicating concurrent triggers.
func (s *Service) RunUser(ctx context.Context, userID string) (int, error) {
	v, err, _ := s.group.Do(userID, func() (any, error) {
		start := time.Now()
		removed, runErr := s.engine.Run(ctx, userID)

		result := RunResult{
			UserID:   userID,
			Removed:  removed,
			Duration: time.Since(start),
			RanAt:    start,
		}
		if runErr != nil {
			result.Error = runErr.Error()
		}
		s.mu.Lock()
		s.lastRuns[userID] = result
		s.mu.Unlock()

		return removed, runErr
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// RunAll sweeps every known user sequentially. A failing user aborts only
// that user's scan; the sweep continues and the failures are summarized in
// the returned error.
func (s *Service) RunAll(ctx context.Context) (int, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	failed := 0
	for _, user := range users {
		removed, err := s.RunUser(ctx, user)
		if err != nil {
			failed++
			s.logger.Error("cleanup failed for user",
				zap.String("user", user),
				zap.Error(err),
			)
			continue
		}
		total += removed
	}

	s.logger.Info("cleanup sweep finished",
		zap.Int("users", len(users)),
		zap.Int("removed", total),
		zap.Int("failed", failed),
	)

	if failed > 0 {
		return total, fmt.Errorf("cleanup failed for %d of %d users", failed, len(users))
	}
	return total, nil
}

// Schedule marks a user for a scan on the next sweep.
func (s *Service) Schedule(ctx context.Context, userID string) error {
	return s.repo.SetNeedsScan(ctx, userID, true)
}

// ForceResync requests a forced full pass: the stored checkpoint is reset so
// the next scan starts from the beginning even if no scan was flagged.
func (s *Service) ForceResync(ctx context.Context, userID string) error {
	if err := s.repo.SetCheckpoint(ctx, userID, 0); err != nil {
		return err
	}
	return s.repo.SetFullResync(ctx, userID, true)
}

// UserStatus reports the user's scan state and the last recorded run.
func (s *Service) UserStatus(ctx context.Context, userID string) (*Status, error) {
	checkpoint, err := s.repo.Checkpoint(ctx, userID)
	if err != nil {
		return nil, err
	}
	needs, err := s.repo.NeedsScan(ctx, userID)
	if err != nil {
		return nil, err
	}
	forced, err := s.repo.FullResync(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &Status{
		UserID:     userID,
		Checkpoint: checkpoint,
		NeedsScan:  needs,
		FullResync: forced,
	}

	s.mu.Lock()
	if last, ok := s.lastRuns[userID]; ok {
		status.LastRun = &last
	}
	s.mu.Unlock()

	return status, nil
}
