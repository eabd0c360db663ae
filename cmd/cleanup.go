package cmd

import (
	"context"
	"fmt"

	"photo-curator/core/config"
	"photo-curator/core/database"
	"photo-curator/core/logger"
	"photo-curator/core/storage"
	"photo-curator/core/vfs"
	"photo-curator/feature/cleanup"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the cleanup command
	cleanupUser   string
	cleanupForce  bool
	cleanupVerify bool
)

// cleanupCmd runs the stale image cleanup from the command line.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale image records (all users or a single user)",
	Long: `Scan the images table against storage and remove records whose file is gone,
on a disallowed mount, or under an exclusion marker directory. Dependent face
records are removed and affected person clusters invalidated.

Examples:
  # Sweep every user
  photo-curator cleanup

  # Scan one user
  photo-curator cleanup --user alice

  # Force a full resync for one user (rescans from the start)
  photo-curator cleanup --user alice --force

  # Verify the database schema before scanning
  photo-curator cleanup --verify-schema`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupUser, "user", "", "Scan only this user")
	cleanupCmd.Flags().BoolVar(&cleanupForce, "force", false, "Force a full resync (resets the checkpoint)")
	cleanupCmd.Flags().BoolVar(&cleanupVerify, "verify-schema", false, "Verify the database schema before scanning")

	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Connect to storage
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	tree := vfs.NewObjectTree(client, cfg.Storage.Bucket)

	if cleanupVerify {
		problems, err := cleanup.VerifySchema(db)
		if err != nil {
			return fmt.Errorf("failed to verify schema: %w", err)
		}
		if len(problems) > 0 {
			for _, p := range problems {
				l.Error("Schema problem", zap.String("problem", p))
			}
			return fmt.Errorf("schema verification failed with %d problems", len(problems))
		}
		l.Info("Schema verified")
	}

	feature := cleanup.NewFeature(db, tree, l, cfg.Cleanup)
	svc := feature.Service()

	if cleanupUser != "" {
		if cleanupForce {
			if err := svc.ForceResync(ctx, cleanupUser); err != nil {
				return fmt.Errorf("failed to request full resync: %w", err)
			}
		}
		removed, err := svc.RunUser(ctx, cleanupUser)
		if err != nil {
			return fmt.Errorf("cleanup failed for %s: %w", cleanupUser, err)
		}
		l.Info("Cleanup finished", zap.String("user", cleanupUser), zap.Int("removed", removed))
		return nil
	}

	if cleanupForce {
		return fmt.Errorf("--force requires --user")
	}

	total, err := svc.RunAll(ctx)
	if err != nil {
		return err
	}
	l.Info("Cleanup sweep finished", zap.Int("removed", total))
	return nil
}
