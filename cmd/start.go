package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-curator/core/config"
	"photo-curator/core/database"
	"photo-curator/core/loader"
	"photo-curator/core/logger"
	"photo-curator/core/middleware/auth"
	"photo-curator/core/middleware/rayid"
	"photo-curator/core/storage"
	"photo-curator/core/vfs"
	"photo-curator/feature/cleanup"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the photo curator service",
	Long:  `Starts the HTTP server, registers the maintenance features and schedules periodic cleanup sweeps.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		// Every feature reads the record tables; a missing database is fatal here.
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		// 4. Initialize Storage + file tree view
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		tree := vfs.NewObjectTree(store, cfg.Storage.Bucket)

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 6. Initialize Feature Loader
		mgr := loader.NewManager()

		cleanupFeature := cleanup.NewFeature(db, tree, logg, cfg.Cleanup)
		mgr.Register(cleanupFeature)

		// Middleware Registration
		// RayID must be first to trace everything.
		app.Use(rayid.New())

		// Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 7. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Schedule periodic cleanup sweeps
		scheduler := gocron.NewScheduler(time.UTC)
		if cfg.Cleanup.Enabled {
			interval := time.Duration(cfg.Cleanup.IntervalMinutes) * time.Minute
			// SingletonMode: a sweep that outlives its interval is not stacked.
			_, err := scheduler.Every(interval).SingletonMode().Do(func() {
				if _, err := cleanupFeature.Service().RunAll(context.Background()); err != nil {
					logg.Error("Scheduled cleanup sweep finished with failures", zap.Error(err))
				}
			})
			if err != nil {
				logg.Fatal("Failed to schedule cleanup sweep", zap.Error(err))
			}
			scheduler.StartAsync()
			logg.Info("Cleanup scheduler started", zap.Duration("interval", interval))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		scheduler.Stop()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
