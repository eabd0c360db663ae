package cleanup

import (
	"context"

	"photo-curator/core/logger"
	"photo-curator/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for the cleanup feature.
type Handler struct {
	service *Service
	db      *gorm.DB
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{service: service, db: db, logger: log}
}

// RegisterRoutes registers the cleanup routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/cleanup")
	group.Post("/run", h.HandleRunAll)
	group.Post("/run/:user", h.HandleRunUser)
	group.Post("/schedule/:user", h.HandleSchedule)
	group.Get("/status/:user", h.HandleStatus)
	group.Get("/health", h.HandleHealth)
}

// HandleRunAll triggers a sweep over all users.
// @Summary Run Cleanup For All Users
// @Description Starts an asynchronous stale image cleanup sweep across every known user.
// @Tags cleanup
// @Produce json
// @Success 202 {object} map[string]string "Sweep started"
// @Router /cleanup/run [post]
func (h *Handler) HandleRunAll(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	l.Info("Triggering cleanup sweep for all users")

	// The sweep can run for a long time; detach it from the request.
	go func() {
		if _, err := h.service.RunAll(context.Background()); err != nil {
			l.Error("Cleanup sweep finished with failures", zap.Error(err))
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
	})
}

// HandleRunUser runs the cleanup scan for one user and waits for the result.
// @Summary Run Cleanup For One User
// @Description Runs the stale image cleanup scan for a single user. Use ?force=true to request a full resync.
// @Tags cleanup
// @Produce json
// @Success 200 {object} map[string]interface{} "Removed count"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /cleanup/run/{user} [post]
func (h *Handler) HandleRunUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	user := c.Params("user")
	ctx := c.Context()

	if utils.ToBool(c.Query("force")) {
		if err := h.service.ForceResync(ctx, user); err != nil {
			l.Error("Failed to request full resync", zap.String("user", user), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	l.Info("Running cleanup for user", zap.String("user", user))
	removed, err := h.service.RunUser(ctx, user)
	if err != nil {
		l.Error("Cleanup failed", zap.String("user", user), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"removed": removed,
	})
}

// HandleSchedule flags a user for a scan on the next sweep.
// @Summary Schedule Cleanup
// @Description Marks a user so the next sweep performs a full scan.
// @Tags cleanup
// @Produce json
// @Success 200 {object} map[string]string "Scheduled"
// @Router /cleanup/schedule/{user} [post]
func (h *Handler) HandleSchedule(c *fiber.Ctx) error {
	user := c.Params("user")
	if err := h.service.Schedule(c.Context(), user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"user": user, "status": "scheduled"})
}

// HandleStatus reports a user's scan state.
// @Summary Cleanup Status
// @Description Returns the checkpoint, scan flags and last run result for a user.
// @Tags cleanup
// @Produce json
// @Success 200 {object} Status
// @Router /cleanup/status/{user} [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.UserStatus(c.Context(), c.Params("user"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// HandleHealth verifies the database schema the cleanup job depends on.
// @Summary Cleanup Health
// @Description Verifies that the images, faces, people and state tables carry the expected columns.
// @Tags cleanup
// @Produce json
// @Success 200 {object} map[string]interface{} "Schema report"
// @Router /cleanup/health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	problems, err := VerifySchema(h.db)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(problems) > 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"problems": problems,
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
