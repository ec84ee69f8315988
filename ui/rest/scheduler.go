package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/blogsmith/blogsmith/core/config"
	"github.com/blogsmith/blogsmith/pkg/utils"
	schedApp "github.com/blogsmith/blogsmith/scheduler/application"
)

type Scheduler struct {
	Service *schedApp.Scheduler
}

func InitRestScheduler(app fiber.Router, service *schedApp.Scheduler) Scheduler {
	handler := Scheduler{Service: service}

	group := app.Group("/api/scheduler")
	group.Get("/status", handler.GetStatus)
	group.Post("/run", handler.RunNow)
	group.Get("/settings", handler.GetSettings)

	return handler
}

func (h *Scheduler) GetStatus(c *fiber.Ctx) error {
	results := map[string]any{
		"running":  h.Service.IsRunning(),
		"last_run": h.Service.LastRun(),
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Scheduler status retrieved",
		Results: results,
	})
}

// RunNow triggers one scheduler pass immediately. The window lock still
// applies, so a concurrent instance's run turns this into a no-op.
func (h *Scheduler) RunNow(c *fiber.Ctx) error {
	stats, err := h.Service.RunNow(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Scheduler run completed",
		Results: stats,
	})
}

func (h *Scheduler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Settings retrieved",
		Results: config.GetAllSettings(),
	})
}
