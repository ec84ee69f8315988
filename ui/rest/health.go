package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/blogsmith/blogsmith/core/config"
	"github.com/blogsmith/blogsmith/pkg/utils"
)

type Health struct{}

func InitRestHealth(app fiber.Router) Health {
	handler := Health{}
	app.Get("/healthz", handler.Healthz)
	app.Get("/app/version", handler.GetVersion)
	return handler
}

func (h *Health) Healthz(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "ok",
	})
}

func (h *Health) GetVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": config.Global.App.Version,
	})
}
