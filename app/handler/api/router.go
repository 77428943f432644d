package handler

import (
	"restock-service/app/middleware"
	"restock-service/config"

	"github.com/gofiber/fiber/v2"
)

func SetupRouter(app *fiber.App, restockNotificationHandler *RestockNotificationHandler, restockHandler *RestockHandler, cfg *config.Config) {

	api := app.Group("/restock-service").Use(middleware.Auth(cfg.Jwt.SecretKey))

	api.Post("/products/:product_id/restock-notifications", restockNotificationHandler.Create)
	api.Get("/products/:product_id/restock-notifications", restockNotificationHandler.GetByProductID)
	api.Get("/restock-notifications", restockNotificationHandler.GetList)

	internal := app.Group("/internal/restock-service").Use(middleware.AuthInternal(cfg))
	internal.Get("/restock-notifications", restockNotificationHandler.GetListInternal)
	internal.Post("/products/:product_id/restock", restockHandler.Trigger)
}
