package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/mhofer/billingsync/app/controllers"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Webhook deliveries stay outside the limiter: the provider controls
	// their rate and throttled deliveries would just be redelivered.
	app.Post("/api/v1/webhooks/billing", controllers.HandleBillingWebhook)

	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1")
	v1.Post("/subscription-status", controllers.HandleSubscriptionStatus)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
