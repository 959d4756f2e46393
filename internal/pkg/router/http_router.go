package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mhofer/billingsync/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Provider-hosted redirect routes for the purchase flow.
	app.Get("/checkout", controllers.HandleCheckout)
	app.Get("/account/portal", controllers.HandleCustomerPortal)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
