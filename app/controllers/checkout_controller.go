package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mhofer/billingsync/app/models"
	"github.com/mhofer/billingsync/app/repository"
	"github.com/mhofer/billingsync/internal/pkg/billing"
	"github.com/mhofer/billingsync/internal/pkg/database"
	"github.com/mhofer/billingsync/internal/pkg/env"
	"gorm.io/gorm"
)

// HandleCheckout resolves the caller's billing identity and redirects to a
// provider-hosted checkout session. A failed resolution aborts the redirect:
// checkout must never proceed with an empty billing identity.
func HandleCheckout(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("product_id"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product_id"})
	}

	user, status, err := lookupRequestUser(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	client := billing.NewPolarClientFromEnv()
	resolver := billing.NewResolver(billing.NewRepository(database.GetDB()), client)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	customerID, err := resolver.Resolve(ctx, user.ID, user.Email)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "customer_resolution_failed"})
	}

	successURL := env.GetEnv("CHECKOUT_SUCCESS_URL", "/account")
	checkoutURL, err := client.CreateCheckout(ctx, productID, customerID, successURL)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "checkout_session_failed"})
	}

	return c.Redirect(checkoutURL, fiber.StatusSeeOther)
}

// HandleCustomerPortal redirects to the provider's customer portal for the
// caller's billing identity.
func HandleCustomerPortal(c *fiber.Ctx) error {
	user, status, err := lookupRequestUser(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	client := billing.NewPolarClientFromEnv()
	resolver := billing.NewResolver(billing.NewRepository(database.GetDB()), client)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	customerID, err := resolver.Resolve(ctx, user.ID, user.Email)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "customer_resolution_failed"})
	}

	portalURL, err := client.CreateCustomerPortal(ctx, customerID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "portal_session_failed"})
	}

	return c.Redirect(portalURL, fiber.StatusSeeOther)
}

// lookupRequestUser loads the user identified by the auth layer in front of
// this service (X-User-ID header, query fallback for local testing).
func lookupRequestUser(c *fiber.Ctx) (*models.User, int, error) {
	userID := strings.TrimSpace(c.Get("X-User-ID"))
	if userID == "" {
		userID = strings.TrimSpace(c.Query("user_id"))
	}
	if userID == "" {
		return nil, fiber.StatusUnauthorized, errors.New("missing_user_identity")
	}

	user, err := repository.NewUserRepository(database.GetDB()).GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.StatusNotFound, errors.New("unknown_user")
		}
		return nil, fiber.StatusInternalServerError, errors.New("user_lookup_failed")
	}
	return user, fiber.StatusOK, nil
}
