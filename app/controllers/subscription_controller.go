package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/mhofer/billingsync/app/repository"
	"github.com/mhofer/billingsync/internal/pkg/billing"
	"github.com/mhofer/billingsync/internal/pkg/cache"
	"github.com/mhofer/billingsync/internal/pkg/database"
	"gorm.io/gorm"
)

const subscriptionStatusCacheTTL = 60 * time.Second

type subscriptionStatusRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
}

var requestValidator = validator.New()

// HandleSubscriptionStatus reports whether a user holds an active
// subscription for a product. The billing identity is resolved first (and
// created if missing), then the provider is asked for active subscriptions.
// Results are cached briefly since the provider call is the slow part.
func HandleSubscriptionStatus(c *fiber.Ctx) error {
	var req subscriptionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request_body"})
	}
	if err := requestValidator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing user_id or product_id"})
	}

	cacheKey := fmt.Sprintf("subscription_status:%s:%s", req.UserID, req.ProductID)
	if cached, err := cache.Get(cacheKey); err == nil {
		return c.JSON(fiber.Map{"is_subscribed": cached == "1"})
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	user, err := userRepo.GetByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_user"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	client := billing.NewPolarClientFromEnv()
	resolver := billing.NewResolver(billing.NewRepository(db), client)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	customerID, err := resolver.Resolve(ctx, user.ID, user.Email)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "customer_resolution_failed"})
	}

	subscribed, err := client.HasActiveSubscription(ctx, customerID, req.ProductID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}

	cachedValue := "0"
	if subscribed {
		cachedValue = "1"
	}
	_ = cache.Set(cacheKey, cachedValue, subscriptionStatusCacheTTL)

	return c.JSON(fiber.Map{"is_subscribed": subscribed})
}
