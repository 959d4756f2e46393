package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mhofer/billingsync/internal/pkg/billing"
	"github.com/mhofer/billingsync/internal/pkg/database"
	"github.com/mhofer/billingsync/internal/pkg/env"
)

// HandleBillingWebhook is the webhook dispatcher: it records the delivery,
// verifies its signature and routes the decoded event to the reconciler.
// Deliveries are at-least-once and unordered. Redeliveries reuse the
// provider event id, so only events that already processed cleanly are
// acknowledged as duplicates; a delivery that failed (or never passed
// signature verification) is reprocessed, and failures return 5xx to
// trigger the next redelivery.
func HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventID := strings.TrimSpace(c.Get("webhook-id"))
	timestamp := strings.TrimSpace(c.Get("webhook-timestamp"))
	signature := strings.TrimSpace(c.Get("webhook-signature"))
	secret := env.GetEnv("POLAR_WEBHOOK_SECRET", "")

	repo := billing.NewRepository(database.GetDB())
	svc := billing.NewService(repo)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	eventType := webhookEventType(rawBody)
	signatureValid := billing.VerifyWebhookSignature(rawBody, eventID, timestamp, signature, secret)

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created && billing.EventSettled(stored) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if !billing.IsReconcilable(eventType) {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	event, err := billing.ParseEvent(stored.ProviderEventID, rawBody)
	if err != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	reconciler := billing.NewReconciler(repo, billing.NewPolarClientFromEnv())
	applyErr := reconciler.Apply(ctx, event)
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, applyErr)
	if applyErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_apply_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// webhookEventType peeks at the envelope type without decoding the full
// payload, so unknown and unparseable deliveries are still recorded.
func webhookEventType(body []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Type)
}
