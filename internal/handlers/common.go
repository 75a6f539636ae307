package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/database"
	"bharosepe/internal/lifecycle"
	"bharosepe/internal/models"
	"bharosepe/internal/realtime"
	"bharosepe/internal/services"
	"bharosepe/internal/store"
)

var validate = validator.New()

// notificationSink is what handlers need from the notification service:
// engine side-effect dispatch plus direct delivery for actions that happen
// outside the status machine.
type notificationSink interface {
	lifecycle.Dispatcher
	Notify(ctx context.Context, n models.Notification) error
	PublishDisputeMessage(recipients []uint, msg models.DisputeMessage)
}

var (
	applier  *lifecycle.Applier
	notifier notificationSink
	hub      *realtime.Hub
)

// InitLifecycle wires the state machine to the database and the realtime
// hub. Must run after database.Connect and InitEmailService.
func InitLifecycle(h *realtime.Hub) {
	hub = h
	notifier = services.NewNotificationService(h, emailService)
	applier = lifecycle.NewApplier(store.New(database.DB), notifier)
}

// notifyBestEffort delivers a notification built in a handler after its
// action has already committed. A build or dispatch failure never unwinds
// the action; it is logged and reported so the response can carry a
// warning. Returns true when the notification was delivered.
func notifyBestEffort(ctx context.Context, n models.Notification, buildErr error) bool {
	if buildErr != nil {
		log.Printf("⚠️  building notification failed: %v", buildErr)
		return false
	}
	if err := notifier.Notify(ctx, n); err != nil {
		log.Printf("⚠️  notification dispatch failed for user %d (%s): %v", n.UserID, n.Type, err)
		return false
	}
	return true
}

// currentUser loads the authenticated user set by the auth middleware.
func currentUser(c *fiber.Ctx) (models.User, error) {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return models.User{}, errors.New("missing authentication")
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// lifecycleError maps engine failures onto HTTP responses. Guard failures
// carry the engine's message so the client can see which state was expected;
// stale state tells the client to re-fetch and retry.
func lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	case errors.Is(err, lifecycle.ErrUnauthorizedActor):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to perform this action on this transaction",
		})
	case errors.Is(err, lifecycle.ErrInvalidGuard):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Action not valid in the transaction's current state",
			"detail": err.Error(),
		})
	case errors.Is(err, lifecycle.ErrStaleState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Transaction changed concurrently, refresh and retry",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Database error",
	})
}

// transitionResponse is the common success shape for lifecycle endpoints.
// A side-effect failure still returns success with a warning; the transition
// itself is committed.
func transitionResponse(c *fiber.Ctx, message string, res lifecycle.Result) error {
	body := fiber.Map{
		"message": message,
		"status":  res.Status,
	}
	if res.SideEffectErr != nil {
		body["warning"] = "Notification delivery failed, the action itself succeeded"
	}
	return c.JSON(body)
}
