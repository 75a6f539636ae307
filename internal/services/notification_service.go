package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bharosepe/internal/database"
	"bharosepe/internal/models"
	"bharosepe/internal/realtime"
)

// NotificationService persists lifecycle notification side effects and
// pushes them onto the realtime change feed. It implements
// lifecycle.Dispatcher: a failed insert is reported to the caller for
// operator logging but never unwinds the state transition it follows.
type NotificationService struct {
	hub   *realtime.Hub
	email *EmailService
}

func NewNotificationService(hub *realtime.Hub, email *EmailService) *NotificationService {
	return &NotificationService{hub: hub, email: email}
}

// emailMirrored lists the notification types urgent enough to also reach
// the recipient's inbox.
func emailMirrored(t models.NotificationType) bool {
	switch t {
	case models.NotificationDisputeRaised,
		models.NotificationDisputeResolved,
		models.NotificationEscalationRaised:
		return true
	}
	return false
}

// Dispatch inserts each notification row, publishes it to the recipient's
// streams and mirrors urgent ones to email. Inserts are independent of each
// other; every failure is collected rather than aborting the batch.
func (s *NotificationService) Dispatch(ctx context.Context, notifications []models.Notification) error {
	var errs []error
	for i := range notifications {
		n := notifications[i]
		if err := database.DB.WithContext(ctx).Create(&n).Error; err != nil {
			errs = append(errs, fmt.Errorf("notification to user %d (%s): %w", n.UserID, n.Type, err))
			continue
		}

		s.hub.Publish(n.UserID, realtime.Event{Kind: "notification", Payload: n})

		if s.email != nil && emailMirrored(n.Type) {
			var recipient models.User
			if err := database.DB.WithContext(ctx).First(&recipient, n.UserID).Error; err == nil {
				if err := s.email.SendEventEmail(recipient.Email, n.Title, n.Message); err != nil {
					log.Printf("⚠️  email mirror for notification %d failed: %v", n.ID, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Notify dispatches a single notification built outside the engine
// (contract creation, proposal traffic).
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) error {
	return s.Dispatch(ctx, []models.Notification{n})
}

// PublishDisputeMessage pushes a freshly inserted chat message to both
// parties' streams. The row itself is already persisted by the handler.
func (s *NotificationService) PublishDisputeMessage(recipients []uint, msg models.DisputeMessage) {
	for _, userID := range recipients {
		s.hub.Publish(userID, realtime.Event{Kind: "dispute_message", Payload: msg})
	}
}
