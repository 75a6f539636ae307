package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationContractReceived NotificationType = "contract_received"
	NotificationContractAccepted NotificationType = "contract_accepted"
	NotificationContractRejected NotificationType = "contract_rejected"
	NotificationContractUpdated  NotificationType = "contract_updated"
	NotificationDisputeRaised    NotificationType = "dispute_raised"
	NotificationPaymentReceived  NotificationType = "payment_received"
	NotificationProposalCreated  NotificationType = "proposal_created"
	NotificationProposalAccepted NotificationType = "proposal_accepted"
	NotificationProposalRejected NotificationType = "proposal_rejected"
	NotificationWorkCompleted    NotificationType = "work_completed"
	NotificationFundsReleased    NotificationType = "funds_released"
	NotificationDisputeResolved  NotificationType = "dispute_resolved"
	NotificationEscalationRaised NotificationType = "escalation_raised"
)

// Notification is an addressed, typed, read/unread event record. Rows are
// created only as lifecycle side effects and mutated only by marking read.
// Data holds the per-type payload variant serialized to JSON.
type Notification struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	UserID        uint             `json:"user_id" gorm:"not null;index"`
	Type          NotificationType `json:"type" gorm:"type:varchar(50);not null"`
	Title         string           `json:"title" gorm:"type:varchar(255);not null"`
	Message       string           `json:"message" gorm:"type:text;not null"`
	ContractID    *uint            `json:"contract_id,omitempty" gorm:"index"`
	TransactionID *uint            `json:"transaction_id,omitempty" gorm:"index"`
	SenderID      *uint            `json:"sender_id,omitempty"`
	Data          string           `json:"data,omitempty" gorm:"type:json"`
	IsRead        bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt        *time.Time       `json:"read_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate hook
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return nil
}
