package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

// Payment records a gateway payment made against a transaction. It carries
// gateway references only; there is no ledger of balances behind it.
type Payment struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	TransactionID    uint           `gorm:"not null;index" json:"transaction_id"`
	PayerID          uint           `gorm:"not null;index" json:"payer_id"`
	Amount           int64          `gorm:"not null" json:"amount"`
	Reference        string         `gorm:"uniqueIndex;not null" json:"reference"`
	GatewayOrderID   string         `gorm:"type:varchar(100);index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string         `gorm:"type:varchar(100)" json:"gateway_payment_id,omitempty"`
	Status           PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	VerifiedAt       *time.Time     `json:"verified_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Transaction Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Payer       User        `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
