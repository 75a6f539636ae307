package models

import (
	"time"

	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractPending  ContractStatus = "pending"
	ContractAccepted ContractStatus = "accepted"
	ContractRejected ContractStatus = "rejected"
)

// Contract is the proposed agreement tied to a transaction. The recipient
// must be the counterparty of the creator on that transaction.
type Contract struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	TransactionID uint           `gorm:"not null;index" json:"transaction_id"`
	CreatorID     uint           `gorm:"not null;index" json:"creator_id"`
	RecipientID   uint           `gorm:"not null;index" json:"recipient_id"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	Terms         string         `gorm:"type:text" json:"terms,omitempty"`
	Status        ContractStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Transaction Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Creator     User        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Recipient   User        `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}
