package models

import (
	"time"

	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionCreated          TransactionStatus = "created"
	TransactionContractAccepted TransactionStatus = "contract_accepted"
	TransactionPaymentMade      TransactionStatus = "payment_made"
	TransactionWorkCompleted    TransactionStatus = "work_completed"
	TransactionCompleted        TransactionStatus = "completed"
	TransactionDisputed         TransactionStatus = "disputed"
	TransactionEscalated        TransactionStatus = "escalated"
	TransactionContractRejected TransactionStatus = "contract_rejected"
)

// Transaction is a single escrow deal between a buyer and a seller.
// Amounts are stored in whole rupees. Rows are soft deleted only; terminal
// statuses are retained for audit.
type Transaction struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	Reference    string            `gorm:"uniqueIndex;not null" json:"reference"`
	BuyerID      uint              `gorm:"not null;index" json:"buyer_id"`
	SellerID     uint              `gorm:"not null;index" json:"seller_id"`
	Title        string            `gorm:"not null" json:"title"`
	Description  string            `gorm:"type:text" json:"description,omitempty"`
	Amount       int64             `gorm:"not null" json:"amount"`
	DeliveryDate string            `json:"delivery_date,omitempty"`
	Status       TransactionStatus `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Buyer    User      `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller   User      `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Disputes []Dispute `gorm:"foreignKey:TransactionID" json:"disputes,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsParty reports whether userID is the buyer or the seller.
func (t *Transaction) IsParty(userID uint) bool {
	return t.BuyerID == userID || t.SellerID == userID
}

// Counterparty returns the other party relative to userID. The second
// return value is false when userID is neither buyer nor seller.
func (t *Transaction) Counterparty(userID uint) (uint, bool) {
	switch userID {
	case t.BuyerID:
		return t.SellerID, true
	case t.SellerID:
		return t.BuyerID, true
	}
	return 0, false
}

// Terminal reports whether no further engine transitions leave the status.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionEscalated || s == TransactionContractRejected
}
