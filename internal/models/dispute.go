package models

import (
	"time"

	"gorm.io/gorm"
)

type DisputeStatus string

const (
	DisputeActive    DisputeStatus = "active"
	DisputeResolved  DisputeStatus = "resolved"
	DisputeEscalated DisputeStatus = "escalated"
)

// Dispute is opened against exactly one transaction. At most one active
// dispute may exist per transaction; the store keeps a partial unique index
// on (transaction_id) WHERE status = 'active' to back the engine guard.
type Dispute struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	TransactionID   uint           `gorm:"not null;index" json:"transaction_id"`
	RaisedBy        uint           `gorm:"not null;index" json:"raised_by"`
	Reason          string         `gorm:"type:varchar(100);not null" json:"reason"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	EvidenceFiles   []string       `gorm:"serializer:json" json:"evidence_files,omitempty"`
	Status          DisputeStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	ResolutionNotes string         `gorm:"type:text" json:"resolution_notes,omitempty"`
	BuyerRefund     int64          `json:"buyer_refund"`
	SellerRelease   int64          `json:"seller_release"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Transaction Transaction       `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Raiser      User              `gorm:"foreignKey:RaisedBy" json:"raiser,omitempty"`
	Messages    []DisputeMessage  `gorm:"foreignKey:DisputeID" json:"messages,omitempty"`
	Proposals   []DisputeProposal `gorm:"foreignKey:DisputeID" json:"proposals,omitempty"`
}

func (Dispute) TableName() string {
	return "disputes"
}
