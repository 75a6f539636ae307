package models

import (
	"time"
)

type ProposalType string

const (
	ProposalReleaseFull    ProposalType = "release_full"
	ProposalReleasePartial ProposalType = "release_partial"
	ProposalRefundFull     ProposalType = "refund_full"
	ProposalRefundPartial  ProposalType = "refund_partial"
)

type ProposalStatus string

const (
	ProposalProposed       ProposalStatus = "proposed"
	ProposalAcceptedStatus ProposalStatus = "accepted"
	ProposalRejectedStatus ProposalStatus = "rejected"
)

// DisputeProposal is a structured settlement offer inside a dispute.
// Acceptance by the counterparty deterministically computes the dispute's
// apportionment and drives the resolution of the transaction.
type DisputeProposal struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	DisputeID   uint           `gorm:"not null;index" json:"dispute_id"`
	ProposedBy  uint           `gorm:"not null;index" json:"proposed_by"`
	Type        ProposalType   `gorm:"type:varchar(20);not null" json:"type"`
	Amount      int64          `gorm:"not null" json:"amount"`
	Status      ProposalStatus `gorm:"type:varchar(10);not null;default:'proposed'" json:"status"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Proposer User `gorm:"foreignKey:ProposedBy" json:"proposer,omitempty"`
}

func (DisputeProposal) TableName() string {
	return "dispute_proposals"
}
