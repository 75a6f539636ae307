package models

import (
	"time"

	"gorm.io/gorm"
)

type EscalationStatus string

const (
	EscalationPending    EscalationStatus = "pending"
	EscalationInProgress EscalationStatus = "in_progress"
	EscalationResolved   EscalationStatus = "resolved"
)

// Escalation is raised against a transaction when dispute resolution stalls.
// DisputeData is a point-in-time JSON copy of the dispute, its messages and
// its proposals captured at escalation time; it is never rewritten after
// creation, so later dispute activity does not leak into the arbiter's view.
type Escalation struct {
	ID              uint             `gorm:"primarykey" json:"id"`
	TransactionID   uint             `gorm:"not null;index" json:"transaction_id"`
	EscalatedBy     uint             `gorm:"not null;index" json:"escalated_by"`
	Reason          string           `gorm:"type:varchar(100);not null" json:"reason"`
	Notes           string           `gorm:"type:text" json:"notes,omitempty"`
	EvidenceFiles   []string         `gorm:"serializer:json" json:"evidence_files,omitempty"`
	DisputeData     string           `gorm:"type:jsonb" json:"dispute_data,omitempty"`
	Status          EscalationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AssignedTo      *uint            `gorm:"index" json:"assigned_to,omitempty"`
	ResolutionNotes string           `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`

	Transaction Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Escalator   User        `gorm:"foreignKey:EscalatedBy" json:"escalator,omitempty"`
	Assignee    *User       `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

func (Escalation) TableName() string {
	return "escalations"
}
