package models

import "time"

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageFile  MessageType = "file"
	MessageImage MessageType = "image"
)

// DisputeMessage is an append-only chat message scoped to a dispute.
// Creation timestamp order is the canonical conversation order, so the row
// carries no update or delete columns.
type DisputeMessage struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	DisputeID   uint        `gorm:"not null;index" json:"dispute_id"`
	SenderID    uint        `gorm:"not null;index" json:"sender_id"`
	Body        string      `gorm:"type:text;not null" json:"body"`
	MessageType MessageType `gorm:"type:varchar(10);not null;default:'text'" json:"message_type"`
	FileURL     string      `gorm:"type:text" json:"file_url,omitempty"`
	FileName    string      `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (DisputeMessage) TableName() string {
	return "dispute_messages"
}
