package domain

import "time"

// Role identifies who authored a stored message.
type Role string

const (
	RoleUser Role = "user" // inbound message from a customer
	RoleHost Role = "host" // outbound auto-reply sent by us
)

// Email is one ingested or sent message. A row is immutable after insertion
// except for SessionID, which the retroactive merge may rewrite.
type Email struct {
	ID          uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	SenderEmail string    `json:"sender_email" gorm:"type:varchar(255);not null;index"`
	SessionID   string    `json:"session_id" gorm:"type:varchar(255);index"`
	MessageID   string    `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	InReplyTo   string    `json:"in_reply_to,omitempty" gorm:"type:varchar(255);index"`
	Subject     string    `json:"subject" gorm:"type:text"`
	SubjectNorm string    `json:"-" gorm:"type:varchar(512);index"`
	Body        string    `json:"body" gorm:"type:text"`
	Role        Role      `json:"role" gorm:"type:varchar(10);not null"`
	ReceivedAt  time.Time `json:"received_at"`
}

// TableName keeps the table name the read API and migrations agree on.
func (Email) TableName() string {
	return "emails"
}
