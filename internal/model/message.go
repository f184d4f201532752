package model

import (
	"time"
)

// MessageType classifies an outbound notification
type MessageType string

const (
	MessageTypePaymentReminder MessageType = "PAYMENT_REMINDER"
	MessageTypeFilingNotice    MessageType = "FILING_NOTICE"
	MessageTypeGeneral         MessageType = "GENERAL_MESSAGE"
)

// MessageStatus tracks delivery of an outbound notification
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "PENDING"
	MessageStatusSent    MessageStatus = "SENT"
	MessageStatusFailed  MessageStatus = "FAILED"
)

// Message records one outbound WhatsApp notification to a taxpayer.
// The row is written before dispatch and updated to SENT or FAILED
// depending on what the gateway reports.
type Message struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	TaxpayerID    uint          `json:"taxpayer_id" gorm:"index;not null"`
	TenantID      uint          `json:"tenant_id" gorm:"index;not null"`
	Type          MessageType   `json:"type" gorm:"type:varchar(30);not null"`
	Content       string        `json:"content" gorm:"type:text;not null"`
	AttachmentRef string        `json:"attachment_ref,omitempty" gorm:"type:text"`
	Status        MessageStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	SentAt        *time.Time    `json:"sent_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`

	// Relations
	Taxpayer *Taxpayer `json:"taxpayer,omitempty" gorm:"foreignKey:TaxpayerID"`
}
