package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeStatus represents the status of an ad-hoc charge item
type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusPaid      ChargeStatus = "PAID"
	ChargeStatusCancelled ChargeStatus = "CANCELLED"
)

// ChargeItem is a one-off billable amount outside the monthly-fee cycle,
// e.g. a penalty or a service fee. It contributes to the outstanding
// balance only while PENDING.
type ChargeItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TaxpayerID uint            `json:"taxpayer_id" gorm:"index;not null"`
	TenantID   uint            `json:"tenant_id" gorm:"index;not null"`
	Title      string          `json:"title" gorm:"type:varchar(255);not null"`
	Type       string          `json:"type,omitempty" gorm:"type:varchar(50)"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Status     ChargeStatus    `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
	Notes      string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Relations
	Taxpayer *Taxpayer `json:"taxpayer,omitempty" gorm:"foreignKey:TaxpayerID"`
}
