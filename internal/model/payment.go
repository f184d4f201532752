package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a monthly fee payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusOverdue   PaymentStatus = "OVERDUE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment is a recorded ledger entry for one billing period. The unique
// index on (taxpayer_id, year, month) guarantees at most one row per
// period; a concurrent duplicate insert fails at the storage layer.
// TenantID is denormalized for tenant-scoped queries.
type Payment struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TaxpayerID  uint            `json:"taxpayer_id" gorm:"not null;uniqueIndex:idx_taxpayer_period"`
	TenantID    uint            `json:"tenant_id" gorm:"index;not null"`
	Year        int             `json:"year" gorm:"not null;uniqueIndex:idx_taxpayer_period"`
	Month       int             `json:"month" gorm:"not null;uniqueIndex:idx_taxpayer_period"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Status      PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	Notes       string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Taxpayer *Taxpayer `json:"taxpayer,omitempty" gorm:"foreignKey:TaxpayerID"`
}
