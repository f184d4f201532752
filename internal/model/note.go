package model

import (
	"time"
)

// Note is a free-text annotation on a taxpayer with a done flag
type Note struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TaxpayerID uint      `json:"taxpayer_id" gorm:"index;not null"`
	TenantID   uint      `json:"tenant_id" gorm:"index;not null"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	IsDone     bool      `json:"is_done" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
