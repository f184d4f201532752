package model

import (
	"time"
)

// Platform identifies a third-party government portal
type Platform string

const (
	PlatformEArsivPortal Platform = "EARSIV_PORTAL"
	PlatformDijitalGIB   Platform = "DIJITAL_GIB"
	PlatformIstanbulGIB  Platform = "ISTANBUL_GIB"
)

// PortalCredential stores third-party portal login material for a
// taxpayer. The password is AES-GCM encrypted at rest and is never
// returned by any read endpoint; responses only carry a has_password
// flag. One credential per (taxpayer, platform).
type PortalCredential struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	TaxpayerID        uint      `json:"taxpayer_id" gorm:"not null;uniqueIndex:idx_taxpayer_platform"`
	TenantID          uint      `json:"tenant_id" gorm:"index;not null"`
	Platform          Platform  `json:"platform" gorm:"type:varchar(30);not null;uniqueIndex:idx_taxpayer_platform"`
	Username          string    `json:"username,omitempty" gorm:"type:varchar(100)"`
	PasswordEncrypted string    `json:"-" gorm:"type:text;not null"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Taxpayer *Taxpayer `json:"taxpayer,omitempty" gorm:"foreignKey:TaxpayerID"`
}
