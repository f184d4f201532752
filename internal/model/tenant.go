package model

import (
	"time"
)

// Tenant represents an accounting-firm account, the unit of data
// isolation. Tenants are deactivated, never hard-deleted.
type Tenant struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SuperuserID      uint      `json:"superuser_id" gorm:"index;not null"`
	CompanyName      string    `json:"company_name" gorm:"type:varchar(255)"`
	Username         string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash     string    `json:"-" gorm:"type:varchar(100);not null"`
	Email            string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone            string    `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Address          string    `json:"address,omitempty" gorm:"type:text"`
	SubscriptionPlan string    `json:"subscription_plan,omitempty" gorm:"type:varchar(30)"`
	IsActive         bool      `json:"is_active" gorm:"default:true"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	Taxpayers []Taxpayer `json:"taxpayers,omitempty" gorm:"foreignKey:TenantID"`
}
