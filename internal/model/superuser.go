package model

import (
	"time"
)

// Superuser represents a top-level administrator who provisions tenant
// accounts. Self-registered tenants get a dedicated superuser as parent.
type Superuser struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100);not null"`
	Email        string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Tenants []Tenant `json:"tenants,omitempty" gorm:"foreignKey:SuperuserID"`
}
