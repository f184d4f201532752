package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Taxpayer represents a tenant's client, subject to a recurring monthly
// fee. At least one of the two identifiers and at least one of
// (first+last name) or company name must be present; both rules are
// enforced at the handler layer. Identifier uniqueness is per tenant,
// hence the composite indexes. NULL identifiers do not collide.
type Taxpayer struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TenantID    uint            `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_national_id;uniqueIndex:idx_tenant_tax_id"`
	NationalID  *string         `json:"national_id,omitempty" gorm:"type:varchar(11);uniqueIndex:idx_tenant_national_id"`
	TaxID       *string         `json:"tax_id,omitempty" gorm:"type:varchar(10);uniqueIndex:idx_tenant_tax_id"`
	FirstName   string          `json:"first_name,omitempty" gorm:"type:varchar(100)"`
	LastName    string          `json:"last_name,omitempty" gorm:"type:varchar(100)"`
	CompanyName string          `json:"company_name,omitempty" gorm:"type:varchar(255)"`
	Email       string          `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone       string          `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Address     string          `json:"address,omitempty" gorm:"type:text"`
	MonthlyFee  decimal.Decimal `json:"monthly_fee" gorm:"type:numeric(12,2);not null"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Payments    []Payment          `json:"payments,omitempty" gorm:"foreignKey:TaxpayerID"`
	Charges     []ChargeItem       `json:"charges,omitempty" gorm:"foreignKey:TaxpayerID"`
	Credentials []PortalCredential `json:"credentials,omitempty" gorm:"foreignKey:TaxpayerID"`
	Notes       []Note             `json:"notes,omitempty" gorm:"foreignKey:TaxpayerID"`
}

// DisplayName returns the person name when present, the company name otherwise.
func (t *Taxpayer) DisplayName() string {
	if t.FirstName != "" || t.LastName != "" {
		if t.FirstName != "" && t.LastName != "" {
			return t.FirstName + " " + t.LastName
		}
		return t.FirstName + t.LastName
	}
	return t.CompanyName
}
