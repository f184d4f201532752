package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/internal/identity"
	"github.com/hakancineli/smmmm/internal/ledger"
	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

type taxpayerRequest struct {
	NationalID  *string          `json:"national_id"`
	TaxID       *string          `json:"tax_id"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	CompanyName string           `json:"company_name"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	Address     string           `json:"address"`
	MonthlyFee  *decimal.Decimal `json:"monthly_fee"`
}

func (r *taxpayerRequest) normalize() {
	if r.NationalID != nil {
		trimmed := strings.TrimSpace(*r.NationalID)
		if trimmed == "" {
			r.NationalID = nil
		} else {
			r.NationalID = &trimmed
		}
	}
	if r.TaxID != nil {
		trimmed := strings.TrimSpace(*r.TaxID)
		if trimmed == "" {
			r.TaxID = nil
		} else {
			r.TaxID = &trimmed
		}
	}
}

func (r *taxpayerRequest) validate() string {
	if r.NationalID == nil && r.TaxID == nil {
		return "a national id or a tax id is required"
	}
	if r.NationalID != nil && !identity.ValidateNationalID(*r.NationalID) {
		return "invalid national id"
	}
	if r.TaxID != nil && !identity.ValidateTaxID(*r.TaxID) {
		return "invalid tax id"
	}
	if (r.FirstName == "" || r.LastName == "") && r.CompanyName == "" {
		return "a first and last name or a company name is required"
	}
	if r.MonthlyFee != nil && r.MonthlyFee.Sign() < 0 {
		return "monthly fee cannot be negative"
	}
	return ""
}

// taxpayerForTenant loads one taxpayer scoped to the tenant. A row
// belonging to another tenant is indistinguishable from a missing one.
func taxpayerForTenant(tenantID uint, id string) (*model.Taxpayer, error) {
	var tp model.Taxpayer
	err := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&tp).Error
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

// CreateTaxpayer registers a taxpayer under the calling tenant
func CreateTaxpayer(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	var req taxpayerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	req.normalize()
	if msg := req.validate(); msg != "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, msg)
	}

	db := database.GetDB()

	var count int64
	if req.NationalID != nil {
		db.Model(&model.Taxpayer{}).
			Where("tenant_id = ? AND national_id = ?", claims.SubjectID, *req.NationalID).
			Count(&count)
		if count > 0 {
			return errorJSON(c, http.StatusConflict, codeConflict, "national id is already registered")
		}
	}
	if req.TaxID != nil {
		db.Model(&model.Taxpayer{}).
			Where("tenant_id = ? AND tax_id = ?", claims.SubjectID, *req.TaxID).
			Count(&count)
		if count > 0 {
			return errorJSON(c, http.StatusConflict, codeConflict, "tax id is already registered")
		}
	}

	fee := decimal.Zero
	if req.MonthlyFee != nil {
		fee = *req.MonthlyFee
	}

	tp := model.Taxpayer{
		TenantID:    claims.SubjectID,
		NationalID:  req.NationalID,
		TaxID:       req.TaxID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		MonthlyFee:  fee,
		IsActive:    true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Create(&tp).Error; err != nil {
		log.Error("Failed to create taxpayer", zap.Error(err))
		return errorJSON(c, http.StatusConflict, codeConflict, "taxpayer could not be created")
	}

	prometheus.RecordOperation("taxpayer", "create")
	log.Info("Taxpayer created", zap.Uint("taxpayer_id", tp.ID), zap.Uint("tenant_id", claims.SubjectID))
	return c.JSON(http.StatusCreated, tp)
}

// ListTaxpayers lists the tenant's taxpayers with search and activity
// filters, each row augmented with its outstanding balance.
func ListTaxpayers(c echo.Context) error {
	claims := mustSubject(c)
	p := parsePagination(c)

	db := database.GetDB()
	query := db.Model(&model.Taxpayer{}).Where("tenant_id = ?", claims.SubjectID)

	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR company_name ILIKE ? OR national_id LIKE ? OR tax_id LIKE ?",
			like, like, like, like, like)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	query.Count(&total)

	var taxpayers []model.Taxpayer
	defer prometheus.TrackDBOperation("query")(time.Now())
	err := query.
		Preload("Payments").
		Preload("Charges").
		Order("created_at DESC").
		Offset(p.offset()).Limit(p.Limit).
		Find(&taxpayers).Error
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list taxpayers")
	}

	now := time.Now()
	rows := make([]echo.Map, 0, len(taxpayers))
	for i := range taxpayers {
		tp := &taxpayers[i]
		in := ledger.Input{
			TaxpayerID: tp.ID,
			MonthlyFee: tp.MonthlyFee,
			CreatedAt:  tp.CreatedAt,
			Payments:   tp.Payments,
			Charges:    tp.Charges,
		}
		balance := ledger.Outstanding(in, now)
		rows = append(rows, echo.Map{
			"taxpayer":       tp,
			"display_name":   tp.DisplayName(),
			"balance":        balance,
			"current_status": ledger.PeriodStatus(in, now.Year(), int(now.Month()), now),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"taxpayers":  rows,
		"pagination": paginationMeta(p, total),
	})
}

// GetTaxpayer returns one taxpayer with its outstanding balance
func GetTaxpayer(c echo.Context) error {
	claims := mustSubject(c)

	var tp model.Taxpayer
	defer prometheus.TrackDBOperation("query")(time.Now())
	err := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), claims.SubjectID).
		Preload("Payments").
		Preload("Charges").
		Preload("Notes").
		First(&tp).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	now := time.Now()
	balance := ledger.Outstanding(ledger.Input{
		TaxpayerID: tp.ID,
		MonthlyFee: tp.MonthlyFee,
		CreatedAt:  tp.CreatedAt,
		Payments:   tp.Payments,
		Charges:    tp.Charges,
	}, now)

	return c.JSON(http.StatusOK, echo.Map{
		"taxpayer":     tp,
		"display_name": tp.DisplayName(),
		"balance":      balance,
	})
}

// UpdateTaxpayer updates mutable fields. Identifier changes re-run the
// checksum validation and the per-tenant uniqueness check.
func UpdateTaxpayer(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var req struct {
		NationalID  *string          `json:"national_id"`
		TaxID       *string          `json:"tax_id"`
		FirstName   *string          `json:"first_name"`
		LastName    *string          `json:"last_name"`
		CompanyName *string          `json:"company_name"`
		Email       *string          `json:"email"`
		Phone       *string          `json:"phone"`
		Address     *string          `json:"address"`
		MonthlyFee  *decimal.Decimal `json:"monthly_fee"`
		IsActive    *bool            `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}

	db := database.GetDB()

	if req.NationalID != nil {
		nid := strings.TrimSpace(*req.NationalID)
		if nid == "" {
			tp.NationalID = nil
		} else {
			if !identity.ValidateNationalID(nid) {
				return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid national id")
			}
			var count int64
			db.Model(&model.Taxpayer{}).
				Where("tenant_id = ? AND national_id = ? AND id <> ?", claims.SubjectID, nid, tp.ID).
				Count(&count)
			if count > 0 {
				return errorJSON(c, http.StatusConflict, codeConflict, "national id is already registered")
			}
			tp.NationalID = &nid
		}
	}
	if req.TaxID != nil {
		tid := strings.TrimSpace(*req.TaxID)
		if tid == "" {
			tp.TaxID = nil
		} else {
			if !identity.ValidateTaxID(tid) {
				return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid tax id")
			}
			var count int64
			db.Model(&model.Taxpayer{}).
				Where("tenant_id = ? AND tax_id = ? AND id <> ?", claims.SubjectID, tid, tp.ID).
				Count(&count)
			if count > 0 {
				return errorJSON(c, http.StatusConflict, codeConflict, "tax id is already registered")
			}
			tp.TaxID = &tid
		}
	}
	if req.FirstName != nil {
		tp.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		tp.LastName = *req.LastName
	}
	if req.CompanyName != nil {
		tp.CompanyName = *req.CompanyName
	}
	if req.Email != nil {
		tp.Email = *req.Email
	}
	if req.Phone != nil {
		tp.Phone = *req.Phone
	}
	if req.Address != nil {
		tp.Address = *req.Address
	}
	if req.MonthlyFee != nil {
		if req.MonthlyFee.Sign() < 0 {
			return errorJSON(c, http.StatusBadRequest, codeValidation, "monthly fee cannot be negative")
		}
		tp.MonthlyFee = *req.MonthlyFee
	}
	if req.IsActive != nil {
		tp.IsActive = *req.IsActive
	}

	if tp.NationalID == nil && tp.TaxID == nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "a national id or a tax id is required")
	}
	if (tp.FirstName == "" || tp.LastName == "") && tp.CompanyName == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "a first and last name or a company name is required")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(tp).Error; err != nil {
		log.Error("Failed to update taxpayer", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "update failed")
	}

	prometheus.RecordOperation("taxpayer", "update")
	return c.JSON(http.StatusOK, tp)
}

// DeleteTaxpayer soft-deletes by flipping is_active; history stays
func DeleteTaxpayer(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(tp).Update("is_active", false).Error; err != nil {
		log.Error("Failed to deactivate taxpayer", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "deactivation failed")
	}

	prometheus.RecordOperation("taxpayer", "deactivate")
	log.Info("Taxpayer deactivated", zap.Uint("taxpayer_id", tp.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "taxpayer deactivated"})
}
