package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

// ListCharges lists a taxpayer's charge items, optionally by status
func ListCharges(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	query := database.GetDB().Model(&model.ChargeItem{}).Where("taxpayer_id = ?", tp.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}

	var charges []model.ChargeItem
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Order("created_at DESC").Find(&charges).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list charges")
	}
	return c.JSON(http.StatusOK, echo.Map{"charges": charges})
}

// CreateCharge records a one-off billable amount on a taxpayer
func CreateCharge(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var req struct {
		Title   string           `json:"title"`
		Type    string           `json:"type"`
		Amount  *decimal.Decimal `json:"amount"`
		DueDate *time.Time       `json:"due_date"`
		Notes   string           `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "title is required")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "amount must be a positive number")
	}

	charge := model.ChargeItem{
		TaxpayerID: tp.ID,
		TenantID:   claims.SubjectID,
		Title:      req.Title,
		Type:       req.Type,
		Amount:     *req.Amount,
		Status:     model.ChargeStatusPending,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&charge).Error; err != nil {
		log.Error("Failed to create charge", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "charge could not be created")
	}

	prometheus.RecordOperation("charge", "create")
	return c.JSON(http.StatusCreated, charge)
}

// UpdateCharge changes a charge's fields or moves it between PENDING,
// PAID and CANCELLED. Only PENDING charges count toward debt.
func UpdateCharge(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	var charge model.ChargeItem
	db := database.GetDB()
	err := db.Where("id = ? AND tenant_id = ?", c.Param("chargeId"), claims.SubjectID).First(&charge).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "charge not found")
	}

	var req struct {
		Title   *string          `json:"title"`
		Type    *string          `json:"type"`
		Amount  *decimal.Decimal `json:"amount"`
		Status  *string          `json:"status"`
		DueDate *time.Time       `json:"due_date"`
		Notes   *string          `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return errorJSON(c, http.StatusBadRequest, codeValidation, "title is required")
		}
		charge.Title = *req.Title
	}
	if req.Type != nil {
		charge.Type = *req.Type
	}
	if req.Amount != nil {
		if req.Amount.Sign() <= 0 {
			return errorJSON(c, http.StatusBadRequest, codeValidation, "amount must be a positive number")
		}
		charge.Amount = *req.Amount
	}
	if req.DueDate != nil {
		charge.DueDate = req.DueDate
	}
	if req.Notes != nil {
		charge.Notes = *req.Notes
	}
	if req.Status != nil {
		next := model.ChargeStatus(strings.ToUpper(*req.Status))
		switch next {
		case model.ChargeStatusPending, model.ChargeStatusPaid, model.ChargeStatusCancelled:
			charge.Status = next
		default:
			return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid status")
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&charge).Error; err != nil {
		log.Error("Failed to update charge", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "update failed")
	}

	prometheus.RecordOperation("charge", "update")
	return c.JSON(http.StatusOK, charge)
}

// DeleteCharge cancels a charge item; it stops counting toward debt but
// stays in the history.
func DeleteCharge(c echo.Context) error {
	claims := mustSubject(c)

	var charge model.ChargeItem
	db := database.GetDB()
	err := db.Where("id = ? AND tenant_id = ?", c.Param("chargeId"), claims.SubjectID).First(&charge).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "charge not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Model(&charge).Update("status", model.ChargeStatusCancelled).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "cancellation failed")
	}

	prometheus.RecordOperation("charge", "cancel")
	return c.JSON(http.StatusOK, echo.Map{"message": "charge cancelled"})
}
