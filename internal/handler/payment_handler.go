package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/internal/ledger"
	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

func validPeriod(year, month int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12
}

// ListPayments lists a taxpayer's payment rows. When a concrete period
// is selected and no row exists for it, a virtual entry is synthesized
// so the caller always sees the period's state.
func ListPayments(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	db := database.GetDB()
	query := db.Model(&model.Payment{}).Where("taxpayer_id = ?", tp.ID)

	year, _ := strconv.Atoi(c.QueryParam("year"))
	month, _ := strconv.Atoi(c.QueryParam("month"))
	if year > 0 {
		query = query.Where("year = ?", year)
	}
	if month > 0 {
		query = query.Where("month = ?", month)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}

	p := parsePagination(c)
	var total int64
	query.Count(&total)

	var payments []model.Payment
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Order("year DESC, month DESC").Offset(p.offset()).Limit(p.Limit).Find(&payments).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list payments")
	}

	resp := echo.Map{
		"payments":   payments,
		"pagination": paginationMeta(p, total),
	}

	if validPeriod(year, month) {
		var all []model.Payment
		db.Where("taxpayer_id = ?", tp.ID).Find(&all)
		in := ledger.Input{
			TaxpayerID: tp.ID,
			MonthlyFee: tp.MonthlyFee,
			CreatedAt:  tp.CreatedAt,
			Payments:   all,
		}
		resp["period"] = ledger.PeriodEntry(in, year, month, time.Now())
	}

	return c.JSON(http.StatusOK, resp)
}

type paymentRequest struct {
	Year   int              `json:"year"`
	Month  int              `json:"month"`
	Amount *decimal.Decimal `json:"amount"`
	Status string           `json:"status"`
	Notes  string           `json:"notes"`
}

// CreatePayment records a payment row for one period. The unique index
// on (taxpayer_id, year, month) turns a concurrent duplicate into a
// conflict instead of a second row.
func CreatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if !validPeriod(req.Year, req.Month) {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid year or month")
	}
	if req.Amount == nil || req.Amount.Sign() < 0 {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "amount must be a non-negative number")
	}

	status := model.PaymentStatusPaid
	if req.Status != "" {
		switch model.PaymentStatus(strings.ToUpper(req.Status)) {
		case model.PaymentStatusPending, model.PaymentStatusPaid, model.PaymentStatusOverdue, model.PaymentStatusCancelled:
			status = model.PaymentStatus(strings.ToUpper(req.Status))
		default:
			return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid status")
		}
	}

	db := database.GetDB()

	payment := model.Payment{
		TaxpayerID: tp.ID,
		TenantID:   claims.SubjectID,
		Year:       req.Year,
		Month:      req.Month,
		Amount:     *req.Amount,
		Status:     status,
		Notes:      req.Notes,
	}
	if status == model.PaymentStatusPaid {
		now := time.Now()
		payment.PaymentDate = &now
	}

	// a CANCELLED row counts as absent but still occupies the period's
	// unique index slot, so it is recycled instead of inserted over
	var prior model.Payment
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Where("taxpayer_id = ? AND year = ? AND month = ?", tp.ID, req.Year, req.Month).First(&prior).Error; err == nil {
		if prior.Status != model.PaymentStatusCancelled {
			return errorJSON(c, http.StatusConflict, codeConflict, "a payment for this period already exists")
		}
		payment.ID = prior.ID
		payment.CreatedAt = prior.CreatedAt
		if err := db.Save(&payment).Error; err != nil {
			log.Error("Failed to record payment", zap.Error(err))
			return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "payment could not be recorded")
		}
		prometheus.RecordOperation("payment", "create")
		return c.JSON(http.StatusCreated, payment)
	}

	if err := db.Create(&payment).Error; err != nil {
		log.Warn("Payment insert rejected", zap.Error(err),
			zap.Uint("taxpayer_id", tp.ID), zap.Int("year", req.Year), zap.Int("month", req.Month))
		return errorJSON(c, http.StatusConflict, codeConflict, "a payment for this period already exists")
	}

	prometheus.RecordOperation("payment", "create")
	return c.JSON(http.StatusCreated, payment)
}

// UpdatePayment changes a payment row's amount, status or notes.
// Transitioning to PAID stamps the payment date; leaving PAID clears it.
func UpdatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	var payment model.Payment
	db := database.GetDB()
	err := db.Where("id = ? AND tenant_id = ?", c.Param("paymentId"), claims.SubjectID).First(&payment).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "payment not found")
	}

	var req struct {
		Amount *decimal.Decimal `json:"amount"`
		Status *string          `json:"status"`
		Notes  *string          `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}

	if req.Amount != nil {
		if req.Amount.Sign() < 0 {
			return errorJSON(c, http.StatusBadRequest, codeValidation, "amount must be a non-negative number")
		}
		payment.Amount = *req.Amount
	}
	if req.Notes != nil {
		payment.Notes = *req.Notes
	}
	if req.Status != nil {
		next := model.PaymentStatus(strings.ToUpper(*req.Status))
		switch next {
		case model.PaymentStatusPending, model.PaymentStatusPaid, model.PaymentStatusOverdue, model.PaymentStatusCancelled:
		default:
			return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid status")
		}
		if next == model.PaymentStatusPaid && payment.Status != model.PaymentStatusPaid {
			now := time.Now()
			payment.PaymentDate = &now
		}
		if next != model.PaymentStatusPaid {
			payment.PaymentDate = nil
		}
		payment.Status = next
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&payment).Error; err != nil {
		log.Error("Failed to update payment", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "update failed")
	}

	prometheus.RecordOperation("payment", "update")
	return c.JSON(http.StatusOK, payment)
}

// MarkPeriodPaid settles one billing period. With no existing row the
// remainder is recorded as a PAID row; with a partially paid row the
// difference is topped up so the period's paid total reaches the fee.
// An explicit amount or date in the body overrides the defaults.
func MarkPeriodPaid(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	year, _ := strconv.Atoi(c.Param("year"))
	month, _ := strconv.Atoi(c.Param("month"))
	if !validPeriod(year, month) {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid year or month")
	}

	var req struct {
		Amount      *decimal.Decimal `json:"amount"`
		PaymentDate *time.Time       `json:"payment_date"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if req.Amount != nil && req.Amount.Sign() < 0 {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "amount must be a non-negative number")
	}

	db := database.GetDB()

	var all []model.Payment
	db.Where("taxpayer_id = ?", tp.ID).Find(&all)
	in := ledger.Input{
		TaxpayerID: tp.ID,
		MonthlyFee: tp.MonthlyFee,
		CreatedAt:  tp.CreatedAt,
		Payments:   all,
	}

	settle := ledger.Remaining(in, year, month)
	if req.Amount != nil {
		settle = *req.Amount
	}
	now := time.Now()
	paidAt := &now
	if req.PaymentDate != nil {
		paidAt = req.PaymentDate
	}

	// a CANCELLED row counts as absent for resolution, but it still holds
	// the period's unique index slot and must be recycled, not inserted over
	var existing, cancelled *model.Payment
	for i := range all {
		p := &all[i]
		if p.Year != year || p.Month != month {
			continue
		}
		if p.Status != model.PaymentStatusCancelled {
			existing = p
			break
		}
		cancelled = p
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if existing != nil {
		if settle.Sign() == 0 && existing.Status == model.PaymentStatusPaid {
			return c.JSON(http.StatusOK, existing)
		}
		if existing.Status == model.PaymentStatusPaid {
			// partially paid period: top up the same row instead of a second insert
			existing.Amount = existing.Amount.Add(settle)
		} else {
			existing.Amount = settle
		}
		existing.Status = model.PaymentStatusPaid
		existing.PaymentDate = paidAt
		if err := db.Save(existing).Error; err != nil {
			log.Error("Failed to settle period", zap.Error(err))
			return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "settlement failed")
		}
		prometheus.RecordOperation("payment", "settle")
		return c.JSON(http.StatusOK, existing)
	}

	if cancelled != nil {
		cancelled.Amount = settle
		cancelled.Status = model.PaymentStatusPaid
		cancelled.PaymentDate = paidAt
		if err := db.Save(cancelled).Error; err != nil {
			log.Error("Failed to settle period", zap.Error(err))
			return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "settlement failed")
		}
		prometheus.RecordOperation("payment", "settle")
		return c.JSON(http.StatusOK, cancelled)
	}

	payment := model.Payment{
		TaxpayerID:  tp.ID,
		TenantID:    claims.SubjectID,
		Year:        year,
		Month:       month,
		Amount:      settle,
		Status:      model.PaymentStatusPaid,
		PaymentDate: paidAt,
	}
	if err := db.Create(&payment).Error; err != nil {
		log.Warn("Concurrent settlement detected", zap.Error(err),
			zap.Uint("taxpayer_id", tp.ID), zap.Int("year", year), zap.Int("month", month))
		return errorJSON(c, http.StatusConflict, codeConflict, "a payment for this period already exists")
	}

	prometheus.RecordOperation("payment", "settle")
	return c.JSON(http.StatusCreated, payment)
}
