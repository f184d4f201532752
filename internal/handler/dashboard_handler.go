package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hakancineli/smmmm/internal/ledger"
	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/prometheus"
)

// Dashboard aggregates the tenant's position: taxpayer counts, total
// outstanding debt, overdue counts and a 12-month collected-amount
// series for charting.
func Dashboard(c echo.Context) error {
	claims := mustSubject(c)
	db := database.GetDB()

	var totalTaxpayers, activeTaxpayers int64
	db.Model(&model.Taxpayer{}).Where("tenant_id = ?", claims.SubjectID).Count(&totalTaxpayers)
	db.Model(&model.Taxpayer{}).Where("tenant_id = ? AND is_active = ?", claims.SubjectID, true).Count(&activeTaxpayers)

	var taxpayers []model.Taxpayer
	defer prometheus.TrackDBOperation("query")(time.Now())
	err := db.Where("tenant_id = ? AND is_active = ?", claims.SubjectID, true).
		Preload("Payments").
		Preload("Charges").
		Find(&taxpayers).Error
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to load dashboard data")
	}

	now := time.Now()
	totalDebt := decimal.Zero
	overdueTaxpayers := 0
	unpaidPeriods := 0
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
		totalDebt = totalDebt.Add(balance.TotalDebt)
		unpaidPeriods += balance.UnpaidPeriods
		if balance.UnpaidPeriods > 0 {
			overdueTaxpayers++
		}
	}

	// Collected amounts per billing period over the last 12 months
	type monthPoint struct {
		Year      int             `json:"year"`
		Month     int             `json:"month"`
		Collected decimal.Decimal `json:"collected"`
	}
	series := make([]monthPoint, 0, 12)
	y, m := now.Year(), int(now.Month())
	for i := 0; i < 12; i++ {
		series = append(series, monthPoint{Year: y, Month: m, Collected: decimal.Zero})
		m--
		if m < 1 {
			m = 12
			y--
		}
	}
	var paid []model.Payment
	db.Where("tenant_id = ? AND status = ?", claims.SubjectID, model.PaymentStatusPaid).Find(&paid)
	monthRevenue := decimal.Zero
	yearRevenue := decimal.Zero
	for _, p := range paid {
		if p.Year == now.Year() {
			yearRevenue = yearRevenue.Add(p.Amount)
			if p.Month == int(now.Month()) {
				monthRevenue = monthRevenue.Add(p.Amount)
			}
		}
		for i := range series {
			if series[i].Year == p.Year && series[i].Month == p.Month {
				series[i].Collected = series[i].Collected.Add(p.Amount)
				break
			}
		}
	}

	statusCounts := map[string]int64{}
	for _, status := range []model.PaymentStatus{
		model.PaymentStatusPending, model.PaymentStatusPaid,
		model.PaymentStatusOverdue, model.PaymentStatusCancelled,
	} {
		var n int64
		db.Model(&model.Payment{}).Where("tenant_id = ? AND status = ?", claims.SubjectID, status).Count(&n)
		statusCounts[string(status)] = n
	}

	return c.JSON(http.StatusOK, echo.Map{
		"taxpayers": echo.Map{
			"total":   totalTaxpayers,
			"active":  activeTaxpayers,
			"overdue": overdueTaxpayers,
		},
		"debt": echo.Map{
			"total":          totalDebt,
			"unpaid_periods": unpaidPeriods,
		},
		"payments_by_status": statusCounts,
		"revenue": echo.Map{
			"current_month": monthRevenue,
			"current_year":  yearRevenue,
		},
		"monthly_collected": series,
	})
}
