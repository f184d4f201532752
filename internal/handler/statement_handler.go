package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hakancineli/smmmm/internal/ledger"
	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/prometheus"
)

// buildLedgerInput assembles everything the resolution engine needs for
// one taxpayer from storage.
func buildLedgerInput(tp *model.Taxpayer) (ledger.Input, error) {
	db := database.GetDB()

	var payments []model.Payment
	if err := db.Where("taxpayer_id = ?", tp.ID).Find(&payments).Error; err != nil {
		return ledger.Input{}, err
	}
	var charges []model.ChargeItem
	if err := db.Where("taxpayer_id = ?", tp.ID).Find(&charges).Error; err != nil {
		return ledger.Input{}, err
	}

	return ledger.Input{
		TaxpayerID: tp.ID,
		MonthlyFee: tp.MonthlyFee,
		CreatedAt:  tp.CreatedAt,
		Payments:   payments,
		Charges:    charges,
	}, nil
}

// GetStatement resolves the full period listing and outstanding balance
// for one taxpayer, newest period first.
func GetStatement(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	in, err := buildLedgerInput(tp)
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to load statement data")
	}

	entries, balance := ledger.Statement(in, time.Now())
	prometheus.StatementResolveCounter.Inc()

	return c.JSON(http.StatusOK, echo.Map{
		"taxpayer_id":  tp.ID,
		"display_name": tp.DisplayName(),
		"monthly_fee":  tp.MonthlyFee,
		"entries":      entries,
		"balance":      balance,
	})
}

// ExportStatementCSV streams the resolved statement as CSV
func ExportStatementCSV(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	in, err := buildLedgerInput(tp)
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to load statement data")
	}

	entries, balance := ledger.Statement(in, time.Now())
	prometheus.StatementResolveCounter.Inc()

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="statement-%d.csv"`, tp.ID))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	_ = w.Write([]string{"type", "year", "month", "amount", "status", "payment_date", "virtual", "notes"})
	for _, e := range entries {
		paymentDate := ""
		if e.PaymentDate != nil {
			paymentDate = e.PaymentDate.Format("2006-01-02")
		}
		_ = w.Write([]string{
			"period",
			fmt.Sprintf("%d", e.Year),
			fmt.Sprintf("%02d", e.Month),
			e.Amount.StringFixed(2),
			string(e.Status),
			paymentDate,
			fmt.Sprintf("%t", e.Virtual),
			e.Notes,
		})
	}
	for _, ch := range in.Charges {
		if ch.Status != model.ChargeStatusPending {
			continue
		}
		_ = w.Write([]string{
			"charge", "", "",
			ch.Amount.StringFixed(2),
			string(ch.Status),
			"", "false",
			ch.Title,
		})
	}
	_ = w.Write([]string{"total", "", "", balance.TotalDebt.StringFixed(2), "TOTAL_DEBT", "", "", fmt.Sprintf("unpaid_periods=%d", balance.UnpaidPeriods)})
	w.Flush()
	return w.Error()
}
