package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakancineli/smmmm/internal/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func paidRow(id uint, year, month int, amount int64) model.Payment {
	paidAt := date(year, month, 15)
	return model.Payment{
		ID: id, TaxpayerID: 1, TenantID: 1,
		Year: year, Month: month,
		Amount: d(amount), Status: model.PaymentStatusPaid,
		PaymentDate: &paidAt,
	}
}

func baseInput(payments ...model.Payment) Input {
	return Input{
		TaxpayerID: 1,
		MonthlyFee: d(500),
		CreatedAt:  date(2024, 1, 1),
		Payments:   payments,
	}
}

func TestOutstandingNoPayments(t *testing.T) {
	// Jan-Mar each past their day-21 boundary, April in progress.
	now := date(2024, 4, 22)
	balance := Outstanding(baseInput(), now)

	assert.True(t, balance.TotalDebt.Equal(d(2000)), "got %s", balance.TotalDebt)
	assert.Equal(t, 3, balance.UnpaidPeriods)
}

func TestOutstandingWithPaidPeriod(t *testing.T) {
	now := date(2024, 4, 22)
	balance := Outstanding(baseInput(paidRow(10, 2024, 2, 500)), now)

	assert.True(t, balance.TotalDebt.Equal(d(1500)), "got %s", balance.TotalDebt)
	assert.Equal(t, 2, balance.UnpaidPeriods)
}

func TestOutstandingPartialPayment(t *testing.T) {
	now := date(2024, 4, 22)
	balance := Outstanding(baseInput(paidRow(10, 2024, 2, 200)), now)

	// February contributes its 300 remainder, not the full fee.
	assert.True(t, balance.TotalDebt.Equal(d(1800)), "got %s", balance.TotalDebt)
	assert.Equal(t, 3, balance.UnpaidPeriods)
}

func TestOutstandingPendingCharge(t *testing.T) {
	now := date(2024, 4, 22)
	in := baseInput()
	in.Charges = []model.ChargeItem{
		{ID: 1, TaxpayerID: 1, Title: "Ceza", Amount: d(150), Status: model.ChargeStatusPending},
		{ID: 2, TaxpayerID: 1, Title: "Hizmet", Amount: d(900), Status: model.ChargeStatusPaid},
		{ID: 3, TaxpayerID: 1, Title: "İptal", Amount: d(400), Status: model.ChargeStatusCancelled},
	}
	balance := Outstanding(in, now)

	assert.True(t, balance.TotalDebt.Equal(d(2150)), "got %s", balance.TotalDebt)
	assert.Equal(t, 3, balance.UnpaidPeriods)
}

func TestOutstandingCancelledRowCountsAsAbsent(t *testing.T) {
	now := date(2024, 4, 22)
	cancelled := paidRow(10, 2024, 2, 500)
	cancelled.Status = model.PaymentStatusCancelled
	cancelled.PaymentDate = nil

	balance := Outstanding(baseInput(cancelled), now)
	assert.True(t, balance.TotalDebt.Equal(d(2000)), "got %s", balance.TotalDebt)
	assert.Equal(t, 3, balance.UnpaidPeriods)
}

func TestOutstandingNoRetroactiveDebt(t *testing.T) {
	// Created mid-year; January through May are never evaluated.
	in := baseInput()
	in.CreatedAt = date(2024, 6, 10)
	now := date(2024, 7, 25)

	balance := Outstanding(in, now)
	// June overdue (boundary July 21), July in progress.
	assert.True(t, balance.TotalDebt.Equal(d(1000)), "got %s", balance.TotalDebt)
	assert.Equal(t, 1, balance.UnpaidPeriods)
}

func TestOutstandingAcrossYearBoundary(t *testing.T) {
	in := baseInput()
	in.CreatedAt = date(2023, 11, 1)
	now := date(2024, 2, 25)

	balance := Outstanding(in, now)
	// Nov, Dec, Jan elapsed; Feb in progress.
	assert.True(t, balance.TotalDebt.Equal(d(2000)), "got %s", balance.TotalDebt)
	assert.Equal(t, 3, balance.UnpaidPeriods)
}

func TestDebtMonotonicity(t *testing.T) {
	now := date(2024, 4, 22)
	before := Outstanding(baseInput(), now)
	after := Outstanding(baseInput(paidRow(10, 2024, 1, 500)), now)

	assert.True(t, after.TotalDebt.LessThanOrEqual(before.TotalDebt))
}

func TestResolveIsIdempotent(t *testing.T) {
	now := date(2024, 4, 22)
	in := baseInput(paidRow(10, 2024, 2, 200))

	first, firstBalance := Statement(in, now)
	second, secondBalance := Statement(in, now)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBalance.UnpaidPeriods, secondBalance.UnpaidPeriods)
	assert.True(t, firstBalance.TotalDebt.Equal(secondBalance.TotalDebt))
}

func TestPeriodStatus(t *testing.T) {
	tests := []struct {
		name     string
		payments []model.Payment
		year     int
		month    int
		now      time.Time
		want     model.PaymentStatus
	}{
		{
			name: "fully paid",
			payments: []model.Payment{paidRow(10, 2024, 2, 500)},
			year: 2024, month: 2, now: date(2024, 4, 22),
			want: model.PaymentStatusPaid,
		},
		{
			name: "unpaid past boundary",
			year: 2024, month: 2, now: date(2024, 3, 21),
			want: model.PaymentStatusOverdue,
		},
		{
			name: "unpaid on boundary eve",
			year: 2024, month: 2, now: date(2024, 3, 20),
			want: model.PaymentStatusPending,
		},
		{
			name: "current period pending",
			year: 2024, month: 4, now: date(2024, 4, 22),
			want: model.PaymentStatusPending,
		},
		{
			name: "explicit overdue row wins before boundary",
			payments: []model.Payment{{
				ID: 11, TaxpayerID: 1, Year: 2024, Month: 4,
				Amount: d(500), Status: model.PaymentStatusOverdue,
			}},
			year: 2024, month: 4, now: date(2024, 4, 10),
			want: model.PaymentStatusOverdue,
		},
		{
			name: "partial payment past boundary",
			payments: []model.Payment{paidRow(10, 2024, 2, 200)},
			year: 2024, month: 2, now: date(2024, 4, 22),
			want: model.PaymentStatusOverdue,
		},
		{
			name: "overpayment is paid",
			payments: []model.Payment{paidRow(10, 2024, 2, 700)},
			year: 2024, month: 2, now: date(2024, 4, 22),
			want: model.PaymentStatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput(tt.payments...)
			assert.Equal(t, tt.want, PeriodStatus(in, tt.year, tt.month, tt.now))
		})
	}
}

func TestResolveSynthesizesVirtualRows(t *testing.T) {
	now := date(2024, 4, 22)
	entries := Resolve(baseInput(paidRow(10, 2024, 2, 500)), now)

	require.Len(t, entries, 4)

	// Newest first: Apr, Mar, Feb, Jan.
	assert.Equal(t, 4, entries[0].Month)
	assert.True(t, entries[0].Virtual)
	assert.Equal(t, model.PaymentStatusPending, entries[0].Status)

	assert.Equal(t, 3, entries[1].Month)
	assert.True(t, entries[1].Virtual)
	assert.Equal(t, VirtualID(1, 2024, 3), entries[1].ID)
	assert.Equal(t, model.PaymentStatusOverdue, entries[1].Status)
	assert.True(t, entries[1].Amount.Equal(d(500)))

	assert.Equal(t, 2, entries[2].Month)
	assert.False(t, entries[2].Virtual)
	assert.Equal(t, "10", entries[2].ID)
	assert.Equal(t, model.PaymentStatusPaid, entries[2].Status)
	require.NotNil(t, entries[2].PaymentDate)

	assert.Equal(t, 1, entries[3].Month)
	assert.True(t, entries[3].Virtual)
}

func TestResolvePartialPeriodCarriesRemainder(t *testing.T) {
	now := date(2024, 4, 22)
	entries := Resolve(baseInput(paidRow(10, 2024, 2, 200)), now)

	var feb *Entry
	for i := range entries {
		if entries[i].Month == 2 {
			feb = &entries[i]
		}
	}
	require.NotNil(t, feb)

	// The real row backs the entry, but the amount is the remainder owed.
	assert.False(t, feb.Virtual)
	assert.Equal(t, model.PaymentStatusOverdue, feb.Status)
	assert.True(t, feb.Amount.Equal(d(300)), "got %s", feb.Amount)
}

func TestVirtualIDIsStable(t *testing.T) {
	assert.Equal(t, "virtual-7-2024-3", VirtualID(7, 2024, 3))
	assert.Equal(t, VirtualID(7, 2024, 3), VirtualID(7, 2024, 3))
}
