// Package ledger derives payment status and outstanding balance for a
// taxpayer from its monthly fee, recorded payments and pending charges.
//
// The engine is pure and stateless: it never writes to storage, and
// periods without an explicit payment row are synthesized as virtual
// entries on every call. All money arithmetic uses decimal values.
package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hakancineli/smmmm/internal/model"
)

// OverdueDay is the day of the month following a billing period on which
// that period becomes overdue. Period (y, m) is overdue from 00:00 on
// day 21 of month m+1.
const OverdueDay = 21

// Input carries everything the engine needs for one taxpayer
type Input struct {
	TaxpayerID uint
	MonthlyFee decimal.Decimal
	CreatedAt  time.Time
	Payments   []model.Payment
	Charges    []model.ChargeItem
}

// Entry is one resolved billing period. Virtual entries exist only in
// the response of a query; they are never persisted.
type Entry struct {
	ID          string              `json:"id"`
	Year        int                 `json:"year"`
	Month       int                 `json:"month"`
	Amount      decimal.Decimal     `json:"amount"`
	Status      model.PaymentStatus `json:"status"`
	PaymentDate *time.Time          `json:"payment_date,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Virtual     bool                `json:"virtual"`
}

// Balance is the aggregate outstanding position of a taxpayer
type Balance struct {
	TotalDebt     decimal.Decimal `json:"total_debt"`
	UnpaidPeriods int             `json:"unpaid_periods"`
}

// VirtualID builds the synthetic, stable identifier of a virtual entry
func VirtualID(taxpayerID uint, year, month int) string {
	return fmt.Sprintf("virtual-%d-%d-%d", taxpayerID, year, month)
}

// PaidSum returns the total of PAID payment rows for the given period.
// CANCELLED rows never count toward the sum.
func PaidSum(payments []model.Payment, year, month int) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.Year == year && p.Month == month && p.Status == model.PaymentStatusPaid {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// Remaining returns the unpaid portion of the monthly fee for a period,
// never negative.
func Remaining(in Input, year, month int) decimal.Decimal {
	remaining := in.MonthlyFee.Sub(PaidSum(in.Payments, year, month))
	if remaining.Sign() < 0 {
		return decimal.Zero
	}
	return remaining
}

// PeriodStatus derives the status of period (year, month) as of now
func PeriodStatus(in Input, year, month int, now time.Time) model.PaymentStatus {
	if Remaining(in, year, month).Sign() == 0 {
		return model.PaymentStatusPaid
	}
	for _, p := range in.Payments {
		if p.Year == year && p.Month == month && p.Status == model.PaymentStatusOverdue {
			return model.PaymentStatusOverdue
		}
	}
	if pastDueBoundary(year, month, now) && existedDuring(in.CreatedAt, year, month) {
		return model.PaymentStatusOverdue
	}
	return model.PaymentStatusPending
}

// PeriodEntry resolves period (year, month) into a single entry carrying
// the true obligation: the paid total when satisfied, the remainder
// otherwise. The entry is virtual when no real row backs the period.
func PeriodEntry(in Input, year, month int, now time.Time) Entry {
	status := PeriodStatus(in, year, month, now)

	var real *model.Payment
	for i := range in.Payments {
		p := &in.Payments[i]
		if p.Year == year && p.Month == month && p.Status != model.PaymentStatusCancelled {
			real = p
			break
		}
	}

	entry := Entry{
		Year:   year,
		Month:  month,
		Status: status,
	}
	if status == model.PaymentStatusPaid {
		entry.Amount = PaidSum(in.Payments, year, month)
	} else {
		entry.Amount = Remaining(in, year, month)
	}
	if real != nil {
		entry.ID = strconv.FormatUint(uint64(real.ID), 10)
		entry.PaymentDate = real.PaymentDate
		entry.Notes = real.Notes
	} else {
		entry.ID = VirtualID(in.TaxpayerID, year, month)
		entry.Virtual = true
	}
	return entry
}

// Resolve returns one entry per period from the taxpayer's creation
// period through the current period, newest first. Calling it twice
// with the same inputs yields identical results.
func Resolve(in Input, now time.Time) []Entry {
	entries := make([]Entry, 0)
	for _, p := range periods(in.CreatedAt, now) {
		entries = append(entries, PeriodEntry(in, p.year, p.month, now))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Year != entries[j].Year {
			return entries[i].Year > entries[j].Year
		}
		return entries[i].Month > entries[j].Month
	})
	return entries
}

// Outstanding computes the aggregate debt position as of now. Fully
// elapsed periods with a remainder are summed and counted; the current
// in-progress period's remainder is added but never counted as unpaid;
// PENDING charge items are added on top.
func Outstanding(in Input, now time.Time) Balance {
	balance := Balance{TotalDebt: decimal.Zero}

	curYear, curMonth := now.Year(), int(now.Month())
	for _, p := range periods(in.CreatedAt, now) {
		remaining := Remaining(in, p.year, p.month)
		if remaining.Sign() <= 0 {
			continue
		}
		balance.TotalDebt = balance.TotalDebt.Add(remaining)
		if p.year != curYear || p.month != curMonth {
			balance.UnpaidPeriods++
		}
	}

	for _, c := range in.Charges {
		if c.Status == model.ChargeStatusPending {
			balance.TotalDebt = balance.TotalDebt.Add(c.Amount)
		}
	}
	return balance
}

// Statement resolves the full period listing together with the balance
func Statement(in Input, now time.Time) ([]Entry, Balance) {
	return Resolve(in, now), Outstanding(in, now)
}

type period struct {
	year, month int
}

// periods enumerates every (year, month) from createdAt's period through
// now's period, oldest first. Periods before the taxpayer existed are
// never evaluated, so there is no retroactive debt.
func periods(createdAt, now time.Time) []period {
	if createdAt.After(now) {
		return nil
	}
	out := make([]period, 0, 12)
	y, m := createdAt.Year(), int(createdAt.Month())
	curY, curM := now.Year(), int(now.Month())
	for y < curY || (y == curY && m <= curM) {
		out = append(out, period{year: y, month: m})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return out
}

// pastDueBoundary reports whether now is on or after day 21 of the month
// following period (year, month).
func pastDueBoundary(year, month int, now time.Time) bool {
	boundary := time.Date(year, time.Month(month)+1, OverdueDay, 0, 0, 0, 0, now.Location())
	return !now.Before(boundary)
}

// existedDuring reports whether the taxpayer was created no later than
// the end of period (year, month).
func existedDuring(createdAt time.Time, year, month int) bool {
	periodEnd := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, createdAt.Location())
	return createdAt.Before(periodEnd)
}
