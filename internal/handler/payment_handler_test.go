package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/config"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/jwtutil"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

var handlerTestOnce sync.Once

// setupHandlerTest swaps the global gorm handle for a fresh in-memory
// database and initializes the shared logger/metrics exactly once.
func setupHandlerTest(t *testing.T) {
	t.Helper()

	handlerTestOnce.Do(func() {
		cfg := &config.Config{
			Server:  config.ServerConfig{Env: "development"},
			Log:     config.LogConfig{Level: "error"},
			Metrics: config.MetricsConfig{Prefix: "handler_test"},
		}
		if err := logger.InitLogger(cfg); err != nil {
			panic(err)
		}
		prometheus.InitMetrics(cfg)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{}, &model.Taxpayer{}, &model.Payment{}, &model.ChargeItem{},
	))
	database.DB = db
}

func seedTaxpayer(t *testing.T, tenantID uint, fee int64, createdAt time.Time) *model.Taxpayer {
	t.Helper()
	nid := "12345678950"
	tp := &model.Taxpayer{
		TenantID:   tenantID,
		NationalID: &nid,
		FirstName:  "Ayse",
		LastName:   "Yilmaz",
		MonthlyFee: decimal.NewFromInt(fee),
		IsActive:   true,
	}
	require.NoError(t, database.DB.Create(tp).Error)
	require.NoError(t, database.DB.Model(tp).Update("created_at", createdAt).Error)
	tp.CreatedAt = createdAt
	return tp
}

func tenantContext(t *testing.T, tenantID uint, method, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", reqBody)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("subject", &jwtutil.Claims{SubjectID: tenantID, Kind: jwtutil.KindTenant})

	names := make([]string, 0, len(params)/2)
	values := make([]string, 0, len(params)/2)
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func periodRows(t *testing.T, taxpayerID uint, year, month int) []model.Payment {
	t.Helper()
	var rows []model.Payment
	require.NoError(t, database.DB.
		Where("taxpayer_id = ? AND year = ? AND month = ?", taxpayerID, year, month).
		Find(&rows).Error)
	return rows
}

func TestMarkPeriodPaidMaterializesVirtualPeriod(t *testing.T) {
	setupHandlerTest(t)
	tp := seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	c, rec := tenantContext(t, 1, http.MethodPost, "",
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rows := periodRows(t, tp.ID, 2024, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusPaid, rows[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Amount), "amount = %s", rows[0].Amount)
	assert.NotNil(t, rows[0].PaymentDate)
}

func TestMarkPeriodPaidTopsUpPartialPayment(t *testing.T) {
	setupHandlerTest(t)
	tp := seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	paidAt := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, database.DB.Create(&model.Payment{
		TaxpayerID: tp.ID, TenantID: 1, Year: 2024, Month: 2,
		Amount: decimal.NewFromInt(200), Status: model.PaymentStatusPaid, PaymentDate: &paidAt,
	}).Error)

	c, rec := tenantContext(t, 1, http.MethodPost, "",
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// the existing row is topped up to the full fee; no second row appears
	rows := periodRows(t, tp.ID, 2024, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusPaid, rows[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Amount), "amount = %s", rows[0].Amount)
}

func TestMarkPeriodPaidRecyclesCancelledRow(t *testing.T) {
	setupHandlerTest(t)
	tp := seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, database.DB.Create(&model.Payment{
		TaxpayerID: tp.ID, TenantID: 1, Year: 2024, Month: 2,
		Amount: decimal.NewFromInt(500), Status: model.PaymentStatusCancelled,
	}).Error)

	// a cancelled row occupies the period's unique slot but must not
	// block settlement
	c, rec := tenantContext(t, 1, http.MethodPost, "",
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rows := periodRows(t, tp.ID, 2024, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusPaid, rows[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Amount), "amount = %s", rows[0].Amount)
	assert.NotNil(t, rows[0].PaymentDate)
}

func TestMarkPeriodPaidIsIdempotentOnSettledPeriod(t *testing.T) {
	setupHandlerTest(t)
	tp := seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	c, _ := tenantContext(t, 1, http.MethodPost, "",
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))

	c, rec := tenantContext(t, 1, http.MethodPost, "",
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rows := periodRows(t, tp.ID, 2024, 2)
	require.Len(t, rows, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Amount), "amount = %s", rows[0].Amount)
}

func TestMarkPeriodPaidCrossTenantIsNotFound(t *testing.T) {
	setupHandlerTest(t)
	seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	c, rec := tenantContext(t, 2, http.MethodPost, "",
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestMarkPeriodPaidRejectsMalformedBody(t *testing.T) {
	setupHandlerTest(t)
	seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	c, rec := tenantContext(t, 1, http.MethodPost, `{"amount":`,
		"id", "1", "year", "2024", "month", "2")
	require.NoError(t, MarkPeriodPaid(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestCreatePaymentDuplicatePeriodConflicts(t *testing.T) {
	setupHandlerTest(t)
	tp := seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, database.DB.Create(&model.Payment{
		TaxpayerID: tp.ID, TenantID: 1, Year: 2024, Month: 3,
		Amount: decimal.NewFromInt(500), Status: model.PaymentStatusPaid,
	}).Error)

	c, rec := tenantContext(t, 1, http.MethodPost,
		`{"year":2024,"month":3,"amount":"500"}`, "id", "1")
	require.NoError(t, CreatePayment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "conflict")

	rows := periodRows(t, tp.ID, 2024, 3)
	assert.Len(t, rows, 1)
}

func TestCreatePaymentRecyclesCancelledRow(t *testing.T) {
	setupHandlerTest(t)
	tp := seedTaxpayer(t, 1, 500, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, database.DB.Create(&model.Payment{
		TaxpayerID: tp.ID, TenantID: 1, Year: 2024, Month: 3,
		Amount: decimal.NewFromInt(500), Status: model.PaymentStatusCancelled,
	}).Error)

	c, rec := tenantContext(t, 1, http.MethodPost,
		`{"year":2024,"month":3,"amount":"500"}`, "id", "1")
	require.NoError(t, CreatePayment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rows := periodRows(t, tp.ID, 2024, 3)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentStatusPaid, rows[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Amount), "amount = %s", rows[0].Amount)
}
