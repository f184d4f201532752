package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/jwtutil"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

var jwtUtil *jwtutil.JWTUtil

// InitAuthHandler wires the token utility into the auth handlers
func InitAuthHandler(j *jwtutil.JWTUtil) {
	jwtUtil = j
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TenantLogin authenticates an accounting-firm account and issues a token pair
func TenantLogin(c echo.Context) error {
	log := logger.FromContext(c)

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if req.Username == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "username and password are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if err := database.GetDB().Where("username = ?", req.Username).First(&tenant).Error; err != nil {
		log.Warn("Tenant login failed: unknown username", zap.String("username", req.Username))
		prometheus.RecordLogin(jwtutil.KindTenant, "failure")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "invalid username or password")
	}

	if !tenant.IsActive {
		log.Warn("Tenant login rejected: inactive account", zap.Uint("tenant_id", tenant.ID))
		prometheus.RecordLogin(jwtutil.KindTenant, "failure")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "account is not active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Tenant login failed: bad password", zap.String("username", req.Username))
		prometheus.RecordLogin(jwtutil.KindTenant, "failure")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "invalid username or password")
	}

	pair, err := jwtUtil.IssuePair(tenant.ID, jwtutil.KindTenant, tenant.Username)
	if err != nil {
		log.Error("Failed to issue token pair", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, codeUnavailable, "token error")
	}

	prometheus.RecordLogin(jwtutil.KindTenant, "success")
	log.Info("Tenant logged in", zap.Uint("tenant_id", tenant.ID), zap.String("username", tenant.Username))

	return c.JSON(http.StatusOK, echo.Map{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          tenant,
	})
}

// SuperuserLogin authenticates a superuser and issues a token pair
func SuperuserLogin(c echo.Context) error {
	log := logger.FromContext(c)

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if req.Username == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "username and password are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var su model.Superuser
	if err := database.GetDB().Where("username = ?", req.Username).First(&su).Error; err != nil {
		prometheus.RecordLogin(jwtutil.KindSuperuser, "failure")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "invalid username or password")
	}

	if !su.IsActive {
		prometheus.RecordLogin(jwtutil.KindSuperuser, "failure")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "account is not active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(su.PasswordHash), []byte(req.Password)); err != nil {
		prometheus.RecordLogin(jwtutil.KindSuperuser, "failure")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "invalid username or password")
	}

	pair, err := jwtUtil.IssuePair(su.ID, jwtutil.KindSuperuser, su.Username)
	if err != nil {
		log.Error("Failed to issue token pair", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, codeUnavailable, "token error")
	}

	prometheus.RecordLogin(jwtutil.KindSuperuser, "success")
	log.Info("Superuser logged in", zap.Uint("superuser_id", su.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          su,
	})
}

// Refresh exchanges a valid refresh token for a new token pair. The
// referenced subject must still exist and be active.
func Refresh(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "refresh token is required")
	}

	claims, err := jwtUtil.VerifyRefresh(req.RefreshToken)
	if err != nil {
		prometheus.RecordAuthError("invalid_refresh_token")
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh token")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var username string
	switch claims.Kind {
	case jwtutil.KindSuperuser:
		var su model.Superuser
		if err := database.GetDB().Where("id = ? AND is_active = ?", claims.SubjectID, true).First(&su).Error; err != nil {
			prometheus.RecordAuthError("refresh_subject_gone")
			return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "account not found or inactive")
		}
		username = su.Username
	case jwtutil.KindTenant:
		var tenant model.Tenant
		if err := database.GetDB().Where("id = ? AND is_active = ?", claims.SubjectID, true).First(&tenant).Error; err != nil {
			prometheus.RecordAuthError("refresh_subject_gone")
			return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "account not found or inactive")
		}
		username = tenant.Username
	default:
		return errorJSON(c, http.StatusUnauthorized, codeUnauthorized, "invalid refresh token")
	}

	pair, err := jwtUtil.IssuePair(claims.SubjectID, claims.Kind, username)
	if err != nil {
		log.Error("Failed to issue token pair on refresh", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, codeUnavailable, "token error")
	}

	prometheus.TokenRefreshCounter.Inc()
	return c.JSON(http.StatusOK, echo.Map{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"kind":          claims.Kind,
	})
}

type registerRequest struct {
	CompanyName string `json:"company_name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// PublicRegister self-registers a tenant. Every self-registered tenant
// gets its own dedicated superuser record as parent, created in the same
// transaction.
func PublicRegister(c echo.Context) error {
	log := logger.FromContext(c)

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if req.CompanyName == "" || req.Username == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "company name, username and password are required")
	}

	db := database.GetDB()

	var count int64
	db.Model(&model.Tenant{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return errorJSON(c, http.StatusConflict, codeConflict, "username is already taken")
	}
	if req.Email != "" {
		db.Model(&model.Tenant{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			return errorJSON(c, http.StatusConflict, codeConflict, "email is already registered")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, codeUnavailable, "registration failed")
	}

	var tenant model.Tenant
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = db.Transaction(func(tx *gorm.DB) error {
		su := model.Superuser{
			Username:     "owner_" + req.Username,
			PasswordHash: string(hash),
			Email:        req.Email,
			IsActive:     true,
		}
		if err := tx.Create(&su).Error; err != nil {
			return err
		}

		tenant = model.Tenant{
			SuperuserID:      su.ID,
			CompanyName:      req.CompanyName,
			Username:         req.Username,
			PasswordHash:     string(hash),
			Email:            req.Email,
			Phone:            req.Phone,
			SubscriptionPlan: "BASIC",
			IsActive:         true,
		}
		return tx.Create(&tenant).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorJSON(c, http.StatusConflict, codeConflict, "username is already taken")
		}
		log.Error("Registration failed", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "registration failed")
	}

	log.Info("Tenant self-registered",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("username", tenant.Username))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration successful",
		"tenant": echo.Map{
			"id":           tenant.ID,
			"superuser_id": tenant.SuperuserID,
			"username":     tenant.Username,
		},
	})
}
