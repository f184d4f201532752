package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

type tenantRequest struct {
	CompanyName      string `json:"company_name"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	SubscriptionPlan string `json:"subscription_plan"`
}

// CreateTenant provisions a tenant account under the calling superuser
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	var req tenantRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if req.Username == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "username and password are required")
	}

	db := database.GetDB()

	var count int64
	db.Model(&model.Tenant{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return errorJSON(c, http.StatusConflict, codeConflict, "username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, codeUnavailable, "tenant creation failed")
	}

	plan := req.SubscriptionPlan
	if plan == "" {
		plan = "BASIC"
	}

	tenant := model.Tenant{
		SuperuserID:      claims.SubjectID,
		CompanyName:      req.CompanyName,
		Username:         req.Username,
		PasswordHash:     string(hash),
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		SubscriptionPlan: plan,
		IsActive:         true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Create(&tenant).Error; err != nil {
		log.Error("Failed to create tenant", zap.Error(err))
		return errorJSON(c, http.StatusConflict, codeConflict, "tenant could not be created")
	}

	prometheus.RecordOperation("tenant", "create")
	log.Info("Tenant created", zap.Uint("tenant_id", tenant.ID), zap.Uint("superuser_id", claims.SubjectID))
	return c.JSON(http.StatusCreated, tenant)
}

// ListTenants lists the calling superuser's tenants, paginated
func ListTenants(c echo.Context) error {
	claims := mustSubject(c)
	p := parsePagination(c)

	db := database.GetDB()
	query := db.Model(&model.Tenant{}).Where("superuser_id = ?", claims.SubjectID)

	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	query.Count(&total)

	var tenants []model.Tenant
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&tenants).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list tenants")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenants":    tenants,
		"pagination": paginationMeta(p, total),
	})
}

// GetTenant returns one tenant owned by the calling superuser
func GetTenant(c echo.Context) error {
	claims := mustSubject(c)

	var tenant model.Tenant
	defer prometheus.TrackDBOperation("query")(time.Now())
	err := database.GetDB().
		Where("id = ? AND superuser_id = ?", c.Param("id"), claims.SubjectID).
		First(&tenant).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "tenant not found")
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant updates mutable tenant fields. Username is immutable; a
// non-empty password is re-hashed.
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	var tenant model.Tenant
	db := database.GetDB()
	if err := db.Where("id = ? AND superuser_id = ?", c.Param("id"), claims.SubjectID).First(&tenant).Error; err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "tenant not found")
	}

	var req struct {
		CompanyName      *string `json:"company_name"`
		Password         *string `json:"password"`
		Email            *string `json:"email"`
		Phone            *string `json:"phone"`
		Address          *string `json:"address"`
		SubscriptionPlan *string `json:"subscription_plan"`
		IsActive         *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}

	if req.CompanyName != nil {
		tenant.CompanyName = *req.CompanyName
	}
	if req.Email != nil {
		tenant.Email = *req.Email
	}
	if req.Phone != nil {
		tenant.Phone = *req.Phone
	}
	if req.Address != nil {
		tenant.Address = *req.Address
	}
	if req.SubscriptionPlan != nil {
		tenant.SubscriptionPlan = *req.SubscriptionPlan
	}
	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return errorJSON(c, http.StatusInternalServerError, codeUnavailable, "update failed")
		}
		tenant.PasswordHash = string(hash)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&tenant).Error; err != nil {
		log.Error("Failed to update tenant", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "update failed")
	}

	prometheus.RecordOperation("tenant", "update")
	return c.JSON(http.StatusOK, tenant)
}

// DeactivateTenant soft-disables a tenant; its data stays intact and the
// account can no longer log in.
func DeactivateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	var tenant model.Tenant
	db := database.GetDB()
	if err := db.Where("id = ? AND superuser_id = ?", c.Param("id"), claims.SubjectID).First(&tenant).Error; err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "tenant not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Model(&tenant).Update("is_active", false).Error; err != nil {
		log.Error("Failed to deactivate tenant", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "deactivation failed")
	}

	prometheus.RecordOperation("tenant", "deactivate")
	log.Info("Tenant deactivated", zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant deactivated"})
}
