package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/internal/vault"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

var credentialVault *vault.Vault

// InitCredentialHandler wires the encryption vault into the credential handlers
func InitCredentialHandler(v *vault.Vault) {
	credentialVault = v
}

// credentialView is what read endpoints return. Neither the plaintext
// nor the ciphertext ever leaves the service; callers only learn whether
// a password is on file.
type credentialView struct {
	ID          uint           `json:"id"`
	TaxpayerID  uint           `json:"taxpayer_id"`
	Platform    model.Platform `json:"platform"`
	Username    string         `json:"username,omitempty"`
	HasPassword bool           `json:"has_password"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toCredentialView(cred *model.PortalCredential) credentialView {
	return credentialView{
		ID:          cred.ID,
		TaxpayerID:  cred.TaxpayerID,
		Platform:    cred.Platform,
		Username:    cred.Username,
		HasPassword: cred.PasswordEncrypted != "",
		IsActive:    cred.IsActive,
		CreatedAt:   cred.CreatedAt,
		UpdatedAt:   cred.UpdatedAt,
	}
}

func validPlatform(p model.Platform) bool {
	switch p {
	case model.PlatformEArsivPortal, model.PlatformDijitalGIB, model.PlatformIstanbulGIB:
		return true
	}
	return false
}

// ListCredentials lists a taxpayer's portal credentials without secrets
func ListCredentials(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var creds []model.PortalCredential
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := database.GetDB().Where("taxpayer_id = ?", tp.ID).Order("platform").Find(&creds).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list credentials")
	}

	views := make([]credentialView, 0, len(creds))
	for i := range creds {
		views = append(views, toCredentialView(&creds[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"credentials": views})
}

// UpsertCredential creates or replaces the credential for one platform.
// The password is encrypted before it touches storage.
func UpsertCredential(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var req struct {
		Platform model.Platform `json:"platform"`
		Username string         `json:"username"`
		Password string         `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if !validPlatform(req.Platform) {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid platform")
	}
	if req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "password is required")
	}

	ciphertext, err := credentialVault.Encrypt(req.Password)
	if err != nil {
		log.Error("Failed to encrypt credential", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, codeEncryption, "encryption failed")
	}

	db := database.GetDB()

	var cred model.PortalCredential
	defer prometheus.TrackDBOperation("update")(time.Now())
	err = db.Where("taxpayer_id = ? AND platform = ?", tp.ID, req.Platform).First(&cred).Error
	if err == nil {
		cred.Username = req.Username
		cred.PasswordEncrypted = ciphertext
		cred.IsActive = true
		if err := db.Save(&cred).Error; err != nil {
			log.Error("Failed to update credential", zap.Error(err))
			return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "credential could not be saved")
		}
		prometheus.RecordOperation("credential", "update")
		return c.JSON(http.StatusOK, toCredentialView(&cred))
	}

	cred = model.PortalCredential{
		TaxpayerID:        tp.ID,
		TenantID:          claims.SubjectID,
		Platform:          req.Platform,
		Username:          req.Username,
		PasswordEncrypted: ciphertext,
		IsActive:          true,
	}
	if err := db.Create(&cred).Error; err != nil {
		log.Error("Failed to create credential", zap.Error(err))
		return errorJSON(c, http.StatusConflict, codeConflict, "credential could not be saved")
	}

	prometheus.RecordOperation("credential", "create")
	return c.JSON(http.StatusCreated, toCredentialView(&cred))
}

// DeleteCredential removes the credential for one platform
func DeleteCredential(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var cred model.PortalCredential
	db := database.GetDB()
	err = db.Where("taxpayer_id = ? AND platform = ?", tp.ID, c.Param("platform")).First(&cred).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "credential not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&cred).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "deletion failed")
	}

	prometheus.RecordOperation("credential", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "credential deleted"})
}
