package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/prometheus"
)

// ListNotes lists a taxpayer's notes, newest first
func ListNotes(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var notes []model.Note
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := database.GetDB().Where("taxpayer_id = ?", tp.ID).Order("created_at DESC").Find(&notes).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list notes")
	}
	return c.JSON(http.StatusOK, echo.Map{"notes": notes})
}

// CreateNote adds a free-text note to a taxpayer
func CreateNote(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "text is required")
	}

	note := model.Note{
		TaxpayerID: tp.ID,
		TenantID:   claims.SubjectID,
		Text:       req.Text,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&note).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "note could not be created")
	}

	prometheus.RecordOperation("note", "create")
	return c.JSON(http.StatusCreated, note)
}

// UpdateNote edits a note's text or toggles its done flag
func UpdateNote(c echo.Context) error {
	claims := mustSubject(c)

	var note model.Note
	db := database.GetDB()
	err := db.Where("id = ? AND tenant_id = ?", c.Param("noteId"), claims.SubjectID).First(&note).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "note not found")
	}

	var req struct {
		Text   *string `json:"text"`
		IsDone *bool   `json:"is_done"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return errorJSON(c, http.StatusBadRequest, codeValidation, "text is required")
		}
		note.Text = *req.Text
	}
	if req.IsDone != nil {
		note.IsDone = *req.IsDone
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := db.Save(&note).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "update failed")
	}

	prometheus.RecordOperation("note", "update")
	return c.JSON(http.StatusOK, note)
}

// DeleteNote removes a note
func DeleteNote(c echo.Context) error {
	claims := mustSubject(c)

	var note model.Note
	db := database.GetDB()
	err := db.Where("id = ? AND tenant_id = ?", c.Param("noteId"), claims.SubjectID).First(&note).Error
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "note not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := db.Delete(&note).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "deletion failed")
	}

	prometheus.RecordOperation("note", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "note deleted"})
}
