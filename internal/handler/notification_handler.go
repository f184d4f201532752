package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/internal/notify"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

var notifySender notify.Sender

// InitNotificationHandler wires the outbound message sender
func InitNotificationHandler(s notify.Sender) {
	notifySender = s
}

func validMessageType(t model.MessageType) bool {
	switch t {
	case model.MessageTypePaymentReminder, model.MessageTypeFilingNotice, model.MessageTypeGeneral:
		return true
	}
	return false
}

// ListMessages lists a taxpayer's outbound messages, newest first
func ListMessages(c echo.Context) error {
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}

	query := database.GetDB().Model(&model.Message{}).Where("taxpayer_id = ?", tp.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}

	var messages []model.Message
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Order("created_at DESC").Find(&messages).Error; err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "failed to list messages")
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": messages})
}

// SendMessage dispatches a WhatsApp notification to a taxpayer. The
// message row is written before dispatch and updated to SENT or FAILED
// with what the gateway reported. A gateway failure is surfaced as
// unavailable; the FAILED row stays for retry bookkeeping.
func SendMessage(c echo.Context) error {
	log := logger.FromContext(c)
	claims := mustSubject(c)

	tp, err := taxpayerForTenant(claims.SubjectID, c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, codeNotFound, "taxpayer not found")
	}
	if tp.Phone == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "taxpayer has no phone number")
	}

	var req struct {
		Type          model.MessageType `json:"type"`
		Content       string            `json:"content"`
		AttachmentRef string            `json:"attachment_ref"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid request")
	}
	if !validMessageType(req.Type) {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "invalid message type")
	}
	if strings.TrimSpace(req.Content) == "" {
		return errorJSON(c, http.StatusBadRequest, codeValidation, "content is required")
	}

	db := database.GetDB()

	msg := model.Message{
		TaxpayerID:    tp.ID,
		TenantID:      claims.SubjectID,
		Type:          req.Type,
		Content:       req.Content,
		AttachmentRef: req.AttachmentRef,
		Status:        model.MessageStatusPending,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Create(&msg).Error; err != nil {
		log.Error("Failed to record message", zap.Error(err))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "message could not be recorded")
	}

	sendErr := notifySender.Send(c.Request().Context(), tp.Phone, req.Content, req.AttachmentRef)
	if sendErr != nil {
		db.Model(&msg).Update("status", model.MessageStatusFailed)
		prometheus.RecordNotification("failure")
		log.Warn("Message delivery failed", zap.Error(sendErr), zap.Uint("message_id", msg.ID))
		return errorJSON(c, http.StatusServiceUnavailable, codeUnavailable, "message delivery failed")
	}

	now := time.Now()
	db.Model(&msg).Updates(map[string]interface{}{
		"status":  model.MessageStatusSent,
		"sent_at": &now,
	})
	msg.Status = model.MessageStatusSent
	msg.SentAt = &now

	prometheus.RecordNotification("success")
	log.Info("Message sent", zap.Uint("message_id", msg.ID), zap.Uint("taxpayer_id", tp.ID))
	return c.JSON(http.StatusCreated, msg)
}
