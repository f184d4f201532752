// Package notify sends outbound WhatsApp notifications through an HTTP
// gateway. The core only needs delivery failures reported distinctly
// from success so the Message row can be marked SENT or FAILED.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers one message to a destination address
type Sender interface {
	Send(ctx context.Context, to, content, attachmentRef string) error
}

// WhatsAppGateway is an HTTP client for a WhatsApp delivery gateway
type WhatsAppGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewWhatsAppGateway creates a gateway client
func NewWhatsAppGateway(baseURL, token string) *WhatsAppGateway {
	return &WhatsAppGateway{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	To            string `json:"to"`
	Content       string `json:"content"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

// Send posts the message to the gateway. Any transport error or non-2xx
// response is a delivery failure.
func (g *WhatsAppGateway) Send(ctx context.Context, to, content, attachmentRef string) error {
	body, err := json.Marshal(sendRequest{To: to, Content: content, AttachmentRef: attachmentRef})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway rejected message: status %d", resp.StatusCode)
	}
	return nil
}
