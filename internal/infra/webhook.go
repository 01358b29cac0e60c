package infra

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Evento is the body POSTed to the automation webhook.
type Evento struct {
	ID       string          `json:"id"`
	Tipo     string          `json:"tipo"` // pedido.creado | pedido.estado_cambiado | tarifa.publicada
	Ocurrido time.Time       `json:"ocurrido"`
	Payload  json.RawMessage `json:"payload"`
}

// WebhookClient posts domain events to the external automation endpoint
// (order confirmations, WhatsApp flows). Bodies are signed with HMAC-SHA256
// in X-Topneum-Signature when a secret is configured.
type WebhookClient struct {
	url        string
	secret     []byte
	httpClient *http.Client
}

func NewWebhookClient(url, secret string) *WebhookClient {
	return &WebhookClient{
		url:        url,
		secret:     []byte(secret),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a destination URL is configured.
func (c *WebhookClient) Enabled() bool { return c != nil && c.url != "" }

// Enviar delivers one event. Any non-2xx answer is an error.
func (c *WebhookClient) Enviar(ctx context.Context, ev Evento) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal evento: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Topneum-Event", ev.Tipo)
	if len(c.secret) > 0 {
		req.Header.Set("X-Topneum-Signature", Firmar(c.secret, body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: destination returned %d", resp.StatusCode)
	}
	return nil
}

// Firmar returns the hex HMAC-SHA256 of body.
func Firmar(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
