package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"newsdigest/internal/domain"
)

const (
	DefaultAPIURL  = "https://api.resend.com/emails"
	DefaultTimeout = 30 * time.Second

	// errorBodyLimit ограничивает, сколько тела ошибки попадает в текст ошибки.
	errorBodyLimit = 512
)

// ResendMailer отправляет письма через HTTP API Resend.
type ResendMailer struct {
	client *http.Client
	apiURL string
	apiKey string
	from   string
	log    *slog.Logger
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// NewResendMailer создает клиент. Пустой apiURL заменяется на DefaultAPIURL,
// нулевой timeout на DefaultTimeout.
func NewResendMailer(apiURL, apiKey, from string, timeout time.Duration, log *slog.Logger) *ResendMailer {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ResendMailer{
		client: &http.Client{Timeout: timeout},
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		log:    log,
	}
}

// Send отправляет письмо и возвращает идентификатор, присвоенный API.
// Любой ответ вне 2xx считается ошибкой доставки.
func (m *ResendMailer) Send(ctx context.Context, email domain.Email) (string, error) {
	const op = "ResendMailer.Send"
	log := m.log.With(
		slog.String("component", "mailer"),
		slog.String("op", op),
	)

	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	defer func() {
		// Дочитываем тело, чтобы соединение вернулось в пул.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return "", fmt.Errorf("delivery api returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode delivery response: %w", err)
	}

	log.Info("Email sent",
		slog.String("delivery_id", out.ID),
		slog.Int("recipients", len(email.To)),
	)
	return out.ID, nil
}
