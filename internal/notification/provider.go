package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Provider delivers one push notification to a remote push service.
type Provider interface {
	Send(ctx context.Context, n PushNotification) error
}

// ProviderError is returned for a rejected push, either by HTTP status or
// by an error ticket in an otherwise successful response.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("push provider returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("push provider rejected notification: %s", e.Message)
}

const maxErrorBody = 4 << 10

// ExpoProvider talks to an Expo-compatible push API: a JSON array of
// messages in, a JSON object with one ticket per message out.
type ExpoProvider struct {
	endpoint string
	client   *http.Client
}

func NewExpoProvider(endpoint string, timeout time.Duration) *ExpoProvider {
	return &ExpoProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *ExpoProvider) Send(ctx context.Context, n PushNotification) error {
	payload, err := json.Marshal([]expoMessage{{
		To:    n.Token,
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
		Sound: "default",
	}})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ProviderError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(body))}
	}

	var decoded expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return &ProviderError{Message: decoded.Errors[0].Code + ": " + decoded.Errors[0].Message}
	}
	if len(decoded.Data) == 0 {
		return &ProviderError{Message: "empty ticket list"}
	}
	if ticket := decoded.Data[0]; ticket.Status != "ok" {
		msg := ticket.Message
		if ticket.Details.Error != "" {
			msg = ticket.Details.Error + ": " + msg
		}
		return &ProviderError{Message: msg}
	}
	return nil
}

// LogProvider only logs notifications. It stands in for a real provider
// when no endpoint is configured.
type LogProvider struct {
	logger *slog.Logger
}

func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{logger: logger.With(slog.String("component", "log_push_provider"))}
}

func (p *LogProvider) Send(_ context.Context, n PushNotification) error {
	p.logger.Info("Push notification",
		"title", n.Title,
		"body", n.Body,
		"messageID", n.Data["message_id"],
		"conversationID", n.Data["conversation_id"],
	)
	return nil
}

// IsProviderError reports whether err came from the push service itself
// rather than from the transport.
func IsProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}
