// Package notification delivers text messages to users' phones.
package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"payway/internal/services/gateway/transport"

	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("notification: no recipients")

// Sender delivers one message to every phone number, all or nothing.
type Sender interface {
	SendBulk(ctx context.Context, phones []string, message string) error
}

type SMSConfig struct {
	URL     string
	APIKey  string
	Sender  string
	Timeout time.Duration
}

// SMSSender posts messages to an HTTP SMS provider.
type SMSSender struct {
	client *transport.Client
	sender string
}

type smsRequest struct {
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

func NewSMSSender(cfg SMSConfig, opts ...transport.Option) *SMSSender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts = append([]transport.Option{transport.WithHeader("Authorization", "Bearer "+cfg.APIKey)}, opts...)
	return &SMSSender{
		client: transport.New("sms", cfg.URL, cfg.Timeout, opts...),
		sender: cfg.Sender,
	}
}

func (s *SMSSender) SendBulk(ctx context.Context, phones []string, message string) error {
	if len(phones) == 0 {
		return ErrNoRecipients
	}
	return s.client.Do(ctx, "POST", "", "send_sms", smsRequest{
		Sender:     s.sender,
		Recipients: phones,
		Message:    message,
	}, nil)
}

// LogSender writes messages to the log instead of sending them. Used in
// development.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendBulk(_ context.Context, phones []string, message string) error {
	if len(phones) == 0 {
		return ErrNoRecipients
	}
	s.log.Info("sms", zap.String("to", strings.Join(phones, ",")), zap.String("message", message))
	return nil
}
