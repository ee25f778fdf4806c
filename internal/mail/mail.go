// Package mail delivers transactional email.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.logger.Info("mail: not delivered, smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Sent returns a copy of every message passed to Send.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

// VerifyEmail builds the sign-up confirmation message.
func VerifyEmail(baseURL, to, fullName, token string) Message {
	link := baseURL + "/verify-email?token=" + url.QueryEscape(token)
	return Message{
		To:      to,
		Subject: "Xác nhận email / Confirm your email",
		Body: fmt.Sprintf("Xin chào %s,\n\nVui lòng xác nhận email của bạn:\n%s\n\nPlease confirm your email address using the link above.\n",
			greetingName(fullName, to), link),
	}
}

// PasswordReset builds the password reset message.
func PasswordReset(baseURL, to, fullName, token string) Message {
	link := baseURL + "/reset-password?token=" + url.QueryEscape(token)
	return Message{
		To:      to,
		Subject: "Đặt lại mật khẩu / Reset your password",
		Body: fmt.Sprintf("Xin chào %s,\n\nĐặt lại mật khẩu tại:\n%s\n\nIf you did not request a reset you can ignore this message.\n",
			greetingName(fullName, to), link),
	}
}

func greetingName(fullName, email string) string {
	if n := strings.TrimSpace(fullName); n != "" {
		return n
	}
	return email
}
