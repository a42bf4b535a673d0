// Package mailer delivers confirmation codes.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

type Notifier interface {
	SendConfirmationCode(ctx context.Context, email, code string) error
}

// New picks SMTP when a relay is configured and the log notifier otherwise.
func New(cfg utils.EmailConfig, log *zap.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg, log)
	}
	log.Warn("SMTP_HOST not set, confirmation codes will only be logged")
	return NewLogNotifier(log)
}

// ==================== SMTP ====================

type SMTPNotifier struct {
	cfg  utils.EmailConfig
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg utils.EmailConfig, log *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:  cfg,
		log:  log.With(zap.String("notifier", "smtp")),
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) SendConfirmationCode(ctx context.Context, email, code string) error {
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	msg := buildMessage(n.cfg.From, email, code)

	timeout := n.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	err := sendWithTimeout(ctx, timeout, func() error {
		return n.send(addr, auth, n.cfg.From, []string{email}, msg)
	})
	if err != nil {
		return fmt.Errorf("send confirmation code to %s: %w", email, err)
	}

	n.log.Info("Confirmation code sent", zap.String("email", email))
	return nil
}

// sendWithTimeout gives up waiting after timeout; the dial itself is not cancelled.
func sendWithTimeout(ctx context.Context, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errors.New("smtp send timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your confirmation code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("Use this code to obtain your API token: " + code + "\r\n")
	return []byte(b.String())
}

// ==================== LOG ====================

// LogNotifier writes the code to the log. Meant for local development only.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) SendConfirmationCode(_ context.Context, email, code string) error {
	n.log.Info("Confirmation code issued",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}
