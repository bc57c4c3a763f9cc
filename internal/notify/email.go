// Package notify delivers out-of-band notifications. Delivery is best-effort;
// callers log failures and carry on.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"alcyxob/coach-tracker/internal/config"

	"github.com/sirupsen/logrus"
)

// Notifier tells a user that something happened.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text mail through an SMTP relay.
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send sendFunc
	log  logrus.FieldLogger
}

// NewSMTPNotifier returns a Noop notifier when SMTP is not configured.
func NewSMTPNotifier(cfg config.SMTPConfig, log logrus.FieldLogger) Notifier {
	if !cfg.Enabled() {
		log.Info("SMTP not configured, email notifications disabled")
		return Noop{}
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, log: log.WithField("component", "smtp")}
}

func (n *SMTPNotifier) Notify(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("notify: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{to}, buildMessage(n.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("notify: send to %s: %w", to, err)
	}
	n.log.WithField("to", to).Debug("email sent")
	return nil
}

// buildMessage strips CR/LF from header values so user input cannot inject headers.
func buildMessage(from, to, subject, body string) []byte {
	clean := strings.NewReplacer("\r", "", "\n", " ")
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		clean.Replace(from), clean.Replace(to), clean.Replace(subject), body,
	))
}

// Noop discards notifications.
type Noop struct{}

func (Noop) Notify(context.Context, string, string, string) error { return nil }
