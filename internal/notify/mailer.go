// Package notify sends arrival emails to hosts.
package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
)

// Mailer sends arrival notifications over SMTP.
type Mailer struct {
	cfg config.EmailConfig
}

// NewMailer creates a mailer from the email config.
func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the mailer has enough configuration to send.
// A deployment without SMTP credentials simply skips notifications.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.User != "" && m.cfg.Pass != ""
}

// SendArrival emails the host that their visitor has checked in.
func (m *Mailer) SendArrival(ctx context.Context, toEmail, visitorName, purpose, phone string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.User); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject("Visitor Arrival Notification")
	msg.SetBodyString(mail.TypeTextPlain, arrivalBody(visitorName, purpose, phone))

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func arrivalBody(visitorName, purpose, phone string) string {
	return fmt.Sprintf(
		"Hello,\n\n"+
			"Your visitor %s has arrived at the reception.\n\n"+
			"Purpose of visit: %s\n"+
			"Contact number: %s\n\n"+
			"Please come to the reception to meet them.\n\n"+
			"Regards,\nVisitor Log Book",
		visitorName, purpose, phone,
	)
}
