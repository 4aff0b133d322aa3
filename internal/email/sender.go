// Package email sends transactional mail over the configured SMTP server.
package email

import (
	"context"
	"fmt"
	"html"
	"net"
	"time"

	"github.com/juanctr3/b2b/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const (
	subjectVerificationCode = "Código Verificación"
	subjectLeadAlertFmt     = "Nueva Oportunidad #%d"
)

// Sender delivers HTML email via SMTP. A nil *Sender is a valid disabled
// sender: every send becomes a no-op.
type Sender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSender creates a Sender from the email configuration. It returns nil
// when SMTP is not configured.
func NewSender(cfg config.EmailConfig) *Sender {
	if !cfg.IsEmailEnabled() {
		return nil
	}

	return &Sender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *Sender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	if s == nil {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendVerificationCode mails a client their lead verification code.
func (s *Sender) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	body := fmt.Sprintf("<p>Código: <strong>%s</strong></p>", html.EscapeString(code))
	return s.send(ctx, toEmail, subjectVerificationCode, body)
}

// SendLeadAlert mails a provider the backup notification for a new lead.
func (s *Sender) SendLeadAlert(ctx context.Context, toEmail string, leadID int64, city, requirement, link string) error {
	body := fmt.Sprintf("<h3>Solicitud en %s</h3><p>%s</p><p><a href='%s'>Ver en Web</a></p>",
		html.EscapeString(city), html.EscapeString(requirement), link)
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadAlertFmt, leadID), body)
}
