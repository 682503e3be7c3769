// Package mail sends transactional email. When SMTP is not configured
// the mailer degrades to a no-op that only logs, so local development
// needs no mail server.
package mail

import (
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/triproom/server/internal/config"
)

type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	log  *logrus.Logger
}

func NewMailer(cfg *config.Config, log *logrus.Logger) *Mailer {
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
		log:  log,
	}
}

func (m *Mailer) enabled() bool {
	return m.host != "" && m.from != ""
}

// SendInvite mails an invite token (and the short code when one was
// generated) to the recipient. Failures are returned for the caller to
// log; an invite is still valid even if the email never arrives.
func (m *Mailer) SendInvite(to, roomTitle, token string, code *string) error {
	if !m.enabled() {
		m.log.WithField("to", to).Info("mail: SMTP not configured, skipping invite email")
		return nil
	}

	body := fmt.Sprintf("You have been invited to the trip room %q.\n\nInvite token: %s\n", roomTitle, token)
	if code != nil {
		body += fmt.Sprintf("Short code: %s\n", *code)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Invitation to %s", roomTitle))
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send invite mail: %w", err)
	}
	return nil
}
