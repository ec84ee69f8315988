package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	"github.com/blogsmith/blogsmith/core/config"
)

// Mailer sends operational emails over SMTP. When no host is configured it
// degrades to logging the notification instead of sending it.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

func (m *Mailer) enabled() bool {
	return m.host != ""
}

// SendCredentialErrorEmail tells a user their publishing credentials were
// rejected and auto-publishing is paused for them until fixed.
func (m *Mailer) SendCredentialErrorEmail(ctx context.Context, user clientsDomain.User) error {
	subject := "Action needed: your site credentials were rejected"
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"We tried to publish your scheduled post, but your WordPress site rejected the saved application password.\n"+
			"Please open your dashboard and reconnect your site so publishing can resume.\n\n"+
			"Until then, generated posts are kept as drafts in your account.\n",
		displayName(user),
	)
	return m.send(ctx, user.Email, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient email is empty")
	}
	if !m.enabled() {
		logrus.Infof("[MAILER] SMTP disabled, skipping email to %s (%s)", to, subject)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	logrus.Debugf("[MAILER] Sent %q to %s", subject, to)
	return nil
}

func displayName(user clientsDomain.User) string {
	if user.Name != "" {
		return user.Name
	}
	return "there"
}
