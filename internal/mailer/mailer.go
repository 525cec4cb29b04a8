package mailer

import (
	"fmt"
	"os"
	"strconv"

	logrus "github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP. When SMTP_* variables are not
// configured it degrades to logging the message body, which keeps local
// development working without a mail account.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New() *Mailer {
	host := os.Getenv("SMTP_HOST")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@shiply.kz"
	}

	if host == "" || user == "" {
		logrus.Warn("SMTP not configured, outgoing mail will be logged only")
		return &Mailer{from: from}
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (m *Mailer) send(to, subject, body string) error {
	if m.dialer == nil {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail (dev mode): " + body)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// SendOTP mails the registration confirmation code.
func (m *Mailer) SendOTP(to, code string) error {
	body := fmt.Sprintf("Your confirmation code is %s. It is valid for 10 minutes.", code)
	return m.send(to, "Email confirmation code", body)
}

// SendPasswordReset mails the single-use reset link.
func (m *Mailer) SendPasswordReset(to, link string) error {
	body := fmt.Sprintf("Follow this link to reset your password (valid for 1 hour):\n%s", link)
	return m.send(to, "Password reset", body)
}
