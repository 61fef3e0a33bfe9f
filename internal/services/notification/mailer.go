package notification

import (
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// Mailer delivers one message. Implementations must be safe for concurrent
// use by dispatcher workers.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
	Host     string
}

func NewSMTPMailer(host, port, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		Addr:     host + ":" + port,
		Host:     host,
		From:     from,
		Username: username,
		Password: password,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := []byte("From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	if err := smtp.SendMail(m.Addr, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// LogMailer logs instead of sending. Used in development and tests.
type LogMailer struct {
	Log *logrus.Logger
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.Log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("email (not sent, log mailer)")
	return nil
}
