package mailer

import (
	"fmt"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"gopkg.in/gomail.v2"
)

type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
}

func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, from: from, password: password}
}

func composeStatusChanged(listingTitle string, status domain.ListingStatus) (subject, body string) {
	switch status {
	case domain.StatusSuspended:
		subject = "Your listing has been suspended"
		body = fmt.Sprintf("Your listing '%s' has been suspended by a moderator and is no longer visible to buyers.", listingTitle)
	case domain.StatusAvailable:
		subject = "Your listing has been approved"
		body = fmt.Sprintf("Your listing '%s' has been approved and is now live.", listingTitle)
	default:
		subject = "Your listing status has changed"
		body = fmt.Sprintf("Your listing '%s' is now marked as %s.", listingTitle, status)
	}
	return subject, body
}

// SendStatusChanged notifies a seller that a moderator changed their
// listing's status.
func (m *SMTPMailer) SendStatusChanged(toEmail, listingTitle string, status domain.ListingStatus) error {
	subject, body := composeStatusChanged(listingTitle, status)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	return d.DialAndSend(msg)
}
