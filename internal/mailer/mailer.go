package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends outbound notifications over plain SMTP.
type SMTPMailer struct {
	host          string
	port          int
	from          string
	password      string
	suggestionsTo string
}

func NewSMTPMailer(host string, port int, from, password, suggestionsTo string) *SMTPMailer {
	return &SMTPMailer{
		host:          host,
		port:          port,
		from:          from,
		password:      password,
		suggestionsTo: suggestionsTo,
	}
}

// SendListingCreated notifies an author that their listing went live.
func (m *SMTPMailer) SendListingCreated(toEmail, listingName string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain",
		fmt.Sprintf("Your listing %q has been created successfully.", listingName))

	return m.dialAndSend(msg)
}

// SendSuggestion forwards a visitor's edit suggestion to the moderation inbox.
func (m *SMTPMailer) SendSuggestion(listingID, listingName, field, suggestion, reporterName, reporterEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.suggestionsTo)
	msg.SetHeader("Subject", fmt.Sprintf("Edit suggestion for listing %q", listingName))
	if reporterEmail != "" {
		msg.SetHeader("Reply-To", reporterEmail)
	}

	body := fmt.Sprintf(
		"Listing: %s (%s)\nField: %s\n\nSuggestion:\n%s\n\nReported by: %s <%s>\n",
		listingName, listingID, field, suggestion, reporterName, reporterEmail)
	msg.SetBody("text/plain", body)

	return m.dialAndSend(msg)
}

func (m *SMTPMailer) dialAndSend(msg *gomail.Message) error {
	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
