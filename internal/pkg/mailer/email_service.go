package mailer

import (
	"fmt"
	"strings"

	"subtrackr-be/internal/entity"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendManualInstructions(toEmail, merchantName string, instructions *entity.ManualInstructions) error
	SendCancellationConfirmed(toEmail, merchantName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendManualInstructions(toEmail, merchantName string, instructions *entity.ManualInstructions) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Action needed to cancel %s", merchantName))

	var steps strings.Builder
	if instructions != nil {
		for _, step := range instructions.Steps {
			steps.WriteString(fmt.Sprintf("<li>%s</li>", step))
		}
	}

	var contact strings.Builder
	if instructions != nil {
		if instructions.ContactPhone != "" {
			contact.WriteString(fmt.Sprintf("<p>Phone: %s</p>", instructions.ContactPhone))
		}
		if instructions.ContactEmail != "" {
			contact.WriteString(fmt.Sprintf("<p>Email: %s</p>", instructions.ContactEmail))
		}
		if instructions.WebsiteURL != "" {
			contact.WriteString(fmt.Sprintf(`<p>Website: <a href="%s">%s</a></p>`, instructions.WebsiteURL, instructions.WebsiteURL))
		}
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>We could not cancel %s automatically</h2>
			<p>Follow these steps to finish the cancellation yourself:</p>
			<ol>%s</ol>
			%s
			<p>Once you are done, confirm the result in the app so we can close the request.</p>
		</div>
	`, merchantName, steps.String(), contact.String())

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send manual instructions to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}

func (s *emailService) SendCancellationConfirmed(toEmail, merchantName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your %s subscription is cancelled", merchantName))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Cancellation confirmed</h2>
			<p>Your %s subscription has been cancelled successfully.</p>
			<p>You can review the details in the app at any time.</p>
		</div>
	`, merchantName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send cancellation confirmation to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}
