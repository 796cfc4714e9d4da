package utils

import (
	"fmt"
	"log"

	"lms/config"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendEmail delivers one message through SendGrid. Notifications are
// best-effort; callers log and continue on failure.
func sendEmail(toName, toEmail, subject, plainText, htmlBody string) error {
	if config.AppConfig.SendGridApiKey == "" {
		log.Println("[EMAIL] SENDGRID_API_KEY not set, skipping email to " + toEmail)
		return nil
	}

	from := mail.NewEmail("Training Platform", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	log.Printf("[EMAIL] Sent %q to %s", subject, toEmail)
	return nil
}

// SendEnrollmentActivatedEmail notifies the student that course access is open.
func SendEnrollmentActivatedEmail(user *models.User, formation *courseModels.Formation) {
	subject := "Your enrollment is active"
	plain := fmt.Sprintf("Hello %s,\n\nYour enrollment in %q is now active. You can start learning right away.\n",
		user.FullName(), formation.Title)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your enrollment in <strong>%s</strong> is now active. You can start learning right away.</p>",
		user.FullName(), formation.Title)

	if err := sendEmail(user.FullName(), user.Email, subject, plain, html); err != nil {
		log.Printf("[EMAIL] Failed to send enrollment activation email to %s: %v", user.Email, err)
	}
}

// SendCertificateIssuedEmail notifies the student that a certificate is ready.
func SendCertificateIssuedEmail(user *models.User, cert *courseModels.Certificate) {
	subject := "Your certificate is ready"
	plain := fmt.Sprintf("Hello %s,\n\nCongratulations on completing %q!\n\nCertificate number: %s\nVerification code: %s\n",
		user.FullName(), cert.FormationTitle, cert.CertificateNumber, cert.VerificationCode)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Congratulations on completing <strong>%s</strong>!</p><p>Certificate number: <strong>%s</strong><br>Verification code: <strong>%s</strong></p>",
		user.FullName(), cert.FormationTitle, cert.CertificateNumber, cert.VerificationCode)

	if err := sendEmail(user.FullName(), user.Email, subject, plain, html); err != nil {
		log.Printf("[EMAIL] Failed to send certificate email to %s: %v", user.Email, err)
	}
}
