package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	Client *resend.Client
	From   string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("RESEND_API_KEY")
	fromEmail := os.Getenv("FROM_EMAIL")

	if apiKey == "" {
		log.Printf("⚠️  WARNING: RESEND_API_KEY is empty, emails will fail")
	}
	if fromEmail == "" {
		fromEmail = "onboarding@resend.dev" // Resend's default test sender
	}

	return &EmailService{
		Client: resend.NewClient(apiKey),
		From:   fromEmail,
	}
}

// GenerateOTP generates a 6-digit OTP
func GenerateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendOTPEmail sends OTP via email using Resend
func (es *EmailService) SendOTPEmail(to, otp, purpose string) error {
	var subject, heading, intro string
	if purpose == "signup" {
		subject = "Welcome to Bharose Pe - Verify Your Email"
		heading = "Welcome to Bharose Pe!"
		intro = "Thank you for signing up. Please use the following OTP to verify your email address:"
	} else {
		subject = "Bharose Pe - Password Reset Request"
		heading = "Password Reset Request"
		intro = "We received a request to reset your Bharose Pe account password. Use the following OTP:"
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2>%s</h2>
        <p>%s</p>
        <div style="background-color: #f4f4f4; border: 2px dashed #0a7d52; padding: 20px; text-align: center; margin: 20px 0; border-radius: 5px;">
            <span style="font-size: 32px; font-weight: bold; color: #0a7d52; letter-spacing: 5px;">%s</span>
        </div>
        <p>This OTP will expire in <strong>10 minutes</strong>.</p>
        <p>If you didn't request this, please ignore this email.</p>
    </div>
</body>
</html>
`, heading, intro, otp)

	params := &resend.SendEmailRequest{
		From:    es.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := es.Client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	log.Printf("✅ OTP email sent to %s (ID: %s)", to, sent.Id)
	return nil
}

// SendEventEmail mirrors a high-urgency in-app notification (disputes,
// escalations) to the recipient's inbox. Failures are the caller's to log;
// email is never load-bearing for the lifecycle itself.
func (es *EmailService) SendEventEmail(to, title, message string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2>%s</h2>
        <p>%s</p>
        <p>Open Bharose Pe to review and respond.</p>
    </div>
</body>
</html>
`, title, message)

	params := &resend.SendEmailRequest{
		From:    es.From,
		To:      []string{to},
		Subject: "Bharose Pe - " + title,
		Html:    htmlBody,
	}

	if _, err := es.Client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send event email: %v", err)
	}
	return nil
}
