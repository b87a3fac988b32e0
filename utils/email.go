// utils/email.go
package utils

import (
	"fmt"
	"go-food-ordering/models"

	"github.com/keighl/postmark"
	"github.com/sirupsen/logrus"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
	log    logrus.FieldLogger
}

// NewEmailService returns nil when no token is configured; a nil service
// drops every message.
func NewEmailService(apiToken, sender string, log logrus.FieldLogger) *EmailService {
	if apiToken == "" {
		log.Warn("POSTMARK_API_TOKEN is not set; email notifications are disabled")
		return nil
	}
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
		log:    log,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es == nil {
		return nil
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	es.log.WithField("to", toEmail).Debug("Email sent")
	return nil
}

// SendOrderConfirmation tells the customer an order was placed
func (es *EmailService) SendOrderConfirmation(toEmail string, order models.Order) error {
	subject := "Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Your order (ID: %s) has been placed and is <strong>%s</strong>.<br><br>Total Amount: <strong>₹%.2f</strong><br><br>Thank you for ordering with us!",
		order.ID.Hex(),
		order.Status,
		order.TotalPrice,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPaymentReceipt tells the customer a payment was verified
func (es *EmailService) SendPaymentReceipt(toEmail string, payment models.Payment) error {
	subject := "Payment Received"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>We received your payment %s of <strong>%.2f %s</strong>.<br><br>Thank you!",
		payment.PaymentID,
		payment.Amount,
		payment.Currency,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
