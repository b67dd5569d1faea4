package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"familysafe/internal/config"
)

// EmailService sends alert notification emails through SES. When no sender
// address is configured the service stays disabled and sends become no-ops,
// which keeps local development free of AWS credentials.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates the SES-backed email service
func NewEmailService(cfg *config.Config) *EmailService {
	if cfg.SESFromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not set")
		return &EmailService{enabled: false}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		log.Printf("Email service disabled: failed to load AWS config: %v", err)
		return &EmailService{enabled: false}
	}

	return &EmailService{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.SESFromEmail,
		fromName:  cfg.SESFromName,
		enabled:   true,
	}
}

// Enabled reports whether the service will actually send
func (s *EmailService) Enabled() bool {
	return s.enabled
}

// SendAlertEmail notifies a parent that a child raised an alert
func (s *EmailService) SendAlertEmail(ctx context.Context, toEmail, childName, alertType, message string) error {
	if !s.enabled {
		return nil
	}

	subject := fmt.Sprintf("Safety alert: %s", childName)
	body := fmt.Sprintf(
		"An alert was raised for %s.\n\nType: %s\n%s\n\nOpen the app to see their location and respond.",
		childName, alertType, message,
	)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
