// internal/notify/notifier.go

// Package notify sends the post-provisioning welcome messages. Delivery is
// best-effort: a failed send is logged and counted, never surfaced to the
// onboarding flow.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"receptionist-onboarding/internal/common/config"
	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/wizard"
)

// Interfaces over the AWS clients for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	config    config.NotificationConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewNotifier(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// SendWelcome emails the new account owner and optionally texts the business
// number. Recipient contact comes from the contact step when it was
// collected, otherwise from the business record.
func (n *Notifier) SendWelcome(ctx context.Context, payload *wizard.Payload) error {
	email := recipientEmail(payload)
	phone := recipientPhone(payload)

	var firstErr error

	if n.config.Email.Enabled && email != "" {
		if err := n.sendEmail(ctx, email, payload); err != nil {
			n.logger.Error("welcome email failed", map[string]interface{}{
				"email": email,
				"error": err.Error(),
			})
			firstErr = err
		}
	}

	if n.config.SMS.Enabled && phone != "" {
		if err := n.sendSMS(ctx, phone, payload); err != nil {
			n.logger.Error("welcome SMS failed", map[string]interface{}{
				"phone": phone,
				"error": err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, email string, payload *wizard.Payload) error {
	subject := fmt.Sprintf("Your receptionist for %s is being set up", payload.Step1.BusinessName)
	body := fmt.Sprintf(
		"Welcome aboard!\n\n"+
			"Your AI receptionist for %s is being provisioned on the %s plan. "+
			"We'll let you know the moment it starts answering calls.\n",
		payload.Step1.BusinessName, payload.Step5.SelectedPlan)

	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.config.Email.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailed("email", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, phone string, payload *wizard.Payload) error {
	message := fmt.Sprintf("Your AI receptionist for %s is being set up. Reply STOP to opt out.",
		payload.Step1.BusinessName)

	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}

	_, err := n.snsClient.Publish(ctx, input)
	if err != nil {
		return apperrors.NewNotificationSendFailed("sms", err)
	}
	return nil
}

func recipientEmail(payload *wizard.Payload) string {
	if v, ok := payload.Step4["email"].(string); ok {
		return v
	}
	return ""
}

func recipientPhone(payload *wizard.Payload) string {
	if v, ok := payload.Step4["phone"].(string); ok && v != "" {
		return v
	}
	if payload.Step1.BusinessDetails != nil {
		return payload.Step1.BusinessDetails.Phone
	}
	return ""
}
