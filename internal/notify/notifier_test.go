package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsclients "receptionist-onboarding/internal/common/aws"
	"receptionist-onboarding/internal/common/config"
	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/models"
	"receptionist-onboarding/internal/wizard"
)

// The AWS wrappers are what main wires in; they must keep satisfying the
// notifier interfaces.
var (
	_ SESService = (*awsclients.SESClient)(nil)
	_ SNSService = (*awsclients.SNSClient)(nil)
)

// ==========================
// Test Helper Functions
// ==========================

type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, params)
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, params)
	return &sns.PublishOutput{}, nil
}

func testConfig(email, sms bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = email
	cfg.Email.FromEmail = "welcome@receptionist.example"
	cfg.SMS.Enabled = sms
	return cfg
}

func payloadWithContact() *wizard.Payload {
	return &wizard.Payload{
		Step1: wizard.Step1Payload{
			BusinessName:    "Quiet Cafe",
			BusinessDetails: &models.BusinessRecord{Name: "Quiet Cafe"},
		},
		Step4: map[string]interface{}{
			"email": "dana@example.com",
			"phone": "+1 555 0101",
		},
		Step5: wizard.Step5Payload{SelectedPlan: models.PlanProfessional},
	}
}

func payloadWithBusinessPhone() *wizard.Payload {
	return &wizard.Payload{
		Step1: wizard.Step1Payload{
			BusinessName: "Ace Plumbing",
			BusinessDetails: &models.BusinessRecord{
				Name:  "Ace Plumbing",
				Phone: "+1 555 0100",
			},
		},
		Step4: map[string]interface{}{},
		Step5: wizard.Step5Payload{SelectedPlan: models.PlanStarter},
	}
}

// ==========================
// Welcome Notification Tests
// ==========================

func TestNotifier_SendWelcomeEmailAndSMS(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewNotifier(testConfig(true, true), sesMock, snsMock, logger.NewNop())

	err := n.SendWelcome(context.Background(), payloadWithContact())
	require.NoError(t, err)

	require.Len(t, sesMock.inputs, 1)
	assert.Equal(t, []string{"dana@example.com"}, sesMock.inputs[0].Destination.ToAddresses)
	assert.Contains(t, *sesMock.inputs[0].Message.Subject.Data, "Quiet Cafe")

	require.Len(t, snsMock.inputs, 1)
	assert.Equal(t, "+1 555 0101", *snsMock.inputs[0].PhoneNumber)
}

func TestNotifier_SMSFallsBackToBusinessPhone(t *testing.T) {
	snsMock := &mockSNS{}
	n := NewNotifier(testConfig(false, true), &mockSES{}, snsMock, logger.NewNop())

	err := n.SendWelcome(context.Background(), payloadWithBusinessPhone())
	require.NoError(t, err)

	require.Len(t, snsMock.inputs, 1)
	assert.Equal(t, "+1 555 0100", *snsMock.inputs[0].PhoneNumber)
}

func TestNotifier_NoRecipientEmailSkipsSend(t *testing.T) {
	sesMock := &mockSES{}
	n := NewNotifier(testConfig(true, false), sesMock, &mockSNS{}, logger.NewNop())

	err := n.SendWelcome(context.Background(), payloadWithBusinessPhone())
	require.NoError(t, err)
	assert.Empty(t, sesMock.inputs)
}

func TestNotifier_DisabledChannelsSendNothing(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := NewNotifier(testConfig(false, false), sesMock, snsMock, logger.NewNop())

	err := n.SendWelcome(context.Background(), payloadWithContact())
	require.NoError(t, err)
	assert.Empty(t, sesMock.inputs)
	assert.Empty(t, snsMock.inputs)
}

func TestNotifier_SendFailureReported(t *testing.T) {
	sesMock := &mockSES{err: errors.New("throttled")}
	n := NewNotifier(testConfig(true, false), sesMock, &mockSNS{}, logger.NewNop())

	err := n.SendWelcome(context.Background(), payloadWithContact())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotificationSendFailed))
}
