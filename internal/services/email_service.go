package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/hputnam/tutordesk/pkg/logger"
)

// AWSSESNotifier sends account-lockout notifications using AWS SES
type AWSSESNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESNotifier creates a new AWS SES lockout notifier
func NewAWSSESNotifier(region, fromAddress string, logger *slog.Logger) (*AWSSESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendLockNotification tells the account holder their account was locked
// after repeated failed sign-in attempts and when it unlocks again.
func (s *AWSSESNotifier) SendLockNotification(ctx context.Context, email, username string, unlockAt time.Time) error {
	unlockText := unlockAt.UTC().Format("15:04 MST, Jan 2 2006")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Account Temporarily Locked</h1>
        </div>
        <div class="content">
            <p>Hello %s,</p>
            <p>Your account was locked after several unsuccessful sign-in attempts.</p>
            <div class="warning">
                <strong>⚠️ Security Notice:</strong> The account unlocks automatically at %s. No action is needed on your part.
            </div>
            <p><strong>Wasn't you?</strong><br>
            If you did not attempt to sign in, someone else may be trying to access your account. Contact an administrator to have your password changed.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, username, unlockText)

	textBody := fmt.Sprintf(`Account Temporarily Locked

Hello %s,

Your account was locked after several unsuccessful sign-in attempts.

The account unlocks automatically at %s. No action is needed on your part.

Wasn't you?
If you did not attempt to sign in, someone else may be trying to access your account. Contact an administrator to have your password changed.

This is an automated message. Please do not reply to this email.
`, username, unlockText)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your account has been temporarily locked"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	if _, err := s.sesClient.SendEmail(ctx, input); err != nil {
		s.logger.Error("failed to send lockout notification",
			slog.String("username", username),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("lockout notification sent",
		slog.String("username", username),
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}
