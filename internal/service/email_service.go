package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"anagramgame/internal/models"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends assignment notices via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. It is disabled when
// fromEmail is empty.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("email service enabled")
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyAssignment tells recipient that a phrase is waiting for them. The
// phrase text itself is never included.
func (s *EmailService) NotifyAssignment(ctx context.Context, recipient *models.Player, phrase *models.Phrase) error {
	if !s.enabled {
		log.Debug().Int64("player_id", recipient.ID).Msg("skipping assignment notice (email disabled)")
		return nil
	}

	playLink := fmt.Sprintf("%s/play", s.appBaseURL)
	subject := "A new phrase is waiting for you"
	words := len(strings.Fields(phrase.Content))

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>Someone sent you a %d-word phrase to unscramble (difficulty %d).</p>
	<p><a href="%s">Open the game</a> to play it. Phrases sent to you are served before anything else.</p>
	<p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(recipient.Username), words, phrase.DifficultyLevel, playLink)

	textBody := fmt.Sprintf(`Hi %s,

Someone sent you a %d-word phrase to unscramble (difficulty %d).

Open the game to play it: %s

---
This is an automated email. Please do not reply.
`, recipient.Username, words, phrase.DifficultyLevel, playLink)

	return s.sendEmail(ctx, recipient.Email, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	event := log.Info().Str("to", toEmail).Str("subject", subject)
	if result.MessageId != nil {
		event = event.Str("message_id", *result.MessageId)
	}
	event.Msg("email sent")
	return nil
}
