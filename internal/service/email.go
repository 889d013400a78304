package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/templui/claimguard/internal/model"
)

// Notifier tells claimants about changes to their claims.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, claimant *model.User, claim *model.Claim) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	enabled   bool
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, enabled, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		enabled:   enabled,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) NotifyStatusChange(ctx context.Context, claimant *model.User, claim *model.Claim) error {
	if !s.enabled || claimant == nil {
		return nil
	}

	claimURL := fmt.Sprintf("%s/claims/%s", s.appURL, claim.ID)
	subject, body := statusChangeEmailTemplate(claimant.Name, claim, claimURL, s.appName)

	return s.send(ctx, "claim_status", claimant.Email, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
