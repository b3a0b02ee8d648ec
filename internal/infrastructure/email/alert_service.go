package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/core/ports"
)

// AlertConfig holds the alert sender configuration.
type AlertConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	AlertEmail     string
}

// AlertService sends critical-entry notifications through SendGrid.
type AlertService struct {
	config *AlertConfig
	logger *logrus.Logger
	client *sendgrid.Client
}

// NewAlertService creates the SendGrid-backed alert sender.
func NewAlertService(config *AlertConfig, logger *logrus.Logger) (ports.AlertSender, error) {
	if config.SendGridAPIKey == "" || config.AlertEmail == "" {
		return nil, fmt.Errorf("alerting requires SENDGRID_API_KEY and ALERT_EMAIL")
	}
	return &AlertService{
		config: config,
		logger: logger,
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
	}, nil
}

func (s *AlertService) SendCriticalAlert(ctx context.Context, entry *log.LogEntry) error {
	from := mail.NewEmail(s.config.FromName, s.config.FromEmail)
	to := mail.NewEmail("", s.config.AlertEmail)
	subject := fmt.Sprintf("[CRITICAL] %s: %s", entry.Module, entry.Action)

	body := fmt.Sprintf(
		"A critical audit entry was recorded.\n\nTenant: %s\nModule: %s\nAction: %s\nEntry ID: %s\nCreated: %s\n",
		entry.TenantID, entry.Module, entry.Action, entry.ID, entry.CreatedAt.Format("2006-01-02 15:04:05 UTC"),
	)
	if entry.ActorEmail != nil {
		body += fmt.Sprintf("Actor: %s\n", *entry.ActorEmail)
	}

	message := mail.NewSingleEmail(from, subject, to, body, "")
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("alert email rejected with status %d", resp.StatusCode)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"tenant_id": entry.TenantID, "entry_id": entry.ID}).Info("critical-entry alert sent")
	}
	return nil
}
