// Package delivery submits report bundles to the email and chat channels.
// Both channels are best-effort: a failure on one never blocks the other,
// and the cycle is complete even when both fail.
package delivery

import (
	"context"
	"fmt"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

// Service implements DeliveryService
type Service struct {
	email  interfaces.EmailClient // nil when not configured
	chat   interfaces.ChatClient  // nil when not configured
	cfg    common.EmailConfig
	logger *common.Logger
}

// NewService creates a new delivery service. Either client may be nil,
// in which case that channel is skipped.
func NewService(email interfaces.EmailClient, chat interfaces.ChatClient, cfg common.EmailConfig, logger *common.Logger) *Service {
	return &Service{
		email:  email,
		chat:   chat,
		cfg:    cfg,
		logger: logger,
	}
}

// Deliver submits the bundle to both channels and reports per-channel
// outcomes. Failures are logged, never returned as errors.
func (s *Service) Deliver(ctx context.Context, bundle *models.ReportBundle) models.DeliveryResult {
	var result models.DeliveryResult

	result.Email = s.deliverEmail(ctx, bundle)
	result.Chat = s.deliverChat(ctx, bundle)

	return result
}

func (s *Service) deliverEmail(ctx context.Context, bundle *models.ReportBundle) models.DeliveryChannelResult {
	if s.email == nil {
		s.logger.Warn().Msg("Email not configured, skipping email delivery")
		return models.DeliveryChannelResult{}
	}

	subject := fmt.Sprintf("Daily Stock Report - %s", bundle.GeneratedAt.Format("Jan 2, 2006"))
	msg := models.EmailMessage{
		From:     s.cfg.From,
		To:       s.cfg.To,
		Subject:  subject,
		HTMLBody: bundle.HTMLBody,
	}

	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("to", s.cfg.To).Msg("Email delivery failed")
		return models.DeliveryChannelResult{Attempted: true, Error: err.Error()}
	}

	s.logger.Info().Str("to", s.cfg.To).Msg("Email delivered")
	return models.DeliveryChannelResult{Attempted: true, Delivered: true}
}

func (s *Service) deliverChat(ctx context.Context, bundle *models.ReportBundle) models.DeliveryChannelResult {
	if s.chat == nil {
		s.logger.Warn().Msg("Chat webhook not configured, skipping chat delivery")
		return models.DeliveryChannelResult{}
	}

	title := fmt.Sprintf("Daily Stock Report - %s", bundle.GeneratedAt.Format("January 2, 2006"))
	text := chatText(bundle)

	if err := s.chat.PostSummary(ctx, title, text); err != nil {
		s.logger.Warn().Err(err).Msg("Chat delivery failed")
		return models.DeliveryChannelResult{Attempted: true, Error: err.Error()}
	}

	s.logger.Info().Msg("Chat summary posted")
	return models.DeliveryChannelResult{Attempted: true, Delivered: true}
}

// chatText picks the chat message body: narrative prose when the narrative
// path succeeded, otherwise the deterministic short summary.
func chatText(bundle *models.ReportBundle) string {
	if bundle.ChatSummary != "" {
		return bundle.ChatSummary
	}
	if bundle.ExecutiveSummary != "" {
		return bundle.ExecutiveSummary
	}
	return bundle.ShortSummaryText
}

// Ensure Service implements DeliveryService
var _ interfaces.DeliveryService = (*Service)(nil)
