// Package feealert watches the recommended network fee levels and alerts
// users whose configured threshold has been reached. An alert fires on every
// sweep while the half-hour fee stays at or below the threshold; there is no
// suppression window, so a user keeps being reminded until the fee climbs
// back or the threshold is removed.
package feealert

import (
	"context"
	"fmt"

	"github.com/satwatch/satwatch/internal/account"
	"github.com/satwatch/satwatch/internal/pkg/logger"
)

// Fees holds the three recommended tiers in sat/vB.
type Fees struct {
	Fastest  int64 // next block
	HalfHour int64 // ~30 minutes
	Hour     int64 // ~1 hour
}

// FeeSource fetches the current recommended fee tiers.
type FeeSource interface {
	RecommendedFees(ctx context.Context) (Fees, error)
}

// Notifier delivers fee alerts to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
}

// Service exposes fee levels on demand and runs the threshold sweep.
type Service interface {
	// Levels returns the current recommended tiers for the /gas command.
	Levels(ctx context.Context) (Fees, error)

	// Sweep fetches the tiers once and alerts every account whose threshold
	// is at or above the half-hour fee.
	Sweep(ctx context.Context, accounts []account.Account) error
}

type service struct {
	source   FeeSource
	notifier Notifier
}

var _ Service = (*service)(nil)

// New wires a fee alert service from its fee source and notification port.
func New(source FeeSource, notifier Notifier) *service {
	return &service{
		source:   source,
		notifier: notifier,
	}
}

func (s *service) Levels(ctx context.Context) (Fees, error) {
	return s.source.RecommendedFees(ctx)
}

func (s *service) Sweep(ctx context.Context, accounts []account.Account) error {
	fees, err := s.source.RecommendedFees(ctx)
	if err != nil {
		return fmt.Errorf("fetching recommended fees: %w", err)
	}

	for _, acct := range accounts {
		if acct.FeeThreshold == nil || fees.HalfHour > *acct.FeeThreshold {
			continue
		}

		text := fmt.Sprintf("⛽️ *Gas Price Alert!* *%d* sat/vB", fees.HalfHour)
		if _, err := s.notifier.Send(ctx, acct.ChatID, text); err != nil {
			// One unreachable chat must not starve the rest of the sweep.
			logger.Error(ctx, "sending fee alert",
				"chat_id", acct.ChatID,
				"error", err,
			)
		}
	}

	return nil
}
