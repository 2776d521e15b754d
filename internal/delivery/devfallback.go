package delivery

import (
	"context"
	"time"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/submission"
	"go.uber.org/zap"
)

// DevFallbackDeliverer logs the submission and makes no outbound call.
type DevFallbackDeliverer struct {
	delay time.Duration
}

func NewDevFallbackDeliverer(delay time.Duration) *DevFallbackDeliverer {
	return &DevFallbackDeliverer{delay: delay}
}

func (d *DevFallbackDeliverer) Mode() config.DeliveryMode {
	return config.DeliveryModeDevFallback
}

// Deliver waits the configured delay, returning early with an error if ctx ends first.
func (d *DevFallbackDeliverer) Deliver(ctx context.Context, p *submission.Payload) error {
	logger.FromContext(ctx).Info("address submission (dev fallback, not delivered)",
		zap.String("fullName", p.FullName),
		zap.String("email", p.Email),
		zap.String("phone", p.Phone),
		zap.String("address1", p.Address1),
		zap.String("address2", p.Address2),
		zap.String("city", p.City),
		zap.String("state", p.State),
		zap.String("zip", p.Zip),
		zap.String("submittedAt", p.SubmittedAt),
		zap.String("userAgent", p.UserAgent),
		zap.String("fortuneCookieHope", p.FortuneCookieHope),
	)

	if d.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return wrap(d.Mode(), ctx.Err())
	}
}
