package delivery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/brizzai/address-relay/internal/auth/constants"
	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/requester"
	"github.com/brizzai/address-relay/internal/submission"
	"go.uber.org/zap"
)

// WebhookStatusError is a non-2xx answer from the webhook.
type WebhookStatusError struct {
	StatusCode int
}

func (e *WebhookStatusError) Error() string {
	return fmt.Sprintf("webhook answered with status %d", e.StatusCode)
}

// WebhookDeliverer posts the submission JSON to a fixed URL.
type WebhookDeliverer struct {
	requester *requester.HTTPRequester
	url       string
	auth      requester.AuthManager
}

// NewWebhookDeliverer returns a deliverer for url. A non-empty token is sent
// as the token query parameter.
func NewWebhookDeliverer(r *requester.HTTPRequester, url, token string) *WebhookDeliverer {
	var auth requester.AuthManager = requester.NoAuth{}
	if token != "" {
		auth = requester.QueryTokenAuth{Param: constants.TokenQueryParam, Token: token}
	}
	return &WebhookDeliverer{requester: r, url: url, auth: auth}
}

func (d *WebhookDeliverer) Mode() config.DeliveryMode {
	return config.DeliveryModeWebhook
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, p *submission.Payload) error {
	body, err := p.JSON()
	if err != nil {
		return wrap(d.Mode(), fmt.Errorf("encode payload: %w", err))
	}

	resp, err := d.requester.Execute(ctx, requester.RequestSpec{
		Method:      http.MethodPost,
		URL:         d.url,
		Body:        body,
		ContentType: "application/json",
		Auth:        d.auth,
	})
	if err != nil {
		return wrap(d.Mode(), err)
	}
	if !resp.OK() {
		logger.FromContext(ctx).Error("webhook rejected submission",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", strings.TrimSpace(string(resp.Body))),
		)
		return wrap(d.Mode(), &WebhookStatusError{StatusCode: resp.StatusCode})
	}
	return nil
}
