package delivery

import (
	"fmt"

	"github.com/brizzai/address-relay/internal/auth/serviceaccount"
	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/requester"
	"github.com/brizzai/address-relay/internal/sheets"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config    *config.Config
	Requester *requester.HTTPRequester
}

// New selects the deliverer for the resolved mode. In sheets mode the private
// key is parsed here so a malformed key stops startup.
func New(params Params) (Deliverer, error) {
	cfg := params.Config
	mode := cfg.ResolveMode()

	switch mode {
	case config.DeliveryModeWebhook:
		logger.Info("delivering submissions to webhook",
			zap.Bool("token", cfg.Webhook.Token != ""),
		)
		return NewWebhookDeliverer(params.Requester, cfg.Webhook.URL, cfg.Webhook.Token), nil

	case config.DeliveryModeSheets:
		signer, err := serviceaccount.NewRSASigner(cfg.Sheets.PrivateKeyPEM())
		if err != nil {
			return nil, err
		}
		builder := serviceaccount.NewBuilder(cfg.Sheets.ServiceAccountEmail, signer)
		builder.Scope = cfg.Sheets.Scope
		builder.Audience = cfg.Sheets.TokenURL

		tokens := serviceaccount.NewTokenSource(builder, serviceaccount.NewTokenClient(params.Requester, cfg.Sheets.TokenURL))
		appender := sheets.NewAppender(params.Requester, cfg.Sheets.APIBaseURL)

		logger.Info("delivering submissions to spreadsheet",
			zap.String("sheet", cfg.Sheets.SheetName),
			zap.String("service_account", cfg.Sheets.ServiceAccountEmail),
		)
		return NewSheetsDeliverer(tokens, appender, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName), nil

	case config.DeliveryModeDevFallback:
		logger.Warn("no delivery sink configured, submissions are only logged",
			zap.Duration("delay", cfg.Delivery.DevFallbackDelay),
		)
		return NewDevFallbackDeliverer(cfg.Delivery.DevFallbackDelay), nil
	}
	return nil, fmt.Errorf("unsupported delivery mode: %s", mode)
}

// Module provides the configured Deliverer
var Module = fx.Module("delivery",
	fx.Provide(New),
)
