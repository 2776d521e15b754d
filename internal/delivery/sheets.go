package delivery

import (
	"context"
	"fmt"

	"github.com/brizzai/address-relay/internal/auth/serviceaccount"
	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/sheets"
	"github.com/brizzai/address-relay/internal/submission"
)

type tokenSource interface {
	Token(ctx context.Context) (*serviceaccount.AccessToken, error)
}

// SheetsDeliverer obtains a fresh access token and appends one row.
type SheetsDeliverer struct {
	tokens        tokenSource
	appender      *sheets.Appender
	spreadsheetID string
	sheetName     string
}

func NewSheetsDeliverer(tokens *serviceaccount.TokenSource, appender *sheets.Appender, spreadsheetID, sheetName string) *SheetsDeliverer {
	return &SheetsDeliverer{
		tokens:        tokens,
		appender:      appender,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

func (d *SheetsDeliverer) Mode() config.DeliveryMode {
	return config.DeliveryModeSheets
}

func (d *SheetsDeliverer) Deliver(ctx context.Context, p *submission.Payload) error {
	tok, err := d.tokens.Token(ctx)
	if err != nil {
		return wrap(d.Mode(), fmt.Errorf("access token: %w", err))
	}
	if err := d.appender.Append(ctx, d.spreadsheetID, d.sheetName, tok.OAuth2(), p); err != nil {
		return wrap(d.Mode(), err)
	}
	return nil
}
