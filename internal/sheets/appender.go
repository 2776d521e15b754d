// Package sheets appends submission rows through the spreadsheet values API.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/requester"
	"github.com/brizzai/address-relay/internal/submission"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public spreadsheet API host
const DefaultBaseURL = "https://sheets.googleapis.com"

// columns A..J, one per Row entry
const rowRange = "A:J"

// AppendError is a non-2xx answer from the append endpoint.
type AppendError struct {
	StatusCode int
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append failed with status %d", e.StatusCode)
}

type appendBody struct {
	Values [][]string `json:"values"`
}

// Appender writes one row per call.
type Appender struct {
	requester *requester.HTTPRequester
	baseURL   string
	now       func() time.Time
}

func NewAppender(r *requester.HTTPRequester, baseURL string) *Appender {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Appender{
		requester: r,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
	}
}

// AppendURL returns the values-append endpoint for sheetName!A:J.
func (a *Appender) AppendURL(spreadsheetID, sheetName string) string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append",
		a.baseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(sheetName+"!"+rowRange),
	)
}

// Append adds the payload's row below the last row of the sheet.
func (a *Appender) Append(ctx context.Context, spreadsheetID, sheetName string, token *oauth2.Token, p *submission.Payload) error {
	body, err := json.Marshal(appendBody{Values: [][]string{p.Row(a.now())}})
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	resp, err := a.requester.Execute(ctx, requester.RequestSpec{
		Method: http.MethodPost,
		URL:    a.AppendURL(spreadsheetID, sheetName),
		Query: url.Values{
			"valueInputOption": {"USER_ENTERED"},
			"insertDataOption": {"INSERT_ROWS"},
		},
		Body:        body,
		ContentType: "application/json",
		Auth:        requester.BearerAuth{Token: token},
	})
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	if !resp.OK() {
		logger.FromContext(ctx).Error("spreadsheet append failed",
			zap.Int("status", resp.StatusCode),
			zap.String("sheet", sheetName),
			zap.String("detail", strings.TrimSpace(string(resp.Body))),
		)
		return &AppendError{StatusCode: resp.StatusCode}
	}
	return nil
}
