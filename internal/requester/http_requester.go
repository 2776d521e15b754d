package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second

	// MaxResponseBytes bounds how much of an upstream body is read; bodies are
	// only used for token decoding and diagnostics.
	MaxResponseBytes = 1 << 20
)

// HTTPRequester executes single-attempt outbound calls with a bounded timeout
type HTTPRequester struct {
	client *http.Client
}

type HTTPRequesterParams struct {
	fx.In

	Config *config.Config
	Client *http.Client `optional:"true"`
}

// NewHTTPRequester creates a new HTTPRequester using the delivery timeout
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	timeout := defaultTimeout
	if params.Config != nil && params.Config.Delivery.Timeout > 0 {
		timeout = params.Config.Delivery.Timeout
	}

	// an injected client may be shared; its transport is reused, its settings are not touched
	client := &http.Client{}
	if params.Client != nil {
		c := *params.Client
		client = &c
	}
	client.Timeout = timeout

	return &HTTPRequester{client: client}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// Timeout returns the per-call timeout
func (r *HTTPRequester) Timeout() time.Duration {
	return r.client.Timeout
}

// Execute builds and sends one request. A non-2xx status is not an error;
// callers inspect Response.StatusCode.
func (r *HTTPRequester) Execute(ctx context.Context, spec RequestSpec) (*Response, error) {
	httpReq, err := BuildRequest(ctx, spec)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	target := RedactURL(httpReq.URL)
	start := time.Now()

	resp, err := r.client.Do(httpReq)
	if err != nil {
		log.Warn("outbound request failed",
			zap.String("method", httpReq.Method),
			zap.String("url", target),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(redactURLError(err)),
		)
		return nil, fmt.Errorf("request failed: %w", redactURLError(err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debug("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug("outbound request",
		zap.String("method", httpReq.Method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}
