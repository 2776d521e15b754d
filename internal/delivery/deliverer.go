// Package delivery forwards a validated submission to the one configured sink.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/submission"
)

// Public messages returned to clients. Upstream detail is only logged.
const (
	MessageWebhookFailed    = "Webhook request failed."
	MessageSubmissionFailed = "Submission failed."
)

// Deliverer sends one submission to a sink.
type Deliverer interface {
	Mode() config.DeliveryMode
	Deliver(ctx context.Context, p *submission.Payload) error
}

// Error is a failed delivery. Err keeps the cause for logging.
type Error struct {
	Mode config.DeliveryMode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Mode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the failure to an HTTP status: a webhook failure is a bad
// gateway, everything else an internal error.
func (e *Error) Status() int {
	if e.Mode == config.DeliveryModeWebhook {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Message is the client-facing error text for the failure.
func (e *Error) Message() string {
	if e.Mode == config.DeliveryModeWebhook {
		return MessageWebhookFailed
	}
	return MessageSubmissionFailed
}

func wrap(mode config.DeliveryMode, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Mode: mode, Err: err}
}

// FailureStatus returns the status and public message for any delivery error.
func FailureStatus(err error) (int, string) {
	var de *Error
	if errors.As(err, &de) {
		return de.Status(), de.Message()
	}
	return http.StatusInternalServerError, MessageSubmissionFailed
}
