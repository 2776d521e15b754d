package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/delivery"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/metrics"
	"github.com/brizzai/address-relay/internal/submission"
	"github.com/brizzai/address-relay/internal/utils"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// HeaderSubmissionID correlates a response with the server logs
	HeaderSubmissionID = "X-Submission-ID"

	MessageInvalidRequest = "Invalid request."
)

// SubmissionHandler serves POST /api/address: decode, validate, deliver once.
type SubmissionHandler struct {
	deliverer    delivery.Deliverer
	recorder     *metrics.Recorder
	maxBodyBytes int64
}

func NewSubmissionHandler(d delivery.Deliverer, recorder *metrics.Recorder, maxBodyBytes int64) *SubmissionHandler {
	return &SubmissionHandler{deliverer: d, recorder: recorder, maxBodyBytes: maxBodyBytes}
}

func (h *SubmissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	mode := string(h.deliverer.Mode())
	w.Header().Set(HeaderSubmissionID, id)

	log := logger.With(
		zap.String("submission_id", id),
		zap.String("mode", mode),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
	)
	ctx := logger.NewContext(r.Context(), log)

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	p, err := submission.Decode(body)
	if err != nil {
		log.Info("rejected malformed submission", zap.Error(err))
		h.count(mode, metrics.OutcomeMalformed)
		utils.WriteError(w, http.StatusBadRequest, MessageInvalidRequest)
		return
	}

	if err := submission.Validate(p); err != nil {
		message := err.Error()
		var ve *submission.ValidationError
		if errors.As(err, &ve) {
			message = ve.Message
			log.Info("rejected invalid submission", zap.String("field", ve.Field))
		}
		h.count(mode, metrics.OutcomeInvalid)
		utils.WriteError(w, http.StatusBadRequest, message)
		return
	}

	start := time.Now()
	err = h.deliverer.Deliver(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		status, message := delivery.FailureStatus(err)
		log.Error("submission delivery failed",
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		h.observe(mode, metrics.OutcomeFailed, elapsed)
		utils.WriteError(w, status, message)
		return
	}

	log.Info("submission delivered", zap.Duration("elapsed", elapsed))
	h.observe(mode, metrics.OutcomeDelivered, elapsed)

	resp := utils.SubmissionResponse{OK: true}
	if h.deliverer.Mode() == config.DeliveryModeDevFallback {
		resp.Mode = mode
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *SubmissionHandler) count(mode, outcome string) {
	if h.recorder != nil {
		h.recorder.Submission(mode, outcome)
	}
}

func (h *SubmissionHandler) observe(mode, outcome string, elapsed time.Duration) {
	if h.recorder != nil {
		h.recorder.Delivery(mode, outcome, elapsed)
		h.recorder.Submission(mode, outcome)
	}
}
