package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/processor"
	"voice-appointments-go/internal/types"
)

//go:embed web/index.html
var indexPage []byte

// Runner executes one call from placement to extraction.
type Runner interface {
	Run(ctx context.Context) (*types.CallResult, error)
}

type Handler struct {
	runner Runner
	log    *logger.Logger
}

func NewHandler(runner Runner, log *logger.Logger) *Handler {
	return &Handler{runner: runner, log: log.Component("api.handler")}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// MakeCall runs the whole pipeline synchronously. The caller waits for the
// phone call, the recording and the transcript before getting an answer.
func (h *Handler) MakeCall(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r)
	reqLog.Info("call requested")

	res, err := h.runner.Run(r.Context())
	if err != nil {
		status := statusFor(err)
		reqLog.WithFields(logrus.Fields{"status": status, "error": err.Error()}).Warn("call failed")
		writeJSON(w, status, types.ErrorResult{Error: err.Error()}, reqLog)
		return
	}

	reqLog.WithFields(logrus.Fields{
		"call_sid":    res.CallSID,
		"duration_ms": res.DurationMs,
	}).Info("call completed")
	writeJSON(w, http.StatusOK, res, reqLog)
}

func statusFor(err error) int {
	var se *processor.StageError
	switch {
	case errors.Is(err, processor.ErrCallInProgress):
		return http.StatusConflict
	case errors.As(err, &se):
		return se.HTTPStatus()
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, log *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
