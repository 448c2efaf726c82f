// Package scoring exposes the risk models as stateless endpoints.
package scoring

import (
	"errors"
	"net/http"

	"github.com/cenk2025/hardpath/internal/api/checkins"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/risk"
)

// Handler handles risk preview endpoints.
type Handler struct{}

// NewHandler creates a new scoring handler.
func NewHandler() *Handler {
	return &Handler{}
}

// OverexertionRequest is the body of POST /risk/overexertion.
type OverexertionRequest struct {
	HeartRate int  `json:"heart_rate"`
	SafeMax   *int `json:"safe_max"`
}

// Readiness scores a check-in without storing it.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	var req checkins.CheckinRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		respond.Validation(w, msg)
		return
	}
	respond.OK(w, risk.ScoreReadiness(risk.ReadinessInput{
		EnergyLevel: req.EnergyLevel,
		HeartRate:   req.HeartRate,
		SleepHours:  req.SleepHours,
		HRVMs:       req.HRVMs,
	}))
}

// Overexertion compares a heart rate with the safe maximum, 150 when omitted.
func (h *Handler) Overexertion(w http.ResponseWriter, r *http.Request) {
	var req OverexertionRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.HeartRate < 0 {
		respond.Validation(w, "heart_rate must not be negative")
		return
	}
	safeMax := risk.DefaultSafeMaxHR
	if req.SafeMax != nil {
		safeMax = *req.SafeMax
	}
	result, err := risk.DetectOverexertion(req.HeartRate, safeMax)
	if errors.Is(err, risk.ErrInvalidSafeMax) {
		respond.Validation(w, err.Error())
		return
	}
	if err != nil {
		respond.Internal(w, "detect overexertion", err)
		return
	}
	respond.OK(w, result)
}
