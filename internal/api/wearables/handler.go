// Package wearables serves wearable connections and the vendor webhook.
package wearables

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
	"github.com/cenk2025/hardpath/internal/wearable"
)

const (
	// DefaultWaitTimeout applies when ?timeout= is absent.
	DefaultWaitTimeout = 60 * time.Second
	// MaxWaitTimeout caps a single long-poll.
	MaxWaitTimeout = 120 * time.Second
	// MaxWebhookBytes caps a webhook delivery.
	MaxWebhookBytes = 10 << 20
)

// Handler handles wearable endpoints.
type Handler struct {
	storage       storage.Storage
	connector     *wearable.Connector
	broker        *wearable.Broker
	ingester      *wearable.Ingester
	signingSecret string
	now           func() time.Time
}

// NewHandler creates a wearable handler. An empty signingSecret disables
// webhook signature verification.
func NewHandler(store storage.Storage, connector *wearable.Connector, broker *wearable.Broker, ingester *wearable.Ingester, signingSecret string) *Handler {
	return &Handler{
		storage:       store,
		connector:     connector,
		broker:        broker,
		ingester:      ingester,
		signingSecret: signingSecret,
		now:           time.Now,
	}
}

// ConnectRequest is the body of POST /wearables/connect.
type ConnectRequest struct {
	Provider string `json:"provider"`
}

// WaitResponse is the result of a connection long-poll.
type WaitResponse struct {
	Connected  bool                       `json:"connected"`
	Connection *models.WearableConnection `json:"connection"`
}

// List returns the caller's connections.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conns, err := h.storage.Wearables().ListByPatient(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respond.Internal(w, "list wearables", err)
		return
	}
	if conns == nil {
		conns = []*models.WearableConnection{}
	}
	respond.OK(w, conns)
}

// Providers returns the supported provider identifiers.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, models.Providers)
}

// Connect starts the vendor authorization flow and returns the widget URL.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	session, err := h.connector.Connect(ctx, middleware.GetUserID(ctx), req.Provider)
	switch {
	case err == nil:
		respond.OK(w, session)
	case errors.Is(err, wearable.ErrProviderRequired), errors.Is(err, wearable.ErrUnsupportedProvider):
		respond.Validation(w, err.Error())
	case errors.Is(err, wearable.ErrVendorNotConfigured):
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeUnavailable, "wearable integration is not configured")
	default:
		log.Printf("wearable connect failed for %s: %v", req.Provider, err)
		respond.Error(w, http.StatusBadGateway, respond.CodeBadGateway, "wearable vendor request failed")
	}
}

// WaitTimeout parses ?timeout= as a Go duration or a number of seconds.
func WaitTimeout(r *http.Request) (time.Duration, bool) {
	raw := r.URL.Query().Get("timeout")
	if raw == "" {
		return DefaultWaitTimeout, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		d, err = time.ParseDuration(raw + "s")
	}
	if err != nil || d <= 0 || d > MaxWaitTimeout {
		return 0, false
	}
	return d, true
}

// Wait long-polls until the caller's connection to {provider} is connected
// or the timeout elapses.
func (h *Handler) Wait(w http.ResponseWriter, r *http.Request) {
	provider, ok := models.ParseProvider(chi.URLParam(r, "provider"))
	if !ok {
		respond.Validation(w, "unsupported provider")
		return
	}
	timeout, ok := WaitTimeout(r)
	if !ok {
		respond.Validation(w, "timeout must be between 1s and 2m")
		return
	}

	ctx := r.Context()
	patientID := middleware.GetUserID(ctx)

	// Subscribe before reading so a webhook landing in between is not missed.
	done, cancel := h.broker.Subscribe(patientID, provider)
	defer cancel()

	conn, err := h.storage.Wearables().Get(ctx, patientID, provider)
	if err != nil {
		respond.Internal(w, "get wearable", err)
		return
	}
	if conn == nil {
		respond.NotFound(w, "no connection started for provider")
		return
	}
	if conn.Status == models.WearableConnected {
		respond.OK(w, WaitResponse{Connected: true, Connection: conn})
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		respond.OK(w, WaitResponse{Connection: conn})
		return
	case <-ctx.Done():
		return
	}

	conn, err = h.storage.Wearables().Get(ctx, patientID, provider)
	if err != nil {
		respond.Internal(w, "get wearable", err)
		return
	}
	respond.OK(w, WaitResponse{Connected: conn != nil && conn.Status == models.WearableConnected, Connection: conn})
}

// Delete removes the caller's connection to {provider}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	provider, ok := models.ParseProvider(chi.URLParam(r, "provider"))
	if !ok {
		respond.Validation(w, "unsupported provider")
		return
	}
	ctx := r.Context()
	err := h.storage.Wearables().Delete(ctx, middleware.GetUserID(ctx), provider)
	if errors.Is(err, storage.ErrNotFound) {
		respond.NotFound(w, "connection not found")
		return
	}
	if err != nil {
		respond.Internal(w, "delete wearable", err)
		return
	}
	respond.NoContent(w)
}

// Webhook ingests a vendor delivery. Deliveries for unknown or missing
// references are acknowledged so the vendor does not retry them.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(w, http.StatusRequestEntityTooLarge, respond.CodeBadRequest, "request body too large")
			return
		}
		respond.BadRequest(w, "could not read request body")
		return
	}

	if h.signingSecret != "" {
		err := wearable.VerifySignature(h.signingSecret, r.Header.Get(wearable.SignatureHeader), body, h.now(), wearable.DefaultSignatureTolerance)
		if err != nil {
			log.Printf("wearable webhook rejected from %s: %v", middleware.ClientIP(r), err)
			respond.Unauthorized(w, "invalid signature")
			return
		}
	}

	var payload wearable.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		respond.BadRequest(w, "invalid payload")
		return
	}

	res, err := h.ingester.Handle(r.Context(), &payload)
	switch {
	case err == nil:
		respond.OK(w, res)
	case errors.Is(err, wearable.ErrMissingReference), errors.Is(err, wearable.ErrUnknownPatient):
		log.Printf("wearable webhook ignored: %v", err)
		respond.OK(w, res)
	default:
		respond.Internal(w, "ingest wearable webhook", err)
	}
}
