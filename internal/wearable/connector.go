package wearable

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

var (
	// ErrProviderRequired is returned when the connect request names no provider.
	ErrProviderRequired = errors.New("provider is required")
	// ErrUnsupportedProvider is returned for providers outside models.Providers.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrPatientRequired is returned when the connect request names no patient.
	ErrPatientRequired = errors.New("patient id is required")
)

// SessionIssuer obtains vendor auth sessions. *Client implements it.
type SessionIssuer interface {
	Configured() bool
	GenerateAuthToken(ctx context.Context, provider models.Provider, referenceID string) (*AuthSession, error)
}

// Connector starts the provider authorization flow for a patient.
type Connector struct {
	issuer    SessionIssuer
	wearables storage.WearableRepository
}

// NewConnector creates a connector.
func NewConnector(issuer SessionIssuer, wearables storage.WearableRepository) *Connector {
	return &Connector{issuer: issuer, wearables: wearables}
}

// Connect obtains an authorization URL and records a pending connection
// before returning it.
func (c *Connector) Connect(ctx context.Context, patientID, providerName string) (*AuthSession, error) {
	if providerName == "" {
		metrics.ConnectRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrProviderRequired
	}
	if patientID == "" {
		metrics.ConnectRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrPatientRequired
	}
	provider, ok := models.ParseProvider(providerName)
	if !ok {
		metrics.ConnectRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}
	if !c.issuer.Configured() {
		metrics.ConnectRequestsTotal.WithLabelValues("not_configured").Inc()
		return nil, ErrVendorNotConfigured
	}

	session, err := c.issuer.GenerateAuthToken(ctx, provider, patientID)
	if err != nil {
		metrics.ConnectRequestsTotal.WithLabelValues("vendor_error").Inc()
		return nil, err
	}

	if err := c.wearables.UpsertPending(ctx, patientID, provider, session.SessionID); err != nil {
		metrics.ConnectRequestsTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	metrics.ConnectRequestsTotal.WithLabelValues("ok").Inc()
	return session, nil
}
