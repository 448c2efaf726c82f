// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenk2025/hardpath/internal/alerting"
	"github.com/cenk2025/hardpath/internal/api/auth"
	"github.com/cenk2025/hardpath/internal/api/health"
	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/notifier"
	"github.com/cenk2025/hardpath/internal/realtime"
	"github.com/cenk2025/hardpath/internal/storage"
	"github.com/cenk2025/hardpath/internal/wearable"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address             string
	JWTSecret           []byte
	TLSEnabled          bool
	TLSCertFile         string
	TLSKeyFile          string
	AllowedOrigins      []string // Websocket origins; empty allows any
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	RateLimitPerIP      int // Auth requests per RateLimitWindow
	RateLimitWindow     time.Duration
	RateLimitPerUser    int // Authenticated requests per minute
	WebhookRateLimit    int // Webhook deliveries per minute per IP
	LockoutThreshold    int
	LockoutDuration     time.Duration
	WebhookSecret       string // Empty disables signature verification
	MaintenanceInterval time.Duration
	Verbose             bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 10
	}
	if c.RateLimitWindow == 0 {
		c.RateLimitWindow = 15 * time.Minute
	}
	if c.RateLimitPerUser == 0 {
		c.RateLimitPerUser = 120
	}
	if c.WebhookRateLimit == 0 {
		c.WebhookRateLimit = 600
	}
	if c.LockoutThreshold == 0 {
		c.LockoutThreshold = 5
	}
	if c.LockoutDuration == 0 {
		c.LockoutDuration = 30 * time.Minute
	}
	if c.MaintenanceInterval == 0 {
		c.MaintenanceInterval = time.Hour
	}
}

// Deps are the optional collaborators of the server.
type Deps struct {
	// Notifier receives critical symptom notifications. Nil disables them.
	Notifier *notifier.Dispatcher
	// Vendor issues wearable auth sessions. Nil leaves wearables unconfigured.
	Vendor wearable.SessionIssuer
	// Rules are the custom alert rules. Nil disables them.
	Rules *alerting.RuleSet
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	storage       storage.Storage
	deps          Deps
	server        *http.Server
	healthHandler *health.Handler

	jwt         *auth.JWTService
	tokens      *auth.TokenService
	lockout     *auth.LockoutTracker
	ipLimiter   *middleware.RateLimiter
	userLimiter *middleware.RateLimiter
	hookLimiter *middleware.RateLimiter
	hub         *realtime.Hub
	broker      *wearable.Broker
	alerts      *alerting.Service
	ingester    *wearable.Ingester
	connector   *wearable.Connector
}

// New creates a new API server.
func New(cfg *Config, store storage.Storage, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is required")
	}

	cfg.SetDefaults()
	if deps.Vendor == nil {
		deps.Vendor = wearable.NewClient(wearable.ClientConfig{})
	}

	s := &Server{
		config:        cfg,
		storage:       store,
		deps:          deps,
		healthHandler: health.NewHandler(),
		jwt:           auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL),
		tokens:        auth.NewTokenService(store, cfg.RefreshTokenTTL),
		lockout:       auth.NewLockoutTracker(cfg.LockoutThreshold, cfg.LockoutDuration),
		ipLimiter:     middleware.NewRateLimiter(cfg.RateLimitPerIP, cfg.RateLimitWindow),
		userLimiter:   middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute),
		hookLimiter:   middleware.NewRateLimiter(cfg.WebhookRateLimit, time.Minute),
		hub:           realtime.NewHub(cfg.AllowedOrigins),
		broker:        wearable.NewBroker(),
		alerts:        alerting.NewService(store, deps.Rules),
	}
	s.connector = wearable.NewConnector(deps.Vendor, store.Wearables())
	s.ingester = wearable.NewIngester(store, s.broker)
	s.ingester.OnConnected = func(patientID string, provider models.Provider) {
		s.hub.SendToUser(patientID, realtime.EventWearableConnected, map[string]any{"provider": provider})
	}

	s.server = &http.Server{
		Addr:        cfg.Address,
		Handler:     s.setupRouter(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays 0: websocket connections and the wearable
		// long-poll outlive any fixed write deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.TLSEnabled {
		s.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		var err error
		if s.config.TLSEnabled {
			err = s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	maintCtx, stopMaint := context.WithCancel(ctx)
	defer stopMaint()
	go s.maintenanceLoop(maintCtx)

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.hub.Close()
		err := s.server.Shutdown(shutdownCtx)
		s.Close()
		return err
	case err := <-errChan:
		s.Close()
		return err
	}
}

// Close releases background resources. Run calls it on exit.
func (s *Server) Close() {
	s.hub.Close()
	s.lockout.Close()
	s.ipLimiter.Close()
	s.userLimiter.Close()
	s.hookLimiter.Close()
}

func (s *Server) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.MaintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runMaintenance(ctx)
		}
	}
}

func (s *Server) runMaintenance(ctx context.Context) {
	if n, err := s.tokens.CleanupExpiredTokens(ctx); err != nil {
		log.Printf("maintenance: cleanup tokens: %v", err)
	} else if n > 0 {
		log.Printf("maintenance: removed %d expired refresh tokens", n)
	}
	if n, err := s.alerts.Prune(ctx, time.Now()); err != nil {
		log.Printf("maintenance: prune alert resolutions: %v", err)
	} else if n > 0 {
		log.Printf("maintenance: pruned %d alert resolutions", n)
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
