package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenk2025/hardpath/internal/alerting"
	"github.com/cenk2025/hardpath/internal/api"
	"github.com/cenk2025/hardpath/internal/api/health"
	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/notifier"
	"github.com/cenk2025/hardpath/internal/storage"
	"github.com/cenk2025/hardpath/internal/wearable"
	"github.com/cenk2025/hardpath/pkg/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "heartpath-server",
	Short: "HeartPath Server - Cardiac rehabilitation portal backend",
	Long: `HeartPath Server serves the patient and care-team REST API,
ingests wearable data, raises alerts and notifies the care team.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("heartpath-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store := storage.NewSQLiteStorage(cfg.Database.Path, []byte(cfg.MasterKey))
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Create default admin user on first run
	if err := store.EnsureAdminUser(); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	rules, err := loadRules(ctx, cfg.Alerts)
	if err != nil {
		return err
	}

	dispatcher, err := buildDispatcher(cfg.Notify)
	if err != nil {
		return err
	}
	if dispatcher != nil {
		defer dispatcher.Close()
	}

	vendor := wearable.NewClient(wearable.ClientConfig{
		APIURL:    cfg.Wearable.APIURL,
		WidgetURL: cfg.Wearable.WidgetURL,
		APIKey:    cfg.Wearable.APIKey,
		DevID:     cfg.Wearable.DevID,
		Timeout:   cfg.Wearable.ConnectTimeout,
	})
	if !vendor.Configured() {
		log.Printf("wearable vendor credentials missing, device connections disabled")
	}

	srv, err := api.New(&api.Config{
		Address:          cfg.Server.HTTPAddress,
		JWTSecret:        []byte(cfg.JWTSecret),
		TLSEnabled:       cfg.Server.TLS.Enabled,
		TLSCertFile:      cfg.Server.TLS.CertFile,
		TLSKeyFile:       cfg.Server.TLS.KeyFile,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AccessTokenTTL:   cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL:  cfg.Auth.RefreshTokenTTL,
		RateLimitPerIP:   cfg.Auth.RateLimitPerIP,
		RateLimitPerUser: cfg.Auth.RateLimitPerUser,
		WebhookRateLimit: cfg.Auth.WebhookRateLimit,
		LockoutThreshold: cfg.Auth.LockoutThreshold,
		LockoutDuration:  cfg.Auth.LockoutDuration,
		WebhookSecret:    cfg.Wearable.SigningSecret,
		Verbose:          cfg.Verbose,
	}, store, api.Deps{
		Notifier: dispatcher,
		Vendor:   vendor,
		Rules:    rules,
	})
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	srv.RegisterHealthChecker(health.NewSQLiteChecker(store.DB()))

	if cfg.Server.MetricsAddress != "" {
		metricsSrv := metrics.NewServer(cfg.Server.MetricsAddress)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	log.Printf("starting heartpath-server %s", config.Version)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	log.Printf("server stopped")
	return nil
}

// loadRules loads custom alert rules and, when asked, watches the file for
// changes until ctx ends. It returns nil when no rules file is configured.
func loadRules(ctx context.Context, cfg AlertsConfig) (*alerting.RuleSet, error) {
	if cfg.RulesFile == "" {
		return nil, nil
	}

	set := alerting.NewRuleSet(nil)
	watcher, err := alerting.NewRuleWatcher(cfg.RulesFile, set)
	if err != nil {
		return nil, fmt.Errorf("load alert rules: %w", err)
	}
	log.Printf("loaded %d alert rules from %s", len(set.Rules()), cfg.RulesFile)

	if cfg.WatchRules {
		watcher.OnReload = func(n int, err error) {
			if err != nil {
				log.Printf("reload alert rules failed: %v", err)
				return
			}
			log.Printf("reloaded %d alert rules", n)
		}
		go watcher.Run(ctx)
	}
	return set, nil
}

// buildDispatcher registers every configured notification channel. It returns
// nil when no channel is configured.
func buildDispatcher(cfg NotifyConfig) (*notifier.Dispatcher, error) {
	d := notifier.NewDispatcherWithRateLimit(notifier.RateLimitConfig{
		MaxPerWindow: cfg.MaxPerWindow,
		Window:       cfg.Window,
		Enabled:      true,
	})

	if cfg.SlackWebhookURL != "" {
		n, err := notifier.NewSlackNotifier(notifier.SlackConfig{WebhookURL: cfg.SlackWebhookURL})
		if err != nil {
			return nil, fmt.Errorf("configure slack notifier: %w", err)
		}
		d.Register(n)
	}
	if cfg.TeamsWebhookURL != "" {
		n, err := notifier.NewTeamsNotifier(notifier.TeamsConfig{WebhookURL: cfg.TeamsWebhookURL})
		if err != nil {
			return nil, fmt.Errorf("configure teams notifier: %w", err)
		}
		d.Register(n)
	}
	if cfg.Email.Enabled {
		n, err := notifier.NewEmailNotifier(notifier.EmailConfig{
			Host:       cfg.Email.Host,
			Port:       cfg.Email.Port,
			Username:   cfg.Email.Username,
			Password:   cfg.Email.Password,
			From:       cfg.Email.From,
			Recipients: cfg.Email.Recipients,
		})
		if err != nil {
			return nil, fmt.Errorf("configure email notifier: %w", err)
		}
		d.Register(n)
	}

	names := d.Names()
	if len(names) == 0 {
		log.Printf("no notification channels configured")
		return nil, nil
	}
	log.Printf("notification channels: %v", names)
	return d, nil
}
