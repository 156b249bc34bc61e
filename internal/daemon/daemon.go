package daemon

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/partnergate/partnergate/internal/api"
	"github.com/partnergate/partnergate/internal/gateway"
	"github.com/partnergate/partnergate/internal/health"
	"github.com/partnergate/partnergate/internal/infra/sqlite"
	"github.com/partnergate/partnergate/internal/mcp"
	"github.com/partnergate/partnergate/internal/tools"
)

// Daemon is the core partnergate runtime. It wires together all services.
type Daemon struct {
	Config     Config
	DB         *sqlite.DB
	Dispatcher *gateway.Dispatcher
	Guard      *gateway.OriginGuard
	Server     *api.Server
	Health     *health.Checker
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	var db *sqlite.DB
	if cfg.Gateway.DataDir != "" {
		var err error
		db, err = sqlite.Open(cfg.Gateway.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}

	registry := tools.NewRegistry()

	client := &tools.Client{
		DemoMode:           cfg.Gateway.DemoMode,
		SiteURL:            cfg.Gateway.SiteURL,
		StripeSecretKey:    cfg.Upstream.StripeSecretKey,
		ShopifyStoreURL:    cfg.Upstream.ShopifyStoreURL,
		ShopifyAccessToken: cfg.Upstream.ShopifyAccessToken,
		HTTPClient:         &http.Client{Timeout: gateway.DefaultCallTimeout},
	}

	var idem *gateway.IdempotencyResolver
	if db != nil {
		idem = gateway.NewIdempotencyResolver(db)
	} else {
		idem = gateway.NewIdempotencyResolver(nil)
	}

	dispatcher := gateway.NewDispatcher(registry, client, idem)

	guard := gateway.NewOriginGuard(
		cfg.Server.HTTPPort, cfg.Server.HTTPSPort,
		cfg.Gateway.SiteURL, cfg.Gateway.AllowedOrigins,
	)

	srv := api.NewServer(dispatcher, guard)
	srv.SetDemoMode(cfg.Gateway.DemoMode)
	srv.SetServerURL(cfg.Gateway.ServerURL)
	srv.SetMCPHandler(mcp.NewServer(dispatcher))
	if db != nil {
		srv.SetStore(db)
	}

	var checker *health.Checker
	if db != nil {
		checker = health.NewChecker(db)
	} else {
		checker = health.NewChecker(nil)
	}

	return &Daemon{
		Config:     cfg,
		DB:         db,
		Dispatcher: dispatcher,
		Guard:      guard,
		Server:     srv,
		Health:     checker,
	}, nil
}

// Serve runs the HTTP (and, when TLS material exists, HTTPS) listeners
// until ctx is cancelled or a shutdown signal arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go d.Server.Hub().Start(ctx)
	go d.Health.Run(ctx)

	handler := d.Server.Handler()

	httpAddr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.HTTPPort)
	httpSrv := &http.Server{Addr: httpAddr, Handler: handler}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("[daemon] HTTP server listening on %s (demo=%v)", httpAddr, d.Config.Gateway.DemoMode)
		log.Printf("[daemon] allowed origins: %v", d.Guard.Origins())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var httpsSrv *http.Server
	if tlsAvailable(d.Config.Server.TLSCert, d.Config.Server.TLSKey) {
		httpsAddr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.HTTPSPort)
		httpsSrv = &http.Server{
			Addr:      httpsAddr,
			Handler:   handler,
			TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		}
		go func() {
			log.Printf("[daemon] HTTPS server listening on %s", httpsAddr)
			if err := httpsSrv.ListenAndServeTLS(d.Config.Server.TLSCert, d.Config.Server.TLSKey); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	} else if d.Config.Server.TLSCert != "" {
		log.Printf("[daemon] TLS material not found at %s; serving HTTP only", d.Config.Server.TLSCert)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("[daemon] received %v, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if httpsSrv != nil {
		_ = httpsSrv.Shutdown(shutdownCtx)
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	return nil
}

func tlsAvailable(cert, key string) bool {
	if cert == "" || key == "" {
		return false
	}
	if _, err := os.Stat(cert); err != nil {
		return false
	}
	if _, err := os.Stat(key); err != nil {
		return false
	}
	return true
}
