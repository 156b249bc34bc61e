// Package daemon manages the partnergate daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Upstream UpstreamConfig `toml:"upstream"`
}

// ServerConfig controls the HTTP/HTTPS listeners.
type ServerConfig struct {
	Host      string `toml:"host"`
	HTTPPort  int    `toml:"http_port"`
	HTTPSPort int    `toml:"https_port"`
	TLSCert   string `toml:"tls_cert"`
	TLSKey    string `toml:"tls_key"`
}

// GatewayConfig controls gateway behavior.
type GatewayConfig struct {
	DemoMode       bool     `toml:"demo_mode"`
	SiteURL        string   `toml:"site_url"`   // frontend origin, added to the allow-list
	ServerURL      string   `toml:"server_url"` // manifest homepage override
	AllowedOrigins []string `toml:"allowed_origins"`
	DataDir        string   `toml:"data_dir"` // idempotency store location; empty disables the store
}

// UpstreamConfig holds collaborator credentials. All optional; without
// them the real branch reports a configuration error.
type UpstreamConfig struct {
	StripeSecretKey    string `toml:"stripe_secret_key"`
	ShopifyStoreURL    string `toml:"shopify_store_url"`
	ShopifyAccessToken string `toml:"shopify_access_token"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			HTTPPort:  8080,
			HTTPSPort: 8443,
			TLSCert:   filepath.Join(gateHome(), "cert", "localhost.pem"),
			TLSKey:    filepath.Join(gateHome(), "cert", "localhost-key.pem"),
		},
		Gateway: GatewayConfig{
			DemoMode: true,
			DataDir:  gateHome(),
		},
	}
}

// LoadConfig reads config from $PARTNERGATE_HOME/config.toml (defaulting to
// ~/.partnergate), falling back to defaults, then applies environment
// overrides. Deployment platforms configure via env, local runs via TOML.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(gateHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays the deployment-time environment variables.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("DEMO_MODE"); ok {
		cfg.Gateway.DemoMode = v == "true"
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = p
		}
	}
	if v := os.Getenv("HTTPS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPSPort = p
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Gateway.AllowedOrigins = origins
	}
	if v := os.Getenv("SITE_URL"); v != "" {
		cfg.Gateway.SiteURL = v
	}
	if v := os.Getenv("MCP_SERVER_URL"); v != "" {
		cfg.Gateway.ServerURL = v
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		cfg.Server.TLSCert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		cfg.Server.TLSKey = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Upstream.StripeSecretKey = v
	}
	if v := os.Getenv("SHOPIFY_STORE_URL"); v != "" {
		cfg.Upstream.ShopifyStoreURL = v
	}
	if v := os.Getenv("SHOPIFY_ACCESS_TOKEN"); v != "" {
		cfg.Upstream.ShopifyAccessToken = v
	}
}

// gateHome returns the partnergate data directory.
func gateHome() string {
	if env := os.Getenv("PARTNERGATE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".partnergate")
}
