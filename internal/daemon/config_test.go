package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("PARTNERGATE_HOME", t.TempDir())

	cfg := DefaultConfig()
	if cfg.Server.HTTPPort != 8080 || cfg.Server.HTTPSPort != 8443 {
		t.Errorf("ports = %d/%d", cfg.Server.HTTPPort, cfg.Server.HTTPSPort)
	}
	if !cfg.Gateway.DemoMode {
		t.Error("demo mode should default on")
	}
	if cfg.Gateway.DataDir == "" {
		t.Error("data dir should default to the partnergate home")
	}
}

func TestLoadConfig_TOMLFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PARTNERGATE_HOME", home)

	content := `
[server]
http_port = 9090

[gateway]
demo_mode = false
site_url = "https://shop.example"
allowed_origins = ["https://partner.example"]

[upstream]
stripe_secret_key = "sk_test_file"
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d", cfg.Server.HTTPPort)
	}
	if cfg.Gateway.DemoMode {
		t.Error("demo_mode = false not applied")
	}
	if cfg.Gateway.SiteURL != "https://shop.example" {
		t.Errorf("SiteURL = %q", cfg.Gateway.SiteURL)
	}
	if len(cfg.Gateway.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.Gateway.AllowedOrigins)
	}
	if cfg.Upstream.StripeSecretKey != "sk_test_file" {
		t.Errorf("StripeSecretKey = %q", cfg.Upstream.StripeSecretKey)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PARTNERGATE_HOME", t.TempDir())
	t.Setenv("DEMO_MODE", "false")
	t.Setenv("PORT", "7070")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SITE_URL", "https://env.example")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Gateway.DemoMode {
		t.Error("DEMO_MODE=false not applied")
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want PORT override", cfg.Server.HTTPPort)
	}
	if len(cfg.Gateway.AllowedOrigins) != 2 || cfg.Gateway.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Gateway.AllowedOrigins)
	}
	if cfg.Gateway.SiteURL != "https://env.example" {
		t.Errorf("SiteURL = %q", cfg.Gateway.SiteURL)
	}
	if cfg.Upstream.StripeSecretKey != "sk_test_env" {
		t.Errorf("StripeSecretKey = %q", cfg.Upstream.StripeSecretKey)
	}
}

func TestLoadConfig_HTTPPortBeatsPort(t *testing.T) {
	t.Setenv("PARTNERGATE_HOME", t.TempDir())
	t.Setenv("HTTP_PORT", "6060")
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPPort != 6060 {
		t.Errorf("HTTPPort = %d, want HTTP_PORT to win", cfg.Server.HTTPPort)
	}
}
