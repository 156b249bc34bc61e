package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWithConfig_WiresStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.DataDir = t.TempDir()

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	if d.DB == nil {
		t.Fatal("DB should be opened when a data dir is configured")
	}
	defer d.DB.Close()
	if err := d.DB.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if !d.Guard.IsAllowed("http://localhost:8080") {
		t.Error("default HTTP port origin should be allowed")
	}
}

func TestNewWithConfig_NoStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.DataDir = ""

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	if d.DB != nil {
		t.Error("DB should stay nil without a data dir")
	}
}

func TestTLSAvailable(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")

	if tlsAvailable(cert, key) {
		t.Error("missing files should report unavailable")
	}
	if tlsAvailable("", "") {
		t.Error("empty paths should report unavailable")
	}

	os.WriteFile(cert, []byte("x"), 0600)
	os.WriteFile(key, []byte("x"), 0600)
	if !tlsAvailable(cert, key) {
		t.Error("existing files should report available")
	}
}
