package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/service"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		ServerURL: "http://myhost:9090",
		Token:     "eyJtest",
	}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "tracker", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestGetServerURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("TRACKER_SERVER_URL", "")
	if got := getServerURL(); got != defaultServerURL {
		t.Errorf("default url = %q", got)
	}

	if err := saveConfig(CLIConfig{ServerURL: "http://saved:1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := getServerURL(); got != "http://saved:1" {
		t.Errorf("config url = %q", got)
	}

	t.Setenv("TRACKER_SERVER_URL", "http://env:2")
	if got := getServerURL(); got != "http://env:2" {
		t.Errorf("env url = %q", got)
	}

	flagServer = "http://flag:3"
	t.Cleanup(func() { flagServer = "" })
	if got := getServerURL(); got != "http://flag:3" {
		t.Errorf("flag url = %q", got)
	}
}

func TestGetToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRACKER_TOKEN", "")

	if got := getToken(); got != "" {
		t.Errorf("expected no token, got %q", got)
	}
	if err := saveConfig(CLIConfig{Token: "from-config"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := getToken(); got != "from-config" {
		t.Errorf("config token = %q", got)
	}
	t.Setenv("TRACKER_TOKEN", "from-env")
	if got := getToken(); got != "from-env" {
		t.Errorf("env token = %q", got)
	}
}

func TestConfigCommand_SetServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRACKER_SERVER_URL", "")
	t.Setenv("TRACKER_TOKEN", "")

	out, err := executeCommand("config", "--set-server", "http://tracker.local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Server: http://tracker.local") || !strings.Contains(out, "not set") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTokenCommand_Save(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRACKER_TOKEN", "")
	t.Setenv("AUTH_SECRET", "s3cret")

	if _, err := executeCommand("token", "--save", "--subject", "vendedor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	claims, err := service.NewTokenService("s3cret", time.Hour).Validate(cfg.Token)
	if err != nil {
		t.Fatalf("saved token does not validate: %v", err)
	}
	if claims.Subject != "vendedor" {
		t.Errorf("subject = %q", claims.Subject)
	}
}
