package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		ServerURL: "http://myhost:9090",
		Token:     "eyJhbGciOi.test.token",
		Email:     "dana@example.com",
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "rf", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
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

func TestConfigLoadMalformed(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "rf")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server_url: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := loadConfig(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestGetServerURLFromEnv(t *testing.T) {
	t.Setenv("RF_SERVER_URL", "http://custom:1234")
	t.Setenv("HOME", t.TempDir())

	url := getServerURL()
	if url != "http://custom:1234" {
		t.Errorf("url = %q, want %q", url, "http://custom:1234")
	}
}

func TestGetServerURLDefault(t *testing.T) {
	t.Setenv("RF_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	url := getServerURL()
	if url != "http://localhost:8080" {
		t.Errorf("url = %q, want %q", url, "http://localhost:8080")
	}
}

func TestGetTokenFromEnv(t *testing.T) {
	t.Setenv("RF_TOKEN", "envtoken")
	t.Setenv("HOME", t.TempDir())

	if tok := getToken(); tok != "envtoken" {
		t.Errorf("token = %q, want %q", tok, "envtoken")
	}
}

func TestGetTokenFromConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RF_TOKEN", "")

	if err := saveConfig(CLIConfig{Token: "configtoken"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if tok := getToken(); tok != "configtoken" {
		t.Errorf("token = %q, want %q", tok, "configtoken")
	}
}

func TestGetTokenEmpty(t *testing.T) {
	t.Setenv("RF_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	if tok := getToken(); tok != "" {
		t.Errorf("token = %q, want empty", tok)
	}
}
