package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestBindReadsEnvironment(t *testing.T) {
	t.Setenv("GRATEFUL_PORT", "9090")
	t.Setenv("GRATEFUL_HOST_AUTH_SECRET", "s3cret")
	t.Setenv("GRATEFUL_DB_MAX_OPEN_CONNS", "3")

	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"--log-format", "console"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	Bind(fs)

	if cfg.Port != 9090 || cfg.HostAuthSecret != "s3cret" || cfg.DBMaxOpenConns != 3 {
		t.Fatalf("expected env values applied, got %#v", cfg)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("expected flag value kept, got %s", cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("GRATEFUL_PORT", "9090")
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"--port", "7070"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	Bind(fs)
	if cfg.Port != 7070 {
		t.Fatalf("expected flag to win, got %d", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing secret rejected")
	}
	cfg.HostAuthSecret = "x"
	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected bad port rejected")
	}
	cfg.Port = 8080
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected bad log format rejected")
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file ignored, got %v", err)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GRATEFUL_TEST_A=from-file\nGRATEFUL_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("GRATEFUL_TEST_A", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("GRATEFUL_TEST_B") })
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if os.Getenv("GRATEFUL_TEST_A") != "from-env" || os.Getenv("GRATEFUL_TEST_B") != "from-file" {
		t.Fatalf("unexpected env after load")
	}
}
