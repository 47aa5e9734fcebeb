package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if cfg.DBPath != "finscope.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ListenAddr != "0.0.0.0:3000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestBuildFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finscope.yaml")
	content := "api-url: https://api.example.com\ncache-ttl: 5m\nexclude-categories:\n  - \"7\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if len(cfg.ExcludeCategoryIDs) != 1 || cfg.ExcludeCategoryIDs[0] != "7" {
		t.Errorf("ExcludeCategoryIDs = %v", cfg.ExcludeCategoryIDs)
	}
}

func TestBuildEnvOverride(t *testing.T) {
	t.Setenv("FINSCOPE_LISTEN", "127.0.0.1:9999")
	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestBuildFlagsTakePrecedence(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	if err := flags.Set("api-url", "https://flag.example.com"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build("", flags)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.APIBaseURL != "https://flag.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
}

func TestBuildMissingExplicitFile(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
