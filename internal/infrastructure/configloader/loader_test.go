package configloader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "rpc:\n  url: \"https://rpc.example.com\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != ":8080" {
		t.Errorf("expected default port :8080, got %s", cfg.Server.Port)
	}
	if cfg.Explorer.PageSize != 1000 {
		t.Errorf("expected default page size 1000, got %d", cfg.Explorer.PageSize)
	}
	if cfg.Explorer.BlockRangeSize != 2_000_000 {
		t.Errorf("expected default block range 2000000, got %d", cfg.Explorer.BlockRangeSize)
	}
	if cfg.RPC.ProbeBatchSize != 100 {
		t.Errorf("expected default probe batch size 100, got %d", cfg.RPC.ProbeBatchSize)
	}
	if cfg.Holdings.FloorCacheCapacity <= 0 {
		t.Errorf("expected a positive floor cache capacity default, got %d", cfg.Holdings.FloorCacheCapacity)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rpc:
  url: "https://rpc.example.com"
explorer:
  pageSize: 500
  blockRangeSize: 1000000
rateLimit:
  requestsPerMinute: 10
  burst: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Explorer.PageSize != 500 {
		t.Errorf("expected page size 500, got %d", cfg.Explorer.PageSize)
	}
	if cfg.Explorer.BlockRangeSize != 1_000_000 {
		t.Errorf("expected block range 1000000, got %d", cfg.Explorer.BlockRangeSize)
	}
	if cfg.RateLimit.RequestsPerMinute != 10 || cfg.RateLimit.Burst != 2 {
		t.Errorf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
}

func TestLoadRequiresRPCURL(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \":9090\"\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error when rpc.url is missing")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadMalformedYaml(t *testing.T) {
	path := writeConfig(t, "rpc: [this is not\n  a mapping")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}
