package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Search: SearchConfig{
			BaseURL: "http://localhost:7700",
			Index:   "articles",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_MissingSearchBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Search.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing search.base_url")
	}
}

func TestValidate_MissingIndex(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Index = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing search.index")
	}
	expected := "search.index is required"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MaxLimitBelowDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultLimit = 50
	cfg.Search.MaxLimit = 20
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_limit < default_limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Path != "data/saurcours.db" {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
	if cfg.Search.TimeoutSec != 3 {
		t.Errorf("expected TimeoutSec=3, got %d", cfg.Search.TimeoutSec)
	}
	if cfg.Search.DefaultLimit != 20 {
		t.Errorf("expected DefaultLimit=20, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.MaxLimit != 50 {
		t.Errorf("expected MaxLimit=50, got %d", cfg.Search.MaxLimit)
	}
	if cfg.Cache.TTLSec != 60 {
		t.Errorf("expected TTLSec=60, got %d", cfg.Cache.TTLSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Path: "/var/lib/saurcours/kb.db"},
		Search:   SearchConfig{TimeoutSec: 5, DefaultLimit: 10, MaxLimit: 25},
		Cache:    CacheConfig{TTLSec: 300},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Path != "/var/lib/saurcours/kb.db" {
		t.Errorf("expected configured path, got %q", cfg.Database.Path)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 25 {
		t.Errorf("limits overridden: %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Cache.TTLSec != 300 {
		t.Errorf("expected TTLSec=300, got %d", cfg.Cache.TTLSec)
	}
}

func TestApplyDefaults_PrunesEmptyCacheAddrs(t *testing.T) {
	cfg := Config{Cache: CacheConfig{Addrs: []string{""}}}
	cfg.ApplyDefaults()

	if cfg.Cache.Enabled() {
		t.Error("cache enabled by empty placeholder addr")
	}

	cfg = Config{Cache: CacheConfig{Addrs: []string{"", "localhost:6379", ""}}}
	cfg.ApplyDefaults()
	if len(cfg.Cache.Addrs) != 1 || cfg.Cache.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.Cache.Addrs)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SAURCOURS_TEST_KEY", "secret")

	tests := []struct {
		in, want string
	}{
		{"api_key: ${SAURCOURS_TEST_KEY}", "api_key: secret"},
		{"api_key: ${SAURCOURS_TEST_UNSET}", "api_key: "},
		{"api_key: ${SAURCOURS_TEST_UNSET:-fallback}", "api_key: fallback"},
		{"api_key: ${SAURCOURS_TEST_KEY:-fallback}", "api_key: secret"},
		{"plain: value", "plain: value"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
