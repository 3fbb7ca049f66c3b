package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "LEDGER_RETRY_ATTEMPTS")
	unsetEnvWithCleanup(t, "NOTIFY_EXCHANGE")
	unsetEnvWithCleanup(t, "TRANSFER_RATE_LIMIT_PER_MINUTE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.LedgerRetryAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.LedgerRetryAttempts)
	}
	if cfg.NotifyExchange != "bank.events" {
		t.Fatalf("expected default notify exchange, got %q", cfg.NotifyExchange)
	}
	if cfg.TransferRateLimitPerMinute != 30 {
		t.Fatalf("expected default rate limit 30, got %d", cfg.TransferRateLimitPerMinute)
	}
}

func TestLoadConfig_PortOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9001")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9001" {
		t.Fatalf("expected PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_ClampsInvalidValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "LEDGER_RETRY_ATTEMPTS", "-2")
	setEnvWithCleanup(t, "TRANSFER_RATE_LIMIT_PER_MINUTE", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LedgerRetryAttempts != 3 {
		t.Fatalf("expected invalid retry attempts to fall back to 3, got %d", cfg.LedgerRetryAttempts)
	}
	if cfg.TransferRateLimitPerMinute != 0 {
		t.Fatalf("expected negative rate limit to disable limiting, got %d", cfg.TransferRateLimitPerMinute)
	}
}

func TestLoadConfig_TrimsServiceURLs(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "LEDGER_SERVICE_URL", "  http://ledger:8081  ")
	setEnvWithCleanup(t, "RISK_SERVICE_URL", " http://risk:8082 ")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LedgerServiceURL != "http://ledger:8081" {
		t.Fatalf("expected trimmed ledger url, got %q", cfg.LedgerServiceURL)
	}
	if cfg.RiskServiceURL != "http://risk:8082" {
		t.Fatalf("expected trimmed risk url, got %q", cfg.RiskServiceURL)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
		}
	})
}
