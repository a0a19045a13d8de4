package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cobrun/quote-engine/config"
	"github.com/cobrun/quote-engine/health"
	"github.com/cobrun/quote-engine/ratecard"
	testhelpers "github.com/cobrun/quote-engine/testing"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:     "quoted",
		Environment:     "development",
		Version:         "test",
		Port:            0,
		ShutdownTimeout: time.Second,
		RequestTimeout:  time.Second,
		LogLevel:        "error",
		JWTIssuer:       "cobrun",
		JWTAudience:     "cobrun-api",
		TraceSampleRate: 1,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

func TestNew_BuiltinRateCard(t *testing.T) {
	ctx := testhelpers.TestContext(t)
	svc, err := New(ctx, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(ctx) })

	if got := svc.Store.Current().Version; got != ratecard.BuiltinVersion {
		t.Errorf("rate card version = %s, want builtin", got)
	}

	resp := svc.Health.Check(ctx)
	if resp.Status != health.StatusHealthy {
		t.Errorf("health = %s, checks %+v", resp.Status, resp.Checks)
	}
}

func TestNew_RateCardFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratecard.yaml")
	body := "version: \"2026-11-01\"\npricing:\n  base_fare: 650\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.RateCardPath = path

	ctx := testhelpers.TestContext(t)
	svc, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(ctx) })

	card := svc.Store.Current()
	if card.Version != "2026-11-01" || card.Rates.BaseFare != 650 {
		t.Errorf("card = %s base %v, want 2026-11-01 base 650", card.Version, card.Rates.BaseFare)
	}
}

func TestNew_BadRateCard(t *testing.T) {
	cfg := testConfig()
	cfg.RateCardPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() error = nil, want error for a missing rate card")
	}
}
