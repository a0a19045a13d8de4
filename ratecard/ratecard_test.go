package ratecard

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/vehicle"
)

const validCard = `
version: "2026-10-01"
pricing:
  base_fare: 600
  rate_per_km: 55
  vehicle_multipliers:
    motorcycle: 1.05
`

const fullCard = `
version: "2026-11-01"
pricing:
  currency: NGN
  base_fare: 500
  rate_per_km: 50
  vat_rate: 0.075
  rounding_unit: 1
  vehicle_multipliers:
    motorcycle: 1.0
    car: 1.3
vehicles:
  - type: motorcycle
    max_weight_kg: 40
    max_volume_l: 100
    max_distance_km: 120
    fragile: limited
    food_ok: true
    speed_tier: 3
    cost_tier: 2
    stability: 2
  - type: car
    max_weight_kg: 200
    max_volume_l: 600
    max_distance_km: 400
    fragile: supported
    food_ok: true
    speed_tier: 3
    cost_tier: 4
    stability: 4
category_hints:
  document:
    prefer: [motorcycle]
`

func writeCard(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	card := Default()

	if card.Version != BuiltinVersion {
		t.Errorf("Version = %s, want %s", card.Version, BuiltinVersion)
	}
	if card.Currency() != "NGN" {
		t.Errorf("Currency() = %s, want NGN", card.Currency())
	}
	if card.Catalog.Len() != len(vehicle.AllTypes()) {
		t.Errorf("Catalog.Len() = %d, want %d", card.Catalog.Len(), len(vehicle.AllTypes()))
	}
	if card.Calculator() == nil {
		t.Fatal("Calculator() = nil")
	}
}

func TestNew_Errors(t *testing.T) {
	missing := fare.DefaultRates()
	missing.VehicleMultipliers = map[vehicle.Type]float64{vehicle.TypeMotorcycle: 1}

	badVAT := fare.DefaultRates()
	badVAT.VATRate = 2

	tests := []struct {
		name    string
		version string
		rates   fare.Rates
		catalog *vehicle.Catalog
	}{
		{"empty version", "", fare.DefaultRates(), vehicle.DefaultCatalog()},
		{"nil catalog", "v1", fare.DefaultRates(), nil},
		{"uncovered vehicle", "v1", missing, vehicle.DefaultCatalog()},
		{"invalid rates", "v1", badVAT, vehicle.DefaultCatalog()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.version, tt.rates, tt.catalog); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	card, err := Load(writeCard(t, "ratecard.yaml", validCard))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if card.Version != "2026-10-01" {
		t.Errorf("Version = %s", card.Version)
	}
	if card.Rates.BaseFare != 600 || card.Rates.RatePerKm != 55 {
		t.Errorf("BaseFare, RatePerKm = %v, %v, want 600, 55", card.Rates.BaseFare, card.Rates.RatePerKm)
	}
	if got := card.Rates.VehicleMultipliers[vehicle.TypeMotorcycle]; got != 1.05 {
		t.Errorf("motorcycle multiplier = %v, want 1.05", got)
	}
	// Keys absent from the file keep the built-in values.
	if got := card.Rates.VehicleMultipliers[vehicle.TypeTruck]; got != 2.0 {
		t.Errorf("truck multiplier = %v, want 2.0", got)
	}
	if card.Rates.VATRate != 0.075 {
		t.Errorf("VATRate = %v, want 0.075", card.Rates.VATRate)
	}
	if card.Catalog.Len() != len(vehicle.DefaultProfiles()) {
		t.Errorf("Catalog.Len() = %d, want default fleet", card.Catalog.Len())
	}
}

func TestLoad_CustomFleet(t *testing.T) {
	card, err := Load(writeCard(t, "ratecard.yaml", fullCard))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if card.Catalog.Len() != 2 {
		t.Fatalf("Catalog.Len() = %d, want 2", card.Catalog.Len())
	}
	moto, ok := card.Catalog.Profile(vehicle.TypeMotorcycle)
	if !ok {
		t.Fatal("motorcycle missing from catalog")
	}
	if moto.MaxWeightKg != 40 || moto.Fragile != vehicle.FragileLimited || !moto.FoodOK {
		t.Errorf("motorcycle profile = %+v", moto)
	}
	if h := card.Catalog.Hint("document"); !h.Prefers(vehicle.TypeMotorcycle) {
		t.Errorf("document hint = %+v, want motorcycle preferred", h)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RATECARD_PRICING_BASE_FARE", "750")

	card, err := Load(writeCard(t, "ratecard.yaml", validCard))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if card.Rates.BaseFare != 750 {
		t.Errorf("BaseFare = %v, want 750 from env", card.Rates.BaseFare)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing version", "pricing:\n  base_fare: 500\n"},
		{"negative base fare", "version: v2\npricing:\n  base_fare: -1\n"},
		{"zero multiplier", "version: v2\npricing:\n  vehicle_multipliers:\n    car: 0\n"},
		{"unknown vehicle", "version: v2\nvehicles:\n  - type: hovercraft\n    max_weight_kg: 1\n    max_volume_l: 1\n    max_distance_km: 1\n    fragile: supported\n    speed_tier: 1\n    cost_tier: 1\n    stability: 1\n"},
		{"malformed yaml", "version: [v2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeCard(t, "ratecard.yaml", tt.body)); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Load() error = nil, want error")
		}
	})
}

func TestStore_Swap(t *testing.T) {
	store := NewStore(nil)
	if store.Current().Version != BuiltinVersion {
		t.Fatalf("initial Version = %s, want builtin", store.Current().Version)
	}

	next, err := New("v2", fare.DefaultRates(), vehicle.DefaultCatalog())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	prev, err := store.Swap(next)
	if err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if prev.Version != BuiltinVersion {
		t.Errorf("Swap() previous = %s, want builtin", prev.Version)
	}
	if store.Current() != next {
		t.Error("Current() did not return the swapped card")
	}

	if _, err := store.Swap(nil); err == nil {
		t.Error("Swap(nil) error = nil, want error")
	}
	if _, err := store.Swap(&Card{Version: "hand-made"}); err == nil {
		t.Error("Swap() of an unbuilt card error = nil, want error")
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	store := NewStore(nil)
	cards := make([]*Card, 5)
	for i := range cards {
		card, err := New("v"+string(rune('a'+i)), fare.DefaultRates(), vehicle.DefaultCatalog())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		cards[i] = card
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				card := store.Current()
				if card == nil || card.Calculator() == nil || card.Catalog == nil {
					t.Error("reader observed an incomplete card")
					return
				}
			}
		}()
	}
	for _, card := range cards {
		if _, err := store.Swap(card); err != nil {
			t.Errorf("Swap() error = %v", err)
		}
	}
	wg.Wait()
}

func TestLoader_Reload(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithWriter("debug", &buf)
	audit := logging.NewAuditLogger(logging.AuditLoggerConfig{ServiceName: "quote-engine", Logger: logger.Logger})

	path := writeCard(t, "ratecard.yaml", validCard)
	loader := NewLoader(path, logger, audit)
	store := NewStore(nil)
	ctx := context.Background()

	loader.reload(ctx, store)
	if got := store.Current().Version; got != "2026-10-01" {
		t.Fatalf("after valid reload Version = %s, want 2026-10-01", got)
	}
	if !strings.Contains(buf.String(), string(logging.AuditEventRateCardReloaded)) {
		t.Error("reload did not emit a ratecard.reloaded audit event")
	}

	if err := os.WriteFile(path, []byte("version: bad\npricing:\n  vat_rate: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	loader.reload(ctx, store)
	if got := store.Current().Version; got != "2026-10-01" {
		t.Errorf("after invalid reload Version = %s, want previous card kept", got)
	}
	if !strings.Contains(buf.String(), string(logging.AuditEventRateCardRejected)) {
		t.Error("invalid reload did not emit a ratecard.rejected audit event")
	}

	if err := os.WriteFile(path, []byte(fullCard), 0o600); err != nil {
		t.Fatal(err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	loader.reload(cancelled, store)
	if got := store.Current().Version; got != "2026-10-01" {
		t.Errorf("reload after cancel Version = %s, want unchanged", got)
	}
}

func TestCard_RatesDetachedFromCalculator(t *testing.T) {
	card := Default()
	card.Rates.VehicleMultipliers[vehicle.TypeCar] = 9
	card.Rates.Urgency.OrderTypes[fare.OrderTypeInstant] = 9

	rates := card.Calculator().Rates()
	if got := rates.VehicleMultipliers[vehicle.TypeCar]; got != 1.3 {
		t.Errorf("calculator car multiplier = %v, want 1.3", got)
	}
	if got := rates.Urgency.OrderTypes[fare.OrderTypeInstant]; got != 1.2 {
		t.Errorf("calculator instant multiplier = %v, want 1.2", got)
	}
}

func TestLoader_Watch(t *testing.T) {
	path := writeCard(t, "ratecard.yaml", validCard)
	loader := NewLoader(path, logging.NewLoggerWithWriter("error", io.Discard), nil)
	store := NewStore(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done, err := loader.watch(ctx, store)
	if err != nil {
		t.Fatalf("watch() error = %v", err)
	}

	// Replace the file by rename, the way editors and config mounts do.
	next := filepath.Join(filepath.Dir(path), "next.yaml")
	if err := os.WriteFile(next, []byte(fullCard), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(next, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for store.Current().Version != "2026-11-01" {
		if time.Now().After(deadline) {
			t.Fatalf("Version = %s, want 2026-11-01 after the file changed", store.Current().Version)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop still running after ctx was cancelled")
	}
}

func TestLoader_WatchMissingDir(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing", "ratecard.yaml"), nil, nil)
	if err := loader.Watch(context.Background(), NewStore(nil)); err == nil {
		t.Error("Watch() error = nil, want error for a missing directory")
	}
}
