package ratecard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/logging"
	"github.com/cobrun/quote-engine/parcel"
	"github.com/cobrun/quote-engine/vehicle"
)

// EnvPrefix prefixes environment overrides of rate card keys, for example
// RATECARD_PRICING_BASE_FARE for pricing.base_fare.
const EnvPrefix = "RATECARD"

// file is the on-disk layout. Pricing starts from the built-in rates so a
// file only needs the keys it changes. Vehicles and hints replace the
// built-in ones wholesale when present.
type file struct {
	Version       string                           `mapstructure:"version"`
	Pricing       fare.Rates                       `mapstructure:"pricing"`
	Vehicles      []vehicle.Profile                `mapstructure:"vehicles"`
	CategoryHints map[parcel.Category]vehicle.Hint `mapstructure:"category_hints"`
}

// Loader reads a rate card file and keeps a Store in sync with it.
type Loader struct {
	path   string
	logger *logging.Logger
	audit  *logging.AuditLogger
}

// NewLoader creates a Loader for the YAML or JSON file at path. The audit
// logger is optional.
func NewLoader(path string, logger *logging.Logger, audit *logging.AuditLogger) *Loader {
	if logger == nil {
		logger = logging.NewLogger("info")
	}
	return &Loader{path: path, logger: logger, audit: audit}
}

// Load reads and validates the rate card at path.
func Load(path string) (*Card, error) {
	return NewLoader(path, nil, nil).Load()
}

// Load reads and validates the rate card file.
func (l *Loader) Load() (*Card, error) {
	v := l.newViper()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rate card %s: %w", l.path, err)
	}

	f := file{Pricing: fare.DefaultRates()}
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode rate card %s: %w", l.path, err)
	}

	profiles := f.Vehicles
	if len(profiles) == 0 {
		profiles = vehicle.DefaultProfiles()
	}
	hints := f.CategoryHints
	if hints == nil {
		hints = vehicle.DefaultHints()
	}

	catalog, err := vehicle.NewCatalog(profiles, hints)
	if err != nil {
		return nil, fmt.Errorf("rate card %s: %w", l.path, err)
	}

	return New(f.Version, f.Pricing, catalog)
}

// Watch reloads the file into store whenever it changes, until ctx is done.
// A card that fails to load is logged and the store keeps its current card.
// The directory is watched rather than the file so editors and config
// mounts that replace the file by rename are still seen.
func (l *Loader) Watch(ctx context.Context, store *Store) error {
	_, err := l.watch(ctx, store)
	return err
}

// watch starts the watch loop and returns a channel closed once the loop
// has stopped and released the watcher.
func (l *Loader) watch(ctx context.Context, store *Store) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch rate card %s: %w", l.path, err)
	}
	target := filepath.Clean(l.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch rate card %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				l.logger.Info("rate card watch stopped", "path", l.path)
				return
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != target || !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
					continue
				}
				l.logger.Debug("rate card changed", "path", e.Name, "op", e.Op.String())
				l.reload(ctx, store)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Error("rate card watch error", "path", l.path, "error", err)
			}
		}
	}()

	l.logger.Info("watching rate card", "path", l.path)
	return done, nil
}

// reload loads the file and swaps it into store.
func (l *Loader) reload(ctx context.Context, store *Store) {
	if ctx.Err() != nil {
		return
	}

	card, err := l.Load()
	if err != nil {
		l.logger.Error("rate card rejected, keeping current card",
			"path", l.path,
			"current_version", store.Current().Version,
			"error", err,
		)
		if l.audit != nil {
			l.audit.LogRateCard(ctx, logging.AuditEventRateCardRejected, store.Current().Version,
				logging.AuditOutcomeFailure, map[string]any{"error": err.Error()})
		}
		return
	}

	previous, err := store.Swap(card)
	if err != nil {
		l.logger.Error("rate card swap failed", "error", err)
		return
	}

	l.logger.Info("rate card reloaded", "version", card.Version, "previous_version", previous.Version)
	if l.audit != nil {
		l.audit.LogRateCard(ctx, logging.AuditEventRateCardReloaded, card.Version,
			logging.AuditOutcomeSuccess, map[string]any{"previous_version": previous.Version})
	}
}

func (l *Loader) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(l.path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
