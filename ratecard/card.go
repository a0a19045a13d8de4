// Package ratecard holds the versioned pricing constants and vehicle
// catalog that every quote is computed against, and swaps them atomically
// when the rate card file changes.
package ratecard

import (
	"fmt"

	"github.com/cobrun/quote-engine/fare"
	"github.com/cobrun/quote-engine/vehicle"
)

// BuiltinVersion is the version of the compiled-in rate card.
const BuiltinVersion = "builtin"

// Card is one immutable rate card. Quotes record the Version they were
// priced with so a reload invalidates their fingerprints.
type Card struct {
	Version string
	Rates   fare.Rates
	Catalog *vehicle.Catalog

	calculator *fare.Calculator
}

// New validates rates against catalog and builds a Card.
func New(version string, rates fare.Rates, catalog *vehicle.Catalog) (*Card, error) {
	if version == "" {
		return nil, fmt.Errorf("rate card version is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("rate card %s has no vehicle catalog", version)
	}

	types := make([]vehicle.Type, 0, catalog.Len())
	for _, p := range catalog.Profiles() {
		types = append(types, p.Type)
	}
	if err := rates.Covers(types); err != nil {
		return nil, fmt.Errorf("rate card %s: %w", version, err)
	}

	calc, err := fare.NewCalculator(rates)
	if err != nil {
		return nil, fmt.Errorf("rate card %s: %w", version, err)
	}

	return &Card{
		Version:    version,
		Rates:      calc.Rates(),
		Catalog:    catalog,
		calculator: calc,
	}, nil
}

// Default returns the built-in Lagos rate card.
func Default() *Card {
	card, err := New(BuiltinVersion, fare.DefaultRates(), vehicle.DefaultCatalog())
	if err != nil {
		panic("ratecard: invalid builtin card: " + err.Error())
	}
	return card
}

// Currency returns the ISO 4217 code prices are quoted in.
func (c *Card) Currency() string {
	return c.Rates.Currency
}

// Calculator returns the fare calculator bound to this card's rates.
func (c *Card) Calculator() *fare.Calculator {
	return c.calculator
}
