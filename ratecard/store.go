package ratecard

import (
	"fmt"
	"sync/atomic"
)

// Store publishes the current Card. Readers never block and always see a
// complete card.
type Store struct {
	current atomic.Pointer[Card]
}

// NewStore creates a Store holding initial, or the built-in card when nil.
func NewStore(initial *Card) *Store {
	if initial == nil {
		initial = Default()
	}
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Current returns the active card.
func (s *Store) Current() *Card {
	return s.current.Load()
}

// Swap installs card and returns the one it replaced.
func (s *Store) Swap(card *Card) (*Card, error) {
	if card == nil || card.calculator == nil {
		return nil, fmt.Errorf("ratecard: refusing to install an unbuilt card")
	}
	return s.current.Swap(card), nil
}
