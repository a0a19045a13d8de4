package vehicle

import (
	"fmt"
	"slices"

	"github.com/cobrun/quote-engine/parcel"
)

// Hint lists vehicle types to rank first (Prefer) or last (Avoid) for a
// package category. Hints never make a vehicle ineligible.
type Hint struct {
	Prefer []Type `json:"prefer,omitempty" mapstructure:"prefer"`
	Avoid  []Type `json:"avoid,omitempty" mapstructure:"avoid"`
}

// Prefers reports whether t is in the prefer list.
func (h Hint) Prefers(t Type) bool { return slices.Contains(h.Prefer, t) }

// Avoids reports whether t is in the avoid list.
func (h Hint) Avoids(t Type) bool { return slices.Contains(h.Avoid, t) }

func (h Hint) clone() Hint {
	return Hint{Prefer: slices.Clone(h.Prefer), Avoid: slices.Clone(h.Avoid)}
}

// Catalog is an immutable set of vehicle profiles and category hints.
// Replace it wholesale to change the fleet; nothing mutates it in place.
type Catalog struct {
	profiles []Profile
	index    map[Type]int
	hints    map[parcel.Category]Hint
}

// NewCatalog validates and copies profiles and hints into a Catalog.
// Profiles keep their given order, which is the final ranking tie-break.
func NewCatalog(profiles []Profile, hints map[parcel.Category]Hint) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("catalog needs at least one vehicle profile")
	}

	c := &Catalog{
		profiles: make([]Profile, 0, len(profiles)),
		index:    make(map[Type]int, len(profiles)),
		hints:    make(map[parcel.Category]Hint, len(hints)),
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.Type]; dup {
			return nil, fmt.Errorf("duplicate profile for %s", p.Type)
		}
		c.index[p.Type] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	for cat, h := range hints {
		if !cat.IsValid() {
			return nil, fmt.Errorf("hint for unknown category %q", cat)
		}
		for _, t := range append(slices.Clone(h.Prefer), h.Avoid...) {
			if _, ok := c.index[t]; !ok {
				return nil, fmt.Errorf("%s hint references %q which is not in the catalog", cat, t)
			}
		}
		for _, t := range h.Prefer {
			if h.Avoids(t) {
				return nil, fmt.Errorf("%s hint both prefers and avoids %s", cat, t)
			}
		}
		c.hints[cat] = h.clone()
	}

	return c, nil
}

// Len returns the number of profiles.
func (c *Catalog) Len() int { return len(c.profiles) }

// Profiles returns a copy of all profiles in catalog order.
func (c *Catalog) Profiles() []Profile {
	return slices.Clone(c.profiles)
}

// Profile returns the profile for t.
func (c *Catalog) Profile(t Type) (Profile, bool) {
	i, ok := c.index[t]
	if !ok {
		return Profile{}, false
	}
	return c.profiles[i], true
}

// Order returns the catalog position of t, or -1 if absent.
func (c *Catalog) Order(t Type) int {
	if i, ok := c.index[t]; ok {
		return i
	}
	return -1
}

// Hint returns the ranking hint for a category. Categories without hints
// get the zero Hint.
func (c *Catalog) Hint(cat parcel.Category) Hint {
	return c.hints[cat].clone()
}

// Hints returns a copy of every category hint.
func (c *Catalog) Hints() map[parcel.Category]Hint {
	out := make(map[parcel.Category]Hint, len(c.hints))
	for k, v := range c.hints {
		out[k] = v.clone()
	}
	return out
}
