package catalog

import (
	"github.com/ernie/skin-inspect/internal/identity"
)

// SkinRecord is the catalog entry for one (weapon, paint index) pair.
type SkinRecord struct {
	Name          string `json:"name"`
	Pattern       string `json:"pattern"`
	IsLegacyModel bool   `json:"isLegacyModel"`
	VMTPathHint   string `json:"vmtPathHint,omitempty"`
	ModelOverride string `json:"-"`
}

type skinKey struct {
	weapon string
	paint  int
}

type weaponModels struct {
	model       string
	legacyModel string
	legacy      bool
}

type alias struct {
	name    string
	pattern string
}

// Catalog is the read-only, in-memory view of a Dataset. It is safe for
// concurrent use once built.
type Catalog struct {
	defaultModel string
	weapons      map[string]weaponModels
	skins        map[skinKey]SkinRecord
	aliases      []alias

	typoTolerance bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTypoTolerance enables or disables the edit-distance matching tier.
func WithTypoTolerance(on bool) Option {
	return func(c *Catalog) { c.typoTolerance = on }
}

// New builds a Catalog from ds. Weapon keys and alias names are normalized
// with identity.Key so they line up with NormalizedIdentity values.
func New(ds *Dataset, opts ...Option) *Catalog {
	c := &Catalog{
		defaultModel:  ds.DefaultModel,
		weapons:       make(map[string]weaponModels, len(ds.Weapons)),
		skins:         make(map[skinKey]SkinRecord),
		aliases:       make([]alias, 0, len(ds.Aliases)),
		typoTolerance: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, w := range ds.Weapons {
		key := identity.Key(w.Key)
		if key == "" {
			continue
		}
		c.weapons[key] = weaponModels{
			model:       w.Model,
			legacyModel: w.LegacyModel,
			legacy:      w.Legacy,
		}
		for _, s := range w.Skins {
			c.skins[skinKey{weapon: key, paint: s.PaintIndex}] = SkinRecord{
				Name:          s.Name,
				Pattern:       s.Pattern,
				IsLegacyModel: s.Legacy || w.Legacy,
				VMTPathHint:   s.VMT,
				ModelOverride: s.Model,
			}
		}
	}

	for _, a := range ds.Aliases {
		name := identity.Key(a.Name)
		if name == "" || a.Pattern == "" {
			continue
		}
		c.aliases = append(c.aliases, alias{name: name, pattern: a.Pattern})
	}

	return c
}

// LookupSkin returns the record for (weaponKey, paintIndex), if any.
func (c *Catalog) LookupSkin(weaponKey string, paintIndex *int) (SkinRecord, bool) {
	if weaponKey == "" || paintIndex == nil {
		return SkinRecord{}, false
	}
	rec, ok := c.skins[skinKey{weapon: weaponKey, paint: *paintIndex}]
	return rec, ok
}
