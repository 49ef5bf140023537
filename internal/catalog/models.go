package catalog

import "errors"

// ErrUnresolvableModel means no mesh exists for a weapon under either
// legacy flag. It is the only failure the pipeline surfaces to users.
var ErrUnresolvableModel = errors.New("no model path resolvable")

// ModelSource records which rule picked a mesh.
type ModelSource string

const (
	ModelFromSkin    ModelSource = "skin"
	ModelFromWeapon  ModelSource = "weapon"
	ModelFromDefault ModelSource = "default"
)

// ModelRef is the selected mesh. An empty Path is the unresolved sentinel.
type ModelRef struct {
	Path     string      `json:"path"`
	IsLegacy bool        `json:"isLegacy"`
	Source   ModelSource `json:"source,omitempty"`
}

// Resolved reports whether a mesh path was found.
func (m ModelRef) Resolved() bool {
	return m.Path != ""
}

// SelectModel picks the mesh for a weapon/paint pair: an exact skin exception
// first, then the weapon's own default, then the global default mesh. The
// legacy flag follows the same precedence. An unresolved result still carries
// the flag so the caller can retry with the opposite one.
func (c *Catalog) SelectModel(weaponKey string, paintIndex *int) ModelRef {
	if rec, ok := c.LookupSkin(weaponKey, paintIndex); ok {
		ref := c.SelectModelWithFlag(weaponKey, rec.IsLegacyModel)
		if rec.ModelOverride != "" {
			ref.Path = rec.ModelOverride
		}
		ref.Source = ModelFromSkin
		return ref
	}
	if w, ok := c.weapons[weaponKey]; ok {
		ref := c.SelectModelWithFlag(weaponKey, w.legacy)
		ref.Source = ModelFromWeapon
		return ref
	}
	return c.SelectModelWithFlag(weaponKey, false)
}

// SelectModelWithFlag returns the mesh for weaponKey under an explicit legacy
// flag. Unknown weapons fall back to the global default for the modern flag
// only; there is no global legacy mesh.
func (c *Catalog) SelectModelWithFlag(weaponKey string, legacy bool) ModelRef {
	w, ok := c.weapons[weaponKey]
	if !ok {
		if legacy {
			return ModelRef{IsLegacy: true}
		}
		return ModelRef{Path: c.defaultModel, Source: ModelFromDefault}
	}
	if legacy {
		return ModelRef{Path: w.legacyModel, IsLegacy: true, Source: ModelFromWeapon}
	}
	return ModelRef{Path: w.model, Source: ModelFromWeapon}
}
