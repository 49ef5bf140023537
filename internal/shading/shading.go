// Package shading turns a material definition and a wear float into the
// scalar shading parameters of the render material.
package shading

import (
	"image/color"
	"math"

	"github.com/ernie/skin-inspect/internal/assets"
)

const (
	// WearRoughness is how much roughness full wear adds.
	WearRoughness = 0.3
	// DefaultMetalness is used unless the definition overrides it.
	DefaultMetalness = 0.6
	// NeutralRoughness is the mid roughness of the flat fallback material.
	NeutralRoughness = 0.5
)

// NeutralColor is the flat gray used when no skin could be resolved.
var NeutralColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// Params are the scalar shading values handed to the renderer.
type Params struct {
	Roughness   float64 `json:"roughness"`
	Metalness   float64 `json:"metalness"`
	Transparent bool    `json:"transparent"`
}

// Compute derives shading from the definition's base values and the item's
// wear: roughness = min(1, base + wear*0.3). Transparency is on only when a
// mask channel actually resolved. A nil definition uses the defaults.
func Compute(def *assets.MaterialDefinition, wear float64, maskResolved bool) Params {
	wear = clamp01(wear)
	return Params{
		Roughness:   math.Min(1.0, def.BaseRoughness()+wear*WearRoughness),
		Metalness:   clamp01(def.Param(assets.ParamMetalness, DefaultMetalness)),
		Transparent: maskResolved,
	}
}

// Neutral is the degraded state for items with no resolvable skin: mid
// roughness, no metal, opaque.
func Neutral() Params {
	return Params{Roughness: NeutralRoughness}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
