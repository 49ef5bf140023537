package pipeline

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/ernie/skin-inspect/internal/assets"
	"github.com/ernie/skin-inspect/internal/catalog"
	"github.com/ernie/skin-inspect/internal/identity"
)

// ResolvedRenderMaterial is everything the renderer needs to dress a mesh.
// Textures has an entry for every channel; nil means the channel is unused.
type ResolvedRenderMaterial struct {
	Identity       identity.NormalizedIdentity              `json:"identity"`
	Model          catalog.ModelRef                         `json:"model"`
	Skin           *catalog.SkinRecord                      `json:"skin,omitempty"`
	Pattern        catalog.PatternMatch                     `json:"pattern"`
	DefinitionPath string                                   `json:"definitionPath,omitempty"`
	Definition     *assets.MaterialDefinition               `json:"definition,omitempty"`
	Textures       map[assets.Channel]*assets.TextureHandle `json:"textures"`

	Roughness   float64 `json:"roughness"`
	Metalness   float64 `json:"metalness"`
	Transparent bool    `json:"transparent"`

	// Neutral marks the flat gray fallback used when no color texture
	// could be resolved.
	Neutral   bool       `json:"neutral"`
	BaseColor color.RGBA `json:"baseColor"`

	PaintSeed int     `json:"paintSeed"`
	Wear      float64 `json:"wear"`
}

// Fingerprint is a hex BLAKE2b-256 over the material's observable content:
// model, pattern, definition path, each channel's path and content digest in
// canonical channel order, and the shading scalars. Two resolutions of the
// same inputs against the same assets have equal fingerprints.
func (m *ResolvedRenderMaterial) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	line := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}

	line(m.Model.Path, strconv.FormatBool(m.Model.IsLegacy))
	line(m.Pattern.Pattern, m.DefinitionPath)
	for _, ch := range assets.Channels {
		if t := m.Textures[ch]; t != nil {
			line(string(ch), t.Path, t.Digest, strconv.Itoa(t.Width), strconv.Itoa(t.Height))
		} else {
			line(string(ch), "-")
		}
	}
	line(
		strconv.FormatFloat(m.Roughness, 'g', -1, 64),
		strconv.FormatFloat(m.Metalness, 'g', -1, 64),
		strconv.FormatBool(m.Transparent),
		strconv.FormatBool(m.Neutral),
		fmt.Sprintf("%02x%02x%02x%02x", m.BaseColor.R, m.BaseColor.G, m.BaseColor.B, m.BaseColor.A),
		strconv.Itoa(m.PaintSeed),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// Resolved counts the channels that have a texture.
func (m *ResolvedRenderMaterial) Resolved() int {
	n := 0
	for _, t := range m.Textures {
		if t != nil {
			n++
		}
	}
	return n
}
