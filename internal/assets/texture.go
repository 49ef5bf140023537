package assets

import (
	"path"
	"strings"
)

// Channel names a texture slot of the render material. Values match the
// property names the renderer binds.
type Channel string

const (
	ChannelColor     Channel = "map"
	ChannelNormal    Channel = "normalMap"
	ChannelRoughness Channel = "roughnessMap"
	ChannelMetalness Channel = "metalnessMap"
	ChannelAO        Channel = "aoMap"
	ChannelMask      Channel = "alphaMap"
)

// Channels lists every channel in canonical order.
var Channels = []Channel{
	ChannelColor,
	ChannelNormal,
	ChannelRoughness,
	ChannelMetalness,
	ChannelAO,
	ChannelMask,
}

var channelSuffixes = map[Channel]string{
	ChannelColor:     "_color",
	ChannelNormal:    "_normal",
	ChannelRoughness: "_rough",
	ChannelMetalness: "_metal",
	ChannelAO:        "_ao",
	ChannelMask:      "_mask",
}

const (
	textureRoot  = "textures/skins"
	materialRoot = "materials/skins"
)

// textureExtensions is the search order for references without a known
// image extension.
var textureExtensions = []string{".png", ".jpg", ".tga"}

// PatternPrefixes are the finish-type prefixes a pattern id may carry.
// Order is the order stripped variants are tried.
var PatternPrefixes = []string{"cu_", "am_", "aq_", "sp_", "hy_", "gs_"}

// Subdirectory categories searched after the primary directory.
var (
	modernCategories = []string{"community", "community_2", "community_3", "gamma", "limited", "workshop", "legacy"}
	legacyCategories = []string{"legacy", "workshop", "community", "community_2", "community_3", "gamma", "limited"}
)

// CategoryOrder returns the subdirectory search order for a mesh revision.
// Legacy meshes use the older UV layout, whose textures mostly live under
// legacy/ and workshop/.
func CategoryOrder(legacy bool) []string {
	src := modernCategories
	if legacy {
		src = legacyCategories
	}
	return append([]string(nil), src...)
}

// StripPatternPrefixes returns pattern with each known prefix removed, in
// PatternPrefixes order, skipping prefixes it does not carry.
func StripPatternPrefixes(pattern string) []string {
	var out []string
	for _, p := range PatternPrefixes {
		if strings.HasPrefix(pattern, p) && len(pattern) > len(p) {
			out = append(out, strings.TrimPrefix(pattern, p))
		}
	}
	return out
}

// CandidateSet is the ordered candidate list per channel.
type CandidateSet map[Channel][]string

// TextureCandidates builds the search list for every channel: the path the
// definition names, then the pattern id under the primary texture directory,
// then prefix-stripped ids, then the pattern id under each category. A nil
// definition or empty pattern just contributes nothing.
func TextureCandidates(def *MaterialDefinition, pattern string, legacy bool) CandidateSet {
	set := make(CandidateSet, len(Channels))
	for _, ch := range Channels {
		set[ch] = ChannelCandidates(ch, def.Path(ch), pattern, legacy)
	}
	return set
}

// ChannelCandidates builds the candidate list for one channel.
func ChannelCandidates(ch Channel, definitionPath, pattern string, legacy bool) []string {
	var out candidateList

	if definitionPath != "" {
		out.add(withTextureExtensions(definitionPath)...)
	}

	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return out.paths
	}
	suffix := channelSuffixes[ch]

	out.add(path.Join(textureRoot, pattern+suffix+".png"))
	for _, stripped := range StripPatternPrefixes(pattern) {
		out.add(path.Join(textureRoot, stripped+suffix+".png"))
	}
	for _, category := range CategoryOrder(legacy) {
		out.add(path.Join(textureRoot, category, pattern+suffix+".png"))
	}
	return out.paths
}

// DefinitionCandidate is a material-definition path with its dialect.
type DefinitionCandidate struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
}

// DefinitionCandidates lists where a pattern's material definition may live:
// the catalog hint, then <pattern>.vmat and <pattern>.vmt for the pattern id
// and each prefix-stripped id. Legacy meshes try the compact dialect first.
func DefinitionCandidates(hint, pattern string, legacy bool) []DefinitionCandidate {
	var out []DefinitionCandidate
	seen := make(map[string]bool)
	add := func(p string) {
		p = NormalizePath(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, DefinitionCandidate{Path: p, Format: FormatForPath(p)})
	}

	add(hint)

	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return out
	}
	exts := []string{".vmat", ".vmt"}
	if legacy {
		exts = []string{".vmt", ".vmat"}
	}
	for _, id := range append([]string{pattern}, StripPatternPrefixes(pattern)...) {
		for _, ext := range exts {
			add(path.Join(materialRoot, id+ext))
		}
	}
	return out
}

// withTextureExtensions expands a texture reference into the files to try.
// A reference with a known extension is tried as-is first, then with the
// other extensions; one without is tried with each extension in order.
func withTextureExtensions(p string) []string {
	lower := NormalizePath(p)
	for _, ext := range textureExtensions {
		if strings.HasSuffix(lower, ext) {
			base := lower[:len(lower)-len(ext)]
			out := []string{lower}
			for _, other := range textureExtensions {
				if other != ext {
					out = append(out, base+other)
				}
			}
			return out
		}
	}

	out := make([]string, 0, len(textureExtensions))
	for _, ext := range textureExtensions {
		out = append(out, lower+ext)
	}
	return out
}

// candidateList keeps the first occurrence of each path.
type candidateList struct {
	paths []string
	seen  map[string]bool
}

func (l *candidateList) add(paths ...string) {
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	for _, p := range paths {
		if p == "" || l.seen[p] {
			continue
		}
		l.seen[p] = true
		l.paths = append(l.paths, p)
	}
}
