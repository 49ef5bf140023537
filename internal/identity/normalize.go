package identity

import (
	"strconv"
	"strings"
)

// ItemDescriptor is one inspected item as delivered by the inspect API client.
type ItemDescriptor struct {
	FullName   string  `json:"market_hash_name"`
	PaintIndex *int    `json:"paintindex,omitempty"`
	PaintSeed  int     `json:"paintseed"`
	Wear       float64 `json:"floatvalue"`
	ImageURL   string  `json:"image,omitempty"`
}

// Identity normalizes the descriptor's name, using the image URL for variant detection.
func (d ItemDescriptor) Identity() NormalizedIdentity {
	return NormalizeWithImage(d.FullName, d.ImageURL)
}

// NormalizedIdentity is the lookup identity derived from an item's full name.
type NormalizedIdentity struct {
	WeaponKey string `json:"weaponKey"`
	SkinKey   string `json:"skinKey"`
	Variant   string `json:"variant,omitempty"`
}

// LookupKey is the key used against name tables. Without a weapon the skin
// key stands alone.
func (n NormalizedIdentity) LookupKey() string {
	if n.WeaponKey == "" {
		return n.SkinKey
	}
	return n.WeaponKey + "/" + n.SkinKey
}

// CacheKey identifies one resolution. Wear is not part of it; shading is
// recomputed per request.
func (n NormalizedIdentity) CacheKey(paintIndex *int) string {
	paint := "-"
	if paintIndex != nil {
		paint = strconv.Itoa(*paintIndex)
	}
	return n.WeaponKey + "|" + n.SkinKey + "|" + n.Variant + "|" + paint
}

const nameSeparator = "|"

// qualityPrefixes are stripped repeatedly, so "★ StatTrak™ Karambit" loses both.
var qualityPrefixes = []string{
	"★",
	"stattrak™",
	"stattrak",
	"souvenir",
}

// variants is the fixed set of finish subtypes. Order matters when an image
// URL carries more than one token.
var variants = []string{
	"phase1",
	"phase2",
	"phase3",
	"phase4",
	"ruby",
	"sapphire",
	"emerald",
	"blackpearl",
	"marblefade",
}

// Normalize derives the identity from a full item name. It never fails:
// malformed input yields whatever partial identity can be recovered.
func Normalize(fullName string) NormalizedIdentity {
	return NormalizeWithImage(fullName, "")
}

// NormalizeWithImage is Normalize with an optional image URL, which is
// searched for a variant token before the skin text is.
func NormalizeWithImage(fullName, imageURL string) NormalizedIdentity {
	weapon, skin, found := strings.Cut(fullName, nameSeparator)
	if !found {
		weapon, skin = "", stripQualityPrefix(fullName)
	}

	skin = strings.ToLower(strings.TrimSpace(stripCondition(skin)))
	skin, textVariant := splitTrailingVariant(skin)

	variant := variantFromURL(imageURL)
	if variant == "" {
		variant = textVariant
	}

	return NormalizedIdentity{
		WeaponKey: Key(stripQualityPrefix(weapon)),
		SkinKey:   Key(skin),
		Variant:   variant,
	}
}

// Key lower-cases s and drops every character outside [a-z0-9].
func Key(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsVariant reports whether key is one of the known finish variants.
func IsVariant(key string) bool {
	for _, v := range variants {
		if v == key {
			return true
		}
	}
	return false
}

func stripQualityPrefix(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := false
		for _, p := range qualityPrefixes {
			if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
				s = strings.TrimSpace(s[len(p):])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

// stripCondition removes a trailing "(Field-Tested)" style parenthetical.
func stripCondition(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ")") {
		return s
	}
	if idx := strings.LastIndex(s, "("); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

// splitTrailingVariant checks the last two tokens, then the last one, of the
// skin text for a variant name ("phase 2", "black pearl", "emerald").
func splitTrailingVariant(skin string) (string, string) {
	tokens := strings.Fields(skin)
	for n := 2; n >= 1; n-- {
		if len(tokens) < n {
			continue
		}
		tail := Key(strings.Join(tokens[len(tokens)-n:], ""))
		if IsVariant(tail) {
			return strings.Join(tokens[:len(tokens)-n], " "), tail
		}
	}
	return skin, ""
}

// variantFromURL scans the URL's alphanumeric tokens in order, trying each
// token joined with its successor before the token alone.
func variantFromURL(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	tokens := strings.FieldsFunc(strings.ToLower(imageURL), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	for i, tok := range tokens {
		if i+1 < len(tokens) && IsVariant(tok+tokens[i+1]) {
			return tok + tokens[i+1]
		}
		if IsVariant(tok) {
			return tok
		}
	}
	return ""
}
