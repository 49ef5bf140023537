package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// MatchSource records which tier of pattern resolution produced a match.
type MatchSource string

const (
	MatchNone    MatchSource = ""
	MatchExact   MatchSource = "exact"
	MatchFuzzy   MatchSource = "fuzzy"
	MatchTypo    MatchSource = "typo"
	MatchCatalog MatchSource = "catalog"
)

// PatternMatch is the outcome of ResolvePattern.
type PatternMatch struct {
	Pattern string      `json:"pattern"`
	Source  MatchSource `json:"source"`
	Key     string      `json:"key,omitempty"` // alias key that matched
}

// Found reports whether any tier produced a pattern id.
func (m PatternMatch) Found() bool {
	return m.Pattern != ""
}

// ResolvePattern maps a skin key to a pattern id. With a variant, every tier
// tries the composite key skinKey+variant before skinKey alone. Tiers, first
// hit wins: exact alias, containment in either direction, edit distance (when
// enabled), then the catalog record's own pattern.
//
// The containment and edit-distance tiers scan aliases in table order and
// take the first hit. That order is part of the contract: when a key is a
// substring of two aliases, the earlier alias wins.
func (c *Catalog) ResolvePattern(skinKey, variant string, rec *SkinRecord) PatternMatch {
	keys := make([]string, 0, 2)
	if variant != "" {
		keys = append(keys, skinKey+variant)
	}
	if skinKey != "" {
		keys = append(keys, skinKey)
	}

	for _, key := range keys {
		if m, ok := c.exactAlias(key); ok {
			return m
		}
	}
	for _, key := range keys {
		if m, ok := c.containsAlias(key); ok {
			return m
		}
	}
	if c.typoTolerance {
		for _, key := range keys {
			if m, ok := c.nearestAlias(key); ok {
				return m
			}
		}
	}
	if rec != nil && rec.Pattern != "" {
		return PatternMatch{Pattern: rec.Pattern, Source: MatchCatalog}
	}
	return PatternMatch{}
}

func (c *Catalog) exactAlias(key string) (PatternMatch, bool) {
	for _, a := range c.aliases {
		if a.name == key {
			return PatternMatch{Pattern: a.pattern, Source: MatchExact, Key: a.name}, true
		}
	}
	return PatternMatch{}, false
}

func (c *Catalog) containsAlias(key string) (PatternMatch, bool) {
	for _, a := range c.aliases {
		if strings.Contains(a.name, key) || strings.Contains(key, a.name) {
			return PatternMatch{Pattern: a.pattern, Source: MatchFuzzy, Key: a.name}, true
		}
	}
	return PatternMatch{}, false
}

const minTypoKeyLen = 5

func (c *Catalog) nearestAlias(key string) (PatternMatch, bool) {
	if len(key) < minTypoKeyLen {
		return PatternMatch{}, false
	}
	limit := typoLimit(len(key))
	for _, a := range c.aliases {
		if levenshtein.ComputeDistance(key, a.name) <= limit {
			return PatternMatch{Pattern: a.pattern, Source: MatchTypo, Key: a.name}, true
		}
	}
	return PatternMatch{}, false
}

func typoLimit(length int) int {
	return max(1, length/6)
}
