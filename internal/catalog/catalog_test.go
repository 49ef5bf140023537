package catalog

import (
	"path/filepath"
	"testing"
)

func intp(v int) *int { return &v }

func testDataset() *Dataset {
	return &Dataset{
		DefaultModel: "models/weapons/default.glb",
		Weapons: []WeaponEntry{
			{
				Key:         "AK-47",
				Model:       "models/weapons/ak47.glb",
				LegacyModel: "models/weapons/legacy/ak47.glb",
				Skins: []SkinEntry{
					{PaintIndex: 282, Name: "Redline", Pattern: "cu_ak47_cobra"},
					{PaintIndex: 180, Name: "Fire Serpent", Pattern: "cu_fireserpent_ak47_bravo", Legacy: true},
					{PaintIndex: 44, Name: "Case Hardened", Pattern: "aq_oiled", Model: "models/weapons/ak47_ch.glb"},
				},
			},
			{
				Key:    "glock18",
				Model:  "models/weapons/glock18.glb",
				Legacy: true,
				Skins: []SkinEntry{
					{PaintIndex: 38, Name: "Fade", Pattern: "aa_fade"},
				},
			},
			{
				Key:   "zeusx27",
				Model: "",
			},
		},
		Aliases: []AliasEntry{
			{Name: "Redline", Pattern: "cu_ak47_cobra"},
			{Name: "Doppler Phase 2", Pattern: "am_doppler_phase2"},
			{Name: "Doppler", Pattern: "am_doppler_phase1"},
		},
	}
}

func TestResolvePatternExact(t *testing.T) {
	c := New(testDataset())
	m := c.ResolvePattern("redline", "", nil)
	if m.Pattern != "cu_ak47_cobra" || m.Source != MatchExact {
		t.Fatalf("expected exact redline match, got %+v", m)
	}
}

func TestResolvePatternCompositeVariantFirst(t *testing.T) {
	c := New(testDataset())
	m := c.ResolvePattern("doppler", "phase2", nil)
	if m.Pattern != "am_doppler_phase2" {
		t.Fatalf("expected composite variant key to win, got %+v", m)
	}
	m = c.ResolvePattern("doppler", "phase3", nil)
	if m.Pattern != "am_doppler_phase1" || m.Source != MatchExact {
		t.Fatalf("expected exact bare-key match before containment, got %+v", m)
	}
}

func TestFuzzyTieBreakFollowsTableOrder(t *testing.T) {
	ds := &Dataset{Aliases: []AliasEntry{
		{Name: "crimson web", Pattern: "hy_webs"},
		{Name: "crimson kimono", Pattern: "hy_kimono"},
		{Name: "crimson", Pattern: "so_crimson"},
	}}
	c := New(ds, WithTypoTolerance(false))
	m := c.ResolvePattern("crim", "", nil)
	if m.Pattern != "hy_webs" || m.Source != MatchFuzzy {
		t.Fatalf("expected first table entry to win the tie, got %+v", m)
	}

	// Same entries, reversed: the outcome follows the table.
	ds.Aliases[0], ds.Aliases[1] = ds.Aliases[1], ds.Aliases[0]
	c = New(ds, WithTypoTolerance(false))
	m = c.ResolvePattern("crim", "", nil)
	if m.Pattern != "hy_kimono" {
		t.Fatalf("expected reordered table to change the winner, got %+v", m)
	}
}

func TestFuzzyContainmentBothDirections(t *testing.T) {
	c := New(testDataset(), WithTypoTolerance(false))
	m := c.ResolvePattern("redlinestattrakedition", "", nil)
	if m.Pattern != "cu_ak47_cobra" || m.Source != MatchFuzzy {
		t.Fatalf("expected alias contained in key to match, got %+v", m)
	}
}

func TestTypoTier(t *testing.T) {
	c := New(testDataset())
	m := c.ResolvePattern("redlime", "", nil)
	if m.Pattern != "cu_ak47_cobra" || m.Source != MatchTypo {
		t.Fatalf("expected typo match, got %+v", m)
	}

	c = New(testDataset(), WithTypoTolerance(false))
	if m := c.ResolvePattern("redlime", "", nil); m.Found() {
		t.Fatalf("typo tier disabled, got %+v", m)
	}
}

func TestCatalogRecordFallback(t *testing.T) {
	c := New(testDataset(), WithTypoTolerance(false))
	rec, ok := c.LookupSkin("ak47", intp(180))
	if !ok {
		t.Fatal("expected fire serpent record")
	}
	m := c.ResolvePattern("xyzxyz", "", &rec)
	if m.Pattern != "cu_fireserpent_ak47_bravo" || m.Source != MatchCatalog {
		t.Fatalf("expected catalog fallback, got %+v", m)
	}
}

func TestNoPattern(t *testing.T) {
	c := New(DefaultDataset())
	if m := c.ResolvePattern("mysterybox", "", nil); m.Found() {
		t.Fatalf("expected no pattern for mysterybox, got %+v", m)
	}
	if m := c.ResolvePattern("", "", nil); m.Found() {
		t.Fatalf("expected no pattern for empty key, got %+v", m)
	}
}

func TestLookupSkin(t *testing.T) {
	c := New(testDataset())
	if _, ok := c.LookupSkin("ak47", intp(282)); !ok {
		t.Fatal("expected redline record")
	}
	if _, ok := c.LookupSkin("ak47", nil); ok {
		t.Fatal("nil paint index must miss")
	}
	if _, ok := c.LookupSkin("", intp(282)); ok {
		t.Fatal("empty weapon must miss")
	}
}

func TestSelectModelPrecedence(t *testing.T) {
	c := New(testDataset())

	tests := []struct {
		name   string
		weapon string
		paint  *int
		want   ModelRef
	}{
		{"skin exception legacy", "ak47", intp(180), ModelRef{Path: "models/weapons/legacy/ak47.glb", IsLegacy: true, Source: ModelFromSkin}},
		{"skin modern", "ak47", intp(282), ModelRef{Path: "models/weapons/ak47.glb", Source: ModelFromSkin}},
		{"skin override", "ak47", intp(44), ModelRef{Path: "models/weapons/ak47_ch.glb", Source: ModelFromSkin}},
		{"weapon default", "ak47", intp(9999), ModelRef{Path: "models/weapons/ak47.glb", Source: ModelFromWeapon}},
		{"unknown weapon", "", nil, ModelRef{Path: "models/weapons/default.glb", Source: ModelFromDefault}},
	}
	for _, tc := range tests {
		got := c.SelectModel(tc.weapon, tc.paint)
		if got != tc.want {
			t.Errorf("%s: SelectModel(%q)=%+v want=%+v", tc.name, tc.weapon, got, tc.want)
		}
	}
}

func TestSelectModelUnresolvedKeepsFlag(t *testing.T) {
	c := New(testDataset())

	// glock18 is legacy-only but ships no legacy mesh path.
	ref := c.SelectModel("glock18", intp(38))
	if ref.Resolved() || !ref.IsLegacy {
		t.Fatalf("expected unresolved legacy ref, got %+v", ref)
	}
	if alt := c.SelectModelWithFlag("glock18", !ref.IsLegacy); alt.Path != "models/weapons/glock18.glb" {
		t.Fatalf("expected modern mesh as opposite-flag fallback, got %+v", alt)
	}

	ref = c.SelectModel("zeusx27", nil)
	if ref.Resolved() {
		t.Fatalf("expected unresolved ref for weapon without meshes, got %+v", ref)
	}
	if c.SelectModelWithFlag("zeusx27", true).Resolved() {
		t.Fatal("expected opposite flag to be unresolved too")
	}
}

func TestDefaultDatasetAliasOrderPreserved(t *testing.T) {
	ds := DefaultDataset()
	if len(ds.Aliases) < 2 {
		t.Fatalf("expected aliases in default dataset, got %d", len(ds.Aliases))
	}
	if ds.Aliases[0].Name != "dopplerphase1" {
		t.Fatalf("expected yaml sequence order to survive decoding, first alias %q", ds.Aliases[0].Name)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := ds.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := range ds.Aliases {
		if loaded.Aliases[i] != ds.Aliases[i] {
			t.Fatalf("alias %d changed on reload: %+v vs %+v", i, loaded.Aliases[i], ds.Aliases[i])
		}
	}
}
