package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDataset []byte

// Dataset is the on-disk shape of the static catalogs supplied by the host.
// Aliases is a YAML sequence, not a mapping: its order decides fuzzy matches.
type Dataset struct {
	DefaultModel string        `yaml:"default_model"`
	Weapons      []WeaponEntry `yaml:"weapons"`
	Aliases      []AliasEntry  `yaml:"aliases"`
}

// WeaponEntry holds a weapon's meshes and its per-paint exceptions.
type WeaponEntry struct {
	Key         string      `yaml:"key"`
	Model       string      `yaml:"model"`
	LegacyModel string      `yaml:"legacy_model,omitempty"`
	Legacy      bool        `yaml:"legacy,omitempty"` // weapon only ships the old mesh revision
	Skins       []SkinEntry `yaml:"skins,omitempty"`
}

// SkinEntry is one (weapon, paint index) combination.
type SkinEntry struct {
	PaintIndex int    `yaml:"paint_index"`
	Name       string `yaml:"name"`
	Pattern    string `yaml:"pattern"`
	Legacy     bool   `yaml:"legacy,omitempty"`
	VMT        string `yaml:"vmt,omitempty"`
	Model      string `yaml:"model,omitempty"` // mesh override for this paint only
}

// AliasEntry maps a skin name to an internal pattern id.
type AliasEntry struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// LoadDataset reads a dataset from a YAML file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes YAML catalog data.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &ds, nil
}

// DefaultDataset returns the dataset compiled into the binary.
func DefaultDataset() *Dataset {
	ds, err := ParseDataset(defaultDataset)
	if err != nil {
		panic(err)
	}
	return ds
}

// Save writes the dataset to a YAML file.
func (ds *Dataset) Save(path string) error {
	data, err := yaml.Marshal(ds)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
