package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rect is an axis-aligned area on the ground plane.
type Rect struct {
	MinX float64 `yaml:"min_x"`
	MinZ float64 `yaml:"min_z"`
	MaxX float64 `yaml:"max_x"`
	MaxZ float64 `yaml:"max_z"`
}

func (r Rect) Contains(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// HeightPatch raises or lowers the ground inside Area to Height. Later
// patches win over earlier ones.
type HeightPatch struct {
	Area   Rect    `yaml:"area"`
	Height float64 `yaml:"height"`
}

// Sphere is a prevent-building volume.
type Sphere struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
	Radius float64 `yaml:"radius"`
}

// PrivilegeZone is an existing authority area; building inside it is only
// allowed for the listed owners.
type PrivilegeZone struct {
	X      float64  `yaml:"x"`
	Z      float64  `yaml:"z"`
	Radius float64  `yaml:"radius"`
	Owners []string `yaml:"owners"`
}

// Site describes a sandbox build site, loaded from site_list.yaml.
type Site struct {
	Name        string                    `yaml:"name"`
	BaseHeight  float64                   `yaml:"base_height"`
	Patches     []HeightPatch             `yaml:"patches"`
	Roads       []Rect                    `yaml:"roads"`
	Prevent     []Sphere                  `yaml:"prevent"`
	Privilege   []PrivilegeZone           `yaml:"privilege"`
	Inventories map[string]map[string]int `yaml:"inventories"` // owner → item id → amount
}

type siteListFile struct {
	Sites []Site `yaml:"sites"`
}

// SiteTable holds every sandbox site by name.
type SiteTable struct {
	sites map[string]*Site
	order []string
}

// LoadSiteTable loads site_list.yaml.
func LoadSiteTable(path string) (*SiteTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site list: %w", err)
	}
	var file siteListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse site list: %w", err)
	}
	t := &SiteTable{sites: make(map[string]*Site, len(file.Sites))}
	for i := range file.Sites {
		s := &file.Sites[i]
		if s.Name == "" {
			return nil, fmt.Errorf("site %d has no name", i)
		}
		t.sites[s.Name] = s
		t.order = append(t.order, s.Name)
	}
	return t, nil
}

// Get returns the named site, or nil if none.
func (t *SiteTable) Get(name string) *Site {
	return t.sites[name]
}

// Default returns the first site in file order, or nil for an empty table.
func (t *SiteTable) Default() *Site {
	if len(t.order) == 0 {
		return nil
	}
	return t.sites[t.order[0]]
}

// Count returns the total number of sites loaded.
func (t *SiteTable) Count() int {
	return len(t.sites)
}
