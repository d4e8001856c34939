package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/autobuild/internal/blueprint"
	"gopkg.in/yaml.v3"
)

// ElementEntry is one row of element_list.yaml.
type ElementEntry struct {
	Kind     string                    `yaml:"kind"`
	Aliases  []string                  `yaml:"aliases"`
	Category string                    `yaml:"category"`
	Cost     map[string]int            `yaml:"cost"`
	Grades   map[string]map[string]int `yaml:"grades"` // grade → bonus cost
	Skins    map[string][]uint64       `yaml:"skins"`  // grade → allowed skin ids
}

type elementListFile struct {
	Elements []ElementEntry `yaml:"elements"`
}

// Catalog is the kind lookup table plus base-cost table, loaded once and
// shared read-only by every job.
type Catalog struct {
	blueprint.StaticCatalog
}

// LoadCatalog loads element_list.yaml.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read element list: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog builds a catalog from element_list.yaml content.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var file elementListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse element list: %w", err)
	}
	c := &Catalog{StaticCatalog: make(blueprint.StaticCatalog, len(file.Elements))}
	for _, e := range file.Elements {
		info, err := e.info()
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", e.Kind, err)
		}
		for _, k := range append([]string{e.Kind}, e.Aliases...) {
			if _, dup := c.StaticCatalog[blueprint.Kind(k)]; dup {
				return nil, fmt.Errorf("duplicate kind %q", k)
			}
			info.Kind = blueprint.Kind(k)
			c.StaticCatalog[info.Kind] = info
		}
	}
	return c, nil
}

func (e ElementEntry) info() (blueprint.KindInfo, error) {
	var info blueprint.KindInfo
	if e.Kind == "" {
		return info, fmt.Errorf("missing kind")
	}
	cat, err := blueprint.ParseCategory(e.Category)
	if err != nil {
		return info, err
	}
	info.Category = cat
	if info.Cost.Base, err = blueprint.CostFromMap(e.Cost); err != nil {
		return info, err
	}
	for name, bonus := range e.Grades {
		g, err := blueprint.ParseGrade(name)
		if err != nil {
			return info, err
		}
		if info.Cost.Bonus[g], err = blueprint.CostFromMap(bonus); err != nil {
			return info, fmt.Errorf("grade %s: %w", name, err)
		}
	}
	if len(e.Skins) > 0 {
		info.Skins = make(map[blueprint.Grade][]uint64, len(e.Skins))
		for name, skins := range e.Skins {
			g, err := blueprint.ParseGrade(name)
			if err != nil {
				return info, err
			}
			info.Skins[g] = skins
		}
	}
	return info, nil
}

// Count returns the number of known kinds, aliases included.
func (c *Catalog) Count() int {
	return len(c.StaticCatalog)
}
