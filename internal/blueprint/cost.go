package blueprint

import (
	"fmt"
	"strings"
)

// Resource identifies one construction material.
type Resource int

const (
	Wood Resource = iota
	Stone
	Metal
	HQM
	Gears
	NumResources
)

var resourceIDs = [NumResources]string{
	Wood:  "wood",
	Stone: "stones",
	Metal: "metal.fragments",
	HQM:   "metal.refined",
	Gears: "gears",
}

var resourceNames = [NumResources]string{
	Wood:  "Wood",
	Stone: "Stone",
	Metal: "Metal",
	HQM:   "HQM",
	Gears: "Gears",
}

// ItemID is the inventory item identity the resource is taken from.
func (r Resource) ItemID() string {
	if r < 0 || r >= NumResources {
		return ""
	}
	return resourceIDs[r]
}

func (r Resource) String() string {
	if r < 0 || r >= NumResources {
		return fmt.Sprintf("Resource(%d)", int(r))
	}
	return resourceNames[r]
}

// ParseResource accepts either the display name or the item id, case-insensitively.
func ParseResource(s string) (Resource, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r := Resource(0); r < NumResources; r++ {
		if s == resourceIDs[r] || s == strings.ToLower(resourceNames[r]) {
			return r, true
		}
	}
	return 0, false
}

// ResourceCost is a quantity per resource. As a requirement it is never
// negative; Subtract may drive entries to or below zero while tracking what is
// still needed, which is what IsSatisfied checks.
type ResourceCost [NumResources]int

// ElementCost is the catalog price of one element kind: the base cost is paid
// for every instance, Bonus[g] only when the element is built at grade g.
type ElementCost struct {
	Base  ResourceCost
	Bonus [NumGrades]ResourceCost
}

// Add adds the base cost of e plus the bonus of the matching grade bracket.
func (c *ResourceCost) Add(e ElementCost, g Grade) {
	c.AddCost(e.Base)
	if g.Valid() {
		c.AddCost(e.Bonus[g])
	}
}

func (c *ResourceCost) AddCost(o ResourceCost) {
	for i := range c {
		c[i] += o[i]
	}
}

func (c *ResourceCost) Subtract(o ResourceCost) {
	for i := range c {
		c[i] -= o[i]
	}
}

func (c *ResourceCost) Clear() {
	*c = ResourceCost{}
}

// IsSatisfied reports whether nothing is left to pay.
func (c ResourceCost) IsSatisfied() bool {
	for _, q := range c {
		if q > 0 {
			return false
		}
	}
	return true
}

// Positive returns a copy with every non-positive entry zeroed.
func (c ResourceCost) Positive() ResourceCost {
	var out ResourceCost
	for i, q := range c {
		if q > 0 {
			out[i] = q
		}
	}
	return out
}

func (c ResourceCost) IsZero() bool { return c == ResourceCost{} }

// CostFromMap converts a resource-name keyed map (as stored in data files).
func CostFromMap(m map[string]int) (ResourceCost, error) {
	var c ResourceCost
	for name, q := range m {
		r, ok := ParseResource(name)
		if !ok {
			return c, fmt.Errorf("unknown resource %q", name)
		}
		if q < 0 {
			return c, fmt.Errorf("negative amount for %s", name)
		}
		c[r] += q
	}
	return c, nil
}

func (c ResourceCost) String() string {
	var b strings.Builder
	for r := Resource(0); r < NumResources; r++ {
		if c[r] == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", r, c[r])
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}
