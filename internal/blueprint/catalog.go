package blueprint

// KindInfo is the catalog record for one element kind.
type KindInfo struct {
	Kind     Kind
	Category Category
	Cost     ElementCost
	Skins    map[Grade][]uint64 // skins allowed per grade; skin 0 is always allowed
}

// SkinFor returns skin when the kind allows it at grade g, 0 otherwise.
func (k KindInfo) SkinFor(g Grade, skin uint64) uint64 {
	if skin == 0 {
		return 0
	}
	for _, s := range k.Skins[g] {
		if s == skin {
			return skin
		}
	}
	return 0
}

// Catalog resolves a captured kind to its category. Kinds missing from the
// catalog are non-structural clutter.
type Catalog interface {
	Lookup(k Kind) (KindInfo, bool)
}

// CostSource prices one element kind. Shared read-only by every job.
type CostSource interface {
	ElementCost(k Kind) (ElementCost, bool)
}

// StaticCatalog is an in-memory Catalog and CostSource.
type StaticCatalog map[Kind]KindInfo

func (c StaticCatalog) Lookup(k Kind) (KindInfo, bool) {
	info, ok := c[k]
	return info, ok
}

func (c StaticCatalog) ElementCost(k Kind) (ElementCost, bool) {
	info, ok := c[k]
	if !ok {
		return ElementCost{}, false
	}
	return info.Cost, true
}

// ElementCostOf prices a single element at its own grade.
func ElementCostOf(costs CostSource, d ElementDescriptor) (ResourceCost, bool) {
	var c ResourceCost
	e, ok := costs.ElementCost(d.Kind)
	if !ok {
		return c, false
	}
	c.Add(e, d.Grade)
	return c, true
}
