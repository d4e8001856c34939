package blueprint

import (
	"errors"
	"fmt"
)

// ErrUnpricedKind means the cost table has no entry for a catalogued kind.
var ErrUnpricedKind = errors.New("kind has no cost entry")

// Range is a half-open index range into Classification.Elements.
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Classification holds a job's elements in one contiguous arena, ordered by
// build order, with each category occupying one range. Capture order is kept
// inside a category.
type Classification struct {
	Elements []ElementDescriptor
	Ranges   [NumCategories]Range
	Required ResourceCost
}

// Batch returns the elements of one category. The slice aliases the arena.
func (c *Classification) Batch(cat Category) []ElementDescriptor {
	r := c.Ranges[cat]
	return c.Elements[r.Start:r.End]
}

func (c *Classification) Count(cat Category) int { return c.Ranges[cat].Len() }

// Classify buckets descriptors by category and prices the whole set.
func Classify(descs []ElementDescriptor, costs CostSource) (*Classification, error) {
	var counts [NumCategories]int
	for i, d := range descs {
		if d.Category < 0 || d.Category >= NumCategories {
			return nil, fmt.Errorf("element %d: %v: %w", i, d.Category, ErrBlueprintCorrupt)
		}
		counts[d.Category]++
	}

	c := &Classification{Elements: make([]ElementDescriptor, len(descs))}
	next := 0
	var cursor [NumCategories]int
	for _, cat := range BuildOrder {
		c.Ranges[cat] = Range{Start: next, End: next + counts[cat]}
		cursor[cat] = next
		next += counts[cat]
	}

	for _, d := range descs {
		e, ok := costs.ElementCost(d.Kind)
		if !ok {
			return nil, fmt.Errorf("%s: %w", d.Kind, ErrUnpricedKind)
		}
		c.Required.Add(e, d.Grade)
		c.Elements[cursor[d.Category]] = d
		cursor[d.Category]++
	}
	return c, nil
}
