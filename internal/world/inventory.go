package world

import (
	"maps"
	"slices"
)

// Inventory holds one owner's stackable materials keyed by item id.
// Accessed only from the game loop goroutine.
type Inventory struct {
	stacks map[string]int
}

// NewInventory creates an inventory holding a copy of initial.
func NewInventory(initial map[string]int) *Inventory {
	inv := &Inventory{stacks: make(map[string]int, len(initial))}
	for id, n := range initial {
		inv.Add(id, n)
	}
	return inv
}

// GetAmount returns the stack size for an item id.
func (inv *Inventory) GetAmount(itemID string) int {
	return inv.stacks[itemID]
}

// Take removes up to count and returns how much was removed.
func (inv *Inventory) Take(itemID string, count int) int {
	have := inv.stacks[itemID]
	if count <= 0 || have <= 0 {
		return 0
	}
	n := min(have, count)
	if n == have {
		delete(inv.stacks, itemID)
	} else {
		inv.stacks[itemID] = have - n
	}
	return n
}

// Give returns materials to the inventory.
func (inv *Inventory) Give(itemID string, count int) {
	inv.Add(itemID, count)
}

// Add stacks count onto an item. Non-positive counts are ignored.
func (inv *Inventory) Add(itemID string, count int) {
	if count <= 0 {
		return
	}
	inv.stacks[itemID] += count
}

// Snapshot returns a copy of every stack.
func (inv *Inventory) Snapshot() map[string]int {
	return maps.Clone(inv.stacks)
}

// Items returns the held item ids in sorted order.
func (inv *Inventory) Items() []string {
	return slices.Sorted(maps.Keys(inv.stacks))
}
