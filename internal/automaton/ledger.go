package automaton

import "github.com/l1jgo/autobuild/internal/blueprint"

// Ledger tracks what a job still needs versus what it has taken from the
// owner's inventory. It is the only place that decides whether construction
// may continue.
type Ledger struct {
	planned   blueprint.ResourceCost // whole blueprint, from the classifier
	remaining blueprint.ResourceCost // required and not yet debited
	debited   blueprint.ResourceCost // everything taken so far
}

func NewLedger(planned blueprint.ResourceCost) *Ledger {
	return &Ledger{planned: planned}
}

// Require adds cost to the outstanding requirement.
func (l *Ledger) Require(cost blueprint.ResourceCost) {
	l.remaining.AddCost(cost.Positive())
}

func (l *Ledger) RequiredRemaining() blueprint.ResourceCost {
	return l.remaining.Positive()
}

// Debit pulls at most wanted from inv, never more than inv holds nor more
// than is still required, and returns what was actually taken.
func (l *Ledger) Debit(inv InventorySource, wanted blueprint.ResourceCost) blueprint.ResourceCost {
	var taken blueprint.ResourceCost
	if inv == nil {
		return taken
	}
	need := l.RequiredRemaining()
	for r := blueprint.Resource(0); r < blueprint.NumResources; r++ {
		want := min(wanted[r], need[r])
		if want <= 0 {
			continue
		}
		id := r.ItemID()
		have := inv.GetAmount(id)
		if have <= 0 {
			continue
		}
		got := inv.Take(id, min(want, have))
		if got <= 0 {
			continue
		}
		got = min(got, want)
		taken[r] = got
	}
	l.remaining.Subtract(taken)
	l.debited.AddCost(taken)
	return taken
}

// CanProceed reports whether the outstanding requirement is fully covered.
func (l *Ledger) CanProceed() bool {
	return l.remaining.IsSatisfied()
}

// Debited returns everything taken from the owner so far.
func (l *Ledger) Debited() blueprint.ResourceCost { return l.debited }

// Outstanding is the part of the planned total not yet debited.
func (l *Ledger) Outstanding() blueprint.ResourceCost {
	out := l.planned
	out.Subtract(l.debited)
	return out.Positive()
}

// Refund gives every debited resource back and clears the debit record.
// Inventories that cannot take materials back are left untouched and
// nothing is returned.
func (l *Ledger) Refund(inv InventorySource) blueprint.ResourceCost {
	var given blueprint.ResourceCost
	ref, ok := inv.(InventoryRefunder)
	if !ok {
		return given
	}
	for r := blueprint.Resource(0); r < blueprint.NumResources; r++ {
		if q := l.debited[r]; q > 0 {
			ref.Give(r.ItemID(), q)
			given[r] = q
		}
	}
	l.debited.Clear()
	return given
}
