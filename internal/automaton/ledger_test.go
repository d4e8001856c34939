package automaton

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

type bag map[string]int

func (b bag) GetAmount(id string) int { return b[id] }

func (b bag) Take(id string, n int) int {
	got := min(b[id], n)
	b[id] -= got
	return got
}

func (b bag) Give(id string, n int) { b[id] += n }

// stingy reports more than it hands over.
type stingy struct{ bag }

func (s stingy) Take(id string, n int) int { return s.bag.Take(id, n/2) }

func TestLedgerDebitTakesOnlyWhatIsAvailable(t *testing.T) {
	l := NewLedger(blueprint.ResourceCost{blueprint.Wood: 200, blueprint.Stone: 150})
	l.Require(blueprint.ResourceCost{blueprint.Wood: 200, blueprint.Stone: 150})
	inv := bag{"wood": 500, "stones": 40}

	taken := l.Debit(inv, l.RequiredRemaining())
	assert.Equal(t, blueprint.ResourceCost{blueprint.Wood: 200, blueprint.Stone: 40}, taken)
	assert.Equal(t, 300, inv["wood"])
	assert.Equal(t, 0, inv["stones"])
	assert.False(t, l.CanProceed())
	assert.Equal(t, blueprint.ResourceCost{blueprint.Stone: 110}, l.RequiredRemaining())
	assert.Equal(t, blueprint.ResourceCost{blueprint.Stone: 110}, l.Outstanding())

	inv["stones"] = 1000
	l.Debit(inv, l.RequiredRemaining())
	assert.True(t, l.CanProceed())
	assert.Equal(t, 890, inv["stones"])
	assert.True(t, l.Outstanding().IsZero())
}

func TestLedgerDebitNeverExceedsWanted(t *testing.T) {
	l := NewLedger(blueprint.ResourceCost{})
	l.Require(blueprint.ResourceCost{blueprint.Metal: 100})
	inv := bag{"metal.fragments": 1000}

	taken := l.Debit(inv, blueprint.ResourceCost{blueprint.Metal: 30})
	assert.Equal(t, 30, taken[blueprint.Metal])
	assert.Equal(t, 970, inv["metal.fragments"])

	taken = l.Debit(inv, blueprint.ResourceCost{blueprint.Metal: 500})
	assert.Equal(t, 70, taken[blueprint.Metal])
	assert.True(t, l.CanProceed())
}

func TestLedgerTrustsActualTake(t *testing.T) {
	l := NewLedger(blueprint.ResourceCost{})
	l.Require(blueprint.ResourceCost{blueprint.Wood: 100})
	inv := stingy{bag{"wood": 100}}

	taken := l.Debit(inv, l.RequiredRemaining())
	assert.Equal(t, 50, taken[blueprint.Wood])
	assert.Equal(t, blueprint.ResourceCost{blueprint.Wood: 50}, l.RequiredRemaining())
}

func TestLedgerNilInventory(t *testing.T) {
	l := NewLedger(blueprint.ResourceCost{})
	l.Require(blueprint.ResourceCost{blueprint.Gears: 1})
	assert.True(t, l.Debit(nil, l.RequiredRemaining()).IsZero())
	assert.False(t, l.CanProceed())
}

func TestLedgerRefund(t *testing.T) {
	l := NewLedger(blueprint.ResourceCost{blueprint.Wood: 300})
	l.Require(blueprint.ResourceCost{blueprint.Wood: 300})
	inv := bag{"wood": 120}
	l.Debit(inv, l.RequiredRemaining())

	given := l.Refund(inv)
	assert.Equal(t, blueprint.ResourceCost{blueprint.Wood: 120}, given)
	assert.Equal(t, 120, inv["wood"])
	assert.True(t, l.Debited().IsZero())

	type takeOnly struct{ InventorySource }
	l.Debit(inv, l.RequiredRemaining())
	assert.True(t, l.Refund(takeOnly{inv}).IsZero())
}

func TestLedgerMonotonicAdmission(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("CanProceed only once remaining is satisfied, and remaining never grows", prop.ForAll(
		func(need int, deposits []int) bool {
			l := NewLedger(blueprint.ResourceCost{blueprint.Stone: need})
			l.Require(blueprint.ResourceCost{blueprint.Stone: need})
			inv := bag{}
			prev := l.RequiredRemaining()[blueprint.Stone]
			for _, d := range deposits {
				inv["stones"] += d
				l.Debit(inv, l.RequiredRemaining())
				rem := l.RequiredRemaining()[blueprint.Stone]
				if rem > prev {
					return false
				}
				if l.CanProceed() != (rem == 0) {
					return false
				}
				if inv["stones"] < 0 {
					return false
				}
				prev = rem
			}
			return l.Debited()[blueprint.Stone]+prev == need
		},
		gen.IntRange(1, 1000),
		gen.SliceOf(gen.IntRange(0, 300)),
	))

	properties.TestingRun(t)
}
