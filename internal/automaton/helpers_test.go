package automaton_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/config"
	"github.com/l1jgo/autobuild/internal/data"
	"github.com/l1jgo/autobuild/internal/geom"
	"github.com/l1jgo/autobuild/internal/world"
)

const alice automaton.OwnerID = "alice"

type memSource map[string][]blueprint.RawElement

func (m memSource) Load(_ context.Context, id string) ([]blueprint.RawElement, error) {
	raw, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("blueprint %q: %w", id, blueprint.ErrBlueprintMissing)
	}
	return raw, nil
}

type note struct {
	owner automaton.OwnerID
	key   string
	args  []any
}

type recorder struct{ notes []note }

func (r *recorder) Notify(owner automaton.OwnerID, key string, args ...any) {
	r.notes = append(r.notes, note{owner: owner, key: key, args: args})
}

func (r *recorder) count(key string) int {
	n := 0
	for _, x := range r.notes {
		if x.key == key {
			n++
		}
	}
	return n
}

type journal struct {
	debits, refunds blueprint.ResourceCost
}

func (j *journal) RecordDebit(_ automaton.JobID, _ automaton.OwnerID, c blueprint.ResourceCost) {
	j.debits.AddCost(c)
}

func (j *journal) RecordRefund(_ automaton.JobID, _ automaton.OwnerID, c blueprint.ResourceCost) {
	j.refunds.AddCost(c)
}

func grade(g blueprint.Grade) *int {
	v := int(g)
	return &v
}

// hutCatalog prices a wooden foundation in wood and stone walls and roofs in stone.
func hutCatalog() blueprint.StaticCatalog {
	return blueprint.StaticCatalog{
		"foundation": {Kind: "foundation", Category: blueprint.Foundation, Cost: blueprint.ElementCost{
			Bonus: [blueprint.NumGrades]blueprint.ResourceCost{
				blueprint.GradeWood:  {blueprint.Wood: 200},
				blueprint.GradeStone: {blueprint.Stone: 300},
			},
		}},
		"wall": {Kind: "wall", Category: blueprint.Wall, Cost: blueprint.ElementCost{
			Bonus: [blueprint.NumGrades]blueprint.ResourceCost{
				blueprint.GradeWood:  {blueprint.Wood: 100},
				blueprint.GradeStone: {blueprint.Stone: 150},
			},
		}},
		"roof": {Kind: "roof", Category: blueprint.Roof, Cost: blueprint.ElementCost{
			Bonus: [blueprint.NumGrades]blueprint.ResourceCost{
				blueprint.GradeStone: {blueprint.Stone: 100},
			},
		}},
		"door.hinged": {Kind: "door.hinged", Category: blueprint.Door, Cost: blueprint.ElementCost{
			Base: blueprint.ResourceCost{blueprint.Wood: 300},
		}},
	}
}

// hut is 1 wooden foundation, 4 stone walls and 1 stone roof.
func hut() []blueprint.RawElement {
	return []blueprint.RawElement{
		{Prefab: "foundation", Position: []float64{0, 0, 0}, Rotation: []float64{0, 0, 0}, Grade: grade(blueprint.GradeWood)},
		{Prefab: "wall", Position: []float64{1.5, 0, 0}, Rotation: []float64{0, 90, 0}, Grade: grade(blueprint.GradeStone)},
		{Prefab: "wall", Position: []float64{-1.5, 0, 0}, Rotation: []float64{0, 270, 0}, Grade: grade(blueprint.GradeStone)},
		{Prefab: "wall", Position: []float64{0, 0, 1.5}, Rotation: []float64{0, 0, 0}, Grade: grade(blueprint.GradeStone)},
		{Prefab: "wall", Position: []float64{0, 0, -1.5}, Rotation: []float64{0, 180, 0}, Grade: grade(blueprint.GradeStone)},
		{Prefab: "roof", Position: []float64{0, 3, 0}, Rotation: []float64{0, 0, 0}, Grade: grade(blueprint.GradeStone)},
	}
}

// hutStone is the stone the hut needs on top of its foundation's wood.
const hutStone = 4*150 + 100

var origin = blueprint.Anchor{Position: geom.V(100, 10, 100)}

type rig struct {
	cfg     config.BuildConfig
	site    *data.Site
	sandbox *world.Sandbox
	notes   *recorder
	journal *journal
	deps    automaton.Deps
	mgr     *automaton.Manager
}

func newRig(t *testing.T, site *data.Site, blueprints memSource, tweak func(*config.BuildConfig)) *rig {
	t.Helper()
	cfg := config.Defaults().Build
	cfg.PauseRetryTicks = 3
	if tweak != nil {
		tweak(&cfg)
	}
	require.NoError(t, cfg.Validate())
	if site == nil {
		site = &data.Site{Name: "flat", BaseHeight: 10}
	}
	cat := hutCatalog()
	r := &rig{
		cfg:     cfg,
		site:    site,
		sandbox: world.NewSandbox(site, zap.NewNop()),
		notes:   &recorder{},
		journal: &journal{},
	}
	r.deps = automaton.Deps{
		Config: cfg,
		Loader: blueprint.NewLoader(blueprints, cat, blueprint.LoaderOptions{
			DeployDoors:     cfg.DeployDoors,
			DeployPrivilege: cfg.DeployPrivilege,
		}, zap.NewNop()),
		Catalog:     cat,
		Costs:       cat,
		Inventories: r.sandbox,
		Factory:     r.sandbox,
		Query:       r.sandbox,
		Stability:   r.sandbox,
		Notifier:    r.notes,
		Journal:     r.journal,
		Log:         zap.NewNop(),
	}
	r.mgr = automaton.NewManager(r.deps)
	return r
}

// rebuild replaces the manager with one built from adjusted deps.
func (r *rig) rebuild(adjust func(*automaton.Deps)) {
	adjust(&r.deps)
	r.mgr = automaton.NewManager(r.deps)
}

// runUntil ticks until cond holds, failing after limit ticks.
func (r *rig) runUntil(t *testing.T, limit int, cond func() bool) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if cond() {
			return
		}
		r.mgr.Tick()
	}
	require.True(t, cond(), "condition not reached after %d ticks", limit)
}

func (r *rig) phase(t *testing.T, id automaton.JobID) automaton.Phase {
	t.Helper()
	p, err := r.mgr.Status(id)
	require.NoError(t, err)
	return p
}

func (r *rig) finish(t *testing.T, id automaton.JobID) automaton.Phase {
	t.Helper()
	r.runUntil(t, 200, func() bool { return r.phase(t, id).Terminal() })
	return r.phase(t, id)
}

// spawned lists the categories of the parts built for owner, in spawn order.
func (r *rig) spawned(owner automaton.OwnerID) []blueprint.Category {
	var out []blueprint.Category
	for _, h := range r.sandbox.SpawnLog() {
		p, _, ok := r.sandbox.Part(h)
		if ok && p.Spawned && p.Owner == string(owner) {
			out = append(out, p.Category)
		}
	}
	return out
}
