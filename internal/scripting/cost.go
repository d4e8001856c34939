package scripting

import (
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

// costTable is what CostOverlay needs from the catalog.
type costTable interface {
	blueprint.Catalog
	blueprint.CostSource
}

// CostOverlay is a blueprint.CostSource whose grade bonuses may be replaced
// by the calc_grade_bonus hook. Results are computed once per kind, so the
// overlay stays a read-only table once warmed.
type CostOverlay struct {
	base   costTable
	engine *Engine
	cache  map[blueprint.Kind]blueprint.ElementCost
	log    *zap.Logger
}

func NewCostOverlay(base costTable, engine *Engine, log *zap.Logger) *CostOverlay {
	return &CostOverlay{
		base:   base,
		engine: engine,
		cache:  make(map[blueprint.Kind]blueprint.ElementCost),
		log:    log,
	}
}

func (o *CostOverlay) Lookup(k blueprint.Kind) (blueprint.KindInfo, bool) {
	info, ok := o.base.Lookup(k)
	if !ok {
		return info, false
	}
	info.Cost, _ = o.ElementCost(k)
	return info, true
}

func (o *CostOverlay) ElementCost(k blueprint.Kind) (blueprint.ElementCost, bool) {
	if c, ok := o.cache[k]; ok {
		return c, true
	}
	c, ok := o.base.ElementCost(k)
	if !ok {
		return c, false
	}
	if o.engine != nil && o.engine.HasFunc("calc_grade_bonus") {
		info, _ := o.base.Lookup(k)
		for g := blueprint.GradeWood; g < blueprint.NumGrades; g++ {
			bonus, ok := o.engine.CalcGradeBonus(gradeContext(k, info.Category, g, c))
			if !ok {
				continue
			}
			cost, err := blueprint.CostFromMap(bonus)
			if err != nil {
				o.log.Warn("腳本回傳無效的等級加成", zap.String("kind", string(k)), zap.Error(err))
				continue
			}
			c.Bonus[g] = cost
		}
	}
	o.cache[k] = c
	return c, true
}

func gradeContext(k blueprint.Kind, cat blueprint.Category, g blueprint.Grade, c blueprint.ElementCost) GradeBonusContext {
	return GradeBonusContext{
		Kind:     string(k),
		Category: cat.String(),
		Grade:    g.String(),
		Base:     amounts(c.Base),
		Bonus:    amounts(c.Bonus[g]),
	}
}

func amounts(c blueprint.ResourceCost) map[string]int {
	m := make(map[string]int)
	for r := blueprint.Resource(0); r < blueprint.NumResources; r++ {
		if c[r] != 0 {
			m[r.ItemID()] = c[r]
		}
	}
	return m
}
