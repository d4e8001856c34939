package automaton

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

// JobID identifies a build job. Owners hold only this key.
type JobID string

// Phase is a job's position in its state machine.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseClassifying
	PhaseAwaitingSite
	PhaseScheduling
	PhaseBuilding
	PhasePaused // reported by Status; internally the job is Building
	PhaseStabilizingFinal
	PhaseCompleted
	PhaseAborted
	PhaseCanceled
)

var phaseNames = [...]string{
	PhaseLoading:          "Loading",
	PhaseClassifying:      "Classifying",
	PhaseAwaitingSite:     "AwaitingSite",
	PhaseScheduling:       "Scheduling",
	PhaseBuilding:         "Building",
	PhasePaused:           "Paused",
	PhaseStabilizingFinal: "StabilizingFinal",
	PhaseCompleted:        "Completed",
	PhaseAborted:          "Aborted",
	PhaseCanceled:         "Canceled",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Terminal reports whether no further step can change the phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted || p == PhaseCanceled
}

// Job is one in-progress reconstruction. It is only ever stepped from the
// manager's goroutine.
type Job struct {
	id             JobID
	owner          OwnerID
	blueprintID    string
	anchor         blueprint.Anchor
	constructionID string

	phase Phase
	err   error

	plan      *blueprint.Classification
	ledger    *Ledger
	site      *SiteSearch
	sched     *scheduler
	exec      executor
	stability StabilityRegistry

	// Resource wait: waiting is the Paused sub-state of Building, held is
	// an explicit owner pause that stops stepping altogether.
	waiting    bool
	held       bool
	charged    bool // current element's cost is on the ledger
	retryIn    int
	retryTicks int
	waited     int
	spawned    []EntityHandle
	own        map[EntityHandle]struct{}
	placed     int
	finished   bool // terminal notification sent
}

func (j *Job) ID() JobID       { return j.id }
func (j *Job) Owner() OwnerID  { return j.owner }
func (j *Job) Err() error      { return j.err }
func (j *Job) Placed() int     { return j.placed }

// ConstructionID groups every entity the job spawns.
func (j *Job) ConstructionID() string { return j.constructionID }

// Phase is the externally visible phase, with resource waits and owner
// holds reported as PhasePaused.
func (j *Job) Phase() Phase {
	if !j.phase.Terminal() && (j.held || (j.phase == PhaseBuilding && j.waiting)) {
		return PhasePaused
	}
	return j.phase
}

// step advances the job by one unit of work. Every return is a suspension point.
func (j *Job) step(d *Deps) {
	if j.phase.Terminal() || j.held {
		return
	}
	switch j.phase {
	case PhaseAwaitingSite:
		j.stepSite(d)
	case PhaseScheduling:
		j.stepSchedule(d)
	case PhaseBuilding:
		j.stepBuild(d)
	case PhaseStabilizingFinal:
		j.stability.Finalize(d.Stability)
		j.phase = PhaseCompleted
		d.Log.Info("建造完成",
			zap.String("job", string(j.id)),
			zap.Int("placed", j.placed),
			zap.Int("structural", j.stability.Len()))
		j.notifyOnce(d, MsgCompleted, j.placed)
	}
}

func (j *Job) stepSite(d *Deps) {
	switch j.site.Step() {
	case SearchingGround:
		return
	case GroundRejected:
		j.abort(d, j.site.Err())
		return
	}
	world := blueprint.Resolve(j.plan.Elements, j.anchor, j.site.Offset())
	j.sched = newScheduler(j.plan, world)
	j.phase = PhaseScheduling
	d.Log.Debug("地基已定位",
		zap.String("job", string(j.id)),
		zap.Float64("offset", j.site.Offset()),
		zap.Int("passes", j.site.Iterations()))
}

func (j *Job) stepSchedule(d *Deps) {
	if j.sched.done() {
		j.phase = PhaseStabilizingFinal
		return
	}
	if j.sched.needsValidation() {
		cat := j.sched.category()
		if err := ValidateBatch(d.Config, d.Query, cat, j.sched.batch(), j.own); err != nil {
			j.abort(d, err)
			return
		}
		j.sched.checked = true
		return
	}
	j.phase = PhaseBuilding
}

func (j *Job) stepBuild(d *Deps) {
	if j.waiting && j.retryIn > 0 {
		j.retryIn--
		j.countWait(d)
		return
	}

	e := j.sched.current()
	if !j.charged {
		cost, ok := blueprint.ElementCostOf(d.Costs, e.ElementDescriptor)
		if !ok {
			j.abort(d, fmt.Errorf("%w: %s: %w", blueprint.ErrBlueprintCorrupt, e.Kind, blueprint.ErrUnpricedKind))
			return
		}
		j.ledger.Require(cost)
		j.charged = true
	}
	inv, _ := d.Inventories.Inventory(j.owner)
	taken := j.ledger.Debit(inv, j.ledger.RequiredRemaining())
	if !taken.IsZero() && d.Journal != nil {
		d.Journal.RecordDebit(j.id, j.owner, taken)
	}

	if !j.ledger.CanProceed() {
		j.retryIn = j.retryTicks
		if j.waiting {
			j.countWait(d)
			return
		}
		j.waiting = true
		d.Log.Info("材料不足，暫停建造",
			zap.String("job", string(j.id)),
			zap.String("missing", j.ledger.RequiredRemaining().String()))
		d.Notifier.Notify(j.owner, MsgPaused, j.ledger.RequiredRemaining())
		return
	}
	if j.waiting {
		j.waiting = false
		j.waited = 0
		d.Notifier.Notify(j.owner, MsgResumed)
	}

	handles, err := j.exec.materialize(e)
	j.track(handles)
	if err != nil {
		j.abort(d, err)
		return
	}
	if e.Category.Structural() {
		j.stability.Register(handles[0])
	}
	j.charged = false
	j.placed++

	if j.sched.advance() {
		j.phase = PhaseScheduling
	}
}

// countWait counts one paused tick, countdown and failed retry alike, and
// aborts once build.pause_timeout_ticks of them have passed.
func (j *Job) countWait(d *Deps) {
	j.waited++
	if t := d.Config.PauseTimeoutTicks; t > 0 && j.waited >= t {
		j.abort(d, fmt.Errorf("waited %d ticks for %s: %w", j.waited, j.ledger.RequiredRemaining(), ErrResourceShortfall))
	}
}

func (j *Job) track(handles []EntityHandle) {
	for _, h := range handles {
		j.spawned = append(j.spawned, h)
		j.own[h] = struct{}{}
	}
}

// abort ends the job on a failure. Placed entities stay in the world.
func (j *Job) abort(d *Deps, err error) {
	j.phase = PhaseAborted
	j.err = err
	j.waiting = false
	if d.Config.RefundOnAbort {
		j.refund(d)
	}
	d.Log.Warn("建造中止",
		zap.String("job", string(j.id)),
		zap.String("owner", string(j.owner)),
		zap.String("reason", FailureCode(err)),
		zap.Error(err))
	j.notifyOnce(d, MsgAborted, FailureCode(err))
}

// cancel stops the job and removes everything it spawned.
func (j *Job) cancel(d *Deps) {
	if j.phase.Terminal() {
		return
	}
	for i := len(j.spawned) - 1; i >= 0; i-- {
		d.Factory.Kill(j.spawned[i])
	}
	removed := len(j.spawned)
	j.spawned = nil
	j.own = map[EntityHandle]struct{}{}
	j.stability.Drop()
	if d.Config.RefundOnCancel {
		j.refund(d)
	}
	j.phase = PhaseCanceled
	j.err = ErrCanceled
	j.waiting = false
	j.held = false
	d.Log.Info("建造取消",
		zap.String("job", string(j.id)),
		zap.Int("removed", removed))
	j.notifyOnce(d, MsgCanceled, removed)
}

func (j *Job) refund(d *Deps) {
	if j.ledger == nil {
		return
	}
	inv, ok := d.Inventories.Inventory(j.owner)
	if !ok {
		return
	}
	given := j.ledger.Refund(inv)
	if !given.IsZero() && d.Journal != nil {
		d.Journal.RecordRefund(j.id, j.owner, given)
	}
}

func (j *Job) notifyOnce(d *Deps, key string, args ...any) {
	if j.finished {
		return
	}
	j.finished = true
	d.Notifier.Notify(j.owner, key, args...)
}
