package automaton

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/config"
)

// Deps is everything a job talks to. Cost tables are shared read-only.
type Deps struct {
	Config      config.BuildConfig
	Loader      *blueprint.Loader
	Catalog     blueprint.Catalog
	Costs       blueprint.CostSource
	Inventories Inventories
	Factory     WorldFactory
	Query       CollisionQuery
	Stability   StabilityHost
	Notifier    Notifier
	Journal     Journal // optional
	Log         *zap.Logger

	// RetryTicks picks a job's pause retry interval from its element count.
	// Optional; Config.PauseRetryTicks applies when nil.
	RetryTicks func(elements, def int) int
}

// Outcome describes a job that reached a terminal phase.
type Outcome struct {
	Job    JobID
	Owner  OwnerID
	Phase  Phase
	Err    error
	Placed int
}

// Report is the on-request status of a job.
type Report struct {
	Job            JobID
	Owner          OwnerID
	Blueprint      string
	ConstructionID string
	Phase          Phase
	Placed         int
	Total          int
	Missing     blueprint.ResourceCost // what the current element still needs
	Outstanding blueprint.ResourceCost // planned total not yet debited
	Err         error
}

// Manager is the job registry. Every method must be called from the game
// loop goroutine.
type Manager struct {
	deps     Deps
	jobs     map[JobID]*Job
	order    []JobID // step order, oldest first
	byOwner  map[OwnerID]JobID
	outcomes map[JobID]Outcome
	history  []JobID   // outcome keys, oldest first, at most Config.FinishedHistory
	finished []Outcome // since the last DrainFinished
}

func NewManager(deps Deps) *Manager {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Manager{
		deps:     deps,
		jobs:     make(map[JobID]*Job),
		byOwner:  make(map[OwnerID]JobID),
		outcomes: make(map[JobID]Outcome),
	}
}

// StartJob loads and prices a blueprint and queues a job that searches for
// ground around hint on the next tick. Load failures never create a job.
func (m *Manager) StartJob(ctx context.Context, owner OwnerID, blueprintID string, hint blueprint.Anchor) (JobID, error) {
	if id, busy := m.byOwner[owner]; busy {
		return "", fmt.Errorf("owner %s job %s: %w", owner, id, ErrOwnerBusy)
	}
	d := &m.deps

	j := &Job{
		id:             JobID(uuid.NewString()),
		owner:          owner,
		blueprintID:    blueprintID,
		anchor:         hint,
		constructionID: uuid.NewString(),
		phase:          PhaseLoading,
		own:            make(map[EntityHandle]struct{}),
	}

	descs, err := d.Loader.Load(ctx, blueprintID)
	if err != nil {
		d.Notifier.Notify(owner, MsgAborted, FailureCode(err))
		return "", err
	}

	j.phase = PhaseClassifying
	plan, err := blueprint.Classify(descs, d.Costs)
	if err != nil {
		if !errors.Is(err, blueprint.ErrBlueprintCorrupt) {
			err = fmt.Errorf("%w: %w", blueprint.ErrBlueprintCorrupt, err)
		}
		d.Notifier.Notify(owner, MsgAborted, FailureCode(err))
		return "", err
	}
	j.plan = plan
	j.ledger = NewLedger(plan.Required)
	j.retryTicks = d.Config.PauseRetryTicks
	if d.RetryTicks != nil {
		if n := d.RetryTicks(len(plan.Elements), j.retryTicks); n > 0 {
			j.retryTicks = n
		}
	}
	j.exec = executor{
		factory:        d.Factory,
		catalog:        d.Catalog,
		owner:          owner,
		constructionID: j.constructionID,
	}
	j.site = NewSiteSearch(d.Config, d.Query, owner, hint, plan.Batch(blueprint.Foundation))
	j.phase = PhaseAwaitingSite

	m.jobs[j.id] = j
	m.order = append(m.order, j.id)
	m.byOwner[owner] = j.id

	d.Log.Info("建造開始",
		zap.String("job", string(j.id)),
		zap.String("owner", string(owner)),
		zap.String("blueprint", blueprintID),
		zap.Int("elements", len(plan.Elements)),
		zap.String("cost", plan.Required.String()))
	d.Notifier.Notify(owner, MsgStarted, len(plan.Elements), plan.Required)
	return j.id, nil
}

// Tick steps every live job once, then retires the ones that finished.
func (m *Manager) Tick() {
	for _, id := range m.order {
		if j, ok := m.jobs[id]; ok {
			j.step(&m.deps)
		}
	}
	m.retire()
}

func (m *Manager) retire() {
	kept := m.order[:0]
	for _, id := range m.order {
		j, ok := m.jobs[id]
		if !ok {
			continue
		}
		if !j.phase.Terminal() {
			kept = append(kept, id)
			continue
		}
		out := Outcome{Job: id, Owner: j.owner, Phase: j.phase, Err: j.err, Placed: j.placed}
		m.remember(out)
		m.finished = append(m.finished, out)
		delete(m.jobs, id)
		if m.byOwner[j.owner] == id {
			delete(m.byOwner, j.owner)
		}
	}
	m.order = kept
}

// remember keeps a terminal outcome for Status and Report, forgetting the
// oldest once the history is full.
func (m *Manager) remember(out Outcome) {
	m.outcomes[out.Job] = out
	m.history = append(m.history, out.Job)
	limit := max(m.deps.Config.FinishedHistory, 1)
	if n := len(m.history) - limit; n > 0 {
		for _, old := range m.history[:n] {
			delete(m.outcomes, old)
		}
		m.history = append(m.history[:0], m.history[n:]...)
	}
}

// DrainFinished returns the outcomes recorded since the previous call.
func (m *Manager) DrainFinished() []Outcome {
	out := m.finished
	m.finished = nil
	return out
}

// Pause holds a job at its next suspension point until Resume.
func (m *Manager) Pause(id JobID) error {
	j, err := m.live(id)
	if err != nil {
		return err
	}
	if !j.held {
		j.held = true
		m.deps.Notifier.Notify(j.owner, MsgHeld)
	}
	return nil
}

// Resume releases a hold. A job waiting for resources retries its debit on
// the next tick instead of waiting out the retry interval.
func (m *Manager) Resume(id JobID) error {
	j, err := m.live(id)
	if err != nil {
		return err
	}
	j.held = false
	if j.waiting {
		j.retryIn = 0
	}
	return nil
}

// Status returns the job's phase. Finished jobs keep answering with their
// terminal phase.
func (m *Manager) Status(id JobID) (Phase, error) {
	if j, ok := m.jobs[id]; ok {
		return j.Phase(), nil
	}
	if out, ok := m.outcomes[id]; ok {
		return out.Phase, nil
	}
	return 0, fmt.Errorf("job %s: %w", id, ErrUnknownJob)
}

// Cancel stops a job at once and removes what it spawned.
func (m *Manager) Cancel(id JobID) error {
	j, err := m.live(id)
	if err != nil {
		return err
	}
	j.cancel(&m.deps)
	m.retire()
	return nil
}

// CancelOwner cancels the owner's job, if any. Used on disconnect and death.
func (m *Manager) CancelOwner(owner OwnerID) bool {
	id, ok := m.byOwner[owner]
	if !ok {
		return false
	}
	return m.Cancel(id) == nil
}

// JobOf returns the owner's live job id.
func (m *Manager) JobOf(owner OwnerID) (JobID, bool) {
	id, ok := m.byOwner[owner]
	return id, ok
}

// Report describes a job and, if it is waiting for resources, sends the
// owner a status message listing what is missing.
func (m *Manager) Report(id JobID) (Report, error) {
	j, ok := m.jobs[id]
	if !ok {
		out, done := m.outcomes[id]
		if !done {
			return Report{}, fmt.Errorf("job %s: %w", id, ErrUnknownJob)
		}
		return Report{Job: id, Owner: out.Owner, Phase: out.Phase, Placed: out.Placed, Err: out.Err}, nil
	}
	r := Report{
		Job:            id,
		Owner:          j.Owner(),
		Blueprint:      j.blueprintID,
		ConstructionID: j.ConstructionID(),
		Phase:          j.Phase(),
		Placed:         j.Placed(),
		Total:          len(j.plan.Elements),
	}
	if j.ledger != nil {
		r.Missing = j.ledger.RequiredRemaining()
		r.Outstanding = j.ledger.Outstanding()
	}
	if j.waiting {
		m.deps.Notifier.Notify(j.owner, MsgStatus, r.Placed, r.Total, r.Missing)
	}
	return r, nil
}

// Active returns the number of live jobs.
func (m *Manager) Active() int { return len(m.jobs) }

func (m *Manager) live(id JobID) (*Job, error) {
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	if _, ok := m.outcomes[id]; ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrJobFinished)
	}
	return nil, fmt.Errorf("job %s: %w", id, ErrUnknownJob)
}
