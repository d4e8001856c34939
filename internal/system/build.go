package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/core/event"
	coresys "github.com/l1jgo/autobuild/internal/core/system"
)

// BuildSystem steps every construction job once per tick and announces the
// jobs that finished. Phase 2 (Update).
type BuildSystem struct {
	jobs *automaton.Manager
	bus  *event.Bus
	log  *zap.Logger
}

// NewBuildSystem also wires owner disconnect and death to job cancellation.
func NewBuildSystem(jobs *automaton.Manager, bus *event.Bus, log *zap.Logger) *BuildSystem {
	s := &BuildSystem{jobs: jobs, bus: bus, log: log}
	event.Subscribe(bus, func(e event.OwnerDisconnected) {
		s.cancel(e.Owner, "disconnect")
	})
	event.Subscribe(bus, func(e event.OwnerDied) {
		s.cancel(e.Owner, "death")
	})
	return s
}

func (s *BuildSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BuildSystem) Update(_ time.Duration) {
	s.jobs.Tick()
	s.announce()
}

func (s *BuildSystem) cancel(owner automaton.OwnerID, reason string) {
	if !s.jobs.CancelOwner(owner) {
		return
	}
	s.log.Info("建造者離開，取消建造", zap.String("owner", string(owner)), zap.String("reason", reason))
	// Cancel retires the job right away; publish it with this tick's results.
	s.announce()
}

func (s *BuildSystem) announce() {
	for _, out := range s.jobs.DrainFinished() {
		event.Emit(s.bus, event.JobFinished{
			Job:    out.Job,
			Owner:  out.Owner,
			Phase:  out.Phase,
			Placed: out.Placed,
			Err:    out.Err,
		})
	}
}
