package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain commands from the CLI or session layer
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: step build jobs
	PhasePostUpdate              // 3: reserved
	PhaseOutput                  // 4: reserved
	PhasePersist                 // 5: WAL flush
	PhaseCleanup                 // 6: destroy queued entities
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
