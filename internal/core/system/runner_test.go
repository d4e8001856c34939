package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (p recordingSystem) Phase() Phase { return p.phase }

func (p recordingSystem) Update(time.Duration) { *p.log = append(*p.log, p.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recordingSystem{"cleanup", PhaseCleanup, &log})
	r.Register(recordingSystem{"build", PhaseUpdate, &log})
	r.Register(recordingSystem{"events", PhasePreUpdate, &log})
	r.Register(recordingSystem{"build2", PhaseUpdate, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"events", "build", "build2", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Ticks())

	log = nil
	r.TickPhase(PhaseUpdate, 0)
	assert.Equal(t, []string{"build", "build2"}, log)
	assert.Equal(t, uint64(1), r.Ticks(), "single phase does not count as a tick")
}
