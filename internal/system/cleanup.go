package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/core/ecs"
	coresys "github.com/l1jgo/autobuild/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end,
// so parts killed by a canceled job free their ids.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if s.world.Pending() == 0 {
		return
	}
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.log.Debug("清除實體", zap.Int("count", n))
	}
}
