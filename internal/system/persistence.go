package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/core/event"
	coresys "github.com/l1jgo/autobuild/internal/core/system"
)

// Journal is the buffered WAL the automaton records resource movements in.
type Journal interface {
	Pending() int
	Flush(ctx context.Context) error
}

// WALMarker closes out a finished job's WAL rows.
type WALMarker interface {
	MarkProcessed(ctx context.Context, jobID string) (int64, error)
}

// PersistenceSystem periodically flushes the resource journal and marks the
// WAL rows of finished jobs processed. Phase 5 (Persist).
type PersistenceSystem struct {
	journal   Journal
	wal       WALMarker // optional
	log       *zap.Logger
	finished  []string // job ids waiting for their rows to be flushed
	tickCount int
	interval  int // flush every N ticks
}

func NewPersistenceSystem(journal Journal, wal WALMarker, bus *event.Bus, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1
	}
	s := &PersistenceSystem{
		journal:  journal,
		wal:      wal,
		log:      log,
		interval: intervalTicks,
	}
	event.Subscribe(bus, func(e event.JobFinished) {
		s.finished = append(s.finished, string(e.Job))
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.flush()
}

// FlushAll writes everything immediately. Called for graceful shutdown.
func (s *PersistenceSystem) FlushAll() {
	s.tickCount = 0
	s.flush()
}

func (s *PersistenceSystem) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := s.journal.Pending()
	if err := s.journal.Flush(ctx); err != nil {
		// entries stay buffered; finished jobs wait for the next round
		return
	}
	if n > 0 {
		s.log.Debug("資源日誌已寫入", zap.Int("entries", n))
	}

	if s.wal == nil || len(s.finished) == 0 {
		s.finished = s.finished[:0]
		return
	}
	kept := s.finished[:0]
	for _, id := range s.finished {
		rows, err := s.wal.MarkProcessed(ctx, id)
		if err != nil {
			s.log.Error("WAL MarkProcessed 失敗", zap.String("job", id), zap.Error(err))
			kept = append(kept, id)
			continue
		}
		s.log.Debug("WAL 已結算", zap.String("job", id), zap.Int64("rows", rows))
	}
	s.finished = kept
}
