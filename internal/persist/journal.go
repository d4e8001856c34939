package persist

import (
	"context"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
)

// walWriter is the part of WALRepo the journal needs.
type walWriter interface {
	WriteWAL(ctx context.Context, entries []WALEntry) error
}

// Journal buffers resource movements from the game loop and writes them to
// the WAL in batches. It implements automaton.Journal.
type Journal struct {
	wal     walWriter
	pending []WALEntry
	log     *zap.Logger
}

func NewJournal(wal walWriter, log *zap.Logger) *Journal {
	return &Journal{wal: wal, log: log}
}

func (j *Journal) RecordDebit(job automaton.JobID, owner automaton.OwnerID, taken blueprint.ResourceCost) {
	j.record(job, owner, "debit", taken)
}

func (j *Journal) RecordRefund(job automaton.JobID, owner automaton.OwnerID, given blueprint.ResourceCost) {
	j.record(job, owner, "refund", given)
}

func (j *Journal) record(job automaton.JobID, owner automaton.OwnerID, txType string, c blueprint.ResourceCost) {
	for r := blueprint.Resource(0); r < blueprint.NumResources; r++ {
		if c[r] <= 0 {
			continue
		}
		j.pending = append(j.pending, WALEntry{
			JobID:  string(job),
			Owner:  string(owner),
			TxType: txType,
			ItemID: r.ItemID(),
			Amount: c[r],
		})
	}
}

// Pending returns the number of buffered entries.
func (j *Journal) Pending() int { return len(j.pending) }

// Flush writes every buffered entry. On failure the entries stay buffered
// for the next flush.
func (j *Journal) Flush(ctx context.Context) error {
	if len(j.pending) == 0 {
		return nil
	}
	if err := j.wal.WriteWAL(ctx, j.pending); err != nil {
		j.log.Error("資源日誌寫入失敗", zap.Int("entries", len(j.pending)), zap.Error(err))
		return err
	}
	j.pending = j.pending[:0]
	return nil
}
