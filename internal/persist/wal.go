package persist

import (
	"context"
	"database/sql"
	"fmt"
)

// WALEntry is one resource movement between an owner and a build job.
type WALEntry struct {
	JobID  string
	Owner  string
	TxType string // "debit" or "refund"
	ItemID string
	Amount int
}

type WALRepo struct {
	db *sql.DB
}

func NewWALRepo(db *sql.DB) *WALRepo {
	return &WALRepo{db: db}
}

// WriteWAL atomically writes a batch of WAL entries in a single transaction.
func (r *WALRepo) WriteWAL(ctx context.Context, entries []WALEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("wal begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO resource_wal (job_id, owner, tx_type, item_id, amount)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.JobID, e.Owner, e.TxType, e.ItemID, e.Amount,
		); err != nil {
			return fmt.Errorf("wal insert: %w", err)
		}
	}

	return tx.Commit()
}

// MarkProcessed marks every pending entry of a finished job as processed
// and returns how many rows changed.
func (r *WALRepo) MarkProcessed(ctx context.Context, jobID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE resource_wal SET processed = TRUE WHERE job_id = $1 AND processed = FALSE`, jobID,
	)
	if err != nil {
		return 0, fmt.Errorf("wal mark processed: %w", err)
	}
	return res.RowsAffected()
}

// NetDebited sums debits minus refunds per item for one job.
func (r *WALRepo) NetDebited(ctx context.Context, jobID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, SUM(CASE WHEN tx_type = 'refund' THEN -amount ELSE amount END)
		 FROM resource_wal WHERE job_id = $1 GROUP BY item_id`, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("wal net debited: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			item string
			net  int
		)
		if err := rows.Scan(&item, &net); err != nil {
			return nil, fmt.Errorf("wal scan: %w", err)
		}
		out[item] = net
	}
	return out, rows.Err()
}
