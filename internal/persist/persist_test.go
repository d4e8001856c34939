package persist

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

var elementColumns = []string{"prefab", "pos_x", "pos_y", "pos_z", "rot_x", "rot_y", "rot_z", "grade", "skin", "flags", "items"}

func stone() *int { g := 2; return &g }

func sampleElements() []blueprint.RawElement {
	return []blueprint.RawElement{
		{Prefab: "foundation", Position: []float64{0, 0, 0}, Rotation: []float64{0, 0, 0}, Grade: stone()},
		{Prefab: "door.hinged", Position: []float64{1.5, 0, 0}, Rotation: []float64{0, 90, 0}, Skin: 10,
			Flags: map[string]bool{"locked": true}, Items: []string{"lock.code"}},
	}
}

func expectElements(mock sqlmock.Sqlmock, digest []byte) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, digest FROM blueprints WHERE name = $1")).
		WithArgs("hut").
		WillReturnRows(sqlmock.NewRows([]string{"id", "digest"}).AddRow(int64(7), digest))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT prefab, pos_x")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(elementColumns).
			AddRow("foundation", 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, int64(2), int64(0), nil, nil).
			AddRow("door.hinged", 1.5, 0.0, 0.0, 0.0, 90.0, 0.0, nil, int64(10), []byte(`{"locked":true}`), []byte(`["lock.code"]`)))
}

func TestBlueprintRepoLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	digest, err := Digest(sampleElements())
	require.NoError(t, err)
	expectElements(mock, digest)

	got, err := NewBlueprintRepo(db).Load(context.Background(), "hut")
	require.NoError(t, err)
	assert.Equal(t, sampleElements(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlueprintRepoLoadDigestMismatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectElements(mock, []byte("not the digest"))

	_, err = NewBlueprintRepo(db).Load(context.Background(), "hut")
	assert.ErrorIs(t, err, blueprint.ErrBlueprintCorrupt)
}

func TestBlueprintRepoLoadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, digest FROM blueprints")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "digest"}))

	_, err = NewBlueprintRepo(db).Load(context.Background(), "nope")
	assert.ErrorIs(t, err, blueprint.ErrBlueprintMissing)
}

func TestBlueprintRepoLoadDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, digest FROM blueprints")).WillReturnError(boom)

	_, err = NewBlueprintRepo(db).Load(context.Background(), "hut")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, blueprint.ErrBlueprintMissing)
}

func TestBlueprintRepoSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	elems := sampleElements()
	digest, err := Digest(elems)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO blueprints (name, owner, digest)")).
		WithArgs("hut", "alice", digest).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blueprint_elements WHERE blueprint_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blueprint_elements")).
		WithArgs(int64(7), 0, "foundation", 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, int64(2), int64(0), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blueprint_elements")).
		WithArgs(int64(7), 1, "door.hinged", 1.5, 0.0, 0.0, 0.0, 90.0, 0.0, nil, int64(10),
			[]byte(`{"locked":true}`), []byte(`["lock.code"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewBlueprintRepo(db).Save(context.Background(), "hut", "alice", elems))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlueprintRepoSaveRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO blueprints")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blueprint_elements")).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err = NewBlueprintRepo(db).Save(context.Background(), "hut", "alice", sampleElements())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlueprintRepoSaveRejectsMalformed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	bad := []blueprint.RawElement{{Prefab: "wall", Position: []float64{1, 2}, Rotation: []float64{0, 0, 0}}}
	err = NewBlueprintRepo(db).Save(context.Background(), "hut", "", bad)
	assert.ErrorIs(t, err, blueprint.ErrBlueprintCorrupt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlueprintRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM blueprints ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("bunker").AddRow("hut"))

	names, err := NewBlueprintRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bunker", "hut"}, names)
}

func TestDigestIgnoresEmptyOptionalFields(t *testing.T) {
	a := []blueprint.RawElement{{Prefab: "wall", Position: []float64{1, 0, 0}, Rotation: []float64{0, 0, 0}}}
	b := []blueprint.RawElement{{Prefab: "wall", Position: []float64{1, 0, 0}, Rotation: []float64{0, 0, 0},
		Flags: map[string]bool{}, Items: []string{}}}
	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
	assert.Len(t, da, 32)

	a[0].Position[0] = 2
	dc, _ := Digest(a)
	assert.NotEqual(t, da, dc)
}

func TestWALWriteAndMark(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWALRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_wal")).
		WithArgs("job-1", "alice", "debit", "wood", 200).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_wal")).
		WithArgs("job-1", "alice", "refund", "wood", 50).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.WriteWAL(context.Background(), []WALEntry{
		{JobID: "job-1", Owner: "alice", TxType: "debit", ItemID: "wood", Amount: 200},
		{JobID: "job-1", Owner: "alice", TxType: "refund", ItemID: "wood", Amount: 50},
	}))
	require.NoError(t, repo.WriteWAL(context.Background(), nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resource_wal SET processed = TRUE")).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.MarkProcessed(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT item_id, SUM(")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "sum"}).AddRow("wood", int64(150)))
	net, err := repo.NetDebited(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"wood": 150}, net)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeWAL struct {
	written []WALEntry
	err     error
}

func (f *fakeWAL) WriteWAL(_ context.Context, entries []WALEntry) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, entries...)
	return nil
}

func TestJournalBuffersUntilFlush(t *testing.T) {
	wal := &fakeWAL{err: errors.New("db down")}
	j := NewJournal(wal, zap.NewNop())

	j.RecordDebit("job-1", "alice", blueprint.ResourceCost{blueprint.Wood: 200, blueprint.Stone: 150})
	j.RecordRefund("job-1", "alice", blueprint.ResourceCost{blueprint.Wood: 200})
	j.RecordDebit("job-1", "alice", blueprint.ResourceCost{})
	assert.Equal(t, 3, j.Pending())

	assert.Error(t, j.Flush(context.Background()))
	assert.Equal(t, 3, j.Pending())

	wal.err = nil
	require.NoError(t, j.Flush(context.Background()))
	assert.Zero(t, j.Pending())
	assert.Equal(t, []WALEntry{
		{JobID: "job-1", Owner: "alice", TxType: "debit", ItemID: "wood", Amount: 200},
		{JobID: "job-1", Owner: "alice", TxType: "debit", ItemID: "stones", Amount: 150},
		{JobID: "job-1", Owner: "alice", TxType: "refund", ItemID: "wood", Amount: 200},
	}, wal.written)
}
