package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

const hutJSON = `{
  "name": "hut",
  "owner": "alice",
  "elements": [
    {"prefab": "foundation", "pos": [0, 0, 0], "rot": [0, 0, 0], "grade": 2},
    {"prefab": "wall", "pos": [0, 0, 1.5], "rot": [0, 0, 0], "grade": 2, "skin": 10},
    {"prefab": "door.hinged", "pos": [0, 0, 1.5], "rot": [0, 90, 0], "flags": {"locked": true}, "items": ["lock.code"]}
  ]
}`

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)
	return s, dir
}

func TestLoadPlainFile(t *testing.T) {
	s, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hut.json"), []byte(hutJSON), 0o600))

	elems, err := s.Load(context.Background(), "hut")
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, "wall", elems[1].Prefab)
	assert.Equal(t, []float64{0, 0, 1.5}, elems[1].Position)
	assert.Equal(t, uint64(10), elems[1].Skin)
	require.NotNil(t, elems[0].Grade)
	assert.Equal(t, 2, *elems[0].Grade)
	assert.Nil(t, elems[2].Grade)
	assert.True(t, elems[2].Flags["locked"])
	assert.Equal(t, []string{"lock.code"}, elems[2].Items)

	doc, err := s.Read(context.Background(), "hut")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.Owner)
}

func TestLoadMissing(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"nope", "", "../etc/passwd", ".."} {
		_, err := s.Load(context.Background(), id)
		assert.ErrorIs(t, err, blueprint.ErrBlueprintMissing, id)
	}
}

func TestSchemaRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"name": "hut", "elements": [`},
		{"missing elements", `{"name": "hut"}`},
		{"short position", `{"name": "hut", "elements": [{"prefab": "wall", "pos": [0, 0], "rot": [0, 0, 0]}]}`},
		{"grade out of range", `{"name": "hut", "elements": [{"prefab": "wall", "pos": [0, 0, 0], "rot": [0, 0, 0], "grade": 9}]}`},
		{"unknown field", `{"name": "hut", "elements": [{"prefab": "wall", "pos": [0, 0, 0], "rot": [0, 0, 0], "hp": 5}]}`},
		{"empty prefab", `{"name": "hut", "elements": [{"prefab": "", "pos": [0, 0, 0], "rot": [0, 0, 0]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newStore(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(tt.body), 0o600))
			_, err := s.Load(context.Background(), "bad")
			assert.ErrorIs(t, err, blueprint.ErrBlueprintCorrupt)
		})
	}
}

func TestDecodeValidatesGenericValue(t *testing.T) {
	s, _ := newStore(t)

	doc, err := s.Decode([]byte(hutJSON))
	require.NoError(t, err)
	assert.Equal(t, "hut", doc.Name)
	require.Len(t, doc.Elements, 3)

	_, err = s.Decode([]byte(`[1, 2, 3]`))
	assert.ErrorIs(t, err, blueprint.ErrBlueprintCorrupt, "valid JSON, wrong shape")
	_, err = s.Decode([]byte(`{"name": "hut", "elements": []} trailing`))
	assert.ErrorIs(t, err, blueprint.ErrBlueprintCorrupt)
}

func TestSaveCompressedRoundTrip(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()
	doc, err := s.Decode([]byte(hutJSON))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "hut", *doc, false))
	require.NoError(t, s.Save(ctx, "hut", *doc, true))
	_, err = os.Stat(filepath.Join(dir, "hut.json"))
	assert.True(t, os.IsNotExist(err), "plain copy replaced by the compressed one")

	raw, err := os.ReadFile(filepath.Join(dir, "hut.json.zst"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd frame magic")

	got, err := s.Read(ctx, "hut")
	require.NoError(t, err)
	assert.Equal(t, doc.Elements, got.Elements)
	assert.Equal(t, docVersion, got.Version)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s, _ := newStore(t)
	bad := Document{Name: "hut", Elements: []blueprint.RawElement{{Prefab: "wall", Position: []float64{1}, Rotation: []float64{0, 0, 0}}}}
	assert.ErrorIs(t, s.Save(context.Background(), "hut", bad, false), blueprint.ErrBlueprintCorrupt)
	assert.Error(t, s.Save(context.Background(), "a/b", Document{Name: "x"}, false))
}

func TestList(t *testing.T) {
	s, dir := newStore(t)
	ids, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "tower", Document{Name: "tower"}, true))
	require.NoError(t, s.Save(ctx, "hut", Document{Name: "hut"}, false))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), nil, 0o600))

	ids, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"hut", "tower"}, ids)
}
