package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
elements:
  - kind: foundation
    aliases: ["assets/prefabs/building core/foundation/foundation.prefab"]
    category: foundation
    cost: {wood: 50}
    grades:
      wood: {wood: 200}
      stone: {stones: 300}
      metal: {metal.fragments: 200}
      toptier: {metal.refined: 25}
    skins:
      wood: [10232]
  - kind: door.hinged.metal
    category: door
    cost: {metal.fragments: 150}
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count())

	info, ok := c.Lookup("assets/prefabs/building core/foundation/foundation.prefab")
	require.True(t, ok)
	assert.Equal(t, blueprint.Foundation, info.Category)
	assert.Equal(t, blueprint.Kind("assets/prefabs/building core/foundation/foundation.prefab"), info.Kind)

	e, ok := c.ElementCost("foundation")
	require.True(t, ok)
	assert.Equal(t, blueprint.ResourceCost{blueprint.Wood: 50}, e.Base)
	assert.Equal(t, blueprint.ResourceCost{blueprint.Stone: 300}, e.Bonus[blueprint.GradeStone])
	assert.Equal(t, blueprint.ResourceCost{blueprint.HQM: 25}, e.Bonus[blueprint.GradeTopTier])

	assert.Equal(t, uint64(10232), info.SkinFor(blueprint.GradeWood, 10232))

	door, ok := c.Lookup("door.hinged.metal")
	require.True(t, ok)
	assert.Equal(t, blueprint.Door, door.Category)
}

func TestParseCatalogErrors(t *testing.T) {
	bad := []string{
		"elements:\n  - kind: x\n    category: chimney\n",
		"elements:\n  - kind: x\n    category: wall\n    cost: {sulfur: 1}\n",
		"elements:\n  - kind: x\n    category: wall\n  - kind: x\n    category: roof\n",
		"elements:\n  - category: wall\n",
	}
	for _, y := range bad {
		_, err := ParseCatalog([]byte(y))
		assert.Error(t, err, y)
	}
}

func TestLoadSiteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site_list.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sites:
  - name: meadow
    base_height: 10
    patches:
      - area: {min_x: 0, min_z: 0, max_x: 5, max_z: 5}
        height: 12
    roads:
      - {min_x: 40, min_z: -100, max_x: 46, max_z: 100}
    inventories:
      alice: {wood: 1000}
  - name: cliff
`), 0o600))

	tbl, err := LoadSiteTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())
	assert.Equal(t, "meadow", tbl.Default().Name)

	s := tbl.Get("meadow")
	require.NotNil(t, s)
	assert.Equal(t, 10.0, s.BaseHeight)
	assert.True(t, s.Patches[0].Area.Contains(2, 2))
	assert.True(t, s.Roads[0].Contains(42, 0))
	assert.Equal(t, 1000, s.Inventories["alice"]["wood"])
	assert.Nil(t, tbl.Get("nowhere"))
}
