package automaton

import (
	"fmt"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

// executor turns world elements into spawned entities.
type executor struct {
	factory        WorldFactory
	catalog        blueprint.Catalog
	owner          OwnerID
	constructionID string
}

// materialize creates, configures and spawns one element, then any
// sub-items it carries at the same transform. The first handle returned
// is the element itself. On error, entities created so far are returned
// so the caller can track them.
func (x *executor) materialize(e *blueprint.WorldElement) ([]EntityHandle, error) {
	var skin uint64
	if info, ok := x.catalog.Lookup(e.Kind); ok {
		skin = info.SkinFor(e.Grade, e.SkinID)
	}

	h, err := x.factory.CreateEntity(e.Kind, e.Position, e.Rotation)
	if err != nil {
		return nil, fmt.Errorf("create %s: %v: %w", e.Kind, err, ErrSpawnFailed)
	}
	x.factory.Configure(h, EntitySetup{
		Category:       e.Category,
		Grade:          e.Grade,
		Skin:           skin,
		Owner:          x.owner,
		ConstructionID: x.constructionID,
		Flags:          e.Flags,
	})
	x.factory.Spawn(h)
	handles := []EntityHandle{h}

	for _, item := range e.Items {
		ih, err := x.factory.CreateEntity(item, e.Position, e.Rotation)
		if err != nil {
			return handles, fmt.Errorf("create %s item %s: %v: %w", e.Kind, item, err, ErrSpawnFailed)
		}
		x.factory.Configure(ih, EntitySetup{
			Category:       e.Category,
			Owner:          x.owner,
			ConstructionID: x.constructionID,
		})
		x.factory.Spawn(ih)
		handles = append(handles, ih)
	}
	return handles, nil
}
