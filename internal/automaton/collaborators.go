package automaton

import (
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/geom"
)

// OwnerID identifies the player a job builds for.
type OwnerID string

// EntityHandle is an opaque reference to a world entity.
type EntityHandle uint64

// InventorySource is an owner's material store.
type InventorySource interface {
	Take(resourceID string, amount int) int
	GetAmount(resourceID string) int
}

// InventoryRefunder is implemented by inventories that can take materials back.
type InventoryRefunder interface {
	Give(resourceID string, amount int)
}

// Inventories resolves the inventory of an owner.
type Inventories interface {
	Inventory(owner OwnerID) (InventorySource, bool)
}

// EntitySetup is applied to a created entity before it is spawned.
type EntitySetup struct {
	Category       blueprint.Category
	Grade          blueprint.Grade
	Skin           uint64
	Owner          OwnerID
	ConstructionID string
	Flags          map[string]bool // auxiliary element flags, e.g. "locked"
}

// WorldFactory materializes entities.
type WorldFactory interface {
	CreateEntity(kind blueprint.Kind, pos, rot geom.Vec3) (EntityHandle, error)
	Configure(h EntityHandle, setup EntitySetup)
	Spawn(h EntityHandle)
	Kill(h EntityHandle)
}

// Layer selects what OverlapSphere reports.
type Layer int

const (
	LayerConstruction Layer = iota
	LayerPreventBuilding
)

// CollisionQuery answers terrain and obstruction questions about the world.
type CollisionQuery interface {
	GroundHeight(pos geom.Vec3) float64
	CapsuleCollides(a, b geom.Vec3, radius float64) bool
	OverlapSphere(pos geom.Vec3, radius float64, layer Layer) []EntityHandle
	LineClear(a, b geom.Vec3) bool
	OnRoad(pos geom.Vec3) bool
	BuildingBlocked(owner OwnerID, pos geom.Vec3) bool
}

// StabilityHost owns the support graph of structural entities.
type StabilityHost interface {
	// ResetSupport clears the grounded flag and support links of h.
	ResetSupport(h EntityHandle)
	RecomputeStability(h EntityHandle)
}

// Notifier delivers owner-facing messages. Text and localization live behind it.
type Notifier interface {
	Notify(owner OwnerID, key string, args ...any)
}

// Journal records material movements. Optional.
type Journal interface {
	RecordDebit(job JobID, owner OwnerID, taken blueprint.ResourceCost)
	RecordRefund(job JobID, owner OwnerID, given blueprint.ResourceCost)
}

// Notification keys.
const (
	MsgStarted   = "build.started"
	MsgPaused    = "build.paused"
	MsgResumed   = "build.resumed"
	MsgHeld      = "build.held"
	MsgCompleted = "build.completed"
	MsgAborted   = "build.aborted"
	MsgCanceled  = "build.canceled"
	MsgStatus    = "build.status"
)
