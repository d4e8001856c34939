package automaton

import (
	"errors"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

// Validation failures end the job in PhaseAborted. Entities placed by
// batches that already completed stay in the world.
var (
	ErrNoGroundFound     = errors.New("no ground found")
	ErrTooCloseToRoad    = errors.New("too close to road")
	ErrBuildingBlocked   = errors.New("building blocked")
	ErrCollisionDetected = errors.New("collision detected")
	ErrWallBlocked       = errors.New("wall blocked")
	ErrRoofBlocked       = errors.New("roof blocked")
)

var (
	// ErrResourceShortfall is recoverable: the job pauses and retries.
	// It only ends a job when a pause timeout is configured and expires.
	ErrResourceShortfall = errors.New("resource shortfall")
	// ErrCanceled marks an owner-initiated stop. Spawned entities are removed.
	ErrCanceled = errors.New("cancellation requested")

	ErrSpawnFailed = errors.New("entity spawn failed")
	ErrUnknownJob  = errors.New("unknown job")
	ErrOwnerBusy   = errors.New("owner already has an active job")
	ErrJobFinished = errors.New("job already finished")
)

var validationFailures = []error{
	ErrNoGroundFound, ErrTooCloseToRoad, ErrBuildingBlocked,
	ErrCollisionDetected, ErrWallBlocked, ErrRoofBlocked,
}

// IsValidationFailure reports whether err ended a job on a site or batch check.
func IsValidationFailure(err error) bool {
	for _, v := range validationFailures {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// FailureCode is the stable code reported to owners for a terminal error.
func FailureCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, blueprint.ErrBlueprintMissing):
		return "BlueprintMissing"
	case errors.Is(err, blueprint.ErrBlueprintCorrupt):
		return "BlueprintCorrupt"
	case errors.Is(err, ErrNoGroundFound):
		return "NoGroundFound"
	case errors.Is(err, ErrTooCloseToRoad):
		return "TooCloseToRoad"
	case errors.Is(err, ErrBuildingBlocked):
		return "BuildingBlocked"
	case errors.Is(err, ErrCollisionDetected):
		return "CollisionDetected"
	case errors.Is(err, ErrWallBlocked):
		return "WallBlocked"
	case errors.Is(err, ErrRoofBlocked):
		return "RoofBlocked"
	case errors.Is(err, ErrResourceShortfall):
		return "ResourceShortfall"
	case errors.Is(err, ErrCanceled):
		return "CancellationRequested"
	case errors.Is(err, ErrSpawnFailed):
		return "SpawnFailed"
	}
	return "Internal"
}
