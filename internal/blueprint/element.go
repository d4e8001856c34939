package blueprint

import (
	"fmt"
	"strings"

	"github.com/l1jgo/autobuild/internal/geom"
)

// Category is the structural bucket an element is built in. The constant
// order is the build order: batches run strictly Foundation first,
// PrivilegeNode last.
type Category int

const (
	Foundation Category = iota
	Ramp
	Stairs
	Wall
	Floor
	Roof
	Door
	PrivilegeNode
	NumCategories
)

// BuildOrder lists every category in batch execution order.
var BuildOrder = [NumCategories]Category{Foundation, Ramp, Stairs, Wall, Floor, Roof, Door, PrivilegeNode}

var categoryNames = [NumCategories]string{
	Foundation:    "foundation",
	Ramp:          "ramp",
	Stairs:        "stairs",
	Wall:          "wall",
	Floor:         "floor",
	Roof:          "roof",
	Door:          "door",
	PrivilegeNode: "privilege",
}

func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Structural reports whether elements of this category take part in the
// support graph. Doors and privilege nodes are deployables.
func (c Category) Structural() bool {
	return c >= Foundation && c <= Roof
}

// Optional reports whether a category is only deployed when enabled by config.
func (c Category) Optional() bool {
	return c == Door || c == PrivilegeNode
}

func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c := Category(0); c < NumCategories; c++ {
		if categoryNames[c] == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Grade is a material tier. GradeNone marks an element captured without a
// grade (twig), which costs only its base price.
type Grade int

const (
	GradeNone Grade = iota
	GradeWood
	GradeStone
	GradeMetal
	GradeTopTier
	NumGrades
)

var gradeNames = [NumGrades]string{"none", "wood", "stone", "metal", "toptier"}

func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Grade(%d)", int(g))
	}
	return gradeNames[g]
}

func (g Grade) Valid() bool { return g >= GradeNone && g < NumGrades }

func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "twig" || s == "twigs" {
		return GradeNone, nil
	}
	for g := Grade(0); g < NumGrades; g++ {
		if gradeNames[g] == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

// Kind is the opaque element identity (prefab name) as captured.
type Kind string

// ElementDescriptor is one captured element. Immutable once loaded.
type ElementDescriptor struct {
	Kind          Kind
	Category      Category
	LocalPosition geom.Vec3
	LocalRotation geom.Vec3 // euler degrees
	Grade         Grade
	SkinID        uint64
	Flags         map[string]bool
	Items         []Kind // attached sub-items, e.g. a lock on a door
}

// WorldElement is a descriptor resolved against a fixed anchor.
type WorldElement struct {
	ElementDescriptor
	Position geom.Vec3
	Rotation geom.Vec3
}
