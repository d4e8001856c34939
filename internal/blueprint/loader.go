package blueprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/l1jgo/autobuild/internal/geom"
	"go.uber.org/zap"
)

// Load failures. A job whose blueprint fails to load never starts.
var (
	ErrBlueprintMissing = errors.New("blueprint missing")
	ErrBlueprintCorrupt = errors.New("blueprint corrupt")
)

// RawElement is one stored element record before typing.
type RawElement struct {
	Prefab   string          `json:"prefab"`
	Position []float64       `json:"pos"`
	Rotation []float64       `json:"rot"` // euler degrees
	Grade    *int            `json:"grade,omitempty"`
	Skin     uint64          `json:"skin,omitempty"`
	Flags    map[string]bool `json:"flags,omitempty"`
	Items    []string        `json:"items,omitempty"`
}

// Source reads stored blueprints. Implementations wrap ErrBlueprintMissing
// when the id is unknown.
type Source interface {
	Load(ctx context.Context, id string) ([]RawElement, error)
}

// LoaderOptions controls which optional deployables survive loading.
type LoaderOptions struct {
	DeployDoors     bool
	DeployPrivilege bool
}

// Loader turns raw records into typed descriptors.
type Loader struct {
	source  Source
	catalog Catalog
	opts    LoaderOptions
	log     *zap.Logger
}

func NewLoader(source Source, catalog Catalog, opts LoaderOptions, log *zap.Logger) *Loader {
	return &Loader{source: source, catalog: catalog, opts: opts, log: log}
}

// Load reads blueprint id and keeps structural elements plus the enabled
// deployables. Kinds unknown to the catalog are dropped as clutter.
func (l *Loader) Load(ctx context.Context, id string) ([]ElementDescriptor, error) {
	raw, err := l.source.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBlueprintMissing) || errors.Is(err, ErrBlueprintCorrupt) {
			return nil, err
		}
		return nil, fmt.Errorf("load blueprint %s: %w", id, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("blueprint %s has no elements: %w", id, ErrBlueprintCorrupt)
	}

	out := make([]ElementDescriptor, 0, len(raw))
	dropped := 0
	for i, r := range raw {
		d, err := l.describe(r)
		if err != nil {
			return nil, fmt.Errorf("blueprint %s element %d: %w", id, i, err)
		}
		info, ok := l.catalog.Lookup(d.Kind)
		if !ok {
			dropped++
			continue
		}
		d.Category = info.Category
		if !l.wants(d.Category) {
			dropped++
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("blueprint %s has no buildable elements: %w", id, ErrBlueprintCorrupt)
	}
	if dropped > 0 {
		l.log.Debug("blueprint clutter dropped",
			zap.String("blueprint", id), zap.Int("dropped", dropped), zap.Int("kept", len(out)))
	}
	return out, nil
}

func (l *Loader) wants(c Category) bool {
	switch c {
	case Door:
		return l.opts.DeployDoors
	case PrivilegeNode:
		return l.opts.DeployPrivilege
	}
	return true
}

func (l *Loader) describe(r RawElement) (ElementDescriptor, error) {
	if r.Prefab == "" {
		return ElementDescriptor{}, fmt.Errorf("missing prefab: %w", ErrBlueprintCorrupt)
	}
	pos, err := vec3(r.Position, "pos")
	if err != nil {
		return ElementDescriptor{}, err
	}
	rot, err := vec3(r.Rotation, "rot")
	if err != nil {
		return ElementDescriptor{}, err
	}
	grade := GradeNone
	if r.Grade != nil {
		grade = Grade(*r.Grade)
		if !grade.Valid() {
			return ElementDescriptor{}, fmt.Errorf("grade %d out of range: %w", *r.Grade, ErrBlueprintCorrupt)
		}
	}
	d := ElementDescriptor{
		Kind:          Kind(r.Prefab),
		LocalPosition: pos,
		LocalRotation: rot,
		Grade:         grade,
		SkinID:        r.Skin,
		Flags:         r.Flags,
	}
	for _, it := range r.Items {
		if it != "" {
			d.Items = append(d.Items, Kind(it))
		}
	}
	return d, nil
}

func vec3(v []float64, field string) (geom.Vec3, error) {
	if len(v) != 3 {
		return geom.Vec3{}, fmt.Errorf("%s needs 3 components, got %d: %w", field, len(v), ErrBlueprintCorrupt)
	}
	return geom.V(v[0], v[1], v[2]), nil
}
