// Package catalog holds the fixed set of bike models the viewer can show,
// together with the hand-tuned camera and placement data for each asset.
package catalog

import (
	"errors"
	"fmt"

	"bike-viewer/internal/mathutil"
)

// ModelID names one selectable bike asset.
type ModelID string

const (
	Style1 ModelID = "style1"
	Style2 ModelID = "style2"
	Style3 ModelID = "style3"
	Style4 ModelID = "style4"
)

// ErrUnknownModel is returned for identifiers outside the enumeration.
var ErrUnknownModel = errors.New("catalog: unknown model")

// Grounding selects how a placed model is aligned to the ground plane.
type Grounding int

const (
	// GroundBaseline keeps the centred placement untouched.
	GroundBaseline Grounding = iota
	// GroundToBounds lifts the model so its bounding-box minimum sits on y=0.
	GroundToBounds
)

func (g Grounding) String() string {
	switch g {
	case GroundBaseline:
		return "baseline"
	case GroundToBounds:
		return "bounds"
	}
	return fmt.Sprintf("grounding(%d)", int(g))
}

// CameraConfig is the per-asset camera and placement tuning.
type CameraConfig struct {
	Position    mathutil.Vec3 `json:"position"`
	MinDistance float64       `json:"min_distance"`
	MaxDistance float64       `json:"max_distance"`
	Scale       float64       `json:"scale"`
	Offset      mathutil.Vec3 `json:"offset"` // applied after centring
}

// Descriptor describes one selectable model.
type Descriptor struct {
	ID          ModelID      `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	AssetPath   string       `json:"asset_path"`
	Camera      CameraConfig `json:"camera"`
	Grounding   Grounding    `json:"-"`
}

// Calibration values come from fitting each asset by eye; the road and
// cruiser exports carry their own ground offset, the others are re-grounded.
var descriptors = [...]Descriptor{
	{
		ID:          Style1,
		Name:        "Urban Commuter",
		Description: "Step-through city bike with rack and fenders.",
		AssetPath:   "/models/bike-style1.glb",
		Camera: CameraConfig{
			Position:    mathutil.Vec3{3, 1.5, 3},
			MinDistance: 2,
			MaxDistance: 10,
			Scale:       2,
			Offset:      mathutil.Vec3{0, 0, 0},
		},
		Grounding: GroundToBounds,
	},
	{
		ID:          Style2,
		Name:        "Trail Hardtail",
		Description: "Front-suspension mountain bike with wide tyres.",
		AssetPath:   "/models/bike-style2.glb",
		Camera: CameraConfig{
			Position:    mathutil.Vec3{4, 2, 4},
			MinDistance: 2.5,
			MaxDistance: 12,
			Scale:       2.5,
			Offset:      mathutil.Vec3{0, 0, 0},
		},
		Grounding: GroundToBounds,
	},
	{
		ID:          Style3,
		Name:        "Road Racer",
		Description: "Drop-bar road bike with a carbon frame.",
		AssetPath:   "/models/bike-style3.glb",
		Camera: CameraConfig{
			Position:    mathutil.Vec3{2.5, 1.2, 3.5},
			MinDistance: 1.5,
			MaxDistance: 8,
			Scale:       1.8,
			Offset:      mathutil.Vec3{0, -0.3, 0},
		},
		Grounding: GroundBaseline,
	},
	{
		ID:          Style4,
		Name:        "Beach Cruiser",
		Description: "Balloon-tyre cruiser with swept-back bars.",
		AssetPath:   "/models/bike-style4.glb",
		Camera: CameraConfig{
			Position:    mathutil.Vec3{3.5, 1.8, 3.5},
			MinDistance: 2,
			MaxDistance: 10,
			Scale:       2.2,
			Offset:      mathutil.Vec3{0, -0.5, 0.1},
		},
		Grounding: GroundBaseline,
	},
}

// All returns every descriptor in enumeration order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors[:])
	return out
}

// IDs returns the enumeration members in order.
func IDs() []ModelID {
	ids := make([]ModelID, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.ID
	}
	return ids
}

// Lookup returns a copy of the descriptor for id.
func Lookup(id ModelID) (Descriptor, error) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownModel, string(id))
}

// Parse converts user input to a ModelID, rejecting unknown values.
func Parse(s string) (ModelID, error) {
	d, err := Lookup(ModelID(s))
	if err != nil {
		return "", err
	}
	return d.ID, nil
}
