package viewer

import (
	"errors"

	"bike-viewer/internal/camera"
	"bike-viewer/internal/catalog"
)

var (
	ErrUnknownAction   = errors.New("viewer: unknown camera action")
	ErrInvalidColor    = errors.New("viewer: invalid color")
	ErrInvalidViewport = errors.New("viewer: invalid viewport")
	ErrClosed          = errors.New("viewer: closed")
)

// Phase is the load state of the model slot.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseDisplayed Phase = "displayed"
	PhaseFailed    Phase = "failed"
)

// Action is a manual camera nudge.
type Action string

const (
	RotateLeft  Action = "rotate-left"
	RotateRight Action = "rotate-right"
	RotateUp    Action = "rotate-up"
	RotateDown  Action = "rotate-down"
	ZoomIn      Action = "zoom-in"
	ZoomOut     Action = "zoom-out"
)

// Actions lists every camera action in button order.
func Actions() []Action {
	return []Action{RotateLeft, RotateRight, RotateUp, RotateDown, ZoomIn, ZoomOut}
}

// ParseAction validates a camera action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", ErrUnknownAction
}

// State is a snapshot of a viewer session.
type State struct {
	Selected   catalog.ModelID `json:"selected,omitempty"`
	LastLoaded catalog.ModelID `json:"last_loaded,omitempty"`
	Phase      Phase           `json:"phase"`
	Loading    bool            `json:"loading"`
	Progress   float64         `json:"progress"`
	Error      string          `json:"error,omitempty"`
	Token      uint64          `json:"token"`
	Objects    int             `json:"objects"`
	Camera     camera.Camera   `json:"camera"`
	Tint       string          `json:"tint,omitempty"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
}
