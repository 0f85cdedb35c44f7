package asset

import (
	"errors"
	"fmt"
)

// ErrLoad matches every asset load failure; network and decode failures
// are not distinguished.
var ErrLoad = errors.New("asset load failed")

// LoadError records which asset failed and why.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoad, e.Err}
}
