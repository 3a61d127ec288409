package nn

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrIncoherent      = errors.New("network is not coherent")
	ErrNoLayers        = errors.New("network has no layers")
	ErrLayerIndex      = errors.New("layer index out of range")
	ErrInvalidSample   = errors.New("invalid sample")
	ErrNoSamples       = errors.New("no samples")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrUnknownLoss     = errors.New("unknown loss")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// CoherenceError reports the first layer whose input size does not match the
// output size of the layer before it (or the network input dimension).
type CoherenceError struct {
	Layer    int // Index of the offending layer
	Expected int // Output size of the previous layer
	Got      int // Input size of the offending layer
}

// Error implements the error interface.
func (e *CoherenceError) Error() string {
	return fmt.Sprintf("layer %d: expects %d inputs, previous stage produces %d", e.Layer, e.Got, e.Expected)
}

// Is makes errors.Is(err, ErrIncoherent) succeed.
func (e *CoherenceError) Is(target error) bool {
	return target == ErrIncoherent
}

// SampleError identifies the sample that made a batch fail.
type SampleError struct {
	Index int // Position of the sample in the batch or sample set
	Err   error
}

// Error implements the error interface.
func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SampleError) Unwrap() error {
	return e.Err
}
