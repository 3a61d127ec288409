package optim

import (
	"fmt"

	"github.com/born-ml/perceptron/internal/tensor"
)

// Default SGD learning rate.
const DefaultLR = 0.1

// SGD implements gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param + gradient × (-lr)
//
// Update rule with momentum:
//
//	velocity = momentum × velocity + gradient
//	param = param + velocity × (-lr)
//
// Arithmetic stays in the parameter's representation, so decimal parameters
// are updated exactly.
type SGD struct {
	lr         float64
	momentum   float64
	velocities map[string]tensor.Raw
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.1)
	Momentum float64 // Momentum factor (default: 0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = DefaultLR
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[string]tensor.Raw),
	}
}

// Step applies one update to every parameter. Parameters are validated
// before any of them changes.
func (s *SGD) Step(params []Param) error {
	for _, p := range params {
		if err := checkParam(p); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	for _, p := range params {
		step := p.Grad
		if s.momentum != 0 {
			v, err := s.velocity(p)
			if err != nil {
				return err
			}
			step = v
		}
		delta := step.Clone()
		if err := delta.Scale(-s.lr); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		if err := p.Value.Add(delta); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return nil
}

// velocity updates and returns the velocity of p.
func (s *SGD) velocity(p Param) (tensor.Raw, error) {
	v, ok := s.velocities[p.Name]
	if !ok || v.Len() != p.Grad.Len() || v.DType() != p.Grad.DType() {
		s.velocities[p.Name] = p.Grad.Clone()
		return s.velocities[p.Name], nil
	}
	if err := v.Scale(s.momentum); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	if err := v.Add(p.Grad); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return v, nil
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float64 {
	return s.momentum
}

// Reset drops every velocity buffer.
func (s *SGD) Reset() {
	s.velocities = make(map[string]tensor.Raw)
}
