package activation

import (
	"fmt"
	"sort"
	"sync"
)

// Spec is the serializable description of an activation function. Snapshots
// store one Spec per layer; Decode rebuilds the function from it.
type Spec struct {
	Name   string    `json:"name"`
	Params []float64 `json:"params,omitempty"`
	Args   []Spec    `json:"args,omitempty"`
	Domain string    `json:"domain,omitempty"`
}

// Factory rebuilds a custom Func from its Spec.
type Factory func(spec Spec) (Func, error)

// Encodable is implemented by custom functions that can describe themselves.
// Their Spec.Name must be registered with Register for Decode to succeed.
type Encodable interface {
	Spec() Spec
}

// registry maps custom function names to factories.
type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var custom = &registry{factories: make(map[string]Factory)}

// Register adds a factory for a custom function. Built-in names cannot be
// overridden.
func Register(name string, factory Factory) error {
	if _, ok := builtinScalars[name]; ok || isBuiltinFunc(name) {
		return fmt.Errorf("activation %q is built in", name)
	}
	custom.mu.Lock()
	defer custom.mu.Unlock()
	custom.factories[name] = factory
	return nil
}

// Registered returns the names of all decodable functions, sorted.
func Registered() []string {
	names := make([]string, 0, len(builtinScalars)+3)
	for name := range builtinScalars {
		names = append(names, name)
	}
	names = append(names, "checked", "softmax", "softmax_prime")
	custom.mu.RLock()
	for name := range custom.factories {
		names = append(names, name)
	}
	custom.mu.RUnlock()
	sort.Strings(names)
	return names
}

func isBuiltinFunc(name string) bool {
	return name == "checked" || name == "softmax" || name == "softmax_prime"
}

// Encode describes f as a Spec.
func Encode(f Func) (Spec, error) {
	switch fn := f.(type) {
	case *lifted:
		inner, err := EncodeScalar(fn.scalar)
		if err != nil {
			return Spec{}, err
		}
		if fn.explicit {
			return Spec{Name: "checked", Args: []Spec{inner}, Domain: fn.domain.String()}, nil
		}
		return inner, nil
	case Softmax:
		return Spec{Name: "softmax"}, nil
	case softmaxPrime:
		return Spec{Name: "softmax_prime"}, nil
	case Encodable:
		return fn.Spec(), nil
	default:
		return Spec{}, fmt.Errorf("%w: %s (%T)", ErrUnknownFunction, f.Label(), f)
	}
}

// Decode rebuilds the function described by spec.
func Decode(spec Spec) (Func, error) {
	switch spec.Name {
	case "checked":
		if len(spec.Args) != 1 {
			return nil, fmt.Errorf("%w: checked takes 1 argument, got %d", ErrInvalidSpec, len(spec.Args))
		}
		inner, err := DecodeScalar(spec.Args[0])
		if err != nil {
			return nil, err
		}
		dom, err := ParseInterval(spec.Domain)
		if err != nil {
			return nil, err
		}
		return Checked(inner, dom), nil
	case "softmax":
		return Softmax{}, nil
	case "softmax_prime":
		return softmaxPrime{}, nil
	}
	if _, ok := builtinScalars[spec.Name]; ok {
		s, err := DecodeScalar(spec)
		if err != nil {
			return nil, err
		}
		return Lift(s), nil
	}
	custom.mu.RLock()
	factory, ok := custom.factories[spec.Name]
	custom.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, spec.Name)
	}
	return factory(spec)
}

// EncodeScalar describes a catalogue scalar as a Spec.
func EncodeScalar(s Scalar) (Spec, error) {
	switch v := s.(type) {
	case Constant:
		return Spec{Name: "constant", Params: []float64{v.C}}, nil
	case Identity:
		return Spec{Name: "identity"}, nil
	case Linear:
		return Spec{Name: "linear", Params: []float64{v.A, v.B}}, nil
	case Exp:
		return Spec{Name: "exp"}, nil
	case Ln:
		return Spec{Name: "ln"}, nil
	case Sigmoid:
		return Spec{Name: "sigmoid", Params: []float64{v.Lambda}}, nil
	case Tanh:
		return Spec{Name: "tanh"}, nil
	case ReLU:
		return Spec{Name: "relu"}, nil
	case Step:
		return Spec{Name: "step"}, nil
	case Polynomial:
		return Spec{Name: "polynomial", Params: append([]float64(nil), v.Coefficients...)}, nil
	case Sum:
		return encodePair("sum", v.F, v.G)
	case Product:
		return encodePair("product", v.F, v.G)
	case Ratio:
		return encodePair("ratio", v.Num, v.Den)
	case Compose:
		return encodePair("compose", v.Outer, v.Inner)
	default:
		return Spec{}, fmt.Errorf("%w: %s (%T)", ErrUnknownFunction, s.Label(), s)
	}
}

func encodePair(name string, a, b Scalar) (Spec, error) {
	sa, err := EncodeScalar(a)
	if err != nil {
		return Spec{}, err
	}
	sb, err := EncodeScalar(b)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Name: name, Args: []Spec{sa, sb}}, nil
}

// scalarDecoder builds a scalar from validated params and decoded args.
type scalarDecoder struct {
	params int // exact parameter count; -1 for any
	args   int
	build  func(params []float64, args []Scalar) Scalar
}

var builtinScalars = map[string]scalarDecoder{
	"constant": {1, 0, func(p []float64, _ []Scalar) Scalar { return Constant{C: p[0]} }},
	"identity": {0, 0, func([]float64, []Scalar) Scalar { return Identity{} }},
	"linear":   {2, 0, func(p []float64, _ []Scalar) Scalar { return Linear{A: p[0], B: p[1]} }},
	"exp":      {0, 0, func([]float64, []Scalar) Scalar { return Exp{} }},
	"ln":       {0, 0, func([]float64, []Scalar) Scalar { return Ln{} }},
	"sigmoid":  {1, 0, func(p []float64, _ []Scalar) Scalar { return Sigmoid{Lambda: p[0]} }},
	"tanh":     {0, 0, func([]float64, []Scalar) Scalar { return Tanh{} }},
	"relu":     {0, 0, func([]float64, []Scalar) Scalar { return ReLU{} }},
	"step":     {0, 0, func([]float64, []Scalar) Scalar { return Step{} }},
	"polynomial": {-1, 0, func(p []float64, _ []Scalar) Scalar {
		return NewPolynomial(p...)
	}},
	"sum":     {0, 2, func(_ []float64, a []Scalar) Scalar { return Sum{F: a[0], G: a[1]} }},
	"product": {0, 2, func(_ []float64, a []Scalar) Scalar { return Product{F: a[0], G: a[1]} }},
	"ratio":   {0, 2, func(_ []float64, a []Scalar) Scalar { return Ratio{Num: a[0], Den: a[1]} }},
	"compose": {0, 2, func(_ []float64, a []Scalar) Scalar { return Compose{Outer: a[0], Inner: a[1]} }},
}

// DecodeScalar rebuilds a catalogue scalar from its Spec.
func DecodeScalar(spec Spec) (Scalar, error) {
	dec, ok := builtinScalars[spec.Name]
	if !ok {
		return nil, fmt.Errorf("%w: scalar %q", ErrUnknownFunction, spec.Name)
	}
	if dec.params >= 0 && len(spec.Params) != dec.params {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrInvalidSpec, spec.Name, dec.params, len(spec.Params))
	}
	if len(spec.Args) != dec.args {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidSpec, spec.Name, dec.args, len(spec.Args))
	}
	args := make([]Scalar, len(spec.Args))
	for i, a := range spec.Args {
		s, err := DecodeScalar(a)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", spec.Name, i, err)
		}
		args[i] = s
	}
	return dec.build(spec.Params, args), nil
}
