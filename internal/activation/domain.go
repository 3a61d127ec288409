package activation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/born-ml/perceptron/internal/tensor"
	"github.com/cockroachdb/apd/v3"
)

// Common errors.
var (
	ErrOutOfDomain     = errors.New("argument outside function domain")
	ErrNoDerivative    = errors.New("derivative not available")
	ErrUnknownFunction = errors.New("unknown activation function")
	ErrInvalidSpec     = errors.New("invalid activation spec")
)

// Interval is a real interval. Infinite bounds are always open.
type Interval struct {
	Lo, Hi         float64
	LoOpen, HiOpen bool
}

// Common domains.
var (
	Reals    = Interval{Lo: math.Inf(-1), Hi: math.Inf(1), LoOpen: true, HiOpen: true}
	Positive = Interval{Lo: 0, Hi: math.Inf(1), LoOpen: true, HiOpen: true}
)

// Bounded is implemented by scalars defined only on part of the real line.
// Lift checks every component against the domain before evaluation.
type Bounded interface {
	Domain() Interval
}

// Contains reports whether x lies in the interval. NaN lies nowhere.
func (iv Interval) Contains(x float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if x < iv.Lo || (iv.LoOpen && x == iv.Lo) {
		return false
	}
	if x > iv.Hi || (iv.HiOpen && x == iv.Hi) {
		return false
	}
	return true
}

// ContainsDecimal reports whether x lies in the interval, comparing exactly
// so decimals beyond the float64 range keep their sign and magnitude.
func (iv Interval) ContainsDecimal(x *apd.Decimal) bool {
	lo, okLo := decimalBound(iv.Lo)
	hi, okHi := decimalBound(iv.Hi)
	if !okLo || !okHi || x.Form == apd.NaN || x.Form == apd.NaNSignaling {
		return false
	}
	if c := x.Cmp(lo); c < 0 || (iv.LoOpen && c == 0) {
		return false
	}
	if c := x.Cmp(hi); c > 0 || (iv.HiOpen && c == 0) {
		return false
	}
	return true
}

func decimalBound(f float64) (*apd.Decimal, bool) {
	if math.IsInf(f, 0) {
		return &apd.Decimal{Form: apd.Infinite, Negative: f < 0}, true
	}
	d, err := tensor.DecimalFromFloat(f, 64)
	return d, err == nil
}

// String formats the interval in bracket notation, e.g. "(0, +Inf)".
func (iv Interval) String() string {
	lo, hi := "[", "]"
	if iv.LoOpen {
		lo = "("
	}
	if iv.HiOpen {
		hi = ")"
	}
	return fmt.Sprintf("%s%s, %s%s", lo, formatBound(iv.Lo), formatBound(iv.Hi), hi)
}

// ParseInterval parses the notation produced by String.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return Interval{}, fmt.Errorf("%w: interval %q", ErrInvalidSpec, s)
	}
	var iv Interval
	switch s[0] {
	case '(':
		iv.LoOpen = true
	case '[':
	default:
		return Interval{}, fmt.Errorf("%w: interval %q", ErrInvalidSpec, s)
	}
	switch s[len(s)-1] {
	case ')':
		iv.HiOpen = true
	case ']':
	default:
		return Interval{}, fmt.Errorf("%w: interval %q", ErrInvalidSpec, s)
	}
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return Interval{}, fmt.Errorf("%w: interval %q", ErrInvalidSpec, s)
	}
	var err error
	if iv.Lo, err = strconv.ParseFloat(strings.TrimSpace(lo), 64); err != nil {
		return Interval{}, fmt.Errorf("%w: interval %q: %v", ErrInvalidSpec, s, err)
	}
	if iv.Hi, err = strconv.ParseFloat(strings.TrimSpace(hi), 64); err != nil {
		return Interval{}, fmt.Errorf("%w: interval %q: %v", ErrInvalidSpec, s, err)
	}
	if iv.Lo > iv.Hi {
		return Interval{}, fmt.Errorf("%w: interval %q is empty", ErrInvalidSpec, s)
	}
	return iv, nil
}

func formatBound(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// DomainError reports a component outside the domain of a function.
// It matches ErrOutOfDomain with errors.Is.
type DomainError struct {
	Func   string   // Function label
	Index  int      // Offending component
	Value  string   // Offending value in its own representation
	Domain Interval // Required domain
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: component %d = %s outside domain %s", e.Func, e.Index, e.Value, e.Domain)
}

// Is makes errors.Is(err, ErrOutOfDomain) succeed.
func (e *DomainError) Is(target error) bool {
	return target == ErrOutOfDomain
}
