package activation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/born-ml/perceptron/internal/tensor"
	"github.com/chewxy/math32"
	"github.com/cockroachdb/apd/v3"
)

// Constant is f(x) = C.
type Constant struct{ C float64 }

// Zero returns the constant zero function.
func Zero() Scalar { return Constant{} }

func (c Constant) At(float64) float64 { return c.C }

func (c Constant) At32(float32) float32 { return float32(c.C) }

func (c Constant) AtDecimal(*apd.Decimal) (*apd.Decimal, error) {
	return tensor.DecimalFromFloat(c.C, 64)
}

func (c Constant) Derive() Scalar { return Constant{} }

func (c Constant) Label() string { return formatFloat(c.C) }

// Identity is f(x) = x.
type Identity struct{}

func (Identity) At(x float64) float64 { return x }

func (Identity) At32(x float32) float32 { return x }

func (Identity) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	return new(apd.Decimal).Set(x), nil
}

func (Identity) Derive() Scalar { return Constant{C: 1} }

func (Identity) Label() string { return "x" }

// Linear is f(x) = A·x + B.
type Linear struct{ A, B float64 }

func (l Linear) At(x float64) float64 { return l.A*x + l.B }

func (l Linear) At32(x float32) float32 { return float32(l.A)*x + float32(l.B) }

func (l Linear) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	a, err := tensor.DecimalFromFloat(l.A, 64)
	if err != nil {
		return nil, err
	}
	b, err := tensor.DecimalFromFloat(l.B, 64)
	if err != nil {
		return nil, err
	}
	out := new(apd.Decimal)
	if _, err := ctx.Mul(out, a, x); err != nil {
		return nil, err
	}
	if _, err := ctx.Add(out, out, b); err != nil {
		return nil, err
	}
	return out, nil
}

func (l Linear) Derive() Scalar { return Constant{C: l.A} }

func (l Linear) Label() string {
	return fmt.Sprintf("%s*x + %s", formatFloat(l.A), formatFloat(l.B))
}

// Exp is f(x) = eˣ.
type Exp struct{}

func (Exp) At(x float64) float64 { return math.Exp(x) }

func (Exp) At32(x float32) float32 { return math32.Exp(x) }

func (Exp) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	out := new(apd.Decimal)
	if err := expDecimal(out, x); err != nil {
		return nil, err
	}
	return out, nil
}

// expCtx is ctx without the range traps; expDecimal saturates instead.
var expCtx = func() *apd.Context {
	c := tensor.DecimalContext()
	c.Traps &^= apd.Overflow | apd.Underflow | apd.Subnormal
	return c
}()

// expDecimal sets d to eˣ. Results outside the decimal exponent range
// saturate the way float64 does: +Inf for large x, exact zero for very
// negative x.
func expDecimal(d, x *apd.Decimal) error {
	negative := x.Sign() < 0
	cond, err := expCtx.Exp(d, x)
	if err != nil {
		return err
	}
	if negative && (cond.Underflow() || cond.Subnormal()) {
		d.SetInt64(0)
	}
	return nil
}

func (Exp) Derive() Scalar { return Exp{} }

func (Exp) Label() string { return "exp(x)" }

// Ln is the natural logarithm, defined on (0, +Inf).
type Ln struct{}

func (Ln) At(x float64) float64 { return math.Log(x) }

func (Ln) At32(x float32) float32 { return math32.Log(x) }

func (Ln) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	out := new(apd.Decimal)
	if _, err := ctx.Ln(out, x); err != nil {
		return nil, err
	}
	return out, nil
}

// Derive returns 1/x.
func (Ln) Derive() Scalar { return Ratio{Num: Constant{C: 1}, Den: Identity{}} }

func (Ln) Label() string { return "ln(x)" }

// Domain implements Bounded.
func (Ln) Domain() Interval { return Positive }

// Sigmoid is the logistic function 1 / (1 + e^(-λx)).
type Sigmoid struct{ Lambda float64 }

// NewSigmoid returns the standard logistic function (λ = 1).
func NewSigmoid() Sigmoid { return Sigmoid{Lambda: 1} }

func (s Sigmoid) At(x float64) float64 { return 1 / (1 + math.Exp(-s.Lambda*x)) }

func (s Sigmoid) At32(x float32) float32 { return 1 / (1 + math32.Exp(-float32(s.Lambda)*x)) }

func (s Sigmoid) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	lambda, err := tensor.DecimalFromFloat(-s.Lambda, 64)
	if err != nil {
		return nil, err
	}
	e := new(apd.Decimal)
	if _, err := ctx.Mul(e, lambda, x); err != nil {
		return nil, err
	}
	if err := expDecimal(e, e); err != nil {
		return nil, err
	}
	if e.Form == apd.Infinite {
		return apd.New(0, 0), nil
	}
	one := apd.New(1, 0)
	if _, err := ctx.Add(e, e, one); err != nil {
		return nil, err
	}
	out := new(apd.Decimal)
	if _, err := ctx.Quo(out, one, e); err != nil {
		return nil, err
	}
	return out, nil
}

// Derive returns λ·s·(1 - s), built from the sigmoid's own output.
func (s Sigmoid) Derive() Scalar {
	return Product{
		F: Constant{C: s.Lambda},
		G: Product{F: s, G: Compose{Outer: Linear{A: -1, B: 1}, Inner: s}},
	}
}

func (s Sigmoid) Label() string {
	if s.Lambda == 1 {
		return "sigmoid(x)"
	}
	return fmt.Sprintf("sigmoid(%s*x)", formatFloat(s.Lambda))
}

// Tanh is the hyperbolic tangent.
type Tanh struct{}

func (Tanh) At(x float64) float64 { return math.Tanh(x) }

func (Tanh) At32(x float32) float32 { return math32.Tanh(x) }

// AtDecimal evaluates (e²ˣ - 1) / (e²ˣ + 1).
func (Tanh) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	e := new(apd.Decimal)
	if _, err := ctx.Add(e, x, x); err != nil {
		return nil, err
	}
	if err := expDecimal(e, e); err != nil {
		return nil, err
	}
	one := apd.New(1, 0)
	if e.Form == apd.Infinite {
		return one, nil
	}
	num, den := new(apd.Decimal), new(apd.Decimal)
	if _, err := ctx.Sub(num, e, one); err != nil {
		return nil, err
	}
	if _, err := ctx.Add(den, e, one); err != nil {
		return nil, err
	}
	if _, err := ctx.Quo(num, num, den); err != nil {
		return nil, err
	}
	return num, nil
}

// Derive returns 1 - tanh².
func (t Tanh) Derive() Scalar {
	return Compose{Outer: Linear{A: -1, B: 1}, Inner: Product{F: t, G: t}}
}

func (Tanh) Label() string { return "tanh(x)" }

// ReLU is max(0, x).
type ReLU struct{}

func (ReLU) At(x float64) float64 { return math.Max(0, x) }

func (ReLU) At32(x float32) float32 { return math32.Max(0, x) }

func (ReLU) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	if x.Sign() > 0 {
		return new(apd.Decimal).Set(x), nil
	}
	return apd.New(0, 0), nil
}

func (ReLU) Derive() Scalar { return Step{} }

func (ReLU) Label() string { return "relu(x)" }

// Step is the Heaviside function: 1 for x > 0, else 0.
type Step struct{}

func (Step) At(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (s Step) At32(x float32) float32 { return float32(s.At(float64(x))) }

func (Step) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	if x.Sign() > 0 {
		return apd.New(1, 0), nil
	}
	return apd.New(0, 0), nil
}

func (Step) Derive() Scalar { return Constant{} }

func (Step) Label() string { return "step(x)" }

// Polynomial is c₀ + c₁x + c₂x² + ... with Coefficients[k] = cₖ.
type Polynomial struct{ Coefficients []float64 }

// NewPolynomial returns the polynomial with the given coefficients, lowest
// degree first.
func NewPolynomial(coefficients ...float64) Polynomial {
	return Polynomial{Coefficients: append([]float64(nil), coefficients...)}
}

// At evaluates the polynomial with Horner's scheme.
func (p Polynomial) At(x float64) float64 {
	var y float64
	for k := len(p.Coefficients) - 1; k >= 0; k-- {
		y = y*x + p.Coefficients[k]
	}
	return y
}

func (p Polynomial) At32(x float32) float32 {
	var y float32
	for k := len(p.Coefficients) - 1; k >= 0; k-- {
		y = y*x + float32(p.Coefficients[k])
	}
	return y
}

func (p Polynomial) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	y := apd.New(0, 0)
	for k := len(p.Coefficients) - 1; k >= 0; k-- {
		c, err := tensor.DecimalFromFloat(p.Coefficients[k], 64)
		if err != nil {
			return nil, err
		}
		if _, err := ctx.Mul(y, y, x); err != nil {
			return nil, err
		}
		if _, err := ctx.Add(y, y, c); err != nil {
			return nil, err
		}
	}
	return y, nil
}

func (p Polynomial) Derive() Scalar {
	if len(p.Coefficients) <= 1 {
		return Polynomial{}
	}
	d := make([]float64, len(p.Coefficients)-1)
	for k := 1; k < len(p.Coefficients); k++ {
		d[k-1] = float64(k) * p.Coefficients[k]
	}
	return Polynomial{Coefficients: d}
}

func (p Polynomial) Label() string {
	if len(p.Coefficients) == 0 {
		return "0"
	}
	terms := make([]string, 0, len(p.Coefficients))
	for k, c := range p.Coefficients {
		switch k {
		case 0:
			terms = append(terms, formatFloat(c))
		case 1:
			terms = append(terms, formatFloat(c)+"*x")
		default:
			terms = append(terms, fmt.Sprintf("%s*x^%d", formatFloat(c), k))
		}
	}
	return strings.Join(terms, " + ")
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
