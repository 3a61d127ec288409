package activation

import (
	"fmt"

	"github.com/born-ml/perceptron/internal/tensor"
	"github.com/cockroachdb/apd/v3"
)

// Sum is f(x) + g(x).
type Sum struct{ F, G Scalar }

func (s Sum) At(x float64) float64 { return s.F.At(x) + s.G.At(x) }

func (s Sum) At32(x float32) float32 { return at32(s.F, x) + at32(s.G, x) }

func (s Sum) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	f, g, err := both(s.F, s.G, x)
	if err != nil {
		return nil, err
	}
	_, err = ctx.Add(f, f, g)
	return f, err
}

func (s Sum) Derive() Scalar { return Sum{F: s.F.Derive(), G: s.G.Derive()} }

func (s Sum) Label() string { return fmt.Sprintf("(%s + %s)", s.F.Label(), s.G.Label()) }

// Product is f(x) · g(x).
type Product struct{ F, G Scalar }

func (p Product) At(x float64) float64 { return p.F.At(x) * p.G.At(x) }

func (p Product) At32(x float32) float32 { return at32(p.F, x) * at32(p.G, x) }

func (p Product) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	f, g, err := both(p.F, p.G, x)
	if err != nil {
		return nil, err
	}
	_, err = ctx.Mul(f, f, g)
	return f, err
}

// Derive applies the product rule: f'g + fg'.
func (p Product) Derive() Scalar {
	return Sum{
		F: Product{F: p.F.Derive(), G: p.G},
		G: Product{F: p.F, G: p.G.Derive()},
	}
}

func (p Product) Label() string { return fmt.Sprintf("(%s * %s)", p.F.Label(), p.G.Label()) }

// Ratio is f(x) / g(x). Float evaluation follows IEEE 754 on a zero
// denominator; decimal evaluation fails with tensor.ErrDivisionByZero.
type Ratio struct{ Num, Den Scalar }

func (r Ratio) At(x float64) float64 { return r.Num.At(x) / r.Den.At(x) }

func (r Ratio) At32(x float32) float32 { return at32(r.Num, x) / at32(r.Den, x) }

func (r Ratio) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	n, d, err := both(r.Num, r.Den, x)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, fmt.Errorf("%s at %s: %w", r.Label(), x.String(), tensor.ErrDivisionByZero)
	}
	_, err = ctx.Quo(n, n, d)
	return n, err
}

// Derive applies the quotient rule: (f'g - fg') / g².
func (r Ratio) Derive() Scalar {
	return Ratio{
		Num: Sum{
			F: Product{F: r.Num.Derive(), G: r.Den},
			G: Product{F: Constant{C: -1}, G: Product{F: r.Num, G: r.Den.Derive()}},
		},
		Den: Product{F: r.Den, G: r.Den},
	}
}

func (r Ratio) Label() string { return fmt.Sprintf("(%s / %s)", r.Num.Label(), r.Den.Label()) }

// Compose is outer(inner(x)).
type Compose struct{ Outer, Inner Scalar }

func (c Compose) At(x float64) float64 { return c.Outer.At(c.Inner.At(x)) }

func (c Compose) At32(x float32) float32 { return at32(c.Outer, at32(c.Inner, x)) }

func (c Compose) AtDecimal(x *apd.Decimal) (*apd.Decimal, error) {
	y, err := atDecimal(c.Inner, x)
	if err != nil {
		return nil, err
	}
	return atDecimal(c.Outer, y)
}

// Derive applies the chain rule: outer'(inner(x)) · inner'(x).
func (c Compose) Derive() Scalar {
	return Product{
		F: Compose{Outer: c.Outer.Derive(), Inner: c.Inner},
		G: c.Inner.Derive(),
	}
}

func (c Compose) Label() string {
	return fmt.Sprintf("%s ∘ %s", c.Outer.Label(), c.Inner.Label())
}

// both evaluates f and g at x as decimals. The results are fresh values.
func both(f, g Scalar, x *apd.Decimal) (*apd.Decimal, *apd.Decimal, error) {
	fx, err := atDecimal(f, x)
	if err != nil {
		return nil, nil, err
	}
	gx, err := atDecimal(g, x)
	if err != nil {
		return nil, nil, err
	}
	return fx, gx, nil
}
