package tensor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// DecimalPrecision is the number of significant digits kept by Decimal
// arithmetic. Addition, subtraction and multiplication of short operands are
// exact; division and transcendental functions round to this precision.
const DecimalPrecision = 34

// DecimalRounding is the rounding policy applied when a Decimal result does
// not fit DecimalPrecision digits.
const DecimalRounding = apd.RoundHalfDown

// decimalCtx is shared by every Decimal storage. apd contexts are read-only
// during arithmetic, so concurrent use is safe.
var decimalCtx = newDecimalContext()

func newDecimalContext() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(DecimalPrecision)
	ctx.Rounding = DecimalRounding
	ctx.Traps = apd.DefaultTraps
	return ctx
}

// DecimalContext returns a copy of the arithmetic context used by Decimal
// storages, for callers computing Decimal values of their own.
func DecimalContext() *apd.Context {
	c := *decimalCtx
	return &c
}

// DecimalFromFloat converts a binary float into a decimal through its shortest
// canonical text form, so 0.1 becomes exactly 0.1 rather than the binary
// expansion of the nearest double. bitSize is 32 or 64 and names the precision
// of the source value.
func DecimalFromFloat(f float64, bitSize int) (*apd.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNonFiniteDecimal, f)
	}
	return ParseDecimal(strconv.FormatFloat(f, 'g', -1, bitSize))
}

// ParseDecimal parses a decimal literal (e.g. "-1.25", "3E-7").
func ParseDecimal(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDecimal, s, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("%w: %q", ErrNonFiniteDecimal, s)
	}
	return d, nil
}

// decimalToFloat converts d to the nearest binary float of the given size,
// failing when d is outside the finite range of that size.
func decimalToFloat(d *apd.Decimal, bitSize int) (float64, error) {
	f, err := strconv.ParseFloat(d.String(), bitSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %s does not fit float%d", ErrOverflow, d.String(), bitSize)
	}
	return f, nil
}

// narrowFloat32 converts a float64 to float32, failing instead of producing
// an infinity when the value exceeds the float32 range.
func narrowFloat32(f float64) (float32, error) {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("%w: %v does not fit float32", ErrOverflow, f)
	}
	return float32(f), nil
}

func decimalZero() *apd.Decimal { return apd.New(0, 0) }

func decimalOne() *apd.Decimal { return apd.New(1, 0) }
