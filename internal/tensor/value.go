package tensor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Value is a single number tagged with its representation. Reductions (Sum,
// Dot) and element reads return Values so a Decimal result never has to pass
// through a binary float.
type Value struct {
	dtype DataType
	f     float64      // Float32 and Float64; float32 values are exact in a float64
	d     *apd.Decimal // Decimal only
}

// Float32Value wraps a float32.
func Float32Value(f float32) Value { return Value{dtype: Float32, f: float64(f)} }

// Float64Value wraps a float64.
func Float64Value(f float64) Value { return Value{dtype: Float64, f: f} }

// DecimalValue wraps a copy of d.
func DecimalValue(d *apd.Decimal) Value {
	return Value{dtype: Decimal, d: new(apd.Decimal).Set(d)}
}

// ValueOf converts f into the given representation.
func ValueOf(dt DataType, f float64) (Value, error) {
	switch dt {
	case Float32:
		f32, err := narrowFloat32(f)
		if err != nil {
			return Value{}, err
		}
		return Float32Value(f32), nil
	case Float64:
		return Float64Value(f), nil
	case Decimal:
		d, err := DecimalFromFloat(f, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{dtype: Decimal, d: d}, nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownDataType, int(dt))
	}
}

// Reciprocal returns 1/n in representation dt. Decimal results are rounded
// to DecimalPrecision digits.
func Reciprocal(dt DataType, n int) (Value, error) {
	if n == 0 {
		return Value{}, fmt.Errorf("reciprocal: %w", ErrDivisionByZero)
	}
	if dt != Decimal {
		return ValueOf(dt, 1/float64(n))
	}
	d := new(apd.Decimal)
	if _, err := decimalCtx.Quo(d, decimalOne(), apd.New(int64(n), 0)); err != nil {
		return Value{}, fmt.Errorf("reciprocal: %w", err)
	}
	return Value{dtype: Decimal, d: d}, nil
}

// DType returns the value's representation.
func (v Value) DType() DataType { return v.dtype }

// Float64 returns the value as a float64. Decimals are rounded to the nearest
// double; values beyond the double range become infinities.
func (v Value) Float64() float64 {
	if v.dtype == Decimal {
		f, err := strconv.ParseFloat(v.d.String(), 64)
		if err != nil {
			return math.Copysign(math.Inf(1), boolSign(v.d.Negative))
		}
		return f
	}
	return v.f
}

// Decimal returns the value as a decimal. Float values go through their
// canonical text form.
func (v Value) Decimal() (*apd.Decimal, error) {
	switch v.dtype {
	case Decimal:
		return new(apd.Decimal).Set(v.d), nil
	case Float32:
		return DecimalFromFloat(v.f, 32)
	default:
		return DecimalFromFloat(v.f, 64)
	}
}

// Convert returns the value in another representation, failing when it does
// not fit the target range.
func (v Value) Convert(dt DataType) (Value, error) {
	if v.dtype == dt {
		return v, nil
	}
	switch dt {
	case Float32:
		if v.dtype == Decimal {
			f, err := decimalToFloat(v.d, 32)
			if err != nil {
				return Value{}, err
			}
			return Float32Value(float32(f)), nil
		}
		f32, err := narrowFloat32(v.f)
		if err != nil {
			return Value{}, err
		}
		return Float32Value(f32), nil
	case Float64:
		if v.dtype == Decimal {
			f, err := decimalToFloat(v.d, 64)
			if err != nil {
				return Value{}, err
			}
			return Float64Value(f), nil
		}
		return Float64Value(v.f), nil
	case Decimal:
		d, err := v.Decimal()
		if err != nil {
			return Value{}, err
		}
		return Value{dtype: Decimal, d: d}, nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownDataType, int(dt))
	}
}

// Int truncates the value toward zero and returns it as an int. It fails
// with ErrOverflow instead of wrapping when the integer part does not fit.
func (v Value) Int() (int, error) {
	if v.dtype == Decimal {
		ctx := DecimalContext()
		ctx.Rounding = apd.RoundDown
		var truncated apd.Decimal
		if _, err := ctx.RoundToIntegralValue(&truncated, v.d); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrOverflow, v.d.String(), err)
		}
		i64, err := truncated.Int64()
		if err != nil || int64(int(i64)) != i64 {
			return 0, fmt.Errorf("%w: %s does not fit int", ErrOverflow, v.d.String())
		}
		return int(i64), nil
	}
	t := math.Trunc(v.f)
	if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v does not fit int", ErrOverflow, v.f)
	}
	i64 := int64(t)
	if int64(int(i64)) != i64 {
		return 0, fmt.Errorf("%w: %v does not fit int", ErrOverflow, v.f)
	}
	return int(i64), nil
}

// Cmp compares two values of the same representation: -1, 0 or +1.
func (v Value) Cmp(o Value) (int, error) {
	if v.dtype != o.dtype {
		return 0, dtypeError("cmp", v.dtype, o.dtype)
	}
	if v.dtype == Decimal {
		return v.d.Cmp(o.d), nil
	}
	switch {
	case v.f < o.f:
		return -1, nil
	case v.f > o.f:
		return 1, nil
	default:
		return 0, nil
	}
}

// String formats the value in its own representation.
func (v Value) String() string {
	switch v.dtype {
	case Decimal:
		if v.d == nil {
			return "0"
		}
		return v.d.String()
	case Float32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	default:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
}

func boolSign(negative bool) float64 {
	if negative {
		return -1
	}
	return 1
}
