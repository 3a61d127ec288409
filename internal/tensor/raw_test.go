package tensor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = []DataType{Float32, Float64, Decimal}

func TestNewRawIsZero(t *testing.T) {
	for _, dt := range allTypes {
		t.Run(dt.String(), func(t *testing.T) {
			r, err := NewRaw(dt, 4)
			require.NoError(t, err)
			assert.Equal(t, dt, r.DType())
			assert.Equal(t, 4, r.Len())
			for i := 0; i < r.Len(); i++ {
				assert.Equal(t, 0.0, r.At(i).Float64())
			}
		})
	}
}

func TestNewRawRejectsBadInput(t *testing.T) {
	_, err := NewRaw(Float32, -1)
	require.Error(t, err)

	_, err = NewRaw(DataType(99), 3)
	require.ErrorIs(t, err, ErrUnknownDataType)
}

func TestRawOneHot(t *testing.T) {
	for _, dt := range allTypes {
		t.Run(dt.String(), func(t *testing.T) {
			r, err := NewRaw(dt, 10)
			require.NoError(t, err)
			require.NoError(t, r.OneHot(3))

			for i := 0; i < 10; i++ {
				want := 0.0
				if i == 3 {
					want = 1
				}
				assert.Equal(t, want, r.At(i).Float64(), "component %d", i)
			}
			assert.Equal(t, 3, r.TopIndex())

			require.ErrorIs(t, r.OneHot(10), ErrIndexOutOfRange)
			require.ErrorIs(t, r.OneHot(-1), ErrIndexOutOfRange)
		})
	}
}

func TestRawTopIndex(t *testing.T) {
	for _, dt := range allTypes {
		t.Run(dt.String(), func(t *testing.T) {
			empty, err := NewRaw(dt, 0)
			require.NoError(t, err)
			assert.Equal(t, -1, empty.TopIndex())

			r, err := RawFromFloat64s(dt, []float64{0.5, 2, -1, 2})
			require.NoError(t, err)
			assert.Equal(t, 1, r.TopIndex(), "ties resolve to the first maximum")
		})
	}
}

func TestRawElementwise(t *testing.T) {
	for _, dt := range allTypes {
		t.Run(dt.String(), func(t *testing.T) {
			a, err := RawFromFloat64s(dt, []float64{1, 2, 3})
			require.NoError(t, err)
			b, err := RawFromFloat64s(dt, []float64{4, 5, 6})
			require.NoError(t, err)

			sum := a.Clone()
			require.NoError(t, sum.Add(b))
			assert.Equal(t, []string{"5", "7", "9"}, Strings(sum))

			diff := a.Clone()
			require.NoError(t, diff.Sub(b))
			assert.Equal(t, []string{"-3", "-3", "-3"}, Strings(diff))

			prod := a.Clone()
			require.NoError(t, prod.Mul(b))
			assert.Equal(t, []string{"4", "10", "18"}, Strings(prod))

			dot, err := a.Dot(b)
			require.NoError(t, err)
			assert.Equal(t, 32.0, dot.Float64())
			assert.Equal(t, 6.0, a.Sum().Float64())

			// a is untouched by operations on its clones
			assert.Equal(t, []string{"1", "2", "3"}, Strings(a))
		})
	}
}

func TestRawBinaryShapeMismatch(t *testing.T) {
	a, _ := NewRaw(Float64, 3)
	b, _ := NewRaw(Float64, 4)

	err := a.Add(b)
	require.ErrorIs(t, err, ErrShapeMismatch)

	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, Shape{3}, shapeErr.Expected)
	assert.Equal(t, Shape{4}, shapeErr.Got)

	_, err = a.Dot(b)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRawBinaryDTypeMismatch(t *testing.T) {
	a, _ := NewRaw(Float64, 3)
	b, _ := NewRaw(Float32, 3)
	require.ErrorIs(t, a.Mul(b), ErrDTypeMismatch)
}

func TestDecimalDivisionByZero(t *testing.T) {
	a, err := RawFromFloat64s(Decimal, []float64{1, 2})
	require.NoError(t, err)
	b, err := RawFromFloat64s(Decimal, []float64{1, 0})
	require.NoError(t, err)

	require.ErrorIs(t, a.Div(b), ErrDivisionByZero)
}

func TestFloatDivisionByZeroPropagates(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64} {
		t.Run(dt.String(), func(t *testing.T) {
			a, _ := RawFromFloat64s(dt, []float64{1, 0})
			b, _ := RawFromFloat64s(dt, []float64{0, 0})
			require.NoError(t, a.Div(b))
			assert.True(t, math.IsInf(a.At(0).Float64(), 1))
			assert.True(t, math.IsNaN(a.At(1).Float64()))
		})
	}
}

func TestDecimalIsExact(t *testing.T) {
	a, err := RawFromStrings(Decimal, []string{"0.1", "0.2"})
	require.NoError(t, err)

	assert.Equal(t, "0.3", a.Sum().String())

	third, _ := RawFromStrings(Decimal, []string{"1"})
	three, _ := RawFromStrings(Decimal, []string{"3"})
	require.NoError(t, third.Div(three))
	assert.Equal(t, "0.3333333333333333333333333333333333", third.At(0).String())
}

func TestDecimalFromFloatIsCanonical(t *testing.T) {
	d, err := DecimalFromFloat(0.1, 64)
	require.NoError(t, err)
	assert.Equal(t, "0.1", d.String())

	d, err = DecimalFromFloat(float64(float32(0.1)), 32)
	require.NoError(t, err)
	assert.Equal(t, "0.1", d.String())

	_, err = DecimalFromFloat(math.Inf(1), 64)
	require.ErrorIs(t, err, ErrNonFiniteDecimal)
}

func TestConvertOverflow(t *testing.T) {
	big, err := RawFromFloat64s(Float64, []float64{1, math.MaxFloat64})
	require.NoError(t, err)

	_, err = Convert(big, Float32)
	require.ErrorIs(t, err, ErrOverflow)

	huge, err := RawFromStrings(Decimal, []string{"1E+400"})
	require.NoError(t, err)
	_, err = Convert(huge, Float64)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = RawFromFloat64s(Float32, []float64{1e39})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestConvertRoundTrip(t *testing.T) {
	src, err := RawFromFloat64s(Float32, []float64{0.25, -1.5, 3})
	require.NoError(t, err)

	dec, err := Convert(src, Decimal)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.25", "-1.5", "3"}, Strings(dec))

	back, err := Convert(dec, Float32)
	require.NoError(t, err)
	assert.Equal(t, Strings(src), Strings(back))
}

func TestValueInt(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		want    int
		wantErr bool
	}{
		{"float truncates", Float64Value(3.9), 3, false},
		{"negative truncates toward zero", Float64Value(-3.9), -3, false},
		{"float32", Float32Value(7), 7, false},
		{"float overflow", Float64Value(1e300), 0, true},
		{"nan", Float64Value(math.NaN()), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.Int()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	d, err := ParseDecimal("-12.75")
	require.NoError(t, err)
	got, err := DecimalValue(d).Int()
	require.NoError(t, err)
	assert.Equal(t, -12, got)

	d, err = ParseDecimal("1E+30")
	require.NoError(t, err)
	_, err = DecimalValue(d).Int()
	require.ErrorIs(t, err, ErrOverflow)
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	_, err := ParseDecimal("twelve")
	require.ErrorIs(t, err, ErrInvalidDecimal)

	_, err = ParseDecimal("NaN")
	require.ErrorIs(t, err, ErrNonFiniteDecimal)
}

func TestDataTypeText(t *testing.T) {
	for _, dt := range allTypes {
		text, err := dt.MarshalText()
		require.NoError(t, err)

		var back DataType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, dt, back)
	}

	_, err := ParseDataType("int8")
	require.ErrorIs(t, err, ErrUnknownDataType)
}
