package tensor

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorOperationsArePure(t *testing.T) {
	for _, dt := range allTypes {
		t.Run(dt.String(), func(t *testing.T) {
			a, err := VectorOf(dt, 1, 2, 3)
			require.NoError(t, err)
			b, err := VectorOf(dt, 0.5, 0.5, 0.5)
			require.NoError(t, err)
			before := a.Copy()

			sum, err := a.Add(b)
			require.NoError(t, err)
			_, err = a.Sub(b)
			require.NoError(t, err)
			_, err = a.Mul(b)
			require.NoError(t, err)
			_, err = a.Scale(10)
			require.NoError(t, err)

			assert.True(t, a.Equal(before), "operands must be left untouched")
			assert.Equal(t, []float64{1.5, 2.5, 3.5}, sum.Float64s())
		})
	}
}

func TestVectorOneHot(t *testing.T) {
	v, err := OneHot(Float64, 3, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, v.Dim())
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 0, 0, 0, 0, 0}, v.Float64s())
	assert.Equal(t, 3, v.TopIndex())

	_, err = OneHot(Float64, 10, 10)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestVectorDimensionMismatch(t *testing.T) {
	a, _ := NewVector(Float32, 3)
	b, _ := NewVector(Float32, 2)

	_, err := a.Add(b)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = a.Dot(b)
	require.ErrorIs(t, err, ErrShapeMismatch)
	require.ErrorIs(t, a.AddInPlace(b), ErrShapeMismatch)
}

func TestVectorDot(t *testing.T) {
	for _, dt := range allTypes {
		a, _ := VectorOf(dt, 1, -2, 3)
		b, _ := VectorOf(dt, 4, 5, 6)
		dot, err := a.Dot(b)
		require.NoError(t, err)
		assert.Equal(t, 12.0, dot.Float64(), dt.String())
	}
}

func TestVectorAddInPlace(t *testing.T) {
	acc, _ := NewVector(Decimal, 2)
	x, _ := ParseVector(Decimal, "0.1", "0.7")
	for i := 0; i < 3; i++ {
		require.NoError(t, acc.AddInPlace(x))
	}
	assert.Equal(t, "V(2)[0.3 2.1]", acc.String())
}

func TestVectorIntAt(t *testing.T) {
	v, _ := VectorOf(Float64, 2.7, 1e300)

	got, err := v.IntAt(0)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = v.IntAt(1)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = v.IntAt(2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestVectorMap(t *testing.T) {
	v32, _ := VectorOf(Float32, 1, 2)
	out, err := v32.MapFloat32(func(x float32) float32 { return x * x })
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, out.Float64s())

	_, err = v32.MapFloat64(func(x float64) float64 { return x })
	require.ErrorIs(t, err, ErrDTypeMismatch)

	dec, _ := ParseVector(Decimal, "1.5", "-2")
	neg, err := dec.MapDecimal(func(d *apd.Decimal) (*apd.Decimal, error) {
		return new(apd.Decimal).Neg(d), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "V(2)[-1.5 2]", neg.String())
	assert.Equal(t, "V(2)[1.5 -2]", dec.String())
}

func TestVectorAlmostEqual(t *testing.T) {
	a, _ := VectorOf(Float64, 1, 2)
	b, _ := VectorOf(Float64, 1+1e-12, 2)
	c, _ := VectorOf(Float32, 1, 2)

	assert.True(t, a.AlmostEqual(b, 1e-9))
	assert.False(t, a.Equal(b))
	assert.False(t, a.AlmostEqual(c, 1), "representations differ")
}
