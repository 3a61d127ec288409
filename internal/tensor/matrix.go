package tensor

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an M×N matrix stored row-major over a single Raw of length M*N.
// Like Vector it has value semantics; AddInPlace and ScaleInPlace are the only
// mutating methods and belong to the single owner of the matrix.
type Matrix struct {
	rows, cols int
	raw        Raw
}

// NewMatrix allocates a zero M×N matrix.
func NewMatrix(dt DataType, rows, cols int) (Matrix, error) {
	if rows < 0 || cols < 0 {
		return Matrix{}, fmt.Errorf("invalid matrix shape %dx%d", rows, cols)
	}
	r, err := NewRaw(dt, rows*cols)
	if err != nil {
		return Matrix{}, err
	}
	return Matrix{rows: rows, cols: cols, raw: r}, nil
}

// MatrixFromRows builds a matrix from float64 rows of equal length.
func MatrixFromRows(dt DataType, rows [][]float64) (Matrix, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, &ShapeError{Op: "matrix", Expected: Shape{len(rows), cols}, Got: Shape{i, len(row)}}
		}
		flat = append(flat, row...)
	}
	r, err := RawFromFloat64s(dt, flat)
	if err != nil {
		return Matrix{}, err
	}
	return Matrix{rows: len(rows), cols: cols, raw: r}, nil
}

// MatrixFromRaw adopts r as the row-major storage of a rows×cols matrix.
func MatrixFromRaw(rows, cols int, r Raw) (Matrix, error) {
	if rows < 0 || cols < 0 || r.Len() != rows*cols {
		return Matrix{}, &ShapeError{Op: "matrix", Expected: Shape{rows * cols}, Got: Shape{r.Len()}}
	}
	return Matrix{rows: rows, cols: cols, raw: r}, nil
}

// RandomGaussian returns an M×N matrix of standard normal samples drawn from rng.
func RandomGaussian(dt DataType, rows, cols int, rng *rand.Rand) (Matrix, error) {
	m, err := NewMatrix(dt, rows, cols)
	if err != nil {
		return Matrix{}, err
	}
	for i := 0; i < m.raw.Len(); i++ {
		if err := m.raw.Set(i, Float64Value(rng.NormFloat64())); err != nil {
			return Matrix{}, err
		}
	}
	return m, nil
}

// Outer returns the outer product a·bᵀ, an a.Dim()×b.Dim() matrix.
func Outer(a, b Vector) (Matrix, error) {
	if a.DType() != b.DType() {
		return Matrix{}, dtypeError("outer", a.DType(), b.DType())
	}
	m, err := NewMatrix(a.DType(), a.Dim(), b.Dim())
	if err != nil {
		return Matrix{}, err
	}
	for i := 0; i < a.Dim(); i++ {
		row := m.raw.Slice(i*m.cols, (i+1)*m.cols)
		copyInto(row, b.raw)
		if err := scaleByValue(row, a.raw.At(i)); err != nil {
			return Matrix{}, err
		}
	}
	return m, nil
}

// Rows returns M.
func (m Matrix) Rows() int { return m.rows }

// Cols returns N.
func (m Matrix) Cols() int { return m.cols }

// Shape returns {M, N}.
func (m Matrix) Shape() Shape { return Shape{m.rows, m.cols} }

// DType returns the matrix representation.
func (m Matrix) DType() DataType {
	if m.raw == nil {
		return Float32
	}
	return m.raw.DType()
}

// Raw returns the row-major backing storage.
func (m Matrix) Raw() Raw { return m.raw }

// Copy returns a deep copy.
func (m Matrix) Copy() Matrix {
	if m.raw == nil {
		return m
	}
	return Matrix{rows: m.rows, cols: m.cols, raw: m.raw.Clone()}
}

// At returns element (i, j).
func (m Matrix) At(i, j int) Value { return m.raw.At(i*m.cols + j) }

// Set stores f at (i, j). Only the owner of m may call it.
func (m Matrix) Set(i, j int, f float64) error {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return fmt.Errorf("set: %w: (%d,%d) in %dx%d", ErrIndexOutOfRange, i, j, m.rows, m.cols)
	}
	return m.raw.Set(i*m.cols+j, Float64Value(f))
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) (Vector, error) {
	if err := checkIndex("row", i, m.rows); err != nil {
		return Vector{}, err
	}
	return Vector{raw: m.raw.Slice(i*m.cols, (i+1)*m.cols).Clone()}, nil
}

// Apply returns the matrix-vector product m·v, a vector of dimension M.
func (m Matrix) Apply(v Vector) (Vector, error) {
	if v.Dim() != m.cols {
		return Vector{}, &ShapeError{Op: "apply", Expected: Shape{m.cols}, Got: v.Shape()}
	}
	if v.DType() != m.DType() {
		return Vector{}, dtypeError("apply", m.DType(), v.DType())
	}
	if w, ok := m.raw.(float64Raw); ok && m.rows > 0 && m.cols > 0 {
		out := make(float64Raw, m.rows)
		dst := mat.NewVecDense(m.rows, out)
		dst.MulVec(mat.NewDense(m.rows, m.cols, w), mat.NewVecDense(m.cols, v.raw.(float64Raw)))
		return Vector{raw: out}, nil
	}
	out, err := NewRaw(m.DType(), m.rows)
	if err != nil {
		return Vector{}, err
	}
	for i := 0; i < m.rows; i++ {
		dot, err := m.raw.Slice(i*m.cols, (i+1)*m.cols).Dot(v.raw)
		if err != nil {
			return Vector{}, fmt.Errorf("apply row %d: %w", i, err)
		}
		if err := out.Set(i, dot); err != nil {
			return Vector{}, err
		}
	}
	return Vector{raw: out}, nil
}

// ApplyTransposed returns mᵀ·v, a vector of dimension N, without building
// the transpose.
func (m Matrix) ApplyTransposed(v Vector) (Vector, error) {
	if v.Dim() != m.rows {
		return Vector{}, &ShapeError{Op: "apply transposed", Expected: Shape{m.rows}, Got: v.Shape()}
	}
	if v.DType() != m.DType() {
		return Vector{}, dtypeError("apply transposed", m.DType(), v.DType())
	}
	if w, ok := m.raw.(float64Raw); ok && m.rows > 0 && m.cols > 0 {
		out := make(float64Raw, m.cols)
		dst := mat.NewVecDense(m.cols, out)
		dst.MulVec(mat.NewDense(m.rows, m.cols, w).T(), mat.NewVecDense(m.rows, v.raw.(float64Raw)))
		return Vector{raw: out}, nil
	}
	out, err := NewRaw(m.DType(), m.cols)
	if err != nil {
		return Vector{}, err
	}
	for i := 0; i < m.rows; i++ {
		row := m.raw.Slice(i*m.cols, (i+1)*m.cols).Clone()
		if err := scaleByValue(row, v.raw.At(i)); err != nil {
			return Vector{}, fmt.Errorf("apply transposed row %d: %w", i, err)
		}
		if err := out.Add(row); err != nil {
			return Vector{}, err
		}
	}
	return Vector{raw: out}, nil
}

// Transpose returns the N×M transpose.
func (m Matrix) Transpose() Matrix {
	out, _ := NewRaw(m.DType(), m.rows*m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			_ = out.Set(j*m.rows+i, m.raw.At(i*m.cols+j))
		}
	}
	return Matrix{rows: m.cols, cols: m.rows, raw: out}
}

// Add returns m + o.
func (m Matrix) Add(o Matrix) (Matrix, error) {
	if err := m.checkSame("add", o); err != nil {
		return Matrix{}, err
	}
	out := m.Copy()
	if err := out.raw.Add(o.raw); err != nil {
		return Matrix{}, err
	}
	return out, nil
}

// Sub returns m - o.
func (m Matrix) Sub(o Matrix) (Matrix, error) {
	if err := m.checkSame("sub", o); err != nil {
		return Matrix{}, err
	}
	out := m.Copy()
	if err := out.raw.Sub(o.raw); err != nil {
		return Matrix{}, err
	}
	return out, nil
}

// Scale returns m × s.
func (m Matrix) Scale(s float64) (Matrix, error) {
	out := m.Copy()
	if out.raw == nil {
		return out, nil
	}
	if err := out.raw.Scale(s); err != nil {
		return Matrix{}, err
	}
	return out, nil
}

// AddInPlace accumulates o into m.
func (m Matrix) AddInPlace(o Matrix) error {
	if err := m.checkSame("add", o); err != nil {
		return err
	}
	return m.raw.Add(o.raw)
}

// ScaleInPlace multiplies m by s.
func (m Matrix) ScaleInPlace(s float64) error {
	if m.raw == nil {
		return nil
	}
	return m.raw.Scale(s)
}

// ScaleByInPlace multiplies m by a value of the same representation.
func (m Matrix) ScaleByInPlace(s Value) error {
	return Vector{raw: m.raw}.ScaleByInPlace(s)
}

// Equal reports exact element-wise equality, including the representation.
func (m Matrix) Equal(o Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	return Vector{raw: m.raw}.Equal(Vector{raw: o.raw})
}

// AlmostEqual reports whether every element of m is within eps of o's.
// Decimals are compared through float64.
func (m Matrix) AlmostEqual(o Matrix, eps float64) bool {
	if m.rows != o.rows || m.cols != o.cols || m.DType() != o.DType() {
		return false
	}
	for i := 0; i < m.raw.Len(); i++ {
		if math.Abs(m.raw.At(i).Float64()-o.raw.At(i).Float64()) > eps {
			return false
		}
	}
	return true
}

// String formats the matrix one row per line.
func (m Matrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "M(%dx%d)", m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		b.WriteString("\n  [")
		b.WriteString(strings.Join(Strings(m.raw.Slice(i*m.cols, (i+1)*m.cols)), " "))
		b.WriteString("]")
	}
	return b.String()
}

func (m Matrix) checkSame(op string, o Matrix) error {
	if m.rows != o.rows || m.cols != o.cols {
		return &ShapeError{Op: op, Expected: m.Shape(), Got: o.Shape()}
	}
	if m.DType() != o.DType() {
		return dtypeError(op, m.DType(), o.DType())
	}
	return nil
}

// copyInto copies src into dst element by element. Both share a representation.
func copyInto(dst, src Raw) {
	for i := 0; i < src.Len(); i++ {
		_ = dst.Set(i, src.At(i))
	}
}

// scaleByValue multiplies r by a value of its own representation without
// routing decimals through float64.
func scaleByValue(r Raw, v Value) error {
	if d, ok := r.(decimalRaw); ok {
		return d.ScaleDecimal(v.d)
	}
	return r.Scale(v.f)
}
