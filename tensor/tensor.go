// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the numeric substrate of the
// perceptron engine.
//
// Every value carries one of three representations:
//   - Float32: single precision, float32 arithmetic throughout
//   - Float64: double precision, gonum-backed kernels
//   - Decimal: arbitrary precision (34 significant digits, half-down rounding)
//
// Vector and Matrix are immutable values: arithmetic returns fresh results.
//
// Example:
//
//	x, _ := tensor.VectorOf(tensor.Decimal, 0.1, 0.2)
//	y, _ := x.Add(x)
//	fmt.Println(y) // [0.2 0.4]
package tensor

import (
	"math/rand"

	"github.com/born-ml/perceptron/internal/tensor"
)

// DataType selects the numeric representation.
type DataType = tensor.DataType

// Representations.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Decimal DataType = tensor.Decimal
)

// Shape represents the dimensions of a vector or matrix.
type Shape = tensor.Shape

// Raw is the storage behind a Vector or Matrix.
type Raw = tensor.Raw

// Value is a single scalar in one of the representations.
type Value = tensor.Value

// Vector is a one-dimensional value.
type Vector = tensor.Vector

// Matrix is a row-major two-dimensional value.
type Matrix = tensor.Matrix

// ShapeError reports incompatible operand shapes.
type ShapeError = tensor.ShapeError

// Errors.
var (
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrDTypeMismatch   = tensor.ErrDTypeMismatch
	ErrOverflow        = tensor.ErrOverflow
	ErrDivisionByZero  = tensor.ErrDivisionByZero
	ErrIndexOutOfRange = tensor.ErrIndexOutOfRange
	ErrUnknownDataType = tensor.ErrUnknownDataType
)

// ParseDataType converts "float32", "float64" or "decimal" to a DataType.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// NewVector returns a zero vector of dimension n.
func NewVector(dt DataType, n int) (Vector, error) {
	return tensor.NewVector(dt, n)
}

// VectorOf builds a vector from float64 values converted to dt.
func VectorOf(dt DataType, values ...float64) (Vector, error) {
	return tensor.VectorOf(dt, values...)
}

// ParseVector builds a vector from decimal literals.
func ParseVector(dt DataType, values ...string) (Vector, error) {
	return tensor.ParseVector(dt, values...)
}

// OneHot returns the vector with 1 at index and 0 elsewhere.
func OneHot(dt DataType, index, n int) (Vector, error) {
	return tensor.OneHot(dt, index, n)
}

// NewMatrix returns a zero rows×cols matrix.
func NewMatrix(dt DataType, rows, cols int) (Matrix, error) {
	return tensor.NewMatrix(dt, rows, cols)
}

// MatrixFromRows builds a matrix from equal-length rows.
func MatrixFromRows(dt DataType, rows [][]float64) (Matrix, error) {
	return tensor.MatrixFromRows(dt, rows)
}

// RandomGaussian returns a rows×cols matrix of N(0, 1) samples drawn from rng.
func RandomGaussian(dt DataType, rows, cols int, rng *rand.Rand) (Matrix, error) {
	return tensor.RandomGaussian(dt, rows, cols, rng)
}

// Outer returns a·bᵀ.
func Outer(a, b Vector) (Matrix, error) {
	return tensor.Outer(a, b)
}
