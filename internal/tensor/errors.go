package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrDTypeMismatch    = errors.New("data type mismatch")
	ErrOverflow         = errors.New("numeric overflow")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrInvalidDecimal   = errors.New("invalid decimal literal")
	ErrUnknownDataType  = errors.New("unknown data type")
	ErrEmptyStorage     = errors.New("empty storage")
	ErrNonFiniteDecimal = errors.New("non-finite value has no decimal representation")
)

// ShapeError reports an operation whose operands have incompatible shapes.
// It matches ErrShapeMismatch with errors.Is.
type ShapeError struct {
	Op       string // Operation name (e.g. "add", "apply")
	Expected Shape  // Shape the operation required
	Got      Shape  // Shape it received
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: expected %v, got %v", e.Op, e.Expected, e.Got)
}

// Is makes errors.Is(err, ErrShapeMismatch) succeed.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

func dtypeError(op string, want, got DataType) error {
	return fmt.Errorf("%s: %w: %s vs %s", op, ErrDTypeMismatch, want, got)
}

func lengthError(op string, want, got int) error {
	return &ShapeError{Op: op, Expected: Shape{want}, Got: Shape{got}}
}

// checkBinary validates the operands of an element-wise operation.
func checkBinary(op string, a, b Raw) error {
	if a.DType() != b.DType() {
		return dtypeError(op, a.DType(), b.DType())
	}
	if a.Len() != b.Len() {
		return lengthError(op, a.Len(), b.Len())
	}
	return nil
}
