// Package tensor provides the numeric substrate of the perceptron engine.
//
// Every array and matrix is tagged with one of three interchangeable numeric
// representations (float32, float64, arbitrary-precision decimal). A network
// picks one representation at construction and every allocation it makes
// carries that tag; operations between storages of different representations
// fail instead of converting implicitly.
package tensor

import "fmt"

// DataType selects the numeric representation backing a storage.
type DataType int

// Supported numeric representations.
const (
	Float32 DataType = iota
	Float64
	Decimal
)

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Decimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// Valid reports whether dt names a supported representation.
func (dt DataType) Valid() bool {
	return dt == Float32 || dt == Float64 || dt == Decimal
}

// ParseDataType converts a name produced by String back to a DataType.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "decimal":
		return Decimal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDataType, s)
	}
}

// MarshalText implements encoding.TextMarshaler so configs can name the representation.
func (dt DataType) MarshalText() ([]byte, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, int(dt))
	}
	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
