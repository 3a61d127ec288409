package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/perceptron/internal/tensor"
)

// EncodeRaw serializes a storage. Floats are little-endian IEEE 754;
// decimals are their canonical text joined by newlines, which keeps every
// digit.
func EncodeRaw(r tensor.Raw) ([]byte, error) {
	n := r.Len()
	switch r.DType() {
	case tensor.Float32:
		buf := make([]byte, 4*n)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(r.At(i).Float64())))
		}
		return buf, nil
	case tensor.Float64:
		buf := make([]byte, 8*n)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(r.At(i).Float64()))
		}
		return buf, nil
	case tensor.Decimal:
		return []byte(strings.Join(tensor.Strings(r), "\n")), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, r.DType())
	}
}

// DecodeRaw parses n elements of the given dtype from data.
func DecodeRaw(dtype string, n int, data []byte) (tensor.Raw, error) {
	dt, ok := stringToDtype(dtype)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
	if size := elementSize(dtype); size > 0 && len(data) != size*n {
		return nil, fmt.Errorf("%s data: expected %d bytes, got %d", dtype, size*n, len(data))
	}

	switch dt {
	case tensor.Float32:
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])))
		}
		return tensor.RawFromFloat64s(dt, values)
	case tensor.Float64:
		values := make([]float64, n)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return tensor.RawFromFloat64s(dt, values)
	default:
		var parts []string
		if len(data) > 0 {
			parts = strings.Split(string(data), "\n")
		}
		if len(parts) != n {
			return nil, fmt.Errorf("decimal data: expected %d elements, got %d", n, len(parts))
		}
		if bytes.ContainsAny(data, "\x00\r") {
			return nil, fmt.Errorf("decimal data: unexpected control byte")
		}
		return tensor.RawFromStrings(dt, parts)
	}
}
