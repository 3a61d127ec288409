package serialization

import (
	"errors"
	"strings"
	"testing"

	"github.com/born-ml/perceptron/internal/activation"
)

func TestValidateTensorName(t *testing.T) {
	valid := []string{"layer.0.weight", "layer.12.bias", "w", "_private.x1", "encoder.block_3.W"}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
		}
	}

	invalid := []struct {
		name string
		want error
	}{
		{"../etc/passwd", ErrInvalidTensorName},
		{"layer..weight", ErrInvalidTensorName},
		{"layer/0/weight", ErrInvalidTensorName},
		{`layer\0`, ErrInvalidTensorName},
		{"layer.0.weight\x00", ErrInvalidTensorName},
		{"layer 0", ErrInvalidTensorName},
		{".hidden", ErrInvalidTensorName},
		{"0.weight", ErrInvalidTensorName},
		{"", ErrInvalidTensorName},
		{strings.Repeat("a", MaxTensorNameLen+1), ErrTensorNameTooLong},
	}
	for _, tt := range invalid {
		if err := ValidateTensorName(tt.name); !errors.Is(err, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		want     error
	}{
		{
			name: "adjacent",
			tensors: []TensorMeta{
				{Name: "b", Offset: 12, Size: 24},
				{Name: "a", Offset: 0, Size: 12},
			},
			dataSize: 36,
		},
		{
			name: "gap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 8},
				{Name: "b", Offset: 16, Size: 8},
			},
			dataSize: 32,
		},
		{
			name: "overlap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 16},
				{Name: "b", Offset: 8, Size: 16},
			},
			dataSize: 32,
			want:     ErrOffsetOverlap,
		},
		{
			name:     "out of bounds",
			tensors:  []TensorMeta{{Name: "a", Offset: 8, Size: 16}},
			dataSize: 20,
			want:     ErrOutOfBounds,
		},
		{
			name:     "negative size",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: -1}},
			dataSize: 20,
			want:     ErrNegativeOffset,
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -4, Size: 4}},
			dataSize: 20,
			want:     ErrNegativeOffset,
		},
		{
			name:     "too many",
			tensors:  make([]TensorMeta, MaxTensorCount+1),
			dataSize: 0,
			want:     ErrTooManyTensors,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateTensorEncoding(t *testing.T) {
	ok := []TensorMeta{
		{Name: "w", DType: DTypeFloat32, Shape: []int{3, 2}, Size: 24},
		{Name: "w", DType: DTypeFloat64, Shape: []int{3}, Size: 24},
		{Name: "w", DType: DTypeDecimal, Shape: []int{3}, Size: 17},
	}
	for _, m := range ok {
		if err := ValidateTensorEncoding(m); err != nil {
			t.Errorf("%s: unexpected error %v", m, err)
		}
	}

	var vErr *ValidationError
	err := ValidateTensorEncoding(TensorMeta{Name: "w", DType: "int8", Shape: []int{1}, Size: 1})
	if !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("expected ErrUnsupportedDType, got %v", err)
	}
	err = ValidateTensorEncoding(TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{3}, Size: 16})
	if !errors.As(err, &vErr) || vErr.Type != "size_mismatch" {
		t.Errorf("expected size_mismatch, got %v", err)
	}
	err = ValidateTensorEncoding(TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{-1}, Size: 0})
	if !errors.As(err, &vErr) || vErr.Type != "invalid_shape" {
		t.Errorf("expected invalid_shape, got %v", err)
	}
}

// networkHeader describes a 2 -> 3 layer with consistent tensors.
func networkHeader() Header {
	return Header{
		Network: &NetworkMeta{
			InputDim: 2,
			DType:    DTypeFloat32,
			Loss:     "cross_entropy",
			Layers:   []LayerMeta{{Inputs: 2, Outputs: 3, Activation: activation.Spec{Name: "tanh"}}},
		},
		Tensors: []TensorMeta{
			{Name: "layer.0.bias", DType: DTypeFloat32, Shape: []int{3}, Offset: 0, Size: 12},
			{Name: "layer.0.weight", DType: DTypeFloat32, Shape: []int{3, 2}, Offset: 12, Size: 24},
		},
	}
}

func TestValidateNetwork(t *testing.T) {
	h := networkHeader()
	if err := ValidateNetwork(&h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateNetwork(&Header{}); err != nil {
		t.Errorf("header without topology: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(h *Header)
	}{
		{"missing bias", func(h *Header) { h.Tensors = h.Tensors[1:] }},
		{"transposed weight", func(h *Header) { h.Tensors[1].Shape = []int{2, 3} }},
		{"wrong dtype", func(h *Header) { h.Tensors[0].DType = DTypeFloat64 }},
		{"extra layer", func(h *Header) {
			h.Network.Layers = append(h.Network.Layers, LayerMeta{Inputs: 3, Outputs: 1})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := networkHeader()
			tt.mutate(&h)
			if err := ValidateNetwork(&h); !errors.Is(err, ErrNetworkMismatch) {
				t.Errorf("expected ErrNetworkMismatch, got %v", err)
			}
		})
	}
}

func TestValidateHeaderLevels(t *testing.T) {
	// Consistent names and encodings, but the tensors overlap and the
	// topology expects a bigger layer: only strict validation notices.
	h := networkHeader()
	h.Tensors[1].Offset = 4
	h.Network.Layers[0].Outputs = 4

	if err := ValidateHeader(&h, 36, ValidationNone); err != nil {
		t.Errorf("none: %v", err)
	}
	if err := ValidateHeader(&h, 36, ValidationNormal); err != nil {
		t.Errorf("normal: %v", err)
	}
	if err := ValidateHeader(&h, 36, ValidationStrict); !errors.Is(err, ErrOffsetOverlap) {
		t.Errorf("strict: expected ErrOffsetOverlap, got %v", err)
	}
	h.Tensors[1].Offset = 12
	if err := ValidateHeader(&h, 36, ValidationStrict); !errors.Is(err, ErrNetworkMismatch) {
		t.Errorf("strict: expected ErrNetworkMismatch, got %v", err)
	}

	dup := networkHeader()
	dup.Tensors[1].Name = "layer.0.bias"
	dup.Tensors[1].Shape = []int{3}
	dup.Tensors[1].Size = 12
	if err := ValidateHeader(&dup, 36, ValidationNormal); !errors.Is(err, ErrInvalidTensorName) {
		t.Errorf("duplicate: expected ErrInvalidTensorName, got %v", err)
	}

	big := networkHeader()
	big.Metadata = map[string]string{"notes": strings.Repeat("x", MaxMetadataSize)}
	if err := ValidateHeader(&big, 36, ValidationNormal); !errors.Is(err, ErrMetadataTooLarge) {
		t.Errorf("metadata: expected ErrMetadataTooLarge, got %v", err)
	}
}

func TestValidationErrorMessages(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{&ValidationError{Type: "too_many_tensors", Details: "got 3, max 2"}, "too_many_tensors: got 3, max 2"},
		{&ValidationError{Type: "invalid_name", Tensor: "a/b", Details: "bad"}, `invalid_name: tensor "a/b": bad`},
		{
			&ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "x"},
			`offset_overlap: tensors "a" and "b": x`,
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
