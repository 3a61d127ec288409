package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/perceptron/internal/tensor"
)

// TestSafeTensorsExportBasic exports a float32 state dict and parses it back.
func TestSafeTensorsExportBasic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	stateDict := testStateDict(t, tensor.Float32)

	metadata := map[string]string{"format": "pt", "framework": "perceptron"}
	if err := ExportSafeTensors(path, stateDict, metadata); err != nil {
		t.Fatalf("ExportSafeTensors failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	headerSize := binary.LittleEndian.Uint64(raw[:8])
	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw[8:8+headerSize], &header); err != nil {
		t.Fatalf("Header is not JSON: %v", err)
	}
	if _, ok := header["__metadata__"]; !ok {
		t.Error("Metadata missing from header")
	}

	var weight SafeTensorHeader
	if err := json.Unmarshal(header["layer.0.weight"], &weight); err != nil {
		t.Fatalf("Weight entry invalid: %v", err)
	}
	if weight.DType != "F32" || len(weight.Shape) != 2 || weight.Shape[0] != 3 || weight.Shape[1] != 2 {
		t.Errorf("Unexpected weight header: %+v", weight)
	}

	// layer.0.bias sorts first, so weight data follows 3 float32 values.
	data := raw[8+headerSize:]
	if weight.DataOffsets != [2]int64{12, 36} {
		t.Errorf("Unexpected weight offsets: %v", weight.DataOffsets)
	}
	first := math.Float32frombits(binary.LittleEndian.Uint32(data[12:16]))
	if first != float32(0.1) {
		t.Errorf("Expected first weight 0.1, got %v", first)
	}
}

// TestSafeTensorsRejectsDecimal checks that decimal networks cannot be exported.
func TestSafeTensorsRejectsDecimal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	err := ExportSafeTensors(path, testStateDict(t, tensor.Decimal), nil)
	if !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("Expected ErrUnsupportedDType, got: %v", err)
	}
}

// TestSafeTensorsReadBack reads an exported file through SafeTensorsReader.
func TestSafeTensorsReadBack(t *testing.T) {
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64} {
		t.Run(dt.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.safetensors")
			stateDict := testStateDict(t, dt)
			if err := ExportSafeTensors(path, stateDict, map[string]string{"dtype": dt.String()}); err != nil {
				t.Fatalf("ExportSafeTensors failed: %v", err)
			}

			reader, err := NewSafeTensorsReader(path)
			if err != nil {
				t.Fatalf("NewSafeTensorsReader failed: %v", err)
			}
			defer func() { _ = reader.Close() }()

			if got := reader.Metadata()["dtype"]; got != dt.String() {
				t.Errorf("Expected dtype metadata %q, got %q", dt.String(), got)
			}
			names := reader.TensorNames()
			if len(names) != 2 || names[0] != "layer.0.bias" || names[1] != "layer.0.weight" {
				t.Errorf("Unexpected tensor names: %v", names)
			}

			loaded, err := reader.ReadStateDict()
			if err != nil {
				t.Fatalf("ReadStateDict failed: %v", err)
			}
			for name, want := range stateDict {
				got, ok := loaded[name]
				if !ok {
					t.Fatalf("Tensor %s missing", name)
				}
				if !got.Shape.Equal(want.Shape) {
					t.Errorf("%s: shape %v, want %v", name, got.Shape, want.Shape)
				}
				if got.Data.DType() != dt {
					t.Errorf("%s: dtype %v, want %v", name, got.Data.DType(), dt)
				}
			}
		})
	}
}

// TestSafeTensorsReaderErrors covers missing tensors and foreign dtypes.
func TestSafeTensorsReaderErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	if err := ExportSafeTensors(path, testStateDict(t, tensor.Float64), nil); err != nil {
		t.Fatalf("ExportSafeTensors failed: %v", err)
	}
	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	if _, err := reader.LoadTensor("layer.9.weight"); !errors.Is(err, ErrTensorNotFound) {
		t.Errorf("Expected ErrTensorNotFound, got: %v", err)
	}
	_ = reader.Close()

	header := []byte(`{"w":{"dtype":"BF16","shape":[1],"data_offsets":[0,2]}}`)
	foreign := filepath.Join(dir, "bf16.safetensors")
	raw := make([]byte, 8, 8+len(header)+2)
	binary.LittleEndian.PutUint64(raw, uint64(len(header)))
	raw = append(raw, header...)
	raw = append(raw, 0, 0)
	if err := os.WriteFile(foreign, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	reader, err = NewSafeTensorsReader(foreign)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()
	if _, err := reader.ReadStateDict(); !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("Expected ErrUnsupportedDType, got: %v", err)
	}

	tooLarge := filepath.Join(dir, "large.safetensors")
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, MaxHeaderSize+1)
	if err := os.WriteFile(tooLarge, size, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSafeTensorsReader(tooLarge); !errors.Is(err, ErrHeaderTooLarge) {
		t.Errorf("Expected ErrHeaderTooLarge, got: %v", err)
	}
}
