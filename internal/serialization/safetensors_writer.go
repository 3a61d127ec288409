package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/perceptron/internal/tensor"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// ExportSafeTensors writes a state dictionary to a SafeTensors file so float
// networks can be consumed by other frameworks.
func ExportSafeTensors(path string, stateDict StateDict, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model export
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteSafeTensors(file, stateDict, metadata); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteSafeTensors writes tensors in SafeTensors format.
//
// Format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]
//
// Tensors are written in alphabetical order by name. SafeTensors has no
// decimal type, so decimal tensors fail with ErrUnsupportedDType.
func WriteSafeTensors(w io.Writer, stateDict StateDict, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	var currentOffset int64
	blobs := make([][]byte, 0, len(names))
	for _, name := range names {
		t := stateDict[name]
		dtype, err := dtypeToSafeTensors(t.Data.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		data, err := EncodeRaw(t.Data)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}

		shape := make([]int64, len(t.Shape))
		for i, dim := range t.Shape {
			shape[i] = int64(dim)
		}
		size := int64(len(data))
		header[name] = SafeTensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{currentOffset, currentOffset + size},
		}
		currentOffset += size
		blobs = append(blobs, data)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, data := range blobs {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", names[i], err)
		}
	}
	return nil
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Float64:
		return "F64", nil
	default:
		return "", fmt.Errorf("%w: %s has no SafeTensors equivalent", ErrUnsupportedDType, dt)
	}
}
