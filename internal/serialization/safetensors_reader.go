package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

const metadataKey = "__metadata__"

// SafeTensorsHeader is the JSON header in SafeTensors format.
type SafeTensorsHeader struct {
	Metadata map[string]string
	Tensors  map[string]SafeTensorHeader
}

// UnmarshalJSON splits the "__metadata__" entry from the tensor entries.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if raw, ok := entries[metadataKey]; ok {
		if err := json.Unmarshal(raw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		delete(entries, metadataKey)
	}
	h.Tensors = make(map[string]SafeTensorHeader, len(entries))
	for name, raw := range entries {
		var info SafeTensorHeader
		if err := json.Unmarshal(raw, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", name, err)
		}
		h.Tensors[name] = info
	}
	return nil
}

// SafeTensorsReader reads SafeTensors format files.
type SafeTensorsReader struct {
	file       *os.File
	header     SafeTensorsHeader
	dataOffset int64 // Offset where tensor data starts
}

// NewSafeTensorsReader creates a new SafeTensors reader.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	header, headerSize, err := readSafeTensorsHeader(file)
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}

	return &SafeTensorsReader{
		file:       file,
		header:     header,
		dataOffset: int64(8 + headerSize), //nolint:gosec // G115: bounded by MaxHeaderSize
	}, nil
}

func readSafeTensorsHeader(src io.Reader) (SafeTensorsHeader, uint64, error) {
	// Read header size (8 bytes, little-endian uint64)
	var headerSize uint64
	if err := binary.Read(src, binary.LittleEndian, &headerSize); err != nil {
		return SafeTensorsHeader{}, 0, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return SafeTensorsHeader{}, 0, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(src, headerBytes); err != nil {
		return SafeTensorsHeader{}, 0, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return SafeTensorsHeader{}, 0, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return header, headerSize, nil
}

// Close closes the SafeTensors file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the metadata map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the names of all tensors, sorted.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorHeader, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return &info, nil
}

// ReadTensorData reads raw tensor data for a given tensor name.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	size := info.DataOffsets[1] - info.DataOffsets[0]
	if info.DataOffsets[0] < 0 || size < 0 {
		return nil, fmt.Errorf("invalid data offsets for tensor %s: [%d, %d]",
			name, info.DataOffsets[0], info.DataOffsets[1])
	}

	data := make([]byte, size)
	if _, err := r.file.ReadAt(data, r.dataOffset+info.DataOffsets[0]); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	return data, nil
}

// LoadTensor decodes one tensor. Only F32 and F64 tensors are supported.
func (r *SafeTensorsReader) LoadTensor(name string) (Tensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return Tensor{}, err
	}
	dtype, err := safeTensorsToDtype(info.DType)
	if err != nil {
		return Tensor{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	data, err := r.ReadTensorData(name)
	if err != nil {
		return Tensor{}, err
	}
	shape := make([]int, len(info.Shape))
	for i, dim := range info.Shape {
		shape[i] = int(dim)
	}
	return decodeTensor(TensorMeta{Name: name, DType: dtype, Shape: shape}, data)
}

// ReadStateDict loads every tensor.
func (r *SafeTensorsReader) ReadStateDict() (StateDict, error) {
	sd := make(StateDict, len(r.header.Tensors))
	for _, name := range r.TensorNames() {
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		t, err := r.LoadTensor(name)
		if err != nil {
			return nil, err
		}
		sd[name] = t
	}
	return sd, nil
}

// safeTensorsToDtype converts a SafeTensors dtype to a .born dtype name.
func safeTensorsToDtype(dtype string) (string, error) {
	switch dtype {
	case "F32":
		return DTypeFloat32, nil
	case "F64":
		return DTypeFloat64, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
}
