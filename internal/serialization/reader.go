package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/perceptron/internal/tensor"
)

// BornReader reads network snapshots from .born files.
type BornReader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64    // Offset where tensor data starts
	dataSize   int64    // Size of the data section
	checksum   Checksum // SHA-256 checksum of the data section
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures the behavior of BornReader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// preamble is everything in front of the data section.
type preamble struct {
	header     Header
	flags      uint32
	headerSize uint64
	dataSize   int64
	checksum   Checksum
}

// NewBornReader creates a new .born file reader with default options (strict validation).
func NewBornReader(path string) (*BornReader, error) {
	return NewBornReaderWithOptions(path, ReaderOptions{
		ValidationLevel: ValidationStrict,
	})
}

// NewBornReaderWithOptions creates a new .born file reader with custom options.
func NewBornReaderWithOptions(path string, opts ReaderOptions) (*BornReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader, err := newReader(file, opts)
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}
	return reader, nil
}

func newReader(file *os.File, opts ReaderOptions) (*BornReader, error) {
	p, err := readPreamble(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	r := &BornReader{
		file:       file,
		header:     p.header,
		flags:      p.flags,
		dataOffset: dataOffset(p.headerSize),
		dataSize:   p.dataSize,
		checksum:   p.checksum,
		opts:       opts,
	}
	if info.Size() < r.dataOffset+r.dataSize {
		return nil, fmt.Errorf("%w: data section needs %d bytes, file has %d",
			ErrTruncated, r.dataOffset+r.dataSize, info.Size())
	}

	if !opts.SkipChecksumValidation {
		computed, err := SumReader(io.NewSectionReader(file, r.dataOffset, r.dataSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor data for checksum: %w", err)
		}
		if err := computed.Verify(r.checksum); err != nil {
			return nil, err
		}
	}

	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return r, nil
}

// readPreamble parses the fixed header and the JSON header, leaving src
// positioned at the start of the alignment padding.
func readPreamble(src io.Reader) (preamble, error) {
	var p preamble

	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(src, fixed); err != nil {
		return p, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return p, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return p, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	p.flags = binary.LittleEndian.Uint32(fixed[8:12])
	p.headerSize = binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(p.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if p.headerSize > MaxHeaderSize {
		return p, ErrHeaderTooLarge
	}
	if dataSize > 1<<62 {
		return p, fmt.Errorf("%w: data size %d", ErrOutOfBounds, dataSize)
	}
	//nolint:gosec // G115: bounded above
	p.dataSize = int64(dataSize)

	headerBytes := make([]byte, p.headerSize)
	if _, err := io.ReadFull(src, headerBytes); err != nil {
		return p, fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &p.header); err != nil {
		return p, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return p, nil
}

// Checksum returns the checksum stored in the fixed header.
func (r *BornReader) Checksum() Checksum {
	return r.checksum
}

// Header returns the file header.
func (r *BornReader) Header() Header {
	return r.header
}

// Flags returns the flag word of the fixed header.
func (r *BornReader) Flags() uint32 {
	return r.flags
}

// Metadata returns the metadata map from the header.
func (r *BornReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns a list of all tensor names in the file.
func (r *BornReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *BornReader) TensorInfo(name string) (*TensorMeta, error) {
	for _, meta := range r.header.Tensors {
		if meta.Name == name {
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// ReadTensorData reads raw tensor data for a given tensor name.
func (r *BornReader) ReadTensorData(name string) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	data := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(data, r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	return data, nil
}

// LoadTensor loads a single tensor from the file.
func (r *BornReader) LoadTensor(name string) (Tensor, error) {
	meta, err := r.TensorInfo(name)
	if err != nil {
		return Tensor{}, err
	}
	data, err := r.ReadTensorData(name)
	if err != nil {
		return Tensor{}, err
	}
	return decodeTensor(*meta, data)
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *BornReader) ReadStateDict() (StateDict, error) {
	if r.closed {
		return nil, ErrClosed
	}

	stateDict := make(StateDict, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		t, err := r.LoadTensor(meta.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = t
	}
	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *BornReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// Read reads a snapshot from a stream. The whole data section is buffered so
// the checksum can be verified before any tensor is decoded.
func Read(src io.Reader, opts ReaderOptions) (StateDict, Header, error) {
	p, err := readPreamble(src)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header: %w", err)
	}

	pad := padding(int64(FixedHeaderSize) + int64(p.headerSize))
	if _, err := io.CopyN(io.Discard, src, pad); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read padding: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, src, p.dataSize); err != nil {
		return nil, Header{}, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	data := buf.Bytes()

	if !opts.SkipChecksumValidation {
		if err := SumData(data).Verify(p.checksum); err != nil {
			return nil, Header{}, err
		}
	}
	if err := ValidateHeader(&p.header, p.dataSize, opts.ValidationLevel); err != nil {
		return nil, Header{}, fmt.Errorf("validation failed: %w", err)
	}

	stateDict := make(StateDict, len(p.header.Tensors))
	for _, meta := range p.header.Tensors {
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > p.dataSize {
			return nil, Header{}, &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  meta.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", meta.Offset, meta.Size, p.dataSize),
			}
		}
		t, err := decodeTensor(meta, data[meta.Offset:meta.Offset+meta.Size])
		if err != nil {
			return nil, Header{}, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = t
	}
	return stateDict, p.header, nil
}

func decodeTensor(meta TensorMeta, data []byte) (Tensor, error) {
	shape := tensor.Shape(meta.Shape)
	for i, dim := range shape {
		if dim < 0 {
			return Tensor{}, fmt.Errorf("invalid shape for tensor %s: dimension %d is %d", meta.Name, i, dim)
		}
	}
	raw, err := DecodeRaw(meta.DType, shape.NumElements(), data)
	if err != nil {
		return Tensor{}, fmt.Errorf("tensor %s: %w", meta.Name, err)
	}
	return Tensor{Shape: shape.Clone(), Data: raw}, nil
}
