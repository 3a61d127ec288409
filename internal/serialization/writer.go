package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Version is the library version recorded in every header.
const Version = "0.3.0"

// BornWriter writes network snapshots in .born format.
type BornWriter struct {
	file   *os.File
	closed bool
}

// NewBornWriter creates a new .born file writer.
func NewBornWriter(path string) (*BornWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &BornWriter{
		file:   file,
		closed: false,
	}, nil
}

// WriteStateDict writes a state dictionary with the given header to the file.
func (w *BornWriter) WriteStateDict(stateDict StateDict, header Header) error {
	if w.closed {
		return ErrClosed
	}
	bw := bufio.NewWriter(w.file)
	if err := Write(bw, stateDict, header); err != nil {
		return err
	}
	return bw.Flush()
}

// Close closes the writer and the underlying file.
func (w *BornWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Write writes a state dictionary to w.
//
// Layout:
//
//	0x00-0x03: Magic bytes "BORN"
//	0x04-0x07: Version (uint32 LE)
//	0x08-0x0B: Flags (uint32 LE)
//	0x0C-0x0F: Reserved (0)
//	0x10-0x17: Header size (uint64 LE)
//	0x18-0x1F: Data size (uint64 LE)
//	0x20-0x3F: SHA-256 checksum of the data section
//	0x40-    : JSON header, zero padding to 64 bytes, tensor data
//
// Tensors are written in name order. FormatVersion, Version and Tensors are
// filled in by Write; CreatedAt is set when zero.
func Write(w io.Writer, stateDict StateDict, header Header) error {
	header.FormatVersion = FormatVersion
	header.Version = Version
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	// Encode tensors and compute offsets
	var data []byte
	header.Tensors = make([]TensorMeta, 0, len(stateDict))
	for _, name := range names {
		t := stateDict[name]
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if t.Shape.NumElements() != t.Data.Len() {
			return fmt.Errorf("tensor %s: shape %v does not hold %d elements", name, t.Shape, t.Data.Len())
		}
		encoded, err := EncodeRaw(t.Data)
		if err != nil {
			return fmt.Errorf("failed to encode tensor %s: %w", name, err)
		}
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(t.Data.DType()),
			Shape:  []int(t.Shape.Clone()),
			Offset: int64(len(data)),
			Size:   int64(len(encoded)),
		})
		data = append(data, encoded...)
	}

	checksum := SumData(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(header))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(int64(FixedHeaderSize) + int64(len(headerJSON))); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

func headerFlags(h Header) uint32 {
	flags := uint32(0)
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.Network != nil {
		flags |= FlagHasNetwork
	}
	if h.Training != nil {
		flags |= FlagHasTraining
	}
	return flags
}
