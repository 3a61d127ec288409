package serialization

import (
	"fmt"
	"time"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2    // v2: fixed 64-byte header with SHA-256 checksum
	HeaderAlignment = 64   // Align tensor data to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeDecimal = "decimal"
)

// Flags for the .born format.
const (
	FlagHasTraining uint32 = 1 << 1 // bit 1: training report included
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHasNetwork  uint32 = 1 << 3 // bit 3: network topology included
)

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`        // Version of the .born format
	Version       string            `json:"perceptron_version"`    // Version of the library that wrote the file
	ModelType     string            `json:"model_type"`            // Type of model (e.g., "NeuronNetwork")
	SnapshotID    string            `json:"snapshot_id,omitempty"` // Unique id of this snapshot
	CreatedAt     time.Time         `json:"created_at"`            // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`               // Tensor metadata
	Metadata      map[string]string `json:"metadata"`              // Custom metadata
	Network       *NetworkMeta      `json:"network,omitempty"`     // Layer topology (optional)
	Training      *TrainingMeta     `json:"training,omitempty"`    // Last training report (optional)
}

// NetworkMeta describes the topology needed to rebuild a network before its
// weights are loaded.
type NetworkMeta struct {
	InputDim int         `json:"input_dim"` // Declared input dimension
	DType    string      `json:"dtype"`     // Numeric representation of every tensor
	Loss     string      `json:"loss"`      // Output delta used for training
	Layers   []LayerMeta `json:"layers"`    // Layers in forward order
}

// LayerMeta describes one layer. Its weights are stored as the tensors
// "layer.<i>.weight" and "layer.<i>.bias".
type LayerMeta struct {
	Inputs     int             `json:"inputs"`
	Outputs    int             `json:"outputs"`
	Activation activation.Spec `json:"activation"`
}

// TrainingMeta records the report of the last training run.
type TrainingMeta struct {
	Epochs       int     `json:"epochs"`
	Batches      int     `json:"batches"`
	Samples      int     `json:"samples"`
	BatchSize    int     `json:"batch_size"`
	LearningRate float64 `json:"learning_rate"`
	Loss         float64 `json:"loss"` // Mean loss of the final epoch
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "layer.0.weight")
	DType  string `json:"dtype"`  // Data type ("float32", "float64", "decimal")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// Tensor is one entry of a state dictionary.
type Tensor struct {
	Shape tensor.Shape
	Data  tensor.Raw
}

// StateDict maps parameter names to tensors.
type StateDict map[string]Tensor

// dtypeToString converts tensor.DataType to string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Decimal:
		return DTypeDecimal
	default:
		return "unknown"
	}
}

// stringToDtype converts string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeDecimal:
		return tensor.Decimal, true
	default:
		return 0, false
	}
}

// elementSize returns the encoded size of one element, or 0 for the
// variable-width decimal encoding.
func elementSize(dtype string) int {
	switch dtype {
	case DTypeFloat32:
		return 4
	case DTypeFloat64:
		return 8
	default:
		return 0
	}
}

// dataOffset returns where tensor data starts for a JSON header of the given size.
func dataOffset(headerSize uint64) int64 {
	//nolint:gosec // G115: header size is bounded by MaxHeaderSize
	pos := int64(FixedHeaderSize) + int64(headerSize)
	return pos + padding(pos)
}

func padding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}

func (m TensorMeta) String() string {
	return fmt.Sprintf("%s %s%v", m.Name, m.DType, m.Shape)
}
