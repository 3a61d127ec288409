package serialization

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 256               // Maximum tensor name length
	MaxMetadataSize  = 1024 * 1024       // 1MB - maximum total size of custom metadata
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict checks names, encodings, offsets and the recorded
	// topology (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and encodings only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// tensorName is the parameter naming grammar: dot-separated segments of
// letters, digits and underscores, the first starting with a letter or
// underscore ("layer.0.weight"). It rules out path separators, "..", NUL
// and whitespace.
var tensorName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// ValidateTensorName checks a tensor name against the parameter naming grammar.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if !tensorName.MatchString(name) {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "want dot-separated [A-Za-z0-9_] segments",
		}
	}
	return nil
}

// ValidateTensorOffsets checks that every tensor lies inside the data
// section and that no two tensors share bytes.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return tooManyTensors(len(tensors))
	}

	sorted := slices.Clone(tensors)
	slices.SortFunc(sorted, func(a, b TensorMeta) int { return cmp.Compare(a.Offset, b.Offset) })

	var prev *TensorMeta
	for i := range sorted {
		t := &sorted[i]
		switch {
		case t.Offset < 0 || t.Size < 0:
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		case t.Offset+t.Size > dataSize:
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		case prev != nil && prev.Offset+prev.Size > t.Offset:
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev.Name,
				Tensor2: t.Name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
					prev.Offset, prev.Offset+prev.Size, t.Offset, t.Offset+t.Size),
			}
		}
		prev = t
	}
	return nil
}

// ValidateTensorEncoding checks that a tensor's dtype is known and that a
// fixed-width tensor's byte size matches its shape.
func ValidateTensorEncoding(t TensorMeta) error {
	if _, ok := stringToDtype(t.DType); !ok {
		return &ValidationError{
			Type:    "unsupported_dtype",
			Tensor:  t.Name,
			Details: fmt.Sprintf("dtype %q", t.DType),
		}
	}
	elements := int64(1)
	for _, dim := range t.Shape {
		if dim < 0 {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v has a negative dimension", t.Shape),
			}
		}
		elements *= int64(dim)
	}
	if size := elementSize(t.DType); size > 0 && elements*int64(size) != t.Size {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  t.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", t.Shape, elements*int64(size), t.Size),
		}
	}
	return nil
}

// ValidateNetwork checks the recorded topology against the tensor table:
// layer i needs "layer.<i>.weight" shaped [outputs, inputs] and
// "layer.<i>.bias" shaped [outputs], both in the network's dtype. A header
// without topology passes.
func ValidateNetwork(h *Header) error {
	meta := h.Network
	if meta == nil {
		return nil
	}
	byName := make(map[string]TensorMeta, len(h.Tensors))
	for _, t := range h.Tensors {
		byName[t.Name] = t
	}

	for i, l := range meta.Layers {
		prefix := "layer." + strconv.Itoa(i) + "."
		want := map[string][]int{
			prefix + "weight": {l.Outputs, l.Inputs},
			prefix + "bias":   {l.Outputs},
		}
		for name, shape := range want {
			t, ok := byName[name]
			switch {
			case !ok:
				return networkMismatch(name, "missing")
			case t.DType != meta.DType:
				return networkMismatch(name, fmt.Sprintf("dtype %s, network is %s", t.DType, meta.DType))
			case !slices.Equal(t.Shape, shape):
				return networkMismatch(name, fmt.Sprintf("shape %v, topology needs %v", t.Shape, shape))
			}
		}
	}
	return nil
}

// ValidateHeader runs the checks selected by level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if len(h.Tensors) > MaxTensorCount {
		return tooManyTensors(len(h.Tensors))
	}

	metadata := 0
	for k, v := range h.Metadata {
		metadata += len(k) + len(v)
	}
	if metadata > MaxMetadataSize {
		return &ValidationError{
			Type:    "metadata_too_large",
			Details: fmt.Sprintf("%d bytes, max %d", metadata, MaxMetadataSize),
		}
	}

	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Type: "invalid_name", Tensor: t.Name, Details: "duplicate"}
		}
		seen[t.Name] = true
		if err := ValidateTensorEncoding(t); err != nil {
			return err
		}
	}

	if level != ValidationStrict {
		return nil
	}
	if err := ValidateTensorOffsets(h.Tensors, dataSize); err != nil {
		return err
	}
	return ValidateNetwork(h)
}

func tooManyTensors(n int) error {
	return &ValidationError{
		Type:    "too_many_tensors",
		Details: fmt.Sprintf("got %d, max %d", n, MaxTensorCount),
	}
}

func networkMismatch(name, details string) error {
	return &ValidationError{Type: "network_mismatch", Tensor: name, Details: details}
}
