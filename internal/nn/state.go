package nn

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/perceptron/internal/activation"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// ModelType identifies network snapshots in the .born header.
const ModelType = "NeuronNetwork"

// StateDict returns copies of every layer's parameters, named
// "layer.<i>.weight" and "layer.<i>.bias".
func (n *Network) StateDict() serialization.StateDict {
	sd := make(serialization.StateDict, 2*len(n.layers))
	for i, l := range n.layers {
		for name, t := range l.StateDict() {
			sd[layerParam(i, name)] = t
		}
	}
	return sd
}

// LoadStateDict replaces the parameters of every layer. The topology must
// already match: each layer needs a weight and a bias of its own shape and
// representation. Extra entries are rejected. Nothing is replaced unless
// every layer loads.
func (n *Network) LoadStateDict(stateDict serialization.StateDict) error {
	for name := range stateDict {
		if _, _, ok := parseLayerParam(name, len(n.layers)); !ok {
			return fmt.Errorf("%w: unexpected tensor %q", ErrInvalidSnapshot, name)
		}
	}
	weights := make([]tensor.Matrix, len(n.layers))
	biases := make([]tensor.Vector, len(n.layers))
	for i, l := range n.layers {
		sub := serialization.StateDict{}
		for _, param := range []string{"weight", "bias"} {
			if t, ok := stateDict[layerParam(i, param)]; ok {
				sub[param] = t
			}
		}
		w, b, err := l.decodeState(sub)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		weights[i], biases[i] = w, b
	}
	for i, l := range n.layers {
		l.weights, l.bias = weights[i], biases[i]
	}
	return nil
}

// Snapshot returns the parameters and a header describing the topology, the
// loss and the last training report.
func (n *Network) Snapshot() (serialization.StateDict, serialization.Header, error) {
	meta, err := n.networkMeta()
	if err != nil {
		return nil, serialization.Header{}, err
	}

	header := serialization.Header{
		ModelType:  ModelType,
		SnapshotID: uuid.NewString(),
		Network:    meta,
		Metadata: map[string]string{
			"layers": strconv.Itoa(len(n.layers)),
		},
	}
	if n.report != nil {
		header.Training = &serialization.TrainingMeta{
			Epochs:       n.report.Epochs,
			Batches:      n.report.Batches,
			Samples:      n.report.Samples,
			BatchSize:    n.report.BatchSize,
			LearningRate: n.report.LearningRate,
			Loss:         n.report.Loss,
		}
	}
	return n.StateDict(), header, nil
}

func (n *Network) networkMeta() (*serialization.NetworkMeta, error) {
	meta := &serialization.NetworkMeta{
		InputDim: n.inputDim,
		DType:    n.dtype.String(),
		Loss:     n.delta.Name(),
		Layers:   make([]serialization.LayerMeta, len(n.layers)),
	}
	for i, l := range n.layers {
		spec, err := activation.Encode(l.activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		meta.Layers[i] = serialization.LayerMeta{
			Inputs:     l.inputs,
			Outputs:    l.outputs,
			Activation: spec,
		}
	}
	return meta, nil
}

// Save writes a .born snapshot to w.
func (n *Network) Save(w io.Writer) error {
	sd, header, err := n.Snapshot()
	if err != nil {
		return err
	}
	return serialization.Write(w, sd, header)
}

// SaveFile writes a .born snapshot to path.
func (n *Network) SaveFile(path string) (err error) {
	sd, header, err := n.Snapshot()
	if err != nil {
		return err
	}
	writer, err := serialization.NewBornWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return writer.WriteStateDict(sd, header)
}

// ExportSafeTensors writes the parameters in SafeTensors format. The
// topology is stored as JSON under the "network" metadata key so that
// ImportSafeTensors can rebuild the network. Decimal networks cannot be
// exported.
func (n *Network) ExportSafeTensors(path string) error {
	meta, err := n.networkMeta()
	if err != nil {
		return err
	}
	topology, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal topology: %w", err)
	}
	return serialization.ExportSafeTensors(path, n.StateDict(), map[string]string{
		"model_type": ModelType,
		"dtype":      n.dtype.String(),
		"network":    string(topology),
	})
}

// ImportSafeTensors reads a file written by ExportSafeTensors.
func ImportSafeTensors(path string, opts ...Option) (net *Network, err error) {
	reader, err := serialization.NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	metadata := reader.Metadata()
	topology, ok := metadata["network"]
	if !ok {
		return nil, fmt.Errorf("%w: no network topology", ErrInvalidSnapshot)
	}
	var meta serialization.NetworkMeta
	if err := json.Unmarshal([]byte(topology), &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	sd, err := reader.ReadStateDict()
	if err != nil {
		return nil, err
	}
	return FromSnapshot(sd, serialization.Header{
		ModelType: metadata["model_type"],
		Network:   &meta,
	}, opts...)
}

// Load reads a snapshot written by Save. opts are applied after the loss
// recorded in the snapshot, so WithOutputDelta overrides it.
func Load(r io.Reader, opts ...Option) (*Network, error) {
	sd, header, err := serialization.Read(r, serialization.ReaderOptions{
		ValidationLevel: serialization.ValidationStrict,
	})
	if err != nil {
		return nil, err
	}
	return FromSnapshot(sd, header, opts...)
}

// LoadFile reads a snapshot written by SaveFile.
func LoadFile(path string, opts ...Option) (net *Network, err error) {
	reader, err := serialization.NewBornReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	sd, err := reader.ReadStateDict()
	if err != nil {
		return nil, err
	}
	return FromSnapshot(sd, reader.Header(), opts...)
}

// FromSnapshot rebuilds a network from its parameters and header.
func FromSnapshot(stateDict serialization.StateDict, header serialization.Header, opts ...Option) (*Network, error) {
	if header.ModelType != ModelType {
		return nil, fmt.Errorf("%w: model type %q", ErrInvalidSnapshot, header.ModelType)
	}
	meta := header.Network
	if meta == nil {
		return nil, fmt.Errorf("%w: no network topology", ErrInvalidSnapshot)
	}
	if meta.InputDim <= 0 {
		return nil, fmt.Errorf("%w: input dimension %d", ErrInvalidSnapshot, meta.InputDim)
	}
	dt, err := tensor.ParseDataType(meta.DType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	delta, err := LossByName(meta.Loss)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	net := NewNetwork(meta.InputDim, dt, append([]Option{WithOutputDelta(delta)}, opts...)...)
	for i, lm := range meta.Layers {
		if lm.Inputs <= 0 || lm.Outputs <= 0 {
			return nil, fmt.Errorf("%w: layer %d is %dx%d", ErrInvalidSnapshot, i, lm.Outputs, lm.Inputs)
		}
		f, err := activation.Decode(lm.Activation)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrInvalidSnapshot, i, err)
		}
		net.layers = append(net.layers, newLayer(lm.Outputs, lm.Inputs, f, dt, net.rng, Zeros))
	}
	if err := net.LoadStateDict(stateDict); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if t := header.Training; t != nil {
		net.report = &TrainReport{
			Epochs:       t.Epochs,
			Batches:      t.Batches,
			Samples:      t.Samples,
			BatchSize:    t.BatchSize,
			LearningRate: t.LearningRate,
			Loss:         t.Loss,
		}
	}
	return net, nil
}

func layerParam(i int, name string) string {
	return "layer." + strconv.Itoa(i) + "." + name
}

// parseLayerParam splits "layer.<i>.<param>" and checks i against the
// number of layers.
func parseLayerParam(name string, layers int) (int, string, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[0] != "layer" {
		return 0, "", false
	}
	i, err := strconv.Atoi(parts[1])
	if err != nil || i < 0 || i >= layers {
		return 0, "", false
	}
	if parts[2] != "weight" && parts[2] != "bias" {
		return 0, "", false
	}
	return i, parts[2], true
}
