// Package serialization provides the .born snapshot format for perceptron
// networks.
//
//	Format Structure (v2):
//	  [64 bytes: fixed header: magic "BORN", version, flags, header size,
//	             data size, SHA-256 checksum of the data section]
//	  [Header: JSON metadata, network topology, tensor table]
//	  [Padding to a 64-byte boundary]
//	  [Tensor data]
//
// Tensor encodings:
//   - float32, float64: little-endian IEEE 754
//   - decimal: canonical decimal text, one element per line, so every digit
//     survives a round trip
//
// Example usage:
//
//	w, err := serialization.NewBornWriter("model.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//	err = w.WriteStateDict(stateDict, serialization.Header{ModelType: "NeuronNetwork"})
//
//	r, err := serialization.NewBornReader("model.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	stateDict, err := r.ReadStateDict()
//
// Float networks can also be exported to SafeTensors with ExportSafeTensors.
package serialization
