// Package main provides the perceptron CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/parallel"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

const version = "v0.3.0"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "perceptron:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "perceptron %s (format v%d)\n", version, serialization.FormatVersion)
		return nil
	case "inspect":
		return inspect(args[1:], stdout, stderr)
	case "train":
		return train(ctx, args[1:], stdout, stderr)
	case "predict":
		return predict(args[1:], stdout, stderr)
	case "export":
		return export(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return errUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "perceptron %s - multi-layer perceptron trainer\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version                          Show version")
	fmt.Fprintln(w, "  inspect <file.born>              Print a snapshot header")
	fmt.Fprintln(w, "  train -config <yaml> [-out f]    Train on synthetic clusters or MNIST (-mnist dir)")
	fmt.Fprintln(w, "  predict -model <f> x1 x2 ...     Classify one input")
	fmt.Fprintln(w, "  export -model <f> -out <f>       Write SafeTensors")
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

func inspect(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", stderr)
	skip := fs.Bool("skip-checksum", false, "do not verify the data checksum")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: perceptron inspect <file.born>")
		return errUsage
	}

	reader, err := serialization.NewBornReaderWithOptions(fs.Arg(0), serialization.ReaderOptions{
		SkipChecksumValidation: *skip,
		ValidationLevel:        serialization.ValidationStrict,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	h := reader.Header()
	fmt.Fprintf(stdout, "format:      v%d (written by %s)\n", h.FormatVersion, h.Version)
	fmt.Fprintf(stdout, "model:       %s\n", h.ModelType)
	fmt.Fprintf(stdout, "snapshot:    %s\n", h.SnapshotID)
	fmt.Fprintf(stdout, "created:     %s\n", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(stdout, "checksum:    sha256:%s\n", reader.Checksum().Short())
	if n := h.Network; n != nil {
		fmt.Fprintf(stdout, "network:     input %d, %s, loss %s\n", n.InputDim, n.DType, n.Loss)
		for i, l := range n.Layers {
			fmt.Fprintf(stdout, "  (%d) %d -> %d  %s\n", i, l.Inputs, l.Outputs, specString(l.Activation.Name, l.Activation.Params))
		}
	}
	if tr := h.Training; tr != nil {
		fmt.Fprintf(stdout, "training:    %d epochs, %d batches of %d, lr %g, loss %.6f\n",
			tr.Epochs, tr.Batches, tr.BatchSize, tr.LearningRate, tr.Loss)
	}
	fmt.Fprintln(stdout, "tensors:")
	for _, name := range reader.TensorNames() {
		meta, err := reader.TensorInfo(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "  %s\n", meta)
	}
	return nil
}

func specString(name string, params []float64) string {
	if len(params) == 0 {
		return name
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func train(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("train", stderr)
	configPath := fs.String("config", "", "network and training YAML")
	out := fs.String("out", "", "write the trained network to this .born file")
	samples := fs.Int("samples", 1000, "training samples to generate")
	holdout := fs.Int("holdout", 200, "held-out samples for accuracy")
	spread := fs.Float64("spread", 0.35, "cluster standard deviation")
	dataSeed := fs.Int64("data-seed", 1, "dataset seed")
	mnistDir := fs.String("mnist", "", "train on the MNIST IDX files in this directory instead of synthetic clusters")
	verbose := fs.Bool("v", false, "log every epoch")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *configPath == "" {
		fmt.Fprintln(stderr, "train: -config is required")
		return errUsage
	}

	cfg, err := nn.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	net, err := cfg.Network.Build()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	cfg.Training.Logger = logger

	var trainSet, testSet []nn.Sample
	if *mnistDir != "" {
		trainSet, testSet, err = mnistSamples(*mnistDir, net.DType(), *samples, *holdout)
	} else {
		ds := newClusters(net.InputDim(), net.OutputDim(), *spread, *dataSeed)
		if trainSet, err = ds.samples(net.DType(), *samples); err == nil {
			testSet, err = ds.samples(net.DType(), *holdout)
		}
	}
	if err != nil {
		return err
	}

	logger.Info("training", "network", net.String(), "samples", len(trainSet))
	report, err := net.Train(ctx, trainSet, cfg.Training)
	if err != nil {
		return err
	}
	acc, err := net.Accuracy(ctx, testSet, parallel.New(parallel.DefaultConfig()))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "epochs %d, batches %d, loss %.6f, held-out accuracy %.2f%%, %s\n",
		report.Epochs, report.Batches, report.Loss, 100*acc, report.Duration.Round(1e6))

	if *out != "" {
		if err := net.SaveFile(*out); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "saved %s\n", *out)
	}
	return nil
}

func predict(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("predict", stderr)
	model := fs.String("model", "", ".born snapshot or .safetensors export")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *model == "" || fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: perceptron predict -model <file> x1 x2 ...")
		return errUsage
	}

	net, err := openModel(*model)
	if err != nil {
		return err
	}
	x, err := tensor.ParseVector(net.DType(), fs.Args()...)
	if err != nil {
		return err
	}
	out, err := net.FeedForward(x)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "class %d  output %s\n", out.TopIndex(), out)
	return nil
}

func openModel(path string) (*nn.Network, error) {
	if strings.HasSuffix(path, ".safetensors") {
		return nn.ImportSafeTensors(path)
	}
	return nn.LoadFile(path)
}

func export(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	model := fs.String("model", "", ".born snapshot")
	out := fs.String("out", "", "SafeTensors output file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *model == "" || *out == "" {
		fmt.Fprintln(stderr, "usage: perceptron export -model <file.born> -out <file.safetensors>")
		return errUsage
	}

	net, err := nn.LoadFile(*model)
	if err != nil {
		return err
	}
	if err := net.ExportSafeTensors(*out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported %s\n", *out)
	return nil
}
