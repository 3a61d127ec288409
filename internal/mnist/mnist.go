// Package mnist reads the MNIST handwritten digit database in IDX format
// and turns it into training samples.
//
// Files may be raw or gzip-compressed. Expected names in a data directory:
//   - train-images-idx3-ubyte[.gz], train-labels-idx1-ubyte[.gz]
//   - t10k-images-idx3-ubyte[.gz], t10k-labels-idx1-ubyte[.gz]
package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/parallel"
	"github.com/born-ml/perceptron/internal/tensor"
)

// IDX magic numbers.
const (
	ImagesMagic = 2051
	LabelsMagic = 2049
)

// Classes is the number of digit classes.
const Classes = 10

// MaxPixels bounds the size of a single image read from an IDX header.
const MaxPixels = 1 << 20

// readChunk caps how many entries are allocated ahead of the data that
// backs them.
const readChunk = 1 << 12

var (
	ErrBadMagic   = errors.New("invalid IDX magic number")
	ErrBadHeader  = errors.New("invalid IDX dimensions")
	ErrIncoherent = errors.New("image and label counts differ")
)

// Dataset holds images as row-major grey levels (0-255) and their labels.
type Dataset struct {
	Rows, Cols int
	Images     [][]byte
	Labels     []byte
}

// Len returns the number of images.
func (d *Dataset) Len() int { return len(d.Images) }

// IsCoherent reports whether every image has a label in [0, Classes).
func (d *Dataset) IsCoherent() bool {
	if len(d.Images) != len(d.Labels) {
		return false
	}
	for _, l := range d.Labels {
		if l >= Classes {
			return false
		}
	}
	return true
}

// Samples converts the first limit images (all when limit <= 0) into
// samples with pixels scaled to [0, 1].
func (d *Dataset) Samples(dt tensor.DataType, limit int) ([]nn.Sample, error) {
	if !d.IsCoherent() {
		return nil, ErrIncoherent
	}
	n := d.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	samples := make([]nn.Sample, n)
	err := parallel.For(n, func(i int) error {
		values := make([]float64, len(d.Images[i]))
		for j, px := range d.Images[i] {
			values[j] = float64(px) / 255
		}
		s, err := nn.NewSample(dt, int(d.Labels[i]), values...)
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		samples[i] = s
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// Split returns the first n images and the rest.
func (d *Dataset) Split(n int) (*Dataset, *Dataset) {
	n = min(max(n, 0), d.Len())
	return &Dataset{Rows: d.Rows, Cols: d.Cols, Images: d.Images[:n], Labels: d.Labels[:n]},
		&Dataset{Rows: d.Rows, Cols: d.Cols, Images: d.Images[n:], Labels: d.Labels[n:]}
}

// Load reads the training (train=true) or test set from dir.
func Load(dir string, train bool) (*Dataset, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}
	return LoadFiles(
		filepath.Join(dir, prefix+"-images-idx3-ubyte"),
		filepath.Join(dir, prefix+"-labels-idx1-ubyte"),
	)
}

// LoadFiles reads an image file and a label file. A missing path is
// retried with a ".gz" suffix.
func LoadFiles(imagesPath, labelsPath string) (*Dataset, error) {
	var ds Dataset
	err := withFile(imagesPath, func(r io.Reader) error {
		var err error
		ds.Images, ds.Rows, ds.Cols, err = ReadImages(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	err = withFile(labelsPath, func(r io.Reader) error {
		var err error
		ds.Labels, err = ReadLabels(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(ds.Images) != len(ds.Labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrIncoherent, len(ds.Images), len(ds.Labels))
	}
	return &ds, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	//nolint:gosec // G304: dataset paths come from the user
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		path += ".gz"
		file, err = os.Open(path) //nolint:gosec // G304: see above
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if filepath.Ext(path) != ".gz" {
		return fn(file)
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gz.Close()
	return fn(gz)
}

// ReadImages reads an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
func ReadImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != ImagesMagic {
		return nil, 0, 0, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, header[0], ImagesMagic)
	}

	rows, cols = int(header[2]), int(header[3])
	if rows == 0 || cols == 0 || rows > MaxPixels/cols {
		return nil, 0, 0, fmt.Errorf("%w: %dx%d images", ErrBadHeader, rows, cols)
	}
	count := int(header[1])
	images = make([][]byte, 0, min(count, readChunk))
	for i := 0; i < count; i++ {
		img := make([]byte, rows*cols)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		images = append(images, img)
	}
	return images, rows, cols, nil
}

// ReadLabels reads an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != LabelsMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, header[0], LabelsMagic)
	}

	count := int64(header[1])
	labels, err := io.ReadAll(io.LimitReader(r, count))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if int64(len(labels)) != count {
		return nil, fmt.Errorf("failed to read labels: %w", io.ErrUnexpectedEOF)
	}
	return labels, nil
}
