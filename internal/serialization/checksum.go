package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Checksum is the SHA-256 digest of a snapshot's data section.
type Checksum [ChecksumSize]byte

// SumData returns the checksum of an in-memory data section.
func SumData(data []byte) Checksum {
	return sha256.Sum256(data)
}

// SumReader returns the checksum of everything r yields. Readers use it with
// an io.SectionReader so the data section is never held in memory.
func SumReader(r io.Reader) (Checksum, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Checksum{}, err
	}
	var sum Checksum
	h.Sum(sum[:0])
	return sum, nil
}

// Verify returns ErrChecksumMismatch when c differs from the stored checksum.
func (c Checksum) Verify(stored Checksum) error {
	if c != stored {
		return fmt.Errorf("%w: stored %s, data %s", ErrChecksumMismatch, stored.Short(), c.Short())
	}
	return nil
}

// String returns the full hex digest.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// Short returns the first 12 hex digits.
func (c Checksum) Short() string {
	return c.String()[:12]
}
