package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// ManifestLen is the number of hex chars recorded per output in the
// manifest (64 bits).
const ManifestLen = 16

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to hexLen (0 keeps all 16 chars).
func ContentHash(data []byte, hexLen int) string {
	return format(xxhash.Sum64(data), hexLen)
}

// StringHash is ContentHash for string payloads, without copying.
func StringHash(s string, hexLen int) string {
	return format(xxhash.Sum64String(s), hexLen)
}

// ContentHashReader computes xxHash64 from a reader, streaming.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return format(h.Sum64(), hexLen), nil
}

// FileHash hashes the file at path.
func FileHash(path string, hexLen int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sum, err := ContentHashReader(f, hexLen)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}

func format(v uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}

// Writer accumulates an xxHash64 over everything written to it.
type Writer struct {
	d *xxhash.Digest
}

// NewWriter returns an empty hashing writer.
func NewWriter() *Writer {
	return &Writer{d: xxhash.New()}
}

func (w *Writer) Write(p []byte) (int, error) { return w.d.Write(p) }

// Sum returns the hex digest of the data written so far.
func (w *Writer) Sum(hexLen int) string {
	return format(w.d.Sum64(), hexLen)
}
