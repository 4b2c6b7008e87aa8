// Package contentid derives a stable 64-bit key from a file's bytes.
// Same content always yields the same key, regardless of path or name.
package contentid

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read buffer size used while hashing.
const ChunkSize = 64 * 1024

// FromFile returns the content key of the file at path.
func FromFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	key, err := FromReader(f)
	if err != nil {
		return 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return key, nil
}

// FromReader streams r through SHA-1 in ChunkSize reads and returns the first
// 8 bytes of the digest as a big-endian uint64.
func FromReader(r io.Reader) (uint64, error) {
	h := sha1.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return 0, err
	}
	return FromDigest(h.Sum(nil)), nil
}

// FromBytes is FromReader for an in-memory payload.
func FromBytes(b []byte) uint64 {
	sum := sha1.Sum(b)
	return FromDigest(sum[:])
}

// FromDigest truncates a digest of at least 8 bytes to its key.
func FromDigest(digest []byte) uint64 {
	return binary.BigEndian.Uint64(digest[:8])
}
