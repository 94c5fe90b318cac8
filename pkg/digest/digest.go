package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// fileReadBlockSize bounds memory while hashing large files.
const fileReadBlockSize = 64 * 1024

// HashText returns the SHA-256 digest of the exact chunk text. Used for
// per-chunk change detection.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashFile returns the SHA-1 digest of the raw file bytes, read in fixed-size
// blocks. Used only for the whole-file skip decision, never for chunks.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha1.New()
	buffer := make([]byte, fileReadBlockSize)
	if _, err := io.CopyBuffer(hasher, file, buffer); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
