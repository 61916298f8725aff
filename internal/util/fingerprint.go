package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// fingerprintWindow is how many bytes are hashed at each end of a file
const fingerprintWindow = 2048

// ContentFingerprint hashes the first and last 2KB of a record file.
// JSONL exports grow at the tail, but JSON array exports are rewritten
// whole and a status change can land anywhere, so both ends are covered.
// Files no larger than two windows are hashed completely.
func ContentFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}
	size := stat.Size()

	hash := crc32.NewIEEE()
	if size <= 2*fingerprintWindow {
		if _, err := io.Copy(hash, file); err != nil {
			return "", err
		}
		return fmt.Sprintf("%08x", hash.Sum32()), nil
	}

	head := make([]byte, fingerprintWindow)
	if _, err := file.ReadAt(head, 0); err != nil {
		return "", fmt.Errorf("read head of %s: %w", path, err)
	}
	tail := make([]byte, fingerprintWindow)
	if _, err := file.ReadAt(tail, size-fingerprintWindow); err != nil && err != io.EOF {
		return "", fmt.Errorf("read tail of %s: %w", path, err)
	}
	hash.Write(head)
	hash.Write(tail)
	return fmt.Sprintf("%08x", hash.Sum32()), nil
}
