package util

import (
	"time"

	"golang.org/x/sys/unix"
)

// FileInfo is the identity of a record file on disk. A rewritten export gets
// a new inode or size or mtime, which is enough to invalidate parsed records.
type FileInfo struct {
	ModTime int64  // Unix nanoseconds
	Size    int64  // bytes
	Inode   uint64
}

// GetFileInfo stats path, including its inode number (Linux and macOS).
func GetFileInfo(path string) (*FileInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}

	return &FileInfo{
		ModTime: st.Mtim.Nano(),
		Size:    st.Size,
		Inode:   uint64(st.Ino),
	}, nil
}

func (fi FileInfo) ModifiedAt() time.Time {
	return time.Unix(0, fi.ModTime)
}

// Diff names the first attribute that differs from previous: "inode",
// "size" or "mtime". It returns "" when the file looks unchanged.
func (fi FileInfo) Diff(previous FileInfo) string {
	switch {
	case fi.Inode != previous.Inode:
		return "inode"
	case fi.Size != previous.Size:
		return "size"
	case fi.ModTime != previous.ModTime:
		return "mtime"
	default:
		return ""
	}
}
