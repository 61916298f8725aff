package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

// recordExtensions are the file types the backend exports records as.
var recordExtensions = []string{".json", ".jsonl"}

// FileScanner scans files in the specified directory
type FileScanner struct {
	baseDir    string
	extensions []string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir:    baseDir,
		extensions: recordExtensions,
	}
}

// IsRecordFile reports whether path has a record file extension.
func IsRecordFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range recordExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Scan walks the base directory and returns every record file in lexical
// order. Unreadable entries are skipped.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			if path != s.baseDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}

		totalCount++
		if IsRecordFile(path) {
			files = append(files, path)
		}

		return nil
	})

	sort.Strings(files)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d record files",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}
