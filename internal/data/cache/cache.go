package cache

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/natefinch/atomic"

	"github.com/penwyp/go-biz-monitor/internal/core/constants"
	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	case MissReasonFingerprint:
		return "fingerprint"
	case MissReasonNoFingerprint:
		return "no-fingerprint"
	case MissReasonNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// CachedFile holds the parsed records of one source file together with the
// file attributes they were parsed from.
type CachedFile struct {
	FilePath           string                `json:"filePath"`
	Records            []model.TrackedRecord `json:"records"`
	LastModified       int64                 `json:"lastModified"`
	FileSize           int64                 `json:"fileSize"`
	Inode              uint64                `json:"inode"`
	ContentFingerprint string                `json:"contentFingerprint,omitempty"`
	CachedAt           int64                 `json:"cachedAt"`
}

type CacheResult struct {
	Data       *CachedFile
	Found      bool
	MissReason CacheMissReason
}

type BatchValidateResult struct {
	Valid      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(filePath string) CacheResult
	Set(filePath string, records []model.TrackedRecord) error
	Clear() error
	Preload() error
	BatchValidate(filePaths []string) map[string]BatchValidateResult
	GetCacheStats() (memoryCount, fileCount int)
}

// FileCache keeps parsed records in memory and mirrors them as JSON files in
// baseDir so that later runs can skip parsing unchanged files.
type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*CachedFile
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*CachedFile),
	}, nil
}

// cacheKey derives a collision-resistant file name from the source path,
// e.g. "/data/clients.json" -> "clients-1a2b3c4d".
func cacheKey(filePath string) string {
	base := filepath.Base(filePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-%08x", base, crc32.ChecksumIEEE([]byte(filePath)))
}

func (c *FileCache) cachePath(filePath string) string {
	return filepath.Join(c.baseDir, cacheKey(filePath)+".json")
}

func (c *FileCache) Get(filePath string) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if memData, exists := c.memoryCache[filePath]; exists {
		if ret := validateCachedData(memData); ret.cached {
			return CacheResult{Data: memData, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, filePath)
	}

	return c.getFromFile(filePath)
}

// getFromFile loads a cache file; callers hold the write lock.
func (c *FileCache) getFromFile(filePath string) CacheResult {
	data, err := c.readCacheFile(c.cachePath(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return CacheResult{MissReason: MissReasonNotFound}
		}
		return CacheResult{MissReason: MissReasonError}
	}

	if data.FilePath != filePath {
		return CacheResult{MissReason: MissReasonNotFound}
	}

	if ret := validateCachedData(data); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.memoryCache[filePath] = data
	return CacheResult{Data: data, Found: true, MissReason: MissReasonNone}
}

func (c *FileCache) readCacheFile(cachePath string) (*CachedFile, error) {
	raw, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, err
	}
	var data CachedFile
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type validateResult struct {
	cached bool
	reason CacheMissReason
}

func validateCachedData(data *CachedFile) validateResult {
	currentInfo, err := util.GetFileInfo(data.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache validation failed for %s: unable to get file info: %v", data.FilePath, err))
		return validateResult{cached: false, reason: MissReasonError}
	}

	if currentInfo.Inode != data.Inode {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			data.FilePath, data.Inode, currentInfo.Inode))
		return validateResult{cached: false, reason: MissReasonInode}
	}
	if currentInfo.Size != data.FileSize {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			data.FilePath, data.FileSize, currentInfo.Size))
		return validateResult{cached: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != data.LastModified {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			data.FilePath, data.LastModified, currentInfo.ModTime))
		return validateResult{cached: false, reason: MissReasonModTime}
	}

	// Exports untouched for two days are trusted on attributes alone
	if time.Since(currentInfo.ModifiedAt()) > constants.FingerprintSkipAge {
		return validateResult{cached: true, reason: MissReasonNone}
	}

	if data.ContentFingerprint == "" {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: no fingerprint in cached data", data.FilePath))
		return validateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.ContentFingerprint(data.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: unable to calculate fingerprint: %v", data.FilePath, err))
		return validateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	if fingerprint != data.ContentFingerprint {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			data.FilePath, data.ContentFingerprint, fingerprint))
		return validateResult{cached: false, reason: MissReasonFingerprint}
	}
	return validateResult{cached: true, reason: MissReasonNone}
}

// Set stores the records parsed from filePath, stamping the current file
// attributes. The cache file is replaced atomically.
func (c *FileCache) Set(filePath string, records []model.TrackedRecord) error {
	fileInfo, err := util.GetFileInfo(filePath)
	if err != nil {
		return err
	}

	data := &CachedFile{
		FilePath:     filePath,
		Records:      records,
		LastModified: fileInfo.ModTime,
		FileSize:     fileInfo.Size,
		Inode:        fileInfo.Inode,
		CachedAt:     time.Now().Unix(),
	}
	if fingerprint, err := util.ContentFingerprint(filePath); err == nil {
		data.ContentFingerprint = fingerprint
	}

	encoded, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache for %s: %w", filePath, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := atomic.WriteFile(c.cachePath(filePath), bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("failed to write cache for %s: %w", filePath, err)
	}
	c.memoryCache[filePath] = data
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*CachedFile)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

type preloadResult struct {
	cachePath string
	data      *CachedFile
	err       error
}

// Preload reads every cache file concurrently and keeps the ones that are
// still valid in memory.
func (c *FileCache) Preload() error {
	util.LogDebug("Start preloading cache files into memory...")

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}

	var cacheFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			cacheFiles = append(cacheFiles, filepath.Join(c.baseDir, entry.Name()))
		}
	}
	if len(cacheFiles) == 0 {
		util.LogDebug("Cache directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(cacheFiles) {
		numWorkers = len(cacheFiles)
	}

	filesChan := make(chan string, len(cacheFiles))
	resultsChan := make(chan preloadResult, len(cacheFiles))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cachePath := range filesChan {
				data, err := c.readCacheFile(cachePath)
				resultsChan <- preloadResult{cachePath: cachePath, data: data, err: err}
			}
		}()
	}

	for _, file := range cacheFiles {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, invalid, errs := 0, 0, 0

	c.mu.Lock()
	for result := range resultsChan {
		switch {
		case result.err != nil:
			errs++
			util.LogWarn(fmt.Sprintf("Failed to preload cache file %s: %v", result.cachePath, result.err))
		case validateCachedData(result.data).cached:
			c.memoryCache[result.data.FilePath] = result.data
			loaded++
		default:
			invalid++
		}
	}
	c.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Cache preload complete: %d loaded, %d invalid, %d errors (total %d)",
		loaded, invalid, errs, len(cacheFiles)))
	return nil
}

func (c *FileCache) BatchValidate(filePaths []string) map[string]BatchValidateResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]BatchValidateResult, len(filePaths))
	validCount := 0

	for _, filePath := range filePaths {
		if memData, exists := c.memoryCache[filePath]; exists {
			ret := validateCachedData(memData)
			if !ret.cached {
				delete(c.memoryCache, filePath)
			}
			result[filePath] = BatchValidateResult{Valid: ret.cached, MissReason: ret.reason}
		} else {
			cacheResult := c.getFromFile(filePath)
			result[filePath] = BatchValidateResult{Valid: cacheResult.Found, MissReason: cacheResult.MissReason}
		}
		if result[filePath].Valid {
			validCount++
		}
	}

	util.LogDebug(fmt.Sprintf("Batch validation complete: %d files, %d valid", len(filePaths), validCount))
	return result
}

// GetCacheStats returns the number of in-memory entries and cache files.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	memoryCount = len(c.memoryCache)
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return memoryCount, 0
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			fileCount++
		}
	}
	return memoryCount, fileCount
}
