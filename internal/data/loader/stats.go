package loader

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-biz-monitor/internal/data/cache"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// describeMissReason renders a cache miss reason for log output.
func describeMissReason(r cache.CacheMissReason) string {
	switch r {
	case cache.MissReasonNone:
		return "none"
	case cache.MissReasonError:
		return "Cache read error"
	case cache.MissReasonInode:
		return "File inode changed"
	case cache.MissReasonSize:
		return "File size changed"
	case cache.MissReasonModTime:
		return "Modification time changed"
	case cache.MissReasonFingerprint:
		return "File fingerprint changed"
	case cache.MissReasonNoFingerprint:
		return "Cached file has no fingerprint"
	case cache.MissReasonNotFound:
		return "Cache not found"
	default:
		return "Unknown reason"
	}
}

// LoadStats counts cache hits, misses and parse failures of one load.
type LoadStats struct {
	totalFiles  int64
	cacheHits   int64
	cacheMisses int64
	failures    int64
	mu          sync.Mutex
	missDetails []MissDetail
}

type MissDetail struct {
	FilePath string
	Reason   cache.CacheMissReason
}

// StatsSummary is a point-in-time copy of LoadStats.
type StatsSummary struct {
	TotalFiles int64   `json:"totalFiles"`
	CacheHits  int64   `json:"cacheHits"`
	CacheMiss  int64   `json:"cacheMisses"`
	Failures   int64   `json:"failures"`
	HitRate    float64 `json:"hitRate"`
}

func NewLoadStats() *LoadStats {
	return &LoadStats{
		missDetails: make([]MissDetail, 0),
	}
}

func (s *LoadStats) IncrementTotal() {
	atomic.AddInt64(&s.totalFiles, 1)
}

func (s *LoadStats) IncrementHit() {
	atomic.AddInt64(&s.cacheHits, 1)
}

func (s *LoadStats) IncrementMiss(filePath string, reason cache.CacheMissReason) {
	atomic.AddInt64(&s.cacheMisses, 1)

	s.mu.Lock()
	s.missDetails = append(s.missDetails, MissDetail{FilePath: filePath, Reason: reason})
	s.mu.Unlock()
}

func (s *LoadStats) IncrementFailure() {
	atomic.AddInt64(&s.failures, 1)
}

func (s *LoadStats) Summary() StatsSummary {
	summary := StatsSummary{
		TotalFiles: atomic.LoadInt64(&s.totalFiles),
		CacheHits:  atomic.LoadInt64(&s.cacheHits),
		CacheMiss:  atomic.LoadInt64(&s.cacheMisses),
		Failures:   atomic.LoadInt64(&s.failures),
	}
	if summary.TotalFiles > 0 {
		summary.HitRate = float64(summary.CacheHits) / float64(summary.TotalFiles) * 100
	}
	return summary
}

// MissReasonCounts groups recorded misses by reason.
func (s *LoadStats) MissReasonCounts() map[cache.CacheMissReason]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[cache.CacheMissReason]int)
	for _, detail := range s.missDetails {
		counts[detail.Reason]++
	}
	return counts
}

func (s *LoadStats) LogDetails() {
	summary := s.Summary()
	util.LogDebug(fmt.Sprintf("Cache stats: total files %d, hits %d, misses %d, failures %d, hit rate %.1f%%",
		summary.TotalFiles, summary.CacheHits, summary.CacheMiss, summary.Failures, summary.HitRate))

	if summary.CacheMiss == 0 {
		return
	}

	s.mu.Lock()
	details := make([]MissDetail, len(s.missDetails))
	copy(details, s.missDetails)
	s.mu.Unlock()

	util.LogDebug("Files missed in cache:")
	for _, detail := range details {
		util.LogDebug(fmt.Sprintf("  %s (%s)", detail.FilePath, describeMissReason(detail.Reason)))
	}
}

func (s *LoadStats) LogFinal() {
	s.LogDetails()

	summary := s.Summary()
	util.LogInfo(fmt.Sprintf("Cache statistics complete: total files %d, hit rate %.1f%% (%d hits/%d misses/%d failures)",
		summary.TotalFiles, summary.HitRate, summary.CacheHits, summary.CacheMiss, summary.Failures))

	counts := s.MissReasonCounts()
	if len(counts) == 0 {
		return
	}

	reasons := make([]cache.CacheMissReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	util.LogInfo("Cache miss reason summary:")
	for _, reason := range reasons {
		util.LogInfo(fmt.Sprintf("  %s: %d files", describeMissReason(reason), counts[reason]))
	}
}
