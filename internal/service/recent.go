package service

import (
	"strings"
	"sync"

	"github.com/GoPolymarket/schemascope/internal/model"
)

type RecentFilter struct {
	Limit     int
	Method    string
	MinStatus int
	Resource  string // only records whose expected schema mentions it
}

func (f RecentFilter) match(rec model.DiagnosticRecord) bool {
	if f.Method != "" && !strings.EqualFold(f.Method, rec.Method) {
		return false
	}
	if f.MinStatus > 0 && rec.Status < f.MinStatus {
		return false
	}
	if f.Resource != "" {
		if _, ok := rec.ExpectedSchema[f.Resource]; !ok {
			return false
		}
	}
	return true
}

// recentBuffer is a fixed-size ring of the latest records.
type recentBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []model.DiagnosticRecord
	nextIndex int
}

func newRecentBuffer(maxSize int) *recentBuffer {
	if maxSize <= 0 {
		maxSize = 200
	}
	return &recentBuffer{
		maxSize: maxSize,
		records: make([]model.DiagnosticRecord, 0, maxSize),
	}
}

func (b *recentBuffer) Add(rec model.DiagnosticRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, rec)
		return
	}
	b.records[b.nextIndex] = rec
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

func (b *recentBuffer) List(filter RecentFilter) []model.DiagnosticRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := filter.Limit
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]model.DiagnosticRecord, 0, min(limit, len(b.records)))
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		rec := b.records[idx]
		if !filter.match(rec) {
			continue
		}
		results = append(results, rec)
		if len(results) >= limit {
			break
		}
	}
	return results
}
