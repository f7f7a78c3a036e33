package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/proxynest/proxynest/internal/domain/usage"
	"github.com/proxynest/proxynest/internal/types"
)

type InMemoryUsageStore struct {
	mu      sync.RWMutex
	samples []*usage.Sample
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{}
}

func (s *InMemoryUsageStore) Insert(ctx context.Context, sample *usage.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)
	return nil
}

func (s *InMemoryUsageStore) InsertBatch(ctx context.Context, samples []*usage.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, samples...)
	return nil
}

func (s *InMemoryUsageStore) Series(ctx context.Context, params *usage.SeriesParams) ([]*usage.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets := make(map[time.Time]*usage.Point)
	for _, sample := range s.samples {
		if !s.inScope(sample, params.TenantID, params.ProxyID, params.AllocationID) {
			continue
		}
		if !params.Range.Contains(sample.Timestamp) {
			continue
		}
		bucket := params.Granularity.Truncate(sample.Timestamp)
		point, ok := buckets[bucket]
		if !ok {
			point = &usage.Point{Bucket: bucket}
			buckets[bucket] = point
		}
		point.BytesIn += sample.BytesIn
		point.BytesOut += sample.BytesOut
		point.BytesTotal += sample.BytesIn + sample.BytesOut
	}

	result := make([]*usage.Point, 0, len(buckets))
	for _, point := range buckets {
		result = append(result, point)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Bucket.Before(result[j].Bucket)
	})
	return result, nil
}

func (s *InMemoryUsageStore) TopConsumers(ctx context.Context, tenantID string, r types.TimeRange, limit int) ([]*usage.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	for _, sample := range s.samples {
		if sample.TenantID != tenantID || !r.Contains(sample.Timestamp) {
			continue
		}
		totals[sample.ProxyID] += sample.BytesIn + sample.BytesOut
	}

	result := make([]*usage.Consumer, 0, len(totals))
	for proxyID, total := range totals {
		result = append(result, &usage.Consumer{ProxyID: proxyID, BytesTotal: total})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BytesTotal > result[j].BytesTotal
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *InMemoryUsageStore) Totals(ctx context.Context, tenantID string, r types.TimeRange) (*usage.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := &usage.Totals{}
	for _, sample := range s.samples {
		if sample.TenantID != tenantID || !r.Contains(sample.Timestamp) {
			continue
		}
		totals.BytesIn += sample.BytesIn
		totals.BytesOut += sample.BytesOut
	}
	totals.BytesTotal = totals.BytesIn + totals.BytesOut
	return totals, nil
}

func (s *InMemoryUsageStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.samples[:0]
	removed := 0
	for _, sample := range s.samples {
		if sample.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, sample)
	}
	s.samples = kept
	return removed, nil
}

func (s *InMemoryUsageStore) inScope(sample *usage.Sample, tenantID, proxyID, allocationID string) bool {
	if tenantID != "" && sample.TenantID != tenantID {
		return false
	}
	if proxyID != "" && sample.ProxyID != proxyID {
		return false
	}
	if allocationID != "" && sample.AllocationID != allocationID {
		return false
	}
	return true
}
