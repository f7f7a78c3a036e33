package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/usage"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type UsageServiceSuite struct {
	suite.Suite
	ctx     context.Context
	params  ServiceParams
	stores  *testStores
	service UsageService
}

func TestUsageService(t *testing.T) {
	suite.Run(t, new(UsageServiceSuite))
}

func (s *UsageServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewUsageService(s.params)
}

func (s *UsageServiceSuite) seedSamples(proxyID string, start time.Time, count int, step time.Duration) {
	samples := make([]*usage.Sample, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, &usage.Sample{
			ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_SAMPLE),
			ProxyID:   proxyID,
			TenantID:  types.DefaultTenantID,
			Timestamp: start.Add(time.Duration(i) * step),
			BytesIn:   100,
			BytesOut:  50,
		})
	}
	s.NoError(s.stores.usageRepo.InsertBatch(s.ctx, samples))
}

func (s *UsageServiceSuite) TestRecord() {
	err := s.service.Record(s.ctx, &dto.RecordUsageRequest{
		ProxyID:  "proxy-1",
		BytesIn:  1024,
		BytesOut: 512,
	})
	s.NoError(err)

	now := time.Now().UTC()
	totals, err := s.service.Totals(s.ctx, types.TimeRange{
		From: now.Add(-time.Hour),
		To:   now.Add(time.Hour),
	})
	s.NoError(err)
	s.Equal(int64(1024), totals.BytesIn)
	s.Equal(int64(512), totals.BytesOut)
	s.Equal(int64(1536), totals.BytesTotal)
}

func (s *UsageServiceSuite) TestRecordRejectsNegativeCounters() {
	err := s.service.Record(s.ctx, &dto.RecordUsageRequest{
		ProxyID: "proxy-1",
		BytesIn: -1,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *UsageServiceSuite) TestSeriesDayBucketsOverTwoDays() {
	// 300 samples spread over 48 hours collapse into exactly two day buckets
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	step := 48 * time.Hour / 300
	s.seedSamples("proxy-1", start, 300, step)

	points, err := s.service.GetSeries(s.ctx, &dto.UsageSeriesRequest{
		From:        start,
		To:          start.Add(48 * time.Hour),
		Granularity: types.WindowSizeDay,
	})
	s.NoError(err)
	s.Len(points, 2)
	s.Equal(start, points[0].Bucket)
	s.Equal(start.AddDate(0, 0, 1), points[1].Bucket)
	s.Equal(int64(300*150), points[0].BytesTotal+points[1].BytesTotal)

	// ascending by bucket
	s.True(points[0].Bucket.Before(points[1].Bucket))
}

func (s *UsageServiceSuite) TestSeriesHourBuckets() {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.seedSamples("proxy-1", start, 6, 30*time.Minute)

	points, err := s.service.GetSeries(s.ctx, &dto.UsageSeriesRequest{
		From:        start,
		To:          start.Add(3 * time.Hour),
		Granularity: types.WindowSizeHour,
	})
	s.NoError(err)
	s.Len(points, 3)
	for _, p := range points {
		s.Equal(int64(300), p.BytesTotal)
	}
}

func (s *UsageServiceSuite) TestSeriesEmptyRange() {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.seedSamples("proxy-1", start, 10, time.Minute)

	points, err := s.service.GetSeries(s.ctx, &dto.UsageSeriesRequest{
		From:        start.AddDate(0, 1, 0),
		To:          start.AddDate(0, 1, 1),
		Granularity: types.WindowSizeDay,
	})
	s.NoError(err)
	s.Empty(points)
}

func (s *UsageServiceSuite) TestSeriesRejectsMalformedRange() {
	now := time.Now().UTC()
	_, err := s.service.GetSeries(s.ctx, &dto.UsageSeriesRequest{
		From:        now,
		To:          now.Add(-time.Hour),
		Granularity: types.WindowSizeHour,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *UsageServiceSuite) TestSeriesScopedByProxy() {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.seedSamples("proxy-1", start, 5, time.Minute)
	s.seedSamples("proxy-2", start, 5, time.Minute)

	points, err := s.service.GetSeries(s.ctx, &dto.UsageSeriesRequest{
		ProxyID:     "proxy-1",
		From:        start,
		To:          start.Add(time.Hour),
		Granularity: types.WindowSizeDay,
	})
	s.NoError(err)
	s.Len(points, 1)
	s.Equal(int64(5*150), points[0].BytesTotal)
}

func (s *UsageServiceSuite) TestTopConsumers() {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.seedSamples("proxy-small", start, 2, time.Minute)
	s.seedSamples("proxy-big", start, 10, time.Minute)

	consumers, err := s.service.TopConsumers(s.ctx, types.TimeRange{
		From: start,
		To:   start.Add(time.Hour),
	}, 10)
	s.NoError(err)
	s.Len(consumers, 2)
	s.Equal("proxy-big", consumers[0].ProxyID)
	s.Equal(int64(10*150), consumers[0].BytesTotal)
	s.Equal("proxy-small", consumers[1].ProxyID)
}

func (s *UsageServiceSuite) TestEnforceRetention() {
	old := time.Now().UTC().AddDate(0, 0, -120)
	recent := time.Now().UTC().Add(-time.Hour)
	s.seedSamples("proxy-1", old, 5, time.Minute)
	s.seedSamples("proxy-1", recent, 3, time.Minute)

	removed, err := s.service.EnforceRetention(s.ctx, time.Now().UTC().AddDate(0, 0, -90))
	s.NoError(err)
	s.Equal(5, removed)

	totals, err := s.service.Totals(s.ctx, types.TimeRange{
		From: time.Now().UTC().AddDate(-1, 0, 0),
		To:   time.Now().UTC(),
	})
	s.NoError(err)
	s.Equal(int64(3*150), totals.BytesTotal)
}
