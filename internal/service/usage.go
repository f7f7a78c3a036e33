package service

import (
	"context"
	"time"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/usage"
	"github.com/proxynest/proxynest/internal/types"
)

// UsageService records raw traffic samples and serves the bucketed
// aggregations over them. Samples are append-only; only the retention
// sweep ever removes them.
type UsageService interface {
	Record(ctx context.Context, req *dto.RecordUsageRequest) error
	RecordBatch(ctx context.Context, req *dto.RecordUsageBatchRequest) error
	GetSeries(ctx context.Context, req *dto.UsageSeriesRequest) ([]*dto.UsagePointResponse, error)
	TopConsumers(ctx context.Context, r types.TimeRange, limit int) ([]*dto.UsageConsumerResponse, error)
	Totals(ctx context.Context, r types.TimeRange) (*dto.UsageTotalsResponse, error)

	// EnforceRetention hard-deletes samples older than the cutoff and
	// returns the number removed.
	EnforceRetention(ctx context.Context, cutoff time.Time) (int, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{
		ServiceParams: params,
	}
}

func (s *usageService) Record(ctx context.Context, req *dto.RecordUsageRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	sample := req.ToSample(types.GetTenantID(ctx), time.Now().UTC())
	if err := sample.Validate(); err != nil {
		return err
	}
	return s.UsageRepo.Insert(ctx, sample)
}

func (s *usageService) RecordBatch(ctx context.Context, req *dto.RecordUsageBatchRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	tenantID := types.GetTenantID(ctx)
	now := time.Now().UTC()

	samples := make([]*usage.Sample, 0, len(req.Samples))
	for i := range req.Samples {
		sample := req.Samples[i].ToSample(tenantID, now)
		if err := sample.Validate(); err != nil {
			return err
		}
		samples = append(samples, sample)
	}
	return s.UsageRepo.InsertBatch(ctx, samples)
}

func (s *usageService) GetSeries(ctx context.Context, req *dto.UsageSeriesRequest) ([]*dto.UsagePointResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	points, err := s.UsageRepo.Series(ctx, &usage.SeriesParams{
		TenantID:     types.GetTenantID(ctx),
		ProxyID:      req.ProxyID,
		AllocationID: req.AllocationID,
		Range:        req.Range(),
		Granularity:  req.Granularity,
	})
	if err != nil {
		return nil, err
	}
	return dto.FromUsagePoints(points), nil
}

func (s *usageService) TopConsumers(ctx context.Context, r types.TimeRange, limit int) ([]*dto.UsageConsumerResponse, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	consumers, err := s.UsageRepo.TopConsumers(ctx, types.GetTenantID(ctx), r, limit)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.UsageConsumerResponse, 0, len(consumers))
	for _, c := range consumers {
		result = append(result, &dto.UsageConsumerResponse{
			ProxyID:    c.ProxyID,
			BytesTotal: c.BytesTotal,
		})
	}
	return result, nil
}

func (s *usageService) Totals(ctx context.Context, r types.TimeRange) (*dto.UsageTotalsResponse, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	totals, err := s.UsageRepo.Totals(ctx, types.GetTenantID(ctx), r)
	if err != nil {
		return nil, err
	}
	return &dto.UsageTotalsResponse{
		BytesIn:    totals.BytesIn,
		BytesOut:   totals.BytesOut,
		BytesTotal: totals.BytesTotal,
	}, nil
}

func (s *usageService) EnforceRetention(ctx context.Context, cutoff time.Time) (int, error) {
	removed, err := s.UsageRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.Logger.Infow("purged usage samples past retention",
			"cutoff", cutoff,
			"removed", removed)
	}
	return removed, nil
}
