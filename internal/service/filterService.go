package service

import (
	"context"

	"github.com/ds124wfegd/instafilter/internal/database"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/filter"
	"github.com/sirupsen/logrus"
)

type filterService struct {
	cache  database.ResultCache
	config FilterServiceConfig
}

func (s *filterService) Filters() []entity.FilterInfo {
	kinds := filter.Kinds()
	out := make([]entity.FilterInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, entity.FilterInfo{Name: k.String(), Slug: k.Slug()})
	}
	return out
}

// Apply filters data, serving repeated requests from the cache. Cache
// failures are logged and otherwise ignored.
func (s *filterService) Apply(ctx context.Context, filterName string, data []byte) ([]byte, error) {
	kind, err := filter.Parse(filterName)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, entity.ErrEmptyUpload
	}

	log := logrus.WithField("filter", kind.Slug())

	cached, ok, err := s.cache.Get(ctx, kind.Slug(), data)
	if err != nil {
		log.Warnf("result cache lookup failed: %v", err)
	}
	if ok {
		log.Debug("result cache hit")
		return cached, nil
	}

	out, err := filter.ApplyKindContext(ctx, data, kind, s.config.Options)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, kind.Slug(), data, out); err != nil {
		log.Warnf("result cache store failed: %v", err)
	}
	return out, nil
}

func (s *filterService) ApplyBatch(ctx context.Context, filterName string, items []filter.BatchItem) ([]filter.BatchResult, error) {
	kind, err := filter.Parse(filterName)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, entity.ErrEmptyUpload
	}
	return filter.ApplyBatch(ctx, kind, items, s.config.BatchWorkers, s.config.Options)
}
