package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/instafilter/internal/database"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/filter"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
)

// FilterService runs filters synchronously on uploaded bytes.
type FilterService interface {
	Filters() []entity.FilterInfo
	Apply(ctx context.Context, filterName string, data []byte) ([]byte, error)
	ApplyBatch(ctx context.Context, filterName string, items []filter.BatchItem) ([]filter.BatchResult, error)
}

// JobService handles asynchronous filter jobs.
type JobService interface {
	Submit(ctx context.Context, filterName, fileName string, data []byte) (*entity.Job, error)
	Get(ctx context.Context, id string) (*entity.Job, error)
	Result(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context, before time.Time) (int, error)
}

// TaskPublisher hands a job to the processor.
type TaskPublisher interface {
	Publish(ctx context.Context, task entity.FilterTask) error
}

type FilterServiceConfig struct {
	Options      filter.Options
	BatchWorkers int
}

func NewFilterService(cache database.ResultCache, config FilterServiceConfig) FilterService {
	if cache == nil {
		cache = database.NopCache{}
	}
	return &filterService{cache: cache, config: config}
}

func NewJobService(repo database.JobRepository, blobs storage.BlobStorage, publisher TaskPublisher) JobService {
	return &jobService{
		repo:      repo,
		blobs:     blobs,
		publisher: publisher,
		now:       time.Now,
	}
}
