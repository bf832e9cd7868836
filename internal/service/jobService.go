package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ds124wfegd/instafilter/internal/database"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/codec"
	"github.com/ds124wfegd/instafilter/internal/pkg/filter"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type jobService struct {
	repo      database.JobRepository
	blobs     storage.BlobStorage
	publisher TaskPublisher
	now       func() time.Time
}

func (s *jobService) Submit(ctx context.Context, filterName, fileName string, data []byte) (*entity.Job, error) {
	kind, err := filter.Parse(filterName)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, entity.ErrEmptyUpload
	}
	// Отбрасываем мусор сразу, не дожидаясь процессора
	if _, err := codec.DecodeConfig(data); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &entity.Job{
		ID:        uuid.New().String(),
		Filter:    kind.String(),
		FileName:  fileName,
		Status:    entity.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Сохраняем оригинал
	if err := s.blobs.Save(storage.OriginalPath(job.ID), bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	if err := s.repo.Save(ctx, job); err != nil {
		s.removeBlobs(job.ID)
		return nil, fmt.Errorf("save job: %w", err)
	}

	// Отправляем задачу процессору
	task := entity.FilterTask{JobID: job.ID, Filter: kind.Slug()}
	if err := s.publisher.Publish(ctx, task); err != nil {
		job.Status = entity.JobFailed
		job.Error = "could not enqueue job"
		job.UpdatedAt = s.now().UTC()
		if uerr := s.repo.Update(ctx, job); uerr != nil {
			logrus.WithField("job_id", job.ID).Errorf("failed to mark job failed: %v", uerr)
		}
		return nil, fmt.Errorf("%w: %w", entity.ErrQueueUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{"job_id": job.ID, "filter": job.Filter}).Info("job submitted")
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id string) (*entity.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrJobNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// Result returns the filtered JPEG of a completed job.
func (s *jobService) Result(ctx context.Context, id string) ([]byte, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case entity.JobCompleted:
	case entity.JobFailed:
		return nil, fmt.Errorf("%w: job failed: %s", entity.ErrJobNotReady, job.Error)
	default:
		return nil, fmt.Errorf("%w: status %s", entity.ErrJobNotReady, job.Status)
	}

	data, err := storage.ReadAll(s.blobs, storage.ResultPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: result missing", entity.ErrJobNotFound)
	}
	return data, err
}

func (s *jobService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return entity.ErrJobNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.removeBlobs(id)
}

// CleanupExpired removes jobs created before the cutoff together with their
// blobs and reports how many were removed.
func (s *jobService) CleanupExpired(ctx context.Context, before time.Time) (int, error) {
	expired, err := s.repo.ListExpired(ctx, before)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, job := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil && !errors.Is(err, entity.ErrJobNotFound) {
			logrus.WithField("job_id", job.ID).Errorf("failed to delete expired job: %v", err)
			continue
		}
		if err := s.removeBlobs(job.ID); err != nil {
			logrus.WithField("job_id", job.ID).Warnf("failed to delete job blobs: %v", err)
		}
		removed++
	}
	return removed, nil
}

func (s *jobService) removeBlobs(id string) error {
	return errors.Join(
		s.blobs.Delete(storage.OriginalPath(id)),
		s.blobs.Delete(storage.ResultPath(id)),
	)
}
