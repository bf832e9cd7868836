package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/instafilter/internal/database"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/filter"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

type JobProcessor interface {
	Process(ctx context.Context, task entity.FilterTask) error
}

type jobProcessor struct {
	repo  database.JobRepository
	blobs storage.BlobStorage
	opts  filter.Options
	now   func() time.Time
}

func NewJobProcessor(repo database.JobRepository, blobs storage.BlobStorage, opts filter.Options) JobProcessor {
	return &jobProcessor{repo: repo, blobs: blobs, opts: opts, now: time.Now}
}

// Process runs one job to a final state. Filter failures are recorded on the
// job; only storage and repository failures are returned.
func (p *jobProcessor) Process(ctx context.Context, task entity.FilterTask) error {
	log := logrus.WithFields(logrus.Fields{"job_id": task.JobID, "filter": task.Filter})

	job, err := p.repo.FindByID(ctx, task.JobID)
	if errors.Is(err, entity.ErrJobNotFound) {
		log.Warn("job vanished before processing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if job.Done() {
		log.Info("job already finished, skipping duplicate task")
		return nil
	}

	if err := p.setStatus(ctx, job, entity.JobProcessing, ""); err != nil {
		return err
	}
	log.Info("processing job")

	// Загружаем оригинальное изображение
	original, err := storage.ReadAll(p.blobs, storage.OriginalPath(job.ID))
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("load original: %w", err))
	}

	start := time.Now()
	out, err := filter.ApplyFilter(original, task.Filter, p.opts)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	// Сохраняем обработанное изображение
	if err := p.blobs.Save(storage.ResultPath(job.ID), bytes.NewReader(out)); err != nil {
		return p.fail(ctx, job, fmt.Errorf("store result: %w", err))
	}

	if err := p.setStatus(ctx, job, entity.JobCompleted, ""); err != nil {
		return err
	}
	log.WithField("duration", time.Since(start)).Info("job completed")
	return nil
}

func (p *jobProcessor) fail(ctx context.Context, job *entity.Job, cause error) error {
	logrus.WithField("job_id", job.ID).Errorf("job failed: %v", cause)
	return p.setStatus(ctx, job, entity.JobFailed, cause.Error())
}

func (p *jobProcessor) setStatus(ctx context.Context, job *entity.Job, status entity.JobStatus, msg string) error {
	job.Status = status
	job.Error = msg
	job.UpdatedAt = p.now().UTC()
	if err := p.repo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job %s to %s: %w", job.ID, status, err)
	}
	return nil
}

// Source is a queue consumer. Consume blocks until ctx is done.
type Source interface {
	Consume(ctx context.Context, handler func(message []byte) error) error
}

// Run feeds tasks from source to p, processing at most concurrency tasks at
// once, and waits for in-flight tasks before returning.
func Run(ctx context.Context, source Source, p JobProcessor, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	handler := func(message []byte) error {
		var task entity.FilterTask
		if err := json.Unmarshal(message, &task); err != nil {
			return fmt.Errorf("failed to parse task: %w", err)
		}
		if task.JobID == "" {
			return errors.New("task without job id")
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		wg.Add(1)
		go func(t entity.FilterTask) {
			defer wg.Done()
			defer func() { <-sem }()

			// Задача доводится до конца даже при остановке
			if err := p.Process(context.WithoutCancel(ctx), t); err != nil {
				logrus.WithField("job_id", t.JobID).Errorf("processing failed: %v", err)
			}
		}(task)
		return nil
	}

	logrus.WithField("concurrency", concurrency).Info("Job processor started")
	err := source.Consume(ctx, handler)
	wg.Wait()
	logrus.Info("Job processor stopped")
	return err
}
