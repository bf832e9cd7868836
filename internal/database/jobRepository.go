package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"
	"sync"
	"time"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

const metadataDir = "metadata"

type fileJobRepository struct {
	storage storage.BlobStorage
	mu      sync.Mutex
}

// NewJobRepository keeps each job as metadata/<id>.json in blob storage.
func NewJobRepository(storage storage.BlobStorage) JobRepository {
	return &fileJobRepository{storage: storage}
}

func (r *fileJobRepository) Save(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(job)
}

func (r *fileJobRepository) FindByID(_ context.Context, id string) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(r.getJobMetadataPath(id))
}

func (r *fileJobRepository) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.storage.Exists(r.getJobMetadataPath(job.ID)) {
		return entity.ErrJobNotFound
	}
	return r.write(job)
}

func (r *fileJobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metadataPath := r.getJobMetadataPath(id)
	if !r.storage.Exists(metadataPath) {
		return entity.ErrJobNotFound
	}
	return r.storage.Delete(metadataPath)
}

// ListExpired scans every metadata file; good enough for the file backend.
func (r *fileJobRepository) ListExpired(ctx context.Context, before time.Time) ([]entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.storage.List(metadataDir)
	if err != nil {
		return nil, err
	}

	var expired []entity.Job
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if path.Ext(f) != ".json" {
			continue
		}
		job, err := r.read(f)
		if err != nil {
			logrus.WithField("path", f).Warnf("skipping unreadable job metadata: %v", err)
			continue
		}
		if job.CreatedAt.Before(before) {
			expired = append(expired, *job)
		}
	}
	return expired, nil
}

func (r *fileJobRepository) write(job *entity.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.storage.Save(r.getJobMetadataPath(job.ID), bytes.NewReader(data))
}

func (r *fileJobRepository) read(metadataPath string) (*entity.Job, error) {
	reader, err := r.storage.Get(metadataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, entity.ErrJobNotFound
		}
		return nil, err
	}
	defer reader.Close()

	var job entity.Job
	if err := json.NewDecoder(reader).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *fileJobRepository) getJobMetadataPath(id string) string {
	return path.Join(metadataDir, id+".json")
}
