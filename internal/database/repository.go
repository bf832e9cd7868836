package database

import (
	"context"
	"time"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

// JobRepository persists job metadata. FindByID and Update return
// entity.ErrJobNotFound for unknown ids.
type JobRepository interface {
	Save(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id string) (*entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
	Delete(ctx context.Context, id string) error
	ListExpired(ctx context.Context, before time.Time) ([]entity.Job, error)
}

// ResultCache stores encoded filter results keyed by filter and input digest.
type ResultCache interface {
	Get(ctx context.Context, filter string, input []byte) ([]byte, bool, error)
	Set(ctx context.Context, filter string, input, output []byte) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string, []byte) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, []byte) error { return nil }
