package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/codec"
	"github.com/ds124wfegd/instafilter/internal/service"
	"github.com/gin-gonic/gin"
)

type HandlerConfig struct {
	Format        codec.Format
	MaxUploadSize int64
	MaxBatchSize  int
}

type FilterHandler struct {
	service service.FilterService
	config  HandlerConfig
}

func NewFilterHandler(service service.FilterService, config HandlerConfig) *FilterHandler {
	return &FilterHandler{service: service, config: config}
}

type JobHandler struct {
	service service.JobService
	config  HandlerConfig
}

func NewJobHandler(service service.JobService, config HandlerConfig) *JobHandler {
	return &JobHandler{service: service, config: config}
}

var errTooLarge = errors.New("upload too large")

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnknownFilter),
		errors.Is(err, entity.ErrDecode),
		errors.Is(err, entity.ErrEmptyUpload):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entity.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrJobNotReady):
		return http.StatusConflict
	case errors.Is(err, entity.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
