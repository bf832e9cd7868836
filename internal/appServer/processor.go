package appServer

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/instafilter/config"
	"github.com/ds124wfegd/instafilter/internal/pkg/processor"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

// NewProcessor consumes filter tasks until SIGINT or SIGTERM. Tasks already
// taken are finished before it returns.
func NewProcessor(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var resources Resources
	defer resources.Close()

	blobs := storage.NewFileStorage(cfg.Storage.BasePath)

	jobRepo, err := NewJobRepository(ctx, cfg, blobs, &resources)
	if err != nil {
		logrus.Fatalf("failed to initialize job repository: %s", err.Error())
	}

	source, err := NewTaskSource(cfg, &resources)
	if err != nil {
		logrus.Fatalf("failed to initialize queue consumer: %s", err.Error())
	}

	jobProcessor := processor.NewJobProcessor(jobRepo, blobs, filterOptions(cfg))
	if err := processor.Run(ctx, source, jobProcessor, cfg.Worker.ProcessorConcurrency); err != nil {
		logrus.Errorf("processor stopped with error: %s", err.Error())
	}
}
