// launching the server, storage, queue, postgres, redis
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/instafilter/config"
	"github.com/ds124wfegd/instafilter/internal/pkg/codec"
	"github.com/ds124wfegd/instafilter/internal/pkg/filter"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
	"github.com/ds124wfegd/instafilter/internal/service"
	"github.com/ds124wfegd/instafilter/internal/transport"
	"github.com/ds124wfegd/instafilter/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Options used by both the HTTP handlers and the job processor.
func filterOptions(cfg *config.Config) filter.Options {
	return filter.Options{
		Format:       codec.JPEG,
		Quality:      cfg.Filter.Quality,
		MaxDimension: cfg.Filter.MaxDimension,
		MaxPixels:    cfg.Filter.MaxPixels,
	}
}

func NewServer(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var resources Resources
	defer resources.Close()

	blobs := storage.NewFileStorage(cfg.Storage.BasePath)

	jobRepo, err := NewJobRepository(ctx, cfg, blobs, &resources)
	if err != nil {
		logrus.Fatalf("failed to initialize job repository: %s", err.Error())
	}

	publisher, err := newTaskPublisher(cfg, &resources)
	if err != nil {
		logrus.Fatalf("failed to initialize queue: %s", err.Error())
	}

	filterService := service.NewFilterService(newResultCache(ctx, cfg, &resources), service.FilterServiceConfig{
		Options:      filterOptions(cfg),
		BatchWorkers: cfg.Filter.BatchWorkers,
	})
	jobService := service.NewJobService(jobRepo, blobs, publisher)

	handlerConfig := transport.HandlerConfig{
		Format:        codec.JPEG,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		MaxBatchSize:  cfg.Filter.MaxBatchSize,
	}
	filterHandler := transport.NewFilterHandler(filterService, handlerConfig)
	jobHandler := transport.NewJobHandler(jobService, handlerConfig)

	// Старые задачи удаляются вместе с файлами
	cleanupWorker := worker.NewJobCleanupWorker(jobService, cfg.Worker.CleanupInterval, cfg.Worker.Retention)
	go cleanupWorker.Start(ctx)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	maxBody := cfg.Server.MaxUploadSize
	if maxBody > 0 && cfg.Filter.MaxBatchSize > 0 {
		maxBody *= int64(cfg.Filter.MaxBatchSize)
	}
	router := transport.InitRoutes(transport.RouterConfig{
		AppVersion:     cfg.Server.AppVersion,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    maxBody,
		HealthChecks:   resources.Checks(),
	}, filterHandler, jobHandler)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("port", cfg.Server.Port).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
