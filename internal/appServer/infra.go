package appServer

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/instafilter/config"
	"github.com/ds124wfegd/instafilter/internal/database"
	"github.com/ds124wfegd/instafilter/internal/database/postgres"
	"github.com/ds124wfegd/instafilter/internal/database/redis"
	"github.com/ds124wfegd/instafilter/internal/pkg/kafka"
	"github.com/ds124wfegd/instafilter/internal/pkg/processor"
	"github.com/ds124wfegd/instafilter/internal/pkg/rabbitmq"
	"github.com/ds124wfegd/instafilter/internal/pkg/storage"
	"github.com/ds124wfegd/instafilter/internal/service"
	"github.com/ds124wfegd/instafilter/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	driverPostgres = "postgres"
	driverRabbitMQ = "rabbitmq"
)

// Resources collects what is released on shutdown, last opened first, and
// the health checks of the services behind it.
type Resources struct {
	closers []func() error
	checks  map[string]transport.HealthCheck
}

func (r *Resources) add(f func() error) { r.closers = append(r.closers, f) }

func (r *Resources) check(name string, f transport.HealthCheck) {
	if r.checks == nil {
		r.checks = make(map[string]transport.HealthCheck)
	}
	r.checks[name] = f
}

// Checks returns the registered health checks keyed by service name.
func (r *Resources) Checks() map[string]transport.HealthCheck { return r.checks }

func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logrus.Errorf("error occured on closing resource: %s", err.Error())
		}
	}
}

// NewJobRepository keeps job metadata next to the blobs, or in Postgres when
// database.driver is postgres.
func NewJobRepository(ctx context.Context, cfg *config.Config, blobs storage.BlobStorage, r *Resources) (database.JobRepository, error) {
	if cfg.Database.Driver != driverPostgres {
		return database.NewJobRepository(blobs), nil
	}

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	r.add(db.Close)

	if err := postgres.RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	repo := postgres.NewJobPostgres(db)
	r.check("postgres", repo.HealthCheck)
	return repo, nil
}

// newResultCache never fails: without Redis every request is filtered.
func newResultCache(ctx context.Context, cfg *config.Config, r *Resources) database.ResultCache {
	if !cfg.Redis.Enabled {
		return database.NopCache{}
	}
	client, err := redis.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logrus.Warnf("Redis unavailable, result cache disabled: %v", err)
		return database.NopCache{}
	}
	r.add(client.Close)
	cache := redis.NewCacheRepository(client, cfg.Redis.CacheTTL)
	r.check("redis", cache.HealthCheck)
	return cache
}

func newTaskPublisher(cfg *config.Config, r *Resources) (service.TaskPublisher, error) {
	if cfg.Queue.Driver == driverRabbitMQ {
		rmq, err := rabbitmq.NewRabbitMQ(rabbitmq.Config{
			URL:       cfg.Queue.RabbitMQ.URL,
			QueueName: cfg.Queue.RabbitMQ.Queue,
		})
		if err != nil {
			return nil, err
		}
		r.add(rmq.Close)
		r.check("rabbitmq", rmq.HealthCheck)
		return service.NewQueueAdapter(rmq), nil
	}

	producer := kafka.NewProducer(cfg.Queue.Kafka.BrokerList(), cfg.Queue.Kafka.Topic)
	r.add(producer.Close)
	r.check("kafka", producer.HealthCheck)
	return service.NewQueueAdapter(producer), nil
}

// NewTaskSource opens the consumer side of the configured queue.
func NewTaskSource(cfg *config.Config, r *Resources) (processor.Source, error) {
	if cfg.Queue.Driver == driverRabbitMQ {
		rmq, err := rabbitmq.NewRabbitMQ(rabbitmq.Config{
			URL:       cfg.Queue.RabbitMQ.URL,
			QueueName: cfg.Queue.RabbitMQ.Queue,
			Prefetch:  cfg.Worker.ProcessorConcurrency,
		})
		if err != nil {
			return nil, err
		}
		r.add(rmq.Close)
		return rmq, nil
	}

	brokers := cfg.Queue.Kafka.BrokerList()
	if len(brokers) == 0 {
		return nil, fmt.Errorf("queue.kafka.brokers is empty")
	}
	consumer := kafka.NewConsumer(brokers, cfg.Queue.Kafka.Topic, cfg.Queue.Kafka.GroupID)
	r.add(consumer.Close)
	return consumer, nil
}
