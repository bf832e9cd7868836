package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, message interface{}) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// ErrNoBroker is returned by a producer that never reached a broker.
var ErrNoBroker = errors.New("no kafka broker available")

// Keyed messages choose their own partition key.
type Keyed interface {
	MessageKey() string
}

type kafkaProducer struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
}

// NewProducer connects to the first broker and makes sure the topic exists.
// When the broker is unreachable it falls back to a producer that logs and
// fails every Publish with ErrNoBroker, so callers can fail their jobs.
func NewProducer(brokers []string, topic string) Producer {
	log := logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic})

	if len(brokers) == 0 {
		log.Warn("No Kafka brokers configured, using mock producer")
		return &mockProducer{topic: topic}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	// Проверяем подключение и создаем топик
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		log.Warnf("Kafka connection failed, using mock producer: %v", err)
		writer.Close()
		return &mockProducer{topic: topic}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.Infof("Could not create topic (might already exist): %v", err)
	}

	log.Info("Connected to Kafka")
	return &kafkaProducer{writer: writer, brokers: brokers, topic: topic}
}

func (p *kafkaProducer) Publish(ctx context.Context, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte("instafilter"),
		Value: messageBytes,
		Time:  time.Now(),
	}
	if k, ok := message.(Keyed); ok {
		msg.Key = []byte(k.MessageKey())
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithField("topic", p.topic).Errorf("Failed to write message to Kafka: %v", err)
		return err
	}

	logrus.WithField("topic", p.topic).Debug("Message sent")
	return nil
}

// HealthCheck dials the first broker.
func (p *kafkaProducer) HealthCheck(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return conn.Close()
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// Mock producer для работы без Kafka: сообщения не доставляются
type mockProducer struct {
	topic string
}

func (m *mockProducer) Publish(_ context.Context, message interface{}) error {
	logrus.WithField("topic", m.topic).Warnf("MOCK: message %+v dropped", message)
	return fmt.Errorf("%w: topic %s", ErrNoBroker, m.topic)
}

func (m *mockProducer) HealthCheck(context.Context) error {
	return ErrNoBroker
}

func (m *mockProducer) Close() error {
	return nil
}
