package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, "instafilter-jobs")
	_, ok := p.(*mockProducer)
	require.True(t, ok)

	err := p.Publish(context.Background(), map[string]string{"job_id": "1"})
	assert.ErrorIs(t, err, ErrNoBroker)
	assert.ErrorIs(t, p.HealthCheck(context.Background()), ErrNoBroker)
	assert.NoError(t, p.Close())
}

func TestNewProducerUnreachableBroker(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "instafilter-jobs")
	_, ok := p.(*mockProducer)
	require.True(t, ok)

	assert.ErrorIs(t, p.Publish(context.Background(), "task"), ErrNoBroker)
}
