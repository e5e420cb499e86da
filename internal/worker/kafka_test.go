package worker

import (
	"admissions-portal/internal/config"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConsumer(p *Pool) *KafkaConsumer {
	return &KafkaConsumer{pool: p, logger: slog.Default(), backoff: 10 * time.Millisecond}
}

func command(t *testing.T, id string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(VerificationCommand{ApplicationID: id, RequestedAt: time.Now()})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(id), Value: b}
}

func TestHandleWaitsForRun(t *testing.T) {
	v := &fakeVerifier{}
	p := NewPool(v, 1, 1, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	require.NoError(t, testConsumer(p).Handle(context.Background(), command(t, "app-1")))
	assert.Equal(t, []string{"app-1"}, v.called())
}

func TestHandleDropsMalformedCommands(t *testing.T) {
	v := &fakeVerifier{}
	p := NewPool(v, 1, 1, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	c := testConsumer(p)
	assert.NoError(t, c.Handle(context.Background(), kafka.Message{Value: []byte("not json")}))
	assert.NoError(t, c.Handle(context.Background(), kafka.Message{Value: []byte(`{}`)}))
	assert.Empty(t, v.called())
}

func TestHandleRetriesFullQueue(t *testing.T) {
	v := &fakeVerifier{block: make(chan struct{})}
	p := NewPool(v, 1, 1, nil, nil)
	p.Start(context.Background())

	_, err := p.Submit("first")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return v.running.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	_, err = p.Submit("second")
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(v.block)
	}()

	require.NoError(t, testConsumer(p).Handle(context.Background(), command(t, "third")))
	p.Stop()
	assert.Equal(t, []string{"first", "second", "third"}, v.called())
}

func TestHandleLeavesMessageWhenCancelled(t *testing.T) {
	v := &fakeVerifier{block: make(chan struct{})}
	p := NewPool(v, 1, 1, nil, nil)
	p.Start(context.Background())
	defer func() {
		close(v.block)
		p.Stop()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := testConsumer(p).Handle(ctx, command(t, "slow"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewKafkaDispatcher(t *testing.T) {
	d := NewKafkaDispatcher(config.Kafka{Brokers: []string{"localhost:9092"}, Topic: "application-verification"})
	assert.Equal(t, "application-verification", d.writer.Topic)
	assert.NoError(t, d.Close())
}
