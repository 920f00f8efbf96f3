package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type flakyHandler struct {
	topic    string
	failures int
	calls    int
	lastID   string
}

func (h *flakyHandler) Topic() string { return h.topic }

func (h *flakyHandler) Handle(ctx context.Context, _ []byte) error {
	h.calls++
	h.lastID = RequestID(ctx)
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T, opts ...ConsumerOption) (*Consumer, *fakeReader, *fakeWriter) {
	t.Helper()
	opts = append([]ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
		WithConsumerRegisterer(prometheus.NewRegistry()),
	}, opts...)
	c, err := NewConsumer(nil, opts...)
	require.NoError(t, err)

	reader := &fakeReader{}
	dlq := &fakeWriter{}
	c.readers["requests"] = reader
	c.dlq = dlq
	return c, reader, dlq
}

func TestConsumer_RetriesThenCommits(t *testing.T) {
	c, reader, dlq := newTestConsumer(t, WithConsumerDLQ("requests.dlq"))
	h := &flakyHandler{topic: "requests", failures: 2}
	c.RegisterHandler(h)

	err := c.process(context.Background(), kafka.Message{Topic: "requests", Value: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, 3, h.calls)
	assert.Len(t, reader.committed, 1)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	c, reader, dlq := newTestConsumer(t, WithConsumerDLQ("requests.dlq"))
	h := &flakyHandler{topic: "requests", failures: 10}
	c.RegisterHandler(h)

	err := c.process(context.Background(), kafka.Message{Topic: "requests", Key: []byte("k"), Value: []byte(`{"x":1}`)})
	require.Error(t, err)
	assert.Equal(t, 3, h.calls)

	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "requests.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, []byte(`{"x":1}`), dlq.msgs[0].Value)
	assert.Equal(t, "source_topic", dlq.msgs[0].Headers[0].Key)
	assert.Len(t, reader.committed, 1)
}

type rejectingHandler struct{ calls int }

func (h *rejectingHandler) Topic() string { return "requests" }

func (h *rejectingHandler) Handle(context.Context, []byte) error {
	h.calls++
	return Permanent(errors.New("bad payload"))
}

func TestConsumer_PermanentErrorSkipsRetries(t *testing.T) {
	c, reader, dlq := newTestConsumer(t, WithConsumerDLQ("requests.dlq"))
	h := &rejectingHandler{}
	c.RegisterHandler(h)

	err := c.process(context.Background(), kafka.Message{Topic: "requests", Value: []byte(`{`)})
	require.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, 1, h.calls)
	assert.Len(t, dlq.msgs, 1)
	assert.Len(t, reader.committed, 1)

	assert.NoError(t, Permanent(nil))
}

func TestConsumer_NoDLQLeavesOffsetUncommitted(t *testing.T) {
	c, reader, _ := newTestConsumer(t)
	c.dlq = nil
	c.RegisterHandler(&flakyHandler{topic: "requests", failures: 10})

	err := c.process(context.Background(), kafka.Message{Topic: "requests"})
	require.Error(t, err)
	assert.Empty(t, reader.committed)
}

func TestConsumer_UnknownTopic(t *testing.T) {
	c, _, _ := newTestConsumer(t)
	err := c.process(context.Background(), kafka.Message{Topic: "other"})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestConsumer_RequestIDHook(t *testing.T) {
	c, _, _ := newTestConsumer(t)
	h := &flakyHandler{topic: "requests"}
	c.RegisterHandler(h)
	c.WithConsumerHook(NewHookChain(RequestIDHook()))

	msg := kafka.Message{Topic: "requests", Headers: []kafka.Header{{Key: HeaderRequestID, Value: []byte("abc")}}}
	require.NoError(t, c.process(context.Background(), msg))
	assert.Equal(t, "abc", h.lastID)

	require.NoError(t, c.process(context.Background(), kafka.Message{Topic: "requests"}))
	assert.NotEmpty(t, h.lastID)
	assert.NotEqual(t, "abc", h.lastID)
}

func TestConsumer_StartStop(t *testing.T) {
	c, _, _ := newTestConsumer(t)
	c.RegisterHandler(&flakyHandler{topic: "requests"})

	require.NoError(t, c.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Stop(ctx))
}

func TestHookChain_RecoversPanics(t *testing.T) {
	chain := NewHookChain(nil, HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
		After: func(context.Context, string, kafka.Message, []byte, error) { panic("after") },
	})

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	assert.ErrorContains(t, err, "hook panic")
	assert.NotPanics(t, func() {
		chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	})
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, prometheus.NewRegistry())

	require.NoError(t, p.Publish(context.Background(), "reports", []byte("EURUSD"), map[string]string{"type": "report.completed"}))
	require.NoError(t, p.Publish(context.Background(), "reports", nil, "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "reports", w.msgs[0].Topic)
	assert.Equal(t, []byte("EURUSD"), w.msgs[0].Key)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "report.completed", body["type"])
	assert.Equal(t, []byte("raw"), w.msgs[1].Value)

	w.err = errors.New("down")
	assert.Error(t, p.Publish(context.Background(), "reports", nil, "x"))
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}
