package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func (r *recorder) Close() error { return nil }

func TestNew(t *testing.T) {
	ev := New(EquipmentCreated, "42")
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EquipmentCreated, ev.Type)
	assert.Equal(t, "42", ev.ResourceID)
	assert.WithinDuration(t, time.Now(), ev.OccurredAt, time.Second)
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	r := &recorder{err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), r, New(UserDeleted, "7"))
	})
	require.Len(t, r.got, 1)
	assert.Equal(t, UserDeleted, r.got[0].Type)
}

func TestEmit_NilAndNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, New(UserCreated, "1"))
		Emit(context.Background(), Noop{}, New(UserCreated, "1"))
	})
}

func TestKafkaPublisher_Publish(t *testing.T) {
	broker := os.Getenv("EVENTS_TEST_KAFKA_BROKER")
	if broker == "" {
		t.Skip("EVENTS_TEST_KAFKA_BROKER is required for tests")
	}
	const topic = "console_events_test"

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	p := NewKafkaPublisher([]string{broker}, topic)
	t.Cleanup(func() { _ = p.Close() })

	ev := New(MaintenanceCreated, "99")
	ev.Data = map[string]any{"equipment_id": "10"}
	require.NoError(t, p.Publish(ctx, ev))

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   time.Second,
	})
	defer r.Close()
	require.NoError(t, r.SetOffset(kafka.FirstOffset))

	for {
		m, err := r.ReadMessage(ctx)
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal(m.Value, &got))
		if got.ID != ev.ID {
			continue
		}
		assert.Equal(t, MaintenanceCreated, got.Type)
		assert.Equal(t, "99", string(m.Key))
		assert.Equal(t, "10", got.Data["equipment_id"])
		return
	}
}

func TestKafkaPublisher_PublishOnlyQueues(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "console_events_test")
	assert.True(t, p.writer.Async)

	start := time.Now()
	require.NoError(t, p.Publish(context.Background(), New(UserCreated, "5")))
	assert.Less(t, time.Since(start), writeTimeout)

	done := make(chan struct{})
	go func() {
		_ = p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestKafkaPublisher_CompletionReadsTypeHeader(t *testing.T) {
	m := kafka.Message{Headers: []kafka.Header{{Key: typeHeader, Value: []byte(UserDeleted)}}}
	assert.Equal(t, UserDeleted, headerValue(m, typeHeader))
	assert.Empty(t, headerValue(kafka.Message{}, typeHeader))
}
