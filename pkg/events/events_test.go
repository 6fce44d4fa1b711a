package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

type closer struct {
	Recorder
	closed bool
}

func (c *closer) Close() error { c.closed = true; return nil }

func TestMulti(t *testing.T) {
	ctx := context.Background()
	a, b := &Recorder{}, &closer{}
	boom := errors.New("boom")
	m := Multi{a, failing{boom}, b}

	err := m.Publish(ctx, New(TaskCompleted, "task-1", "ana", nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{TaskCompleted}, a.Types())
	assert.Equal(t, []string{TaskCompleted}, b.Types())

	require.NoError(t, m.Close())
	assert.True(t, b.closed)
}

func TestNew(t *testing.T) {
	e := New(ImageUploaded, "img-1", "bo", map[string]any{"size": 3})
	assert.NotEmpty(t, e.ID)
	assert.WithinDuration(t, time.Now(), e.At, time.Minute)
	assert.Equal(t, "img-1", e.Subject)
	assert.NotEqual(t, e.ID, New(ImageUploaded, "", "", nil).ID)
}

func TestRelayPublish(t *testing.T) {
	var got []byte
	r := &Relay{topic: "t", submit: func(_ context.Context, b []byte) error { got = b; return nil }}

	e := Event{ID: "1", Type: TaskSubmitted, Subject: "task-9", Data: map[string]any{"mode": "generate"}}
	require.NoError(t, r.Publish(context.Background(), e))

	var back Event
	require.NoError(t, json.Unmarshal(got, &back))
	assert.Equal(t, "task-9", back.Subject)
	assert.Equal(t, "generate", back.Data["mode"])

	assert.Error(t, r.Publish(context.Background(), Event{}))

	r.submit = func(context.Context, []byte) error { return errors.New("down") }
	assert.Error(t, r.Publish(context.Background(), e))
}

func TestRelayConfigFromEnv(t *testing.T) {
	t.Setenv("ELECTRICIAN_TARGET", "a:1, b:2")
	t.Setenv("ELECTRICIAN_COMPRESS", "SNAPPY")
	t.Setenv("ELECTRICIAN_STATIC_HEADERS", "x-tenant=acme,bad")
	t.Setenv("OAUTH_REFRESH_LEEWAY", "nope")

	cfg, err := RelayConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Targets)
	assert.Equal(t, "contentops.events", cfg.Topic)
	assert.True(t, cfg.Snappy)
	assert.Equal(t, map[string]string{"x-tenant": "acme"}, cfg.StaticHeaders)
	assert.Equal(t, 20*time.Second, cfg.OAuthLeeway)
	assert.False(t, cfg.OAuth())

	t.Setenv("ELECTRICIAN_ENCRYPT", "aesgcm")
	t.Setenv("ELECTRICIAN_AES256_KEY_HEX", "abcd")
	_, err = RelayConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("ELECTRICIAN_AES256_KEY_HEX", "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f")
	cfg, err = RelayConfigFromEnv()
	require.NoError(t, err)
	assert.Len(t, cfg.AESKey, 32)
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { f.closed = true; return nil }

func TestKafkaPublish(t *testing.T) {
	w := &fakeWriter{}
	k := newKafka(w, map[string]string{"app": "contentops"})

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, k.Publish(context.Background(), Event{ID: "e1", Type: TaskFailed, Subject: "task-3", At: at}))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "task-3", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafka.Header{
		{Key: "type", Value: []byte(TaskFailed)},
		{Key: "app", Value: []byte("contentops")},
	}, msg.Headers)
	assert.Contains(t, string(msg.Value), `"type":"task.failed"`)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafkaConfigFromEnv(t *testing.T) {
	cfg, err := KafkaConfigFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())

	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_TOPIC", "contentops")
	t.Setenv("KAFKA_SASL_MECHANISM", "scram-sha-512")
	t.Setenv("KAFKA_SASL_USERNAME", "svc")
	t.Setenv("KAFKA_SASL_PASSWORD", "pw")
	cfg, err = KafkaConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "SCRAM-SHA-512", cfg.SASLMechanism)

	k, err := NewKafka(cfg)
	require.NoError(t, err)
	require.NoError(t, k.Close())

	t.Setenv("KAFKA_SASL_MECHANISM", "PLAIN")
	_, err = KafkaConfigFromEnv()
	assert.Error(t, err)
}

func TestFromEnvDefaultsToNoop(t *testing.T) {
	t.Setenv("ELECTRICIAN_TARGET", "")
	t.Setenv("KAFKA_BROKERS", "")
	p, err := FromEnv(context.Background(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
}
