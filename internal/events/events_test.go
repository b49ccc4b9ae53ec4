package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

var testEvent = Event{
	Kind:     TransactionCreated,
	EntityID: "2025-01-001",
	Details:  "EXPENSE 12.50 Food",
	At:       time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQPPublisher(ch, "tally", nil)

	require.NoError(t, p.Publish(context.Background(), testEvent))
	assert.Equal(t, "tally", ch.exchange)
	assert.Equal(t, "transaction.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)

	var got Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, testEvent.EntityID, got.EntityID)
	assert.Equal(t, testEvent.Kind, got.Kind)
	assert.True(t, testEvent.At.Equal(got.At))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newAMQPPublisher(ch, "tally", nil)

	err := p.Publish(context.Background(), testEvent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish transaction.created")
}

func TestMulti(t *testing.T) {
	var seen []string
	record := func(name string, err error) Publisher {
		return Func(func(_ context.Context, e Event) error {
			seen = append(seen, name+":"+e.EntityID)
			return err
		})
	}
	boom := errors.New("boom")

	m := Multi{record("a", nil), nil, record("b", boom), record("c", nil)}
	err := m.Publish(context.Background(), testEvent)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:2025-01-001", "b:2025-01-001", "c:2025-01-001"}, seen, "a failing publisher does not stop the rest")
	assert.NoError(t, Nop{}.Publish(context.Background(), testEvent))
}
