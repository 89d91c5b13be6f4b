package results

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/voltbridge/markethub/pkg/enums"
	"github.com/voltbridge/markethub/pkg/idempotency"
	"github.com/voltbridge/markethub/pkg/logger"
)

type fakeIdempotencyStore struct {
	keys   map[string]string
	setErr error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "mh:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func newConsumerFixture(t *testing.T) (*Consumer, *handlerFixture, *fakeIdempotencyStore) {
	t.Helper()
	fixture := newHandlerFixture(t)
	store := newFakeIdempotencyStore()
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("idempotency manager: %v", err)
	}
	// the subscription is only used by Run; process() is driven directly
	consumer, err := NewConsumer(fixture.handler, &pubsub.Subscriber{}, manager, logger.New(logger.Options{ServiceName: "results-test"}))
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	return consumer, fixture, store
}

func messageFor(t *testing.T, msg resultMessage) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return &pubsub.Message{ID: "pubsub-1", Data: data}
}

func TestConsumerProcessesResultOnce(t *testing.T) {
	consumer, fixture, _ := newConsumerFixture(t)
	proc := fixture.seedProcess(t, "txn-1", "512", enums.ProcessTypeRequestEnergyResults, enums.DocumentFormatCIMXML)
	msg := messageFor(t, acceptedEnergyMessage(proc.ID, "512"))

	if ack := consumer.process(context.Background(), msg); !ack {
		t.Fatal("expected ack on first delivery")
	}
	if len(fixture.bundleRepo.inserts) != 1 {
		t.Fatalf("expected 1 document, got %d", len(fixture.bundleRepo.inserts))
	}

	// redelivery is acked without producing another document
	if ack := consumer.process(context.Background(), msg); !ack {
		t.Fatal("expected ack on redelivery")
	}
	if len(fixture.bundleRepo.inserts) != 1 {
		t.Fatalf("duplicate delivery produced a duplicate document, got %d", len(fixture.bundleRepo.inserts))
	}
}

func TestConsumerAcksMalformedMessage(t *testing.T) {
	consumer, _, _ := newConsumerFixture(t)
	if ack := consumer.process(context.Background(), &pubsub.Message{ID: "bad", Data: []byte("{not json")}); !ack {
		t.Fatal("malformed payloads must be acked, not redelivered forever")
	}
}

func TestConsumerAcksCorrelationMismatch(t *testing.T) {
	consumer, fixture, _ := newConsumerFixture(t)
	msg := messageFor(t, resultMessage{
		ResultID:             "result-x",
		Status:               statusRejected,
		RequestTransactionID: "txn-unknown",
		ReasonCode:           "E17",
	})

	if ack := consumer.process(context.Background(), msg); !ack {
		t.Fatal("correlation mismatches are fatal, not retryable")
	}
	if len(fixture.bundleRepo.inserts) != 0 {
		t.Fatal("no document may be produced for an unmatched result")
	}
}

func TestConsumerNacksWhenIdempotencyStoreIsDown(t *testing.T) {
	consumer, fixture, store := newConsumerFixture(t)
	store.setErr = fmt.Errorf("connection refused")
	proc := fixture.seedProcess(t, "txn-2", "512", enums.ProcessTypeRequestEnergyResults, enums.DocumentFormatCIMXML)

	if ack := consumer.process(context.Background(), messageFor(t, acceptedEnergyMessage(proc.ID, "512"))); ack {
		t.Fatal("expected nack while the idempotency store is unavailable")
	}
}
