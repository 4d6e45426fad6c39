package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"challenger/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the flow from TransactionalBus to the main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan MatchStateChangedEvent, 1)
	mainBus.Subscribe(EventTypeMatchStateChanged, func(ctx context.Context, event Event) {
		if e, ok := event.(MatchStateChangedEvent); ok {
			eventReceived <- e
		} else {
			t.Errorf("Expected MatchStateChangedEvent, got %T", event)
		}
	})

	testEvent := MatchStateChangedEvent{
		MatchID:     42,
		OldStatus:   models.MatchStatusAwaitingOpponent,
		NewStatus:   models.MatchStatusInProgress,
		ActorID:     uuid.New(),
		StakeAmount: 1000,
		MatchType:   models.MatchTypeOneVOne,
	}

	transactionalBus.Publish(testEvent)

	// Nothing is delivered before the flush
	select {
	case <-eventReceived:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
	assert.Empty(t, transactionalBus.Pending())
}

func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var wg sync.WaitGroup
	wg.Add(3)
	received := make(chan BalanceChangeEvent, 3)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		received <- event.(BalanceChangeEvent)
	})

	userID := uuid.New()
	for i := int64(1); i <= 3; i++ {
		transactionalBus.Publish(BalanceChangeEvent{
			UserID:     userID,
			OldBalance: 1000 * i,
			NewBalance: 1000*i - 100,
			Change:     -100,
			Reason:     "hold_placed",
		})
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()
	close(received)

	var total int64
	for e := range received {
		assert.Equal(t, userID, e.UserID)
		total += e.Change
	}
	assert.Equal(t, int64(-300), total)
}

func TestTransactionalBus_Discard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	called := make(chan struct{}, 1)
	mainBus.Subscribe(EventTypeSettlementCompleted, func(ctx context.Context, event Event) {
		called <- struct{}{}
	})

	transactionalBus.Publish(SettlementCompletedEvent{MatchID: 1, Pot: 2000, Fee: 100, Payout: 1900})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-called:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_HandlerPanicDoesNotAffectOthers(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{}, 1)
	bus.Subscribe(EventTypeHoldChanged, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeHoldChanged, func(ctx context.Context, event Event) {
		done <- struct{}{}
	})

	bus.Emit(context.Background(), HoldChangedEvent{HoldID: 1, Status: models.HoldStatusHeld})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[EventType]bool)
	var wg sync.WaitGroup
	wg.Add(2)
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()] = true
		mu.Unlock()
	})

	bus.Emit(context.Background(), DuplicatesRemovedEvent{DuplicatesRemoved: 2})
	bus.Emit(context.Background(), EmergencyAccessEvent{Email: "ops@example.com", Operation: "settle_match"})
	wg.Wait()

	assert.True(t, seen[EventTypeDuplicatesRemoved])
	assert.True(t, seen[EventTypeEmergencyAccess])
}
