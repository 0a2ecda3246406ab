package server

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
)

func TestRealtimeDispatcherPublishesToSubscriber(t *testing.T) {
	dispatcher := NewRealtimeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "AR", 2025)
	defer cleanup()

	dispatcher.PublishEvent(ranking.Event{
		Type:    ranking.EventRankingPublished,
		Country: "AR",
		Year:    2025,
		At:      time.Now().UTC(),
	})

	select {
	case received := <-stream:
		if received.EventType != ranking.EventRankingPublished {
			t.Fatalf("expected event type %s, got %s", ranking.EventRankingPublished, received.EventType)
		}
		if received.Country != "AR" || received.Year != 2025 {
			t.Fatalf("unexpected topic: %+v", received)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected realtime message within deadline")
	}
}

func TestRealtimeDispatcherIsolatedByPeriod(t *testing.T) {
	dispatcher := NewRealtimeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	argentina, cleanup := dispatcher.Subscribe(ctx, "AR", 2025)
	defer cleanup()
	lastYear, lastYearCleanup := dispatcher.Subscribe(ctx, "AR", 2024)
	defer lastYearCleanup()

	dispatcher.Publish(RealtimeMessage{
		Country:   "AR",
		Year:      2024,
		EventType: ranking.EventVotingPeriodChanged,
		Timestamp: time.Now().UTC(),
	})

	select {
	case <-argentina:
		t.Fatal("did not expect realtime message for another year")
	case <-time.After(200 * time.Millisecond):
	}

	select {
	case msg := <-lastYear:
		if msg.Year != 2024 {
			t.Fatalf("expected 2024, received %d", msg.Year)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected realtime message for subscribed period")
	}
}

func TestRealtimeDispatcherUnsubscribesOnContextEnd(t *testing.T) {
	dispatcher := NewRealtimeDispatcher()
	ctx, cancel := context.WithCancel(context.Background())

	_, cleanup := dispatcher.Subscribe(ctx, "MX", 2025)
	defer cleanup()
	if dispatcher.subscriberCount("MX", 2025) != 1 {
		t.Fatalf("expected one subscriber")
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for dispatcher.subscriberCount("MX", 2025) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected subscriber to be removed after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
