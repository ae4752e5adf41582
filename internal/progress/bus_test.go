package progress

import (
	"sync"
	"testing"

	"github.com/troupelabs/troupe/pkg/models"
)

func TestSubscribeReceivesEventsInOrder(t *testing.T) {
	bus := NewBus()

	var got []string
	dispose := bus.Subscribe(func(p models.WorkflowProgress) {
		got = append(got, p.StepID)
	})
	defer dispose()

	for _, step := range []string{"a", "b", "c"} {
		bus.Publish(models.WorkflowProgress{WorkflowID: "wf", StepID: step, Status: models.StepRunning})
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i] != want {
			t.Errorf("event %d: expected step %q, got %q", i, want, got[i])
		}
	}
}

func TestDisposerStopsDelivery(t *testing.T) {
	bus := NewBus()

	count := 0
	dispose := bus.Subscribe(func(models.WorkflowProgress) {
		count++
	})

	bus.Publish(models.WorkflowProgress{StepID: "a"})
	dispose()
	bus.Publish(models.WorkflowProgress{StepID: "b"})

	if count != 1 {
		t.Errorf("expected 1 event after dispose, got %d", count)
	}

	// Double dispose should not panic or affect other subscribers.
	dispose()
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	bus := NewBus()

	var first, second []string
	bus.Subscribe(func(p models.WorkflowProgress) {
		first = append(first, p.StepID)
	})
	bus.Subscribe(func(p models.WorkflowProgress) {
		second = append(second, p.StepID)
	})

	bus.Publish(models.WorkflowProgress{StepID: "x"})
	bus.Publish(models.WorkflowProgress{StepID: "y"})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both subscribers to see 2 events, got %d and %d", len(first), len(second))
	}
	if first[0] != "x" || second[0] != "x" {
		t.Errorf("expected both subscribers to see x first, got %q and %q", first[0], second[0])
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	// Must not panic.
	bus.Publish(models.WorkflowProgress{StepID: "a"})
}

func TestConcurrentPublishDeliversEverything(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := 0
	bus.Subscribe(func(models.WorkflowProgress) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	const publishers = 8
	const perPublisher = 25

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				bus.Publish(models.WorkflowProgress{StepID: "p"})
			}
		}()
	}
	wg.Wait()

	if seen != publishers*perPublisher {
		t.Errorf("expected %d deliveries, got %d", publishers*perPublisher, seen)
	}
}
