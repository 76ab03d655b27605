package state

import (
	"strings"
	"sync"
	"testing"
)

func TestNewRune(t *testing.T) {
	r := NewRune(1299)
	if r.Get() != 1299 {
		t.Errorf("Expected initial value 1299, got %d", r.Get())
	}

	s := NewRune("Pickup")
	if s.Get() != "Pickup" {
		t.Errorf("Expected initial value 'Pickup', got %s", s.Get())
	}
}

func TestRuneSubscribeIsSynchronous(t *testing.T) {
	visible := NewRune(false)
	var received []bool

	unsub := visible.Subscribe(func(v bool) {
		received = append(received, v)
	})
	defer unsub()

	visible.Set(true)
	if len(received) != 1 || !received[0] {
		t.Fatalf("Expected [true] right after Set, got %v", received)
	}

	visible.Set(false)
	if len(received) != 2 || received[1] {
		t.Errorf("Expected [true false], got %v", received)
	}
}

func TestRuneSetSameValueDoesNotNotify(t *testing.T) {
	r := NewRune(10)
	count := 0
	defer r.Subscribe(func(int) { count++ })()

	r.Set(10)
	r.Set(10)
	if count != 0 {
		t.Errorf("Expected 0 notifications for unchanged value, got %d", count)
	}
}

func TestRuneUnsubscribe(t *testing.T) {
	r := NewRune(0)
	count := 0

	unsub := r.Subscribe(func(int) { count++ })
	r.Set(1)
	unsub()
	unsub()
	r.Set(2)

	if count != 1 {
		t.Errorf("Expected 1 notification after unsubscribe, got %d", count)
	}
}

func TestRuneUpdate(t *testing.T) {
	qty := NewRune(2)
	qty.Update(func(v int) int { return v + 1 })
	if qty.Get() != 3 {
		t.Errorf("Expected value 3 after update, got %d", qty.Get())
	}
}

func TestRuneSliceValues(t *testing.T) {
	pickup := NewRune([]string{"store-1"})
	count := 0
	defer pickup.Subscribe(func([]string) { count++ })()

	pickup.Set([]string{"store-1"})
	if count != 0 {
		t.Errorf("Expected deep-equal slice to be ignored, got %d notifications", count)
	}
	pickup.Set(nil)
	if count != 1 {
		t.Errorf("Expected 1 notification, got %d", count)
	}
}

func TestRuneAnyHoldsMixedTypes(t *testing.T) {
	r := NewRune[any](true)
	count := 0
	defer r.SubscribeAny(func(any) { count++ })()

	r.Set("yes")
	if count != 1 {
		t.Errorf("Expected 1 notification when dynamic type changes, got %d", count)
	}
	if r.GetAny() != "yes" {
		t.Errorf("Expected 'yes' from GetAny, got %v", r.GetAny())
	}
}

func TestRuneConcurrentAccess(t *testing.T) {
	r := NewRune(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(val int) {
			defer wg.Done()
			r.Set(val)
		}(i)
		go func() {
			defer wg.Done()
			_ = r.Get()
		}()
	}
	wg.Wait()
}

func TestRuneID(t *testing.T) {
	r1 := NewRune(1)
	r2 := NewRune(2)

	if r1.ID() == r2.ID() {
		t.Error("Expected different IDs for different runes")
	}
	if r1.ID() == "" {
		t.Error("Expected non-empty ID")
	}
}

func TestRuneMarshalJSON(t *testing.T) {
	r := NewRune(42)
	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if !strings.Contains(string(data), `"value":42`) || !strings.Contains(string(data), `"id":"`+r.ID()+`"`) {
		t.Errorf("Unexpected JSON %s", data)
	}
}
