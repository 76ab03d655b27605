package state

import (
	"testing"
	"time"
)

func TestNewDerived(t *testing.T) {
	qty := NewRune(2)
	total := NewDerived(func() int64 {
		return 500 * int64(qty.Get())
	})

	if total.Get() != 1000 {
		t.Errorf("Expected initial derived value 1000, got %d", total.Get())
	}
}

func TestDerivedRecomputesOnRead(t *testing.T) {
	qty := NewRune(2)
	calls := 0
	total := DerivedFrom(func() int64 {
		calls++
		return 500 * int64(qty.Get())
	}, qty)

	qty.Set(3)
	if calls != 1 {
		t.Errorf("Expected lazy recompute without subscribers, got %d calls", calls)
	}
	if total.Get() != 1500 {
		t.Errorf("Expected recomputed value 1500, got %d", total.Get())
	}
	_ = total.Get()
	if calls != 2 {
		t.Errorf("Expected 2 computations, got %d", calls)
	}
}

func TestDerivedSubscribe(t *testing.T) {
	pickup := NewRune(false)
	errs := NewRune(0)
	gate := DerivedFrom(func() bool {
		return pickup.Get() && errs.Get() == 0
	}, pickup, errs)

	var received []bool
	defer gate.Subscribe(func(v bool) { received = append(received, v) })()

	pickup.Set(true)
	errs.Set(1)
	errs.Set(2) // gate stays false, no notification

	if len(received) != 2 || !received[0] || received[1] {
		t.Errorf("Expected [true false], got %v", received)
	}
}

func TestDerivedDispose(t *testing.T) {
	qty := NewRune(1)
	calls := 0
	d := DerivedFrom(func() int {
		calls++
		return qty.Get()
	}, qty)
	d.Subscribe(func(int) {})

	d.Dispose()
	qty.Set(5)
	if calls != 1 {
		t.Errorf("Expected no recompute after Dispose, got %d calls", calls)
	}
}

func TestWatch(t *testing.T) {
	r := NewRune("Delivery")
	var seen []string
	stop := Watch[string](r, func(v string) { seen = append(seen, v) })

	r.Set("Pickup")
	stop()
	r.Set("Delivery")

	if len(seen) != 2 || seen[0] != "Delivery" || seen[1] != "Pickup" {
		t.Errorf("Expected [Delivery Pickup], got %v", seen)
	}
}

func TestEffectCleanup(t *testing.T) {
	open := NewRune(false)
	var log []string

	e := NewEffect(func() CleanupFunc {
		if !open.Get() {
			return nil
		}
		log = append(log, "lock")
		return func() { log = append(log, "unlock") }
	}, open)

	open.Set(true)
	open.Set(false)
	open.Set(true)
	e.Dispose()
	e.Dispose()

	want := []string{"lock", "unlock", "lock", "unlock"}
	if len(log) != len(want) {
		t.Fatalf("Expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, log)
			break
		}
	}
}

func TestDerivedConcurrentRefreshKeepsLatest(t *testing.T) {
	src := NewRune(0)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	d := DerivedFrom(func() int {
		v := src.Get()
		if v == 1 {
			entered <- struct{}{}
			<-release
		}
		return v
	}, src)
	defer d.Subscribe(func(int) {})()

	first := make(chan struct{})
	go func() {
		src.Set(1)
		close(first)
	}()
	<-entered

	second := make(chan struct{})
	go func() {
		src.Set(2)
		close(second)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-first
	<-second

	if got := d.Get(); got != 2 {
		t.Errorf("Expected derived to settle on latest source 2, got %d", got)
	}
}
