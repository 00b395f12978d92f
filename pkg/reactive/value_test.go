package reactive

import "testing"

func TestValueGetSet(t *testing.T) {
	v := NewValue(42)
	if got := v.Get(); got != 42 {
		t.Errorf("expected initial value 42, got %d", got)
	}
	v.Set(100)
	if got := v.Get(); got != 100 {
		t.Errorf("expected value 100 after Set, got %d", got)
	}
}

func TestValueNotifiesSynchronously(t *testing.T) {
	v := NewValue("a")
	var seen []string
	v.Subscribe(func(s string) { seen = append(seen, s) })

	v.Set("b")
	v.Set("c")

	if len(seen) != 2 || seen[0] != "b" || seen[1] != "c" {
		t.Errorf("unexpected notifications %v", seen)
	}
}

func TestValueUpdate(t *testing.T) {
	v := NewValue(10)
	var notified int
	v.Subscribe(func(n int) { notified = n })

	v.Update(func(n int) int { return n * 2 })

	if v.Get() != 20 {
		t.Errorf("expected 20, got %d", v.Get())
	}
	if notified != 20 {
		t.Errorf("subscriber saw %d, want 20", notified)
	}
}

func TestValueUnsubscribe(t *testing.T) {
	v := NewValue(0)
	count := 0
	unsub := v.Subscribe(func(int) { count++ })

	v.Set(1)
	unsub()
	v.Set(2)
	unsub() // second call is a no-op

	if count != 1 {
		t.Errorf("expected 1 notification, got %d", count)
	}
}

func TestValueMultipleSubscribers(t *testing.T) {
	v := NewValue(0)
	a, b := 0, 0
	v.Subscribe(func(n int) { a = n })
	v.Subscribe(func(n int) { b = n })

	v.Set(7)

	if a != 7 || b != 7 {
		t.Errorf("expected both subscribers to see 7, got %d and %d", a, b)
	}
}
