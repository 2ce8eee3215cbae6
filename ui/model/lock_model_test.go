package model

import (
	"testing"
	"time"
)

func TestLockModel_Lifecycle(t *testing.T) {
	m := NewLockModel()
	base := time.Unix(0, 0)

	m.OnTick(true, base)
	m.OnTick(true, base.Add(5*time.Second))
	cur, total := m.Values()
	if cur != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s lock and total; got cur=%v total=%v", cur, total)
	}

	m.OnTick(false, base.Add(5*time.Second))
	m.OnTick(false, base.Add(7*time.Second))
	cur2, total2 := m.Values()
	if cur2 != cur || total2 != total {
		t.Fatalf("idle ticks changed durations: cur=%v total=%v", cur2, total2)
	}

	m.OnTick(true, base.Add(10*time.Second))
	m.OnTick(true, base.Add(13*time.Second))
	cur, total = m.Values()
	if cur != 3*time.Second || total != 8*time.Second {
		t.Fatalf("second lock expected 3s/8s; got cur=%v total=%v", cur, total)
	}
	if m.Locks() != 2 {
		t.Fatalf("expected 2 locks, got %d", m.Locks())
	}
}

func TestLockModel_NilSafe(t *testing.T) {
	var m *LockModel
	m.OnTick(true, time.Now())
	if c, tot := m.Values(); c != 0 || tot != 0 {
		t.Fatalf("nil model should report zero")
	}
}
