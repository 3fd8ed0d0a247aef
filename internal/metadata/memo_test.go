package metadata

import (
	"fmt"
	"testing"
	"time"
)

func TestMemo_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemo[string](time.Minute, 8)
	m.now = func() time.Time { return now }

	m.Put("B1hSG45JCX4C", "Dune")
	if v, ok := m.Get("B1hSG45JCX4C"); !ok || v != "Dune" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := m.Get("B1hSG45JCX4C"); ok {
		t.Error("expired entry still served")
	}

	m.Put("tt1375666", "Inception")
	if n := m.Len(); n != 1 {
		t.Errorf("expired entry not evicted, len = %d", n)
	}
}

func TestMemo_BoundedOldestDroppedFirst(t *testing.T) {
	m := NewMemo[int](time.Hour, 3)
	for i := range 10 {
		m.Put(fmt.Sprintf("id-%d", i), i)
	}
	if n := m.Len(); n != 3 {
		t.Fatalf("len = %d, want 3", n)
	}
	for i := range 7 {
		if _, ok := m.Get(fmt.Sprintf("id-%d", i)); ok {
			t.Errorf("id-%d should have been evicted", i)
		}
	}
	for i := 7; i < 10; i++ {
		if v, ok := m.Get(fmt.Sprintf("id-%d", i)); !ok || v != i {
			t.Errorf("id-%d = %d, %v", i, v, ok)
		}
	}
}

func TestMemo_PutReplacesAndRefreshes(t *testing.T) {
	m := NewMemo[string](time.Hour, 2)
	m.Put("a", "old")
	m.Put("b", "b")
	m.Put("a", "new") // a is now the newest
	m.Put("c", "c")   // drops b, not a

	if v, ok := m.Get("a"); !ok || v != "new" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if _, ok := m.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if n := m.Len(); n != 2 {
		t.Errorf("len = %d, want 2", n)
	}
}
