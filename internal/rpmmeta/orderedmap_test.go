package rpmmeta

import "testing"

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("c", 3)
	m.Set("a", 1)
	m.Set("b", 2)

	wantKeys := []string{"c", "a", "b"}
	gotKeys := m.Keys()
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("Keys() = %v, want %v", gotKeys, wantKeys)
	}
	for i, k := range wantKeys {
		if gotKeys[i] != k {
			t.Errorf("Keys()[%d] = %q, want %q", i, gotKeys[i], k)
		}
	}
}

func TestOrderedMapSetOverwritesInPlace(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 100)

	if got, _ := m.Get("a"); got != 100 {
		t.Errorf("Get(a) = %d, want 100", got)
	}
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("overwrite should not change position, got %v", keys)
	}
}

func TestOrderedMapGetOrInsert(t *testing.T) {
	m := NewOrderedMap[string, int]()
	got, inserted := m.GetOrInsert("a", 1)
	if !inserted || got != 1 {
		t.Errorf("first GetOrInsert = (%d, %v), want (1, true)", got, inserted)
	}
	got, inserted = m.GetOrInsert("a", 999)
	if inserted || got != 1 {
		t.Errorf("second GetOrInsert = (%d, %v), want (1, false)", got, inserted)
	}
}

func TestOrderedMapEachVisitsInOrder(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	var seen []string
	m.Each(func(k string, v int) { seen = append(seen, k) })
	if len(seen) != 3 || seen[0] != "x" || seen[1] != "y" || seen[2] != "z" {
		t.Errorf("Each visited %v out of order", seen)
	}
}

func TestOrderedMapGetMissing(t *testing.T) {
	m := NewOrderedMap[string, int]()
	if _, ok := m.Get("missing"); ok {
		t.Error("expected Get on empty map to report not found")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}
