package pq

import "testing"

func TestPriorityQueue(t *testing.T) {
	q := Empty(func(a, b int) bool { return a < b })
	added := 0
	for _, x := range []int{5, 1, 4, 1, 3, 5} {
		if q.Add(x) {
			added++
		}
	}
	if added != 4 || q.Len() != 4 {
		t.Fatalf("Expected 4 distinct elements, added %d, queued %d", added, q.Len())
	}
	if !q.Contains(3) || q.Contains(2) {
		t.Error("Unexpected membership")
	}

	var got []int
	for !q.IsEmpty() {
		got = append(got, q.GetNext())
	}

	expected := []int{1, 3, 4, 5}
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, got)
			break
		}
	}

	// Popped elements may be added again.
	q.Add(1)
	if q.IsEmpty() || q.GetNext() != 1 {
		t.Error("Expected 1 to be queued again")
	}
}
