package workflow

import "testing"

func TestOrderedBoxIds(t *testing.T) {
	cases := []struct {
		a, b  int
		first int
	}{
		{1, 2, 1},
		{2, 1, 1},
		{9, 9, 9},
		{100, 3, 3},
	}
	for _, tc := range cases {
		got := orderedBoxIds(tc.a, tc.b)
		if len(got) != 2 {
			t.Fatalf("orderedBoxIds(%d, %d) returned %d ids", tc.a, tc.b, len(got))
		}
		if got[0] != tc.first {
			t.Fatalf("orderedBoxIds(%d, %d) expected %d first, got %d", tc.a, tc.b, tc.first, got[0])
		}
		if got[0] > got[1] {
			t.Fatalf("orderedBoxIds(%d, %d) not ascending: %v", tc.a, tc.b, got)
		}
	}
}

// Two crossing transfers lock in the same order regardless of direction, so
// they can never hold each other's row.
func TestOrderedBoxIds_SymmetricPairsAgree(t *testing.T) {
	forward := orderedBoxIds(4, 17)
	backward := orderedBoxIds(17, 4)
	if forward[0] != backward[0] || forward[1] != backward[1] {
		t.Fatalf("lock order differs by direction: %v vs %v", forward, backward)
	}
}
