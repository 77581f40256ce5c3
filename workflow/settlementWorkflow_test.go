package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAllocatePayment(t *testing.T) {
	cases := []struct {
		name      string
		paid      string
		remaining string
		applied   string
		excess    string
	}{
		{"exact", "100", "100", "100", "0"},
		{"partial", "40", "100", "40", "0"},
		{"overpayment", "150", "100", "100", "50"},
		{"nothing outstanding", "25", "0", "0", "25"},
		{"fractional", "33.3333", "100", "33.3333", "0"},
	}
	for _, tc := range cases {
		applied, excess := AllocatePayment(
			decimal.RequireFromString(tc.paid),
			decimal.RequireFromString(tc.remaining),
		)
		if !applied.Equal(decimal.RequireFromString(tc.applied)) {
			t.Fatalf("%s: applied expected %s, got %s", tc.name, tc.applied, applied)
		}
		if !excess.Equal(decimal.RequireFromString(tc.excess)) {
			t.Fatalf("%s: excess expected %s, got %s", tc.name, tc.excess, excess)
		}
	}
}

func TestAllocatePayment_ConservesTheIncomingAmount(t *testing.T) {
	amounts := []string{"0", "0.0001", "12.5", "100", "99999.9999"}
	remainders := []string{"0", "50", "100.0001"}
	for _, a := range amounts {
		for _, r := range remainders {
			paid := decimal.RequireFromString(a)
			applied, excess := AllocatePayment(paid, decimal.RequireFromString(r))
			if !applied.Add(excess).Equal(paid) {
				t.Fatalf("paid %s against %s: applied %s + excess %s != paid", a, r, applied, excess)
			}
			if applied.IsNegative() || excess.IsNegative() {
				t.Fatalf("paid %s against %s: negative split %s / %s", a, r, applied, excess)
			}
		}
	}
}
