package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestVarianceExceeds(t *testing.T) {
	cases := []struct {
		name      string
		variance  string
		tolerance string
		want      bool
	}{
		{"exact count, zero tolerance", "0", "0", false},
		{"shortage beyond zero tolerance", "-0.01", "0", true},
		{"overage beyond zero tolerance", "0.01", "0", true},
		{"shortage within tolerance", "-1", "1", false},
		{"overage within tolerance", "1", "1", false},
		{"shortage beyond tolerance", "-1.5", "1", true},
		{"overage beyond tolerance", "2", "1", true},
		{"exact count with tolerance", "0", "5", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			variance := decimal.RequireFromString(c.variance)
			tolerance := decimal.RequireFromString(c.tolerance)
			if got := varianceExceeds(variance, tolerance); got != c.want {
				t.Fatalf("varianceExceeds(%s, %s) = %v, want %v", c.variance, c.tolerance, got, c.want)
			}
		})
	}
}
