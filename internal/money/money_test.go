package money

import "testing"

func TestCommission(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		rate     float64
		want     int64
	}{
		{"ten percent", 3000, 0.10, 300},
		{"rounds to nearest peso", 999, 0.10, 100},
		{"rounds half up", 50, 0.05, 3},
		{"zero rate", 3000, 0, 0},
		{"zero subtotal", 0, 0.10, 0},
		{"negative subtotal", -100, 0.10, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Commission(tc.subtotal, tc.rate); got != tc.want {
				t.Fatalf("Commission(%d, %v) = %d, want %d", tc.subtotal, tc.rate, got, tc.want)
			}
		})
	}
}

func TestConvertCost(t *testing.T) {
	tests := []struct {
		name    string
		costKrw int64
		want    int64
	}{
		{"whole division", 20000, 1000},
		{"rounds to nearest peso", 1010, 51},
		{"missing cost", 0, 0},
		{"negative cost", -500, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConvertCost(tc.costKrw); got != tc.want {
				t.Fatalf("ConvertCost(%d) = %d, want %d", tc.costKrw, got, tc.want)
			}
		})
	}
}
