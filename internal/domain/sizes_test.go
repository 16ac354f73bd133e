package domain

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		raw  string
		want Size
		ok   bool
	}{
		{"M", SizeM, true},
		{"m", SizeM, true},
		{"2xl", Size2XL, true},
		{"FREE", SizeFree, true},
		{"XXL", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseSize(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseSize(%q) = (%q, %t), want (%q, %t)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestWideRowToSizeRows(t *testing.T) {
	rows := WideRowToSizeRows(WideInventoryRow{Code: "GM-TP-AC-BK-01", M: 5, Free: 2})

	if len(rows) != len(Sizes) {
		t.Fatalf("got %d rows, want %d", len(rows), len(Sizes))
	}
	for i, row := range rows {
		if row.Size != Sizes[i] {
			t.Fatalf("row %d has size %s, want %s", i, row.Size, Sizes[i])
		}
		if row.Code != "GM-TP-AC-BK-01" {
			t.Fatalf("row %d has code %q", i, row.Code)
		}
	}
	if rows[1].StockQty != 5 || rows[6].StockQty != 2 {
		t.Fatalf("unexpected quantities: %+v", rows)
	}
	if rows[0].StockQty != 0 {
		t.Fatalf("absent size should be zero, got %d", rows[0].StockQty)
	}
}

func TestSizeRowsToWidePatch(t *testing.T) {
	patch := SizeRowsToWidePatch([]InventoryRow{
		{Size: SizeM, StockQty: 3},
		{Size: Size2XL, StockQty: 1},
	})

	if len(patch) != 2 {
		t.Fatalf("patch must only carry given sizes, got %v", patch)
	}
	if patch["m"] != 3 || patch["2xl"] != 1 {
		t.Fatalf("unexpected patch: %v", patch)
	}
	if _, ok := patch["s"]; ok {
		t.Fatalf("untouched column leaked into patch: %v", patch)
	}
}

func TestZeroFillSizes(t *testing.T) {
	rows := ZeroFillSizes("GM-TP-AC-BK-01", []InventoryRow{
		{Code: "GM-TP-AC-BK-01", Size: SizeL, StockQty: 4},
	})

	if len(rows) != 7 {
		t.Fatalf("got %d rows, want 7", len(rows))
	}
	for i, row := range rows {
		if row.Size != Sizes[i] {
			t.Fatalf("row %d out of order: %s", i, row.Size)
		}
		if row.SizeDisplay == "" {
			t.Fatalf("row %d missing size display", i)
		}
	}
	if rows[2].StockQty != 4 {
		t.Fatalf("existing row lost: %+v", rows[2])
	}
	if SumStock(rows) != 4 {
		t.Fatalf("sum = %d, want 4", SumStock(rows))
	}
}
