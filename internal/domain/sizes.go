package domain

import "strings"

// Size is one of the fixed ordered size set. Sizes is the single source of
// truth for both the normalized row keys and the wide remote column names.
type Size string

const (
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
	Size2XL  Size = "2XL"
	Size3XL  Size = "3XL"
	SizeFree Size = "Free"
)

var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL, Size2XL, Size3XL, SizeFree}

var sizeColumns = map[Size]string{
	SizeS:    "s",
	SizeM:    "m",
	SizeL:    "l",
	SizeXL:   "xl",
	Size2XL:  "2xl",
	Size3XL:  "3xl",
	SizeFree: "free",
}

// SizeColumn is the wide-row column name for a size key.
func SizeColumn(size Size) string {
	return sizeColumns[size]
}

// ParseSize matches a size key case-insensitively against the fixed set,
// tolerating the lowercase wide-row column names as well.
func ParseSize(raw string) (Size, bool) {
	for _, size := range Sizes {
		if strings.EqualFold(string(size), raw) {
			return size, true
		}
	}
	return "", false
}

// WideInventoryRow is the denormalized remote representation: one row per
// product code with one stock column per size.
type WideInventoryRow struct {
	Code string `json:"code"`
	S    int    `json:"s"`
	M    int    `json:"m"`
	L    int    `json:"l"`
	XL   int    `json:"xl"`
	XXL  int    `json:"2xl"`
	XXXL int    `json:"3xl"`
	Free int    `json:"free"`
}

func (w WideInventoryRow) qty(size Size) int {
	switch size {
	case SizeS:
		return w.S
	case SizeM:
		return w.M
	case SizeL:
		return w.L
	case SizeXL:
		return w.XL
	case Size2XL:
		return w.XXL
	case Size3XL:
		return w.XXXL
	case SizeFree:
		return w.Free
	}
	return 0
}

// WideRowToSizeRows expands a wide remote row into the normalized per-size
// rows, one per size in the fixed order. Absent stock becomes an explicit
// zero row so callers always see the complete size set.
func WideRowToSizeRows(row WideInventoryRow) []InventoryRow {
	rows := make([]InventoryRow, 0, len(Sizes))
	for _, size := range Sizes {
		rows = append(rows, InventoryRow{
			Code:        row.Code,
			Size:        size,
			StockQty:    row.qty(size),
			SizeDisplay: string(size),
		})
	}
	return rows
}

// SizeRowsToWidePatch folds normalized rows into a column patch for the wide
// remote row. Only sizes present in the input appear in the patch, so a
// partial update never clobbers untouched columns.
func SizeRowsToWidePatch(rows []InventoryRow) map[string]any {
	patch := make(map[string]any, len(rows))
	for _, row := range rows {
		col, ok := sizeColumns[row.Size]
		if !ok {
			continue
		}
		patch[col] = row.StockQty
	}
	return patch
}

// ZeroFillSizes returns exactly one row per size in the fixed order,
// synthesizing zero-stock rows for sizes absent from the input.
func ZeroFillSizes(code string, rows []InventoryRow) []InventoryRow {
	bySize := make(map[Size]InventoryRow, len(rows))
	for _, row := range rows {
		bySize[row.Size] = row
	}

	full := make([]InventoryRow, 0, len(Sizes))
	for _, size := range Sizes {
		if row, ok := bySize[size]; ok {
			if row.SizeDisplay == "" {
				row.SizeDisplay = string(size)
			}
			full = append(full, row)
			continue
		}
		full = append(full, InventoryRow{
			Code:        code,
			Size:        size,
			StockQty:    0,
			SizeDisplay: string(size),
		})
	}
	return full
}

// SumStock totals the stock of the given rows. Transient negative values are
// counted as-is; callers decide how to surface them.
func SumStock(rows []InventoryRow) int {
	total := 0
	for _, row := range rows {
		total += row.StockQty
	}
	return total
}
