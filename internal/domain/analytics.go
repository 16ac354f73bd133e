package domain

// AnalyticsSummary is the headline block of the analytics report. All money
// is PHP. Owner profit is gross profit minus commission and the rent
// deduction.
type AnalyticsSummary struct {
	GrossRevenuePhp  int64 `json:"gross_revenue_php"`
	RefundedPhp      int64 `json:"refunded_php"`
	NetRevenuePhp    int64 `json:"net_revenue_php"`
	CostPhp          int64 `json:"cost_php"`
	GrossProfitPhp   int64 `json:"gross_profit_php"`
	CommissionPhp    int64 `json:"commission_php"`
	RentPhp          int64 `json:"rent_php"`
	OwnerProfitPhp   int64 `json:"owner_profit_php"`
	TransactionCount int   `json:"transaction_count"`
	ItemsSold        int   `json:"items_sold"`
	AvgOrderValuePhp int64 `json:"avg_order_value_php"`
	RefundCount      int   `json:"refund_count"`
}

// SkuTotal aggregates the non-refunded quantity of one product code.
type SkuTotal struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	RevenuePhp int64  `json:"revenue_php"`
	CostPhp    int64  `json:"cost_php"`
	ProfitPhp  int64  `json:"profit_php"`
}

// RevenueBucket is one grouping row (by category, brand, gender, size, color
// or guide). Key is the lexicon label; an unmapped code segment yields an
// empty key.
type RevenueBucket struct {
	Key        string `json:"key"`
	Qty        int    `json:"qty"`
	RevenuePhp int64  `json:"revenue_php"`
}

// CategoryHighlight names the strongest product and color inside one
// category.
type CategoryHighlight struct {
	Category              string `json:"category"`
	BestProduct           string `json:"best_product"`
	BestProductRevenuePhp int64  `json:"best_product_revenue_php"`
	BestColor             string `json:"best_color"`
	BestColorQty          int    `json:"best_color_qty"`
}

// SeriesPoint is one step of a weekly ("2026-W05") or monthly ("2026-01")
// revenue series.
type SeriesPoint struct {
	Period     string `json:"period"`
	Qty        int    `json:"qty"`
	RevenuePhp int64  `json:"revenue_php"`
}

// HistogramBin is one bar of the weekday or hour-of-day quantity histogram.
type HistogramBin struct {
	Label string `json:"label"`
	Qty   int    `json:"qty"`
}

type AnalyticsRequest struct {
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

type AnalyticsReport struct {
	Summary            AnalyticsSummary    `json:"summary"`
	BestSellers        []SkuTotal          `json:"best_sellers"`
	WorstSellers       []SkuTotal          `json:"worst_sellers"`
	PerSku             []SkuTotal          `json:"per_sku"`
	ByCategory         []RevenueBucket     `json:"by_category"`
	ByBrand            []RevenueBucket     `json:"by_brand"`
	ByGender           []RevenueBucket     `json:"by_gender"`
	BySize             []RevenueBucket     `json:"by_size"`
	ByColor            []RevenueBucket     `json:"by_color"`
	ByGuide            []RevenueBucket     `json:"by_guide"`
	CategoryHighlights []CategoryHighlight `json:"category_highlights"`
	Weekly             []SeriesPoint       `json:"weekly"`
	Monthly            []SeriesPoint       `json:"monthly"`
	WeekdayQty         []HistogramBin      `json:"weekday_qty"`
	HourQty            []HistogramBin      `json:"hour_qty"`
}
