package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tindahan/backend/internal/codes"
	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/money"
)

// Operating hours of the shop floor. The hour-of-day histogram only bins
// sales inside this window.
const (
	openingHour = 9
	closingHour = 22
)

const topSellerCount = 5

// Analytics aggregates the sales of an inclusive calendar-date window.
// Quantities and revenue count only the non-refunded portion of each line.
// Grouping keys come from the code-parts lexicon; a code segment without a
// label groups under the empty key rather than failing.
func (s *Service) Analytics(ctx context.Context, req domain.AnalyticsRequest) (*domain.AnalyticsReport, error) {
	from, to, err := dateRange(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	refunds, err := s.repo.ListRefunds(ctx, from, to)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.ListSaleGroups(ctx, from, to)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	lex, err := s.lexicon(ctx)
	if err != nil {
		return nil, err
	}

	productByCode := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productByCode[p.Code] = p
	}
	guideByGroup := make(map[string]string, len(groups))
	for _, g := range groups {
		guideByGroup[g.ID] = g.GuideID
	}

	report := &domain.AnalyticsReport{}

	skuTotals := make(map[string]*domain.SkuTotal)
	byCategory := make(map[string]*domain.RevenueBucket)
	byBrand := make(map[string]*domain.RevenueBucket)
	byGender := make(map[string]*domain.RevenueBucket)
	bySize := make(map[string]*domain.RevenueBucket)
	byColor := make(map[string]*domain.RevenueBucket)
	byGuide := make(map[string]*domain.RevenueBucket)
	weekly := make(map[string]*domain.SeriesPoint)
	monthly := make(map[string]*domain.SeriesPoint)
	weekdayQty := make(map[time.Weekday]int)
	hourQty := make(map[int]int)
	categoryProduct := make(map[string]map[string]*domain.RevenueBucket)
	categoryColor := make(map[string]map[string]*domain.RevenueBucket)
	transactions := make(map[string]struct{})

	for _, sale := range sales {
		activeQty := sale.ActiveQty()
		report.Summary.GrossRevenuePhp += sale.LineTotal()

		txKey := sale.GroupID
		if txKey == "" {
			txKey = sale.ID
		}
		transactions[txKey] = struct{}{}

		if activeQty <= 0 {
			continue
		}

		revenue := sale.UnitPricePhp * int64(activeQty)
		var unitCost int64
		if product, ok := productByCode[sale.Code]; ok {
			unitCost = money.ConvertCost(product.CostKrw)
		}
		cost := unitCost * int64(activeQty)

		report.Summary.ItemsSold += activeQty
		report.Summary.CostPhp += cost

		total, ok := skuTotals[sale.Code]
		if !ok {
			total = &domain.SkuTotal{Code: sale.Code, Name: sale.Name}
			skuTotals[sale.Code] = total
		}
		total.Qty += activeQty
		total.RevenuePhp += revenue
		total.CostPhp += cost
		total.ProfitPhp += revenue - cost

		parts, parseErr := codes.Parse(sale.Code)
		var categoryLabel, brandLabel, genderLabel, colorLabel string
		if parseErr == nil {
			categoryLabel = lex.Label(domain.GroupCategory, parts.Category)
			brandLabel = lex.Label(domain.GroupBrand, parts.Brand)
			genderLabel = lex.Label(domain.GroupGender, parts.Gender)
			colorLabel = lex.Label(domain.GroupColor, parts.Color)
		}

		addBucket(byCategory, categoryLabel, activeQty, revenue)
		addBucket(byBrand, brandLabel, activeQty, revenue)
		addBucket(byGender, genderLabel, activeQty, revenue)
		addBucket(bySize, string(sale.Size), activeQty, revenue)
		addBucket(byColor, colorLabel, activeQty, revenue)
		if sale.GroupID != "" {
			if guideID, ok := guideByGroup[sale.GroupID]; ok && guideID != "" {
				addBucket(byGuide, guideID, activeQty, revenue)
			}
		}

		productName := sale.Name
		if productName == "" {
			productName = sale.Code
		}
		if categoryProduct[categoryLabel] == nil {
			categoryProduct[categoryLabel] = make(map[string]*domain.RevenueBucket)
			categoryColor[categoryLabel] = make(map[string]*domain.RevenueBucket)
		}
		addBucket(categoryProduct[categoryLabel], productName, activeQty, revenue)
		addBucket(categoryColor[categoryLabel], colorLabel, activeQty, revenue)

		created := sale.CreatedAt.UTC()
		year, week := created.ISOWeek()
		addSeries(weekly, fmt.Sprintf("%04d-W%02d", year, week), activeQty, revenue)
		addSeries(monthly, created.Format("2006-01"), activeQty, revenue)
		weekdayQty[created.Weekday()] += activeQty
		if hour := created.Hour(); hour >= openingHour && hour < closingHour {
			hourQty[hour] += activeQty
		}
	}

	for _, refund := range refunds {
		report.Summary.RefundCount++
		report.Summary.RefundedPhp += refund.AmountPhp
	}
	for _, group := range groups {
		report.Summary.CommissionPhp += group.CommissionPhp
	}

	report.Summary.NetRevenuePhp = report.Summary.GrossRevenuePhp - report.Summary.RefundedPhp
	report.Summary.GrossProfitPhp = report.Summary.NetRevenuePhp - report.Summary.CostPhp
	report.Summary.RentPhp = s.rentPhp
	report.Summary.OwnerProfitPhp = report.Summary.GrossProfitPhp - report.Summary.CommissionPhp - s.rentPhp
	report.Summary.TransactionCount = len(transactions)
	if report.Summary.TransactionCount > 0 {
		report.Summary.AvgOrderValuePhp = report.Summary.NetRevenuePhp / int64(report.Summary.TransactionCount)
	}

	report.PerSku = sortedSkuTotals(skuTotals)
	report.BestSellers = topN(report.PerSku, topSellerCount)
	report.WorstSellers = bottomN(report.PerSku, topSellerCount)
	report.ByCategory = sortedBuckets(byCategory)
	report.ByBrand = sortedBuckets(byBrand)
	report.ByGender = sortedBuckets(byGender)
	report.BySize = sortedBuckets(bySize)
	report.ByColor = sortedBuckets(byColor)
	report.ByGuide = sortedBuckets(byGuide)
	report.CategoryHighlights = categoryHighlights(categoryProduct, categoryColor)
	report.Weekly = sortedSeries(weekly)
	report.Monthly = sortedSeries(monthly)
	report.WeekdayQty = weekdayBins(weekdayQty)
	report.HourQty = hourBins(hourQty)

	return report, nil
}

func addBucket(m map[string]*domain.RevenueBucket, key string, qty int, revenue int64) {
	bucket, ok := m[key]
	if !ok {
		bucket = &domain.RevenueBucket{Key: key}
		m[key] = bucket
	}
	bucket.Qty += qty
	bucket.RevenuePhp += revenue
}

func addSeries(m map[string]*domain.SeriesPoint, period string, qty int, revenue int64) {
	point, ok := m[period]
	if !ok {
		point = &domain.SeriesPoint{Period: period}
		m[period] = point
	}
	point.Qty += qty
	point.RevenuePhp += revenue
}

func sortedSkuTotals(m map[string]*domain.SkuTotal) []domain.SkuTotal {
	totals := make([]domain.SkuTotal, 0, len(m))
	for _, t := range m {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].RevenuePhp != totals[j].RevenuePhp {
			return totals[i].RevenuePhp > totals[j].RevenuePhp
		}
		return totals[i].Code < totals[j].Code
	})
	return totals
}

func topN(sorted []domain.SkuTotal, n int) []domain.SkuTotal {
	if len(sorted) < n {
		n = len(sorted)
	}
	top := make([]domain.SkuTotal, n)
	copy(top, sorted[:n])
	return top
}

// bottomN returns the weakest sellers, weakest first.
func bottomN(sorted []domain.SkuTotal, n int) []domain.SkuTotal {
	if len(sorted) < n {
		n = len(sorted)
	}
	bottom := make([]domain.SkuTotal, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		bottom = append(bottom, sorted[i])
	}
	return bottom
}

func sortedBuckets(m map[string]*domain.RevenueBucket) []domain.RevenueBucket {
	buckets := make([]domain.RevenueBucket, 0, len(m))
	for _, b := range m {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].RevenuePhp != buckets[j].RevenuePhp {
			return buckets[i].RevenuePhp > buckets[j].RevenuePhp
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

func sortedSeries(m map[string]*domain.SeriesPoint) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(m))
	for _, p := range m {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

func categoryHighlights(
	productByCategory map[string]map[string]*domain.RevenueBucket,
	colorByCategory map[string]map[string]*domain.RevenueBucket,
) []domain.CategoryHighlight {
	highlights := make([]domain.CategoryHighlight, 0, len(productByCategory))
	for category, productBuckets := range productByCategory {
		highlight := domain.CategoryHighlight{Category: category}
		for _, bucket := range sortedBuckets(productBuckets) {
			highlight.BestProduct = bucket.Key
			highlight.BestProductRevenuePhp = bucket.RevenuePhp
			break
		}

		colors := make([]domain.RevenueBucket, 0, len(colorByCategory[category]))
		for _, b := range colorByCategory[category] {
			colors = append(colors, *b)
		}
		sort.Slice(colors, func(i, j int) bool {
			if colors[i].Qty != colors[j].Qty {
				return colors[i].Qty > colors[j].Qty
			}
			return colors[i].Key < colors[j].Key
		})
		if len(colors) > 0 {
			highlight.BestColor = colors[0].Key
			highlight.BestColorQty = colors[0].Qty
		}
		highlights = append(highlights, highlight)
	}
	sort.Slice(highlights, func(i, j int) bool { return highlights[i].Category < highlights[j].Category })
	return highlights
}

func weekdayBins(qty map[time.Weekday]int) []domain.HistogramBin {
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	bins := make([]domain.HistogramBin, 0, len(order))
	for _, day := range order {
		bins = append(bins, domain.HistogramBin{Label: day.String(), Qty: qty[day]})
	}
	return bins
}

func hourBins(qty map[int]int) []domain.HistogramBin {
	bins := make([]domain.HistogramBin, 0, closingHour-openingHour)
	for hour := openingHour; hour < closingHour; hour++ {
		bins = append(bins, domain.HistogramBin{Label: fmt.Sprintf("%02d:00", hour), Qty: qty[hour]})
	}
	return bins
}
