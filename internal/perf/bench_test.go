// Package perf holds benchmarks and latency guards for the hot public paths.
package perf

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irrigo/irrigo/internal/catalog"
	"github.com/irrigo/irrigo/internal/quotes"
)

func products(n int) []catalog.Product {
	categories := catalog.Categories
	out := make([]catalog.Product, n)
	for i := range out {
		price := decimal.NewFromInt(int64(1000 + (i*37)%90000))
		out[i] = catalog.Product{
			ID:       int64(i + 1),
			Slug:     fmt.Sprintf("product-%d", i),
			Name:     fmt.Sprintf("Product %d", i),
			Summary:  "drip sprinkler pivot pump",
			Category: categories[i%len(categories)],
			Price:    &price,
			Featured: i%7 == 0,
			Active:   true,
			Variants: []catalog.Variant{
				{Name: "small", Price: price.Div(decimal.NewFromInt(2)), InStock: i%3 != 0},
				{Name: "large", Price: price.Mul(decimal.NewFromInt(2)), InStock: true},
			},
		}
	}
	return out
}

func items(n int) []quotes.Item {
	out := make([]quotes.Item, n)
	override := decimal.NewFromInt(8)
	for i := range out {
		out[i] = quotes.Item{
			Position:  i + 1,
			Quantity:  decimal.NewFromFloat(float64(i%9) + 0.5),
			UnitPrice: decimal.NewFromFloat(1234.56 + float64(i)),
		}
		if i%4 == 0 {
			out[i].VATRate = &override
		}
	}
	return out
}

func BenchmarkCatalogApply(b *testing.B) {
	set := products(500)
	q := catalog.Query{Search: "pump", InStockOnly: true, Sort: catalog.SortPriceAsc, Page: 2, PerPage: 12}
	b.ReportAllocs()
	for b.Loop() {
		catalog.Apply(set, q)
	}
}

func BenchmarkComputeQuoteTotals(b *testing.B) {
	lines := items(50)
	cfg := quotes.VATConfig{Enabled: true, Rate: decimal.NewFromInt(16)}
	b.ReportAllocs()
	for b.Loop() {
		quotes.ComputeQuoteTotals(lines, cfg)
	}
}

// TestCatalogListingLatency keeps the in-memory listing of a large catalogue
// well inside a request budget.
func TestCatalogListingLatency(t *testing.T) {
	if testing.Short() {
		t.Skip("latency guard skipped in short mode")
	}
	set := products(2000)
	queries := []catalog.Query{
		{Sort: catalog.SortNewest},
		{Search: "product 1", Sort: catalog.SortName},
		{Category: catalog.Categories[0], InStockOnly: true, Sort: catalog.SortPriceDesc, Page: 3},
	}
	samples := make([]time.Duration, 0, 60)
	for i := 0; i < 20; i++ {
		for _, q := range queries {
			start := time.Now()
			catalog.Apply(set, q)
			samples = append(samples, time.Since(start))
		}
	}
	if p95 := percentile95(samples); p95 > 50*time.Millisecond {
		t.Fatalf("catalog listing latency regression: p95=%s", p95)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[min(max(index, 0), len(sorted)-1)]
}
