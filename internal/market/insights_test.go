package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nantuckethouses/server/internal/models"
)

func monthPoint(key string, price, dom, sold int) models.MonthlyMarketPoint {
	return models.MonthlyMarketPoint{
		MonthKey:           key,
		MedianPrice:        price,
		MedianDaysOnMarket: dom,
		SoldCount:          sold,
	}
}

// twoYearSeries builds Jan-Jun for 2024 and 2025 with uniform values,
// which individual tests then perturb to trigger a single rule.
func twoYearSeries(price2024, price2025, dom, sold int) []models.MonthlyMarketPoint {
	var series []models.MonthlyMarketPoint
	for _, key := range []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"} {
		series = append(series, monthPoint(key, price2024, dom, sold))
	}
	for _, key := range []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"} {
		series = append(series, monthPoint(key, price2025, dom, sold))
	}
	return series
}

var midJune2025 = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestDeriveInsights_PlaceholderForShortHistory(t *testing.T) {
	series := []models.MonthlyMarketPoint{
		monthPoint("2025-05", 2000000, 60, 10),
		monthPoint("2025-06", 2100000, 55, 12),
	}

	insights := DeriveInsights(series, nil, midJune2025)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightTrend, insights[0].Type)
	assert.Contains(t, insights[0].Statement, "being updated")
}

func TestDeriveInsights_YearOverYearPriceUp(t *testing.T) {
	// 2025 prices run 10% above the same months of 2024.
	series := twoYearSeries(1000000, 1100000, 0, 10)

	insights := DeriveInsights(series, nil, midJune2025)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightTrend, insights[0].Type)
	assert.Contains(t, insights[0].Statement, "up 10.0%")
	assert.Contains(t, insights[0].Statement, "year-over-year")
}

func TestDeriveInsights_YearOverYearClamped(t *testing.T) {
	// A tripling would read as +200%; the statement clamps at 50%.
	series := twoYearSeries(1000000, 3000000, 0, 10)

	insights := DeriveInsights(series, nil, midJune2025)

	var found bool
	for _, in := range insights {
		if in.Type == models.InsightTrend {
			assert.Contains(t, in.Statement, "up 50.0%")
			found = true
		}
	}
	assert.True(t, found, "expected a clamped year-over-year insight")
}

func TestDeriveInsights_YearOverYearNeedsBaseline(t *testing.T) {
	// Prior-year prices at or below $1000 are treated as junk data,
	// even when the nominal move would otherwise qualify.
	series := twoYearSeries(1000, 1300, 0, 10)

	insights := DeriveInsights(series, nil, midJune2025)

	assert.Empty(t, insights)
}

func TestDeriveInsights_SmallMoveSuppressed(t *testing.T) {
	// +1.5% is inside the 2% dead band.
	series := twoYearSeries(1000000, 1015000, 0, 10)

	insights := DeriveInsights(series, nil, midJune2025)

	assert.Empty(t, insights)
}

func TestDeriveInsights_DaysOnMarketLengthening(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 60, 10)
	// Lift the most recent three months to 90 days.
	for i := len(series) - 3; i < len(series); i++ {
		series[i].MedianDaysOnMarket = 90
	}

	insights := DeriveInsights(series, nil, midJune2025)

	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Statement, "taking longer")
	assert.Contains(t, insights[0].Statement, "33%")
}

func TestDeriveInsights_DaysOnMarketShortening(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 80, 10)
	for i := len(series) - 3; i < len(series); i++ {
		series[i].MedianDaysOnMarket = 40
	}

	insights := DeriveInsights(series, nil, midJune2025)

	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Statement, "shortened")
	assert.Contains(t, insights[0].Statement, "43%")
}

func TestDeriveInsights_DaysOnMarketGuard(t *testing.T) {
	// Sub-week DOM means the feed is reporting placeholder zeros;
	// no trend should be derived from it.
	series := twoYearSeries(1000000, 1000000, 2, 10)
	for i := len(series) - 3; i < len(series); i++ {
		series[i].MedianDaysOnMarket = 5
	}

	insights := DeriveInsights(series, nil, midJune2025)

	assert.Empty(t, insights)
}

func TestDeriveInsights_InventoryTight(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 0, 10)
	active := 30 // 3 months of supply at 10 sales/month

	insights := DeriveInsights(series, &active, midJune2025)

	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Statement, "tight")
}

func TestDeriveInsights_InventoryBalanced(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 0, 10)
	active := 100 // 10 months of supply

	insights := DeriveInsights(series, &active, midJune2025)

	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Statement, "balanced")
}

func TestDeriveInsights_InventoryMiddleRangeSilent(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 0, 10)
	active := 60 // 6 months of supply, the unremarkable middle

	insights := DeriveInsights(series, &active, midJune2025)

	// Serializes as [] rather than null when nothing fires.
	assert.NotNil(t, insights)
	assert.Empty(t, insights)
}

func TestDeriveInsights_PriceAnomaly(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 0, 10)
	// One month spikes 40% above the trailing-year median.
	series[8].MedianPrice = 1400000 // 2025-03

	insights := DeriveInsights(series, nil, midJune2025)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightAnomaly, insights[0].Type)
	assert.Contains(t, insights[0].Statement, "2025-03")
	assert.Contains(t, insights[0].Statement, "above the 12-month median")
}

func TestDeriveInsights_VolumeAnomaly(t *testing.T) {
	series := twoYearSeries(1000000, 1000000, 0, 10)
	series[len(series)-1].SoldCount = 30

	insights := DeriveInsights(series, nil, midJune2025)

	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightAnomaly, insights[0].Type)
	assert.Contains(t, insights[0].Statement, "unusually active")
}

func TestDeriveInsights_VolumeAnomalySkippedForFlatSeries(t *testing.T) {
	// Alternating 10/11 keeps the sample stddev under 1, so no z-score
	// can be trusted.
	series := twoYearSeries(1000000, 1000000, 0, 10)
	for i := range series {
		if i%2 == 0 {
			series[i].SoldCount = 11
		}
	}

	insights := DeriveInsights(series, nil, midJune2025)

	assert.Empty(t, insights)
}

func TestDeriveInsights_SortsInput(t *testing.T) {
	series := twoYearSeries(1000000, 1100000, 0, 10)
	// Reverse the series; results must match the sorted run.
	reversed := make([]models.MonthlyMarketPoint, len(series))
	for i, p := range series {
		reversed[len(series)-1-i] = p
	}

	a := DeriveInsights(series, nil, midJune2025)
	b := DeriveInsights(reversed, nil, midJune2025)

	assert.Equal(t, a, b)
}
