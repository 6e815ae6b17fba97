package market

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"nantuckethouses/server/internal/models"
)

// Fixed thresholds for the insight rules. These are design constants,
// not configuration.
const (
	yoyClampPct     = 50.0
	yoyEmitPct      = 2.0
	yoyMinBaseline  = 1000.0
	domClampPct     = 60.0
	domEmitPct      = 15.0
	domMinMeanDays  = 7.0
	tightSupplyMax  = 4.0
	balancedSupply  = 8.0
	priceAnomalyPct = 25.0
	volumeAnomalyZ  = 1.8
	volumeMinStdDev = 1.0
)

// placeholderInsight is returned when there is not enough history to say
// anything meaningful.
var placeholderInsight = models.Insight{
	Type:      models.InsightTrend,
	Statement: "Market insights are being updated as more historical data becomes available from the MLS feed.",
}

// DeriveInsights turns a monthly sold-market series and the current active
// listing count into short narrative statements. It is a pure function of
// its inputs; now supplies the calendar reference for year-over-year
// comparisons. Each rule silently contributes nothing when its data
// guards are not met.
func DeriveInsights(series []models.MonthlyMarketPoint, activeListingCount *int, now time.Time) []models.Insight {
	if len(series) < 3 {
		return []models.Insight{placeholderInsight}
	}

	sorted := append([]models.MonthlyMarketPoint(nil), series...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MonthKey < sorted[j].MonthKey })

	currentYear := now.Year()
	currentMonth := int(now.Month())

	insights := []models.Insight{}

	last3 := lastThreeOfYear(sorted, currentYear, currentMonth)
	last12 := sorted
	if len(last12) > 12 {
		last12 = last12[len(last12)-12:]
	}

	if st := yoyPriceTrend(sorted, last3, currentYear); st != nil {
		insights = append(insights, *st)
	}
	if st := daysOnMarketTrend(last3, last12); st != nil {
		insights = append(insights, *st)
	}
	if st := inventoryTrend(last12, activeListingCount); st != nil {
		insights = append(insights, *st)
	}
	if st := priceAnomaly(last12); st != nil {
		insights = append(insights, *st)
	}
	if st := volumeAnomaly(last12); st != nil {
		insights = append(insights, *st)
	}

	return insights
}

// lastThreeOfYear returns up to the three most recent complete months of
// the current calendar year.
func lastThreeOfYear(sorted []models.MonthlyMarketPoint, year, month int) []models.MonthlyMarketPoint {
	var current []models.MonthlyMarketPoint
	for _, m := range sorted {
		var y, mo int
		if _, err := fmt.Sscanf(m.MonthKey, "%d-%d", &y, &mo); err != nil {
			continue
		}
		if y == year && mo <= month {
			current = append(current, m)
		}
	}
	if len(current) > 3 {
		current = current[len(current)-3:]
	}
	return current
}

// yoyPriceTrend compares the mean median price of the last three months
// against the same calendar months one year earlier. The percent change
// is clamped to ±50% and reported only when the prior-year baseline is
// meaningful and the move exceeds 2%.
func yoyPriceTrend(sorted, last3 []models.MonthlyMarketPoint, currentYear int) *models.Insight {
	if len(last3) == 0 {
		return nil
	}

	priorKeys := make(map[string]bool, len(last3))
	for _, m := range last3 {
		parts := strings.SplitN(m.MonthKey, "-", 2)
		if len(parts) == 2 {
			priorKeys[fmt.Sprintf("%d-%s", currentYear-1, parts[1])] = true
		}
	}

	var prior []models.MonthlyMarketPoint
	for _, m := range sorted {
		if priorKeys[m.MonthKey] {
			prior = append(prior, m)
		}
	}
	if len(prior) == 0 {
		return nil
	}

	recentMean := mean(medianPrices(last3))
	priorMean := mean(medianPrices(prior))
	if priorMean <= yoyMinBaseline {
		return nil
	}

	pct := clamp((recentMean-priorMean)/priorMean*100, -yoyClampPct, yoyClampPct)
	var direction string
	switch {
	case pct > yoyEmitPct:
		direction = "up"
	case pct < -yoyEmitPct:
		direction = "down"
	default:
		return nil
	}

	return &models.Insight{
		Type: models.InsightTrend,
		Statement: fmt.Sprintf(
			"Median sold price is %s %.1f%% year-over-year for the same three-month period, based on closed sales from the MLS feed.",
			direction, abs(pct)),
	}
}

// daysOnMarketTrend compares recent DOM against the trailing 12-month
// average. Requires both means to be at least a week and at least one
// recent month with real DOM data, since unclosed months often report
// zeros.
func daysOnMarketTrend(last3, last12 []models.MonthlyMarketPoint) *models.Insight {
	if len(last3) == 0 || len(last12) == 0 {
		return nil
	}

	avg12 := mean(domValues(last12))
	recent := mean(domValues(last3))

	anyReal := false
	for _, m := range last3 {
		if m.MedianDaysOnMarket >= 1 {
			anyReal = true
			break
		}
	}
	if recent < domMinMeanDays || avg12 < domMinMeanDays || !anyReal {
		return nil
	}

	pct := clamp((recent-avg12)/avg12*100, -domClampPct, domClampPct)
	if pct <= -domEmitPct {
		return &models.Insight{
			Type: models.InsightTrend,
			Statement: fmt.Sprintf(
				"Days on market have shortened recently, about %.0f%% below the last 12 months' average, suggesting a quicker-moving segment of the market.",
				abs(pct)),
		}
	}
	if pct >= domEmitPct {
		return &models.Insight{
			Type: models.InsightTrend,
			Statement: fmt.Sprintf(
				"Properties are taking longer to sell lately, roughly %.0f%% above the 12-month average days on market.",
				pct),
		}
	}
	return nil
}

// inventoryTrend converts active inventory and trailing sales velocity
// into a months-of-supply statement. Nothing is emitted for the balanced
// middle range.
func inventoryTrend(last12 []models.MonthlyMarketPoint, activeListingCount *int) *models.Insight {
	if activeListingCount == nil || len(last12) == 0 {
		return nil
	}

	avgSoldPerMonth := mean(soldCounts(last12))
	if avgSoldPerMonth < 1 {
		return nil
	}

	monthsSupply := float64(*activeListingCount) / avgSoldPerMonth
	if monthsSupply <= tightSupplyMax {
		return &models.Insight{
			Type: models.InsightTrend,
			Statement: fmt.Sprintf(
				"At current sales velocity, active listing count suggests a relatively tight market (under ~%.0f months of supply).",
				monthsSupply),
		}
	}
	if monthsSupply >= balancedSupply {
		return &models.Insight{
			Type: models.InsightTrend,
			Statement: fmt.Sprintf(
				"Current inventory levels imply a more balanced or buyer-friendly pace (roughly %.0f months of supply at recent sales rates).",
				monthsSupply),
		}
	}
	return nil
}

// priceAnomaly flags the first month in the trailing year whose median
// price sits 25% or more away from the 12-month median-of-medians. The
// reference median deliberately uses the floor-index definition.
func priceAnomaly(last12 []models.MonthlyMarketPoint) *models.Insight {
	if len(last12) == 0 {
		return nil
	}
	reference := middleOfSorted(medianPrices(last12))
	if reference <= 0 {
		return nil
	}

	for _, m := range last12 {
		pct := (float64(m.MedianPrice) - reference) / reference * 100
		if pct >= priceAnomalyPct {
			return &models.Insight{
				Type: models.InsightAnomaly,
				Statement: fmt.Sprintf(
					"%s: median sold price was about %.0f%% above the 12-month median, a notable spike that may reflect composition (e.g. high-end closings) or seasonal effects.",
					m.MonthKey, pct),
			}
		}
		if pct <= -priceAnomalyPct {
			return &models.Insight{
				Type: models.InsightAnomaly,
				Statement: fmt.Sprintf(
					"%s: median sold price was about %.0f%% below the 12-month median, worth watching for seasonal or compositional shifts.",
					m.MonthKey, abs(pct)),
			}
		}
	}
	return nil
}

// volumeAnomaly flags the first of the most recent three months whose
// closed-sale count deviates more than 1.8 standard deviations from the
// trailing-year average. Skipped entirely when the spread is too small
// to matter.
func volumeAnomaly(last12 []models.MonthlyMarketPoint) *models.Insight {
	counts := soldCounts(last12)
	std := sampleStdDev(counts)
	if std < volumeMinStdDev {
		return nil
	}
	avg := mean(counts)

	recent := last12
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for _, m := range recent {
		z := (float64(m.SoldCount) - avg) / std
		if z >= volumeAnomalyZ {
			return &models.Insight{
				Type: models.InsightAnomaly,
				Statement: fmt.Sprintf(
					"Closed sales in %s were well above the recent average, an unusually active month in the MLS data.",
					m.MonthKey),
			}
		}
		if z <= -volumeAnomalyZ {
			return &models.Insight{
				Type: models.InsightAnomaly,
				Statement: fmt.Sprintf(
					"Closed sales in %s were notably below the recent average, a quieter month in the data.",
					m.MonthKey),
			}
		}
	}
	return nil
}

func medianPrices(points []models.MonthlyMarketPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.MedianPrice)
	}
	return out
}

func domValues(points []models.MonthlyMarketPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.MedianDaysOnMarket)
	}
	return out
}

func soldCounts(points []models.MonthlyMarketPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.SoldCount)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
