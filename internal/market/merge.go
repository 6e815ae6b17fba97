package market

import (
	"math"

	"nantuckethouses/server/internal/models"
)

// MergeNeighborhoodStats combines rows whose names normalized to the same
// canonical area. Price and days-on-market fields are weighted by listing
// count and rounded once at the end, so input order never changes the
// result; counts add directly.
func MergeNeighborhoodStats(rows []models.NeighborhoodStats) []models.NeighborhoodStats {
	type acc struct {
		count    int
		priceSum float64 // medianPrice * count
		avgSum   float64
		domSum   float64
	}

	order := make([]string, 0, len(rows))
	byName := make(map[string]*acc)

	for _, row := range rows {
		a, ok := byName[row.Name]
		if !ok {
			a = &acc{}
			byName[row.Name] = a
			order = append(order, row.Name)
		}
		a.count += row.ActiveListings
		weight := float64(row.ActiveListings)
		a.priceSum += float64(row.MedianPrice) * weight
		a.avgSum += float64(row.AvgPrice) * weight
		a.domSum += float64(row.MedianDaysOnMarket) * weight
	}

	merged := make([]models.NeighborhoodStats, 0, len(byName))
	for _, name := range order {
		a := byName[name]
		out := models.NeighborhoodStats{Name: name, ActiveListings: a.count}
		if a.count > 0 {
			out.MedianPrice = int(math.Round(a.priceSum / float64(a.count)))
			out.AvgPrice = int(math.Round(a.avgSum / float64(a.count)))
			out.MedianDaysOnMarket = int(math.Round(a.domSum / float64(a.count)))
		}
		merged = append(merged, out)
	}
	return merged
}

// MergeNeighborhoodSales combines sales rows by canonical name. Average
// sale price is count-weighted; dollar volume is additive, not averaged.
func MergeNeighborhoodSales(rows []models.NeighborhoodSales) []models.NeighborhoodSales {
	type acc struct {
		count    int
		priceSum float64
		volume   int
	}

	order := make([]string, 0, len(rows))
	byName := make(map[string]*acc)

	for _, row := range rows {
		a, ok := byName[row.Name]
		if !ok {
			a = &acc{}
			byName[row.Name] = a
			order = append(order, row.Name)
		}
		a.count += row.SalesCount
		a.priceSum += float64(row.AvgSalePrice) * float64(row.SalesCount)
		a.volume += row.TotalVolume
	}

	merged := make([]models.NeighborhoodSales, 0, len(byName))
	for _, name := range order {
		a := byName[name]
		out := models.NeighborhoodSales{Name: name, SalesCount: a.count, TotalVolume: a.volume}
		if a.count > 0 {
			out.AvgSalePrice = int(math.Round(a.priceSum / float64(a.count)))
		}
		merged = append(merged, out)
	}
	return merged
}
