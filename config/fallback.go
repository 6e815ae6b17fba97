package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"nantuckethouses/server/internal/models"
)

var (
	fallbackData *FallbackData
	fallbackLock sync.RWMutex
	fallbackPath = "config/fallback_data.yaml"
)

// FallbackData is the versioned static-estimate table substituted when
// the MLS feed returns nothing usable. Loaded once at startup and kept
// separate from live-computation code paths.
type FallbackData struct {
	Version       int `yaml:"version"`
	Neighborhoods []struct {
		Name               string `yaml:"name"`
		ActiveListings     int    `yaml:"activeListings"`
		MedianPrice        int    `yaml:"medianPrice"`
		AvgPrice           int    `yaml:"avgPrice"`
		MedianDaysOnMarket int    `yaml:"medianDaysOnMarket"`
	} `yaml:"neighborhoods"`
	History struct {
		BasePrice           float64   `yaml:"basePrice"`
		AnnualAppreciation  float64   `yaml:"annualAppreciation"`
		AvgPremium          float64   `yaml:"avgPremium"`
		BaseSoldCount       float64   `yaml:"baseSoldCount"`
		BaseDaysOnMarket    float64   `yaml:"baseDaysOnMarket"`
		DomSeasonalSwing    float64   `yaml:"domSeasonalSwing"`
		SeasonalMultipliers []float64 `yaml:"seasonalMultipliers"`
	} `yaml:"history"`
}

// LoadFallbackData reads the fallback table from file. Call once during
// startup before serving requests.
func LoadFallbackData() error {
	fallbackLock.Lock()
	defer fallbackLock.Unlock()

	absPath, err := filepath.Abs(fallbackPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read fallback data file: %v", err)
	}

	var parsed FallbackData
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse fallback data: %v", err)
	}

	if len(parsed.Neighborhoods) == 0 {
		return fmt.Errorf("fallback data contains no neighborhoods")
	}
	if len(parsed.History.SeasonalMultipliers) != 12 {
		return fmt.Errorf("fallback history needs 12 seasonal multipliers, got %d", len(parsed.History.SeasonalMultipliers))
	}

	fallbackData = &parsed
	return nil
}

// SetFallbackPath overrides the data file location. Used by tests.
func SetFallbackPath(path string) {
	fallbackLock.Lock()
	defer fallbackLock.Unlock()
	fallbackPath = path
	fallbackData = nil
}

// FallbackNeighborhoods returns the static neighborhood estimates.
func FallbackNeighborhoods() []models.NeighborhoodStats {
	fallbackLock.RLock()
	defer fallbackLock.RUnlock()

	if fallbackData == nil {
		return nil
	}

	stats := make([]models.NeighborhoodStats, len(fallbackData.Neighborhoods))
	for i, n := range fallbackData.Neighborhoods {
		stats[i] = models.NeighborhoodStats{
			Name:               n.Name,
			ActiveListings:     n.ActiveListings,
			MedianPrice:        n.MedianPrice,
			AvgPrice:           n.AvgPrice,
			MedianDaysOnMarket: n.MedianDaysOnMarket,
		}
	}
	return stats
}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FallbackHistory generates an estimated monthly series covering the
// given number of years up to the current month. The generation is
// deterministic so repeated requests see identical estimates.
func FallbackHistory(years int, now time.Time) []models.MonthlyMarketPoint {
	fallbackLock.RLock()
	defer fallbackLock.RUnlock()

	if fallbackData == nil {
		return nil
	}
	h := fallbackData.History

	currentYear := now.Year()
	currentMonth := int(now.Month())

	var series []models.MonthlyMarketPoint
	for y := currentYear - years; y <= currentYear; y++ {
		yearFactor := math.Pow(1+h.AnnualAppreciation, float64(y-(currentYear-years)))

		for m := 1; m <= 12; m++ {
			if y == currentYear && m > currentMonth {
				break
			}

			mult := h.SeasonalMultipliers[m-1]
			price := h.BasePrice * yearFactor * mult

			series = append(series, models.MonthlyMarketPoint{
				Month:              monthNames[m-1],
				Year:               y,
				MonthKey:           fmt.Sprintf("%d-%02d", y, m),
				MedianPrice:        int(math.Round(price)),
				AvgPrice:           int(math.Round(price * h.AvgPremium)),
				SoldCount:          int(math.Round(h.BaseSoldCount + mult*10)),
				MedianDaysOnMarket: int(math.Round(h.BaseDaysOnMarket + (1-mult)*h.DomSeasonalSwing)),
			})
		}
	}
	return series
}
