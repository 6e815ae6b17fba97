package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nantuckethouses/server/config"
	"nantuckethouses/server/internal/mls"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	client := mls.NewClient(logger, server.URL, "test-key")
	return NewService(logger, client, "Nantucket")
}

func loadFallback(t *testing.T) {
	t.Helper()
	config.SetFallbackPath("../../config/fallback_data.yaml")
	require.NoError(t, config.LoadFallbackData())
}

func TestNeighborhoodStats_LiveData(t *testing.T) {
	// Setup: active price aggregates plus sold DOM aggregates keyed by
	// raw upstream names.
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("REPLIERS-API-KEY"))
		assert.Equal(t, "Nantucket", r.URL.Query().Get("county"))

		switch r.URL.Query().Get("status") {
		case "A":
			w.Write([]byte(`{"count":13,"statistics":{"listPrice":{"aggregates":{"address":{"neighborhood":{
				"Siasconset":{"count":3,"med":4500000,"avg":5000000},
				"Town":{"count":5,"med":3000000,"avg":3400000},
				"Obscure Lane":{"count":1,"med":9000000,"avg":9000000},
				"":{"count":4,"med":1,"avg":1}
			}}}}}}`))
		case "U":
			w.Write([]byte(`{"statistics":{"daysOnMarket":{"aggregates":{"address":{"neighborhood":{
				"Siasconset":{"count":2,"med":120},
				"Town":{"count":3,"med":60}
			}}}}}}`))
		}
	})

	// Test
	result := svc.NeighborhoodStats(context.Background())

	// Assert: single-listing and blank-name buckets dropped, raw names
	// normalized, rows sorted by active listings, DOM applied.
	assert.False(t, result.IsFallback)
	assert.Equal(t, "repliers-statistics-api", result.Source)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "Town", result.Data[0].Name)
	assert.Equal(t, 5, result.Data[0].ActiveListings)
	assert.Equal(t, 3000000, result.Data[0].MedianPrice)
	assert.Equal(t, 60, result.Data[0].MedianDaysOnMarket)
	assert.Equal(t, "Sconset", result.Data[1].Name)
	assert.Equal(t, 120, result.Data[1].MedianDaysOnMarket)
}

func TestNeighborhoodStats_RetriesAreaDimension(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("aggregates") == "address.area" && r.URL.Query().Get("status") == "A" {
			w.Write([]byte(`{"statistics":{"listPrice":{"aggregates":{"address":{"area":{
				"Madaket":{"count":4,"med":2800000,"avg":3000000}
			}}}}}}`))
			return
		}
		w.Write([]byte(`{}`))
	})

	result := svc.NeighborhoodStats(context.Background())

	assert.False(t, result.IsFallback)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Madaket", result.Data[0].Name)
	assert.Equal(t, 4, result.Data[0].ActiveListings)
}

func TestNeighborhoodStats_FallbackOnError(t *testing.T) {
	loadFallback(t)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})

	result := svc.NeighborhoodStats(context.Background())

	assert.True(t, result.IsFallback)
	assert.NotEmpty(t, result.Data)
	assert.NotEmpty(t, result.Err)
}

func TestNeighborhoodStats_FallbackOnEmptyData(t *testing.T) {
	loadFallback(t)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	result := svc.NeighborhoodStats(context.Background())

	assert.True(t, result.IsFallback)
	assert.NotEmpty(t, result.Data)
	assert.Contains(t, result.Message, "market estimates")
	assert.Empty(t, result.Err)
}

func TestNeighborhoodSales(t *testing.T) {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("minSoldDate"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("maxSoldDate"))
		assert.Equal(t, "U", r.URL.Query().Get("status"))
		w.Write([]byte(`{"count":7,"statistics":{"soldPrice":{"aggregates":{"address":{"neighborhood":{
			"Madaket":{"count":2,"avg":3000000,"sum":6000000},
			"Surfside":{"count":4,"avg":2500000,"sum":10000000},
			"Lonely":{"count":1,"avg":1000000,"sum":1000000}
		}}}}}}`))
	})

	sales, total, err := svc.NeighborhoodSales(context.Background(), start, end)

	require.NoError(t, err)
	assert.Equal(t, 7, total)
	// Sorted by dollar volume, single-sale areas dropped.
	require.Len(t, sales, 2)
	assert.Equal(t, "Surfside", sales[0].Name)
	assert.Equal(t, 10000000, sales[0].TotalVolume)
	assert.Equal(t, "Madaket", sales[1].Name)
}

func TestNeighborhoodSales_EmptyIsNotAnError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	sales, total, err := svc.NeighborhoodSales(context.Background(), time.Now().AddDate(-1, 0, 0), time.Now())

	require.NoError(t, err)
	assert.NotNil(t, sales)
	assert.Empty(t, sales)
	assert.Equal(t, 0, total)
}

func TestNeighborhoodSales_ErrorPropagates(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, _, err := svc.NeighborhoodSales(context.Background(), time.Now().AddDate(-1, 0, 0), time.Now())

	assert.Error(t, err)
}

func TestMarketHistory_LiveData(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("statistics"), "grp-mth")
		w.Write([]byte(`{"count":40,"statistics":{
			"soldPrice":{"med":2900000,"mth":{
				"2025-05":{"med":3000000,"avg":3300000,"count":12},
				"2025-04":{"med":2800000,"avg":3000000,"count":9}
			}},
			"daysOnMarket":{"mth":{"2025-05":{"med":70}}}
		}}`))
	})

	result := svc.MarketHistory(context.Background(), 2)

	assert.False(t, result.IsFallback)
	assert.Equal(t, "repliers-statistics-api", result.Source)
	assert.Equal(t, 40, result.TotalSold)
	require.NotNil(t, result.OverallMedianPrice)
	assert.Equal(t, 2900000.0, *result.OverallMedianPrice)
	require.Len(t, result.Data, 2)
	// Series is sorted ascending by month key.
	assert.Equal(t, "2025-04", result.Data[0].MonthKey)
	assert.Equal(t, "Apr", result.Data[0].Month)
	assert.Equal(t, 9, result.Data[0].SoldCount)
	assert.Equal(t, 0, result.Data[0].MedianDaysOnMarket)
	assert.Equal(t, 70, result.Data[1].MedianDaysOnMarket)
}

func TestMarketHistory_FallbackOnError(t *testing.T) {
	loadFallback(t)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})

	result := svc.MarketHistory(context.Background(), 3)

	assert.True(t, result.IsFallback)
	assert.NotEmpty(t, result.Data)
	assert.NotEmpty(t, result.Err)
	// Fallback series ends at the current month.
	last := result.Data[len(result.Data)-1]
	assert.Equal(t, time.Now().Year(), last.Year)
}

func TestMarketStats(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/listings/search", r.URL.Path)

		var body struct {
			Filters struct {
				Locations []struct {
					Keywords []string `json:"keywords"`
				} `json:"locations"`
			} `json:"filters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Filters.Locations, 1)
		assert.Equal(t, []string{"Nantucket, MA"}, body.Filters.Locations[0].Keywords)

		w.Write([]byte(`{"aggregates":{
			"activeListingCount":42,
			"medianListPrice":3500000,
			"medianDaysOnMarket":88,
			"totalSalesVolume":123000000
		}}`))
	})

	stats, err := svc.MarketStats(context.Background(), "")

	require.NoError(t, err)
	require.NotNil(t, stats.ActiveListingCount)
	assert.Equal(t, 42, *stats.ActiveListingCount)
	require.NotNil(t, stats.MedianListPrice)
	assert.Equal(t, 3500000.0, *stats.MedianListPrice)
}

func TestMarketStats_MissingKey(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	svc := NewService(logger, mls.NewClient(logger, "http://unused", ""), "")

	_, err := svc.MarketStats(context.Background(), "")

	assert.ErrorIs(t, err, mls.ErrMissingAPIKey)
}

func TestPriceDistribution(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "500", r.URL.Query().Get("resultsPerPage"))
		w.Write([]byte(`{"count":5,"listings":[
			{"mlsNumber":"1","listPrice":1500000},
			{"mlsNumber":"2","listPrice":2500000},
			{"mlsNumber":"3","listPrice":3000000},
			{"mlsNumber":"4","listPrice":12000000},
			{"mlsNumber":"5","listPrice":0}
		]}`))
	})

	distribution, total, medianPrice, err := svc.PriceDistribution(context.Background())

	require.NoError(t, err)
	// The zero-price record is excluded everywhere.
	assert.Equal(t, 4, total)
	assert.Equal(t, 2750000, medianPrice)
	// The empty high-end bracket is dropped.
	require.Len(t, distribution, 3)
	assert.Equal(t, "Entry (< $2M)", distribution[0].Range)
	assert.Equal(t, 25, distribution[0].Percentage)
	assert.Equal(t, "Core ($2M-$5M)", distribution[1].Range)
	assert.Equal(t, 2, distribution[1].Count)
	assert.Equal(t, "Ultra-Luxury ($10M+)", distribution[2].Range)
}

func TestSearchListings(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "50", q.Get("resultsPerPage"), "limit must be capped")
		assert.Equal(t, "listPriceAsc", q.Get("sortBy"))
		assert.Equal(t, "Sconset", q.Get("area"))
		assert.Equal(t, "3", q.Get("minBeds"))
		assert.Equal(t, "2000000", q.Get("minListPrice"))

		w.Write([]byte(`{"count":1,"listings":[{
			"mlsNumber":"73001234",
			"listPrice":4200000,
			"daysOnMarket":35,
			"address":{"streetNumber":"12","streetName":"Main Street","unitNumber":"2","area":"Sconset"},
			"details":{"numBedrooms":4,"numBathrooms":3,"propertyType":"Single Family"},
			"photoCount":18
		}]}`))
	})

	count, listings, err := svc.SearchListings(context.Background(), ListingQuery{
		Area:        "Sconset",
		MinPrice:    2000000,
		MinBedrooms: 3,
		SortBy:      "priceAsc",
		Limit:       200,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, listings, 1)
	assert.Equal(t, "12 Main Street Unit 2", listings[0].Address)
	assert.Equal(t, "Sconset", listings[0].Area)
	assert.Equal(t, 4200000, listings[0].ListPrice)
	require.NotNil(t, listings[0].Bedrooms)
	assert.Equal(t, 4, *listings[0].Bedrooms)
	require.NotNil(t, listings[0].DaysOnMarket)
	assert.Equal(t, 35, *listings[0].DaysOnMarket)
	assert.Equal(t, 18, listings[0].PhotoCount)
}

func TestSearchListings_Defaults(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "10", q.Get("resultsPerPage"))
		assert.Equal(t, "listPriceDesc", q.Get("sortBy"), "unknown sort keys fall back to price descending")
		w.Write([]byte(`{"count":0,"listings":[]}`))
	})

	count, listings, err := svc.SearchListings(context.Background(), ListingQuery{SortBy: "nonsense"})

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, listings)
}

func TestSimplifyListing_MissingAddress(t *testing.T) {
	var record mls.ListingRecord
	record.MLSNumber = "73009999"
	record.ListPrice = 1000000

	listing := simplifyListing(record)

	assert.Equal(t, "Address not available", listing.Address)
	assert.Equal(t, "Unknown", listing.Area)
	assert.Nil(t, listing.DaysOnMarket)
}

func floatPtr(v float64) *float64 { return &v }

func TestRoundedOrZero(t *testing.T) {
	tests := []struct {
		name  string
		input *float64
		want  int
	}{
		{"nil", nil, 0},
		{"rounds up", floatPtr(2999999.5), 3000000},
		{"rounds down", floatPtr(74.4), 74},
		{"negative rounds away from zero", floatPtr(-1.5), -2},
		{"negative rounds toward zero", floatPtr(-1.4), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundedOrZero(tt.input))
		})
	}
}
