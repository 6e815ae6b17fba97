package market

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"nantuckethouses/server/config"
	"nantuckethouses/server/internal/mls"
	"nantuckethouses/server/internal/models"
)

// minSampleSize is the smallest area rollup we surface. Single-listing
// aggregates can reveal one seller's price and are statistically useless.
const minSampleSize = 2

const sourceLive = "repliers-statistics-api"

// Service aggregates MLS data into the shapes the API serves. One
// instance is shared across requests; it holds no per-request state.
type Service struct {
	logger *logrus.Logger
	mls    *mls.Client
	county string
}

func NewService(logger *logrus.Logger, client *mls.Client, county string) *Service {
	if county == "" {
		county = "Nantucket"
	}
	return &Service{
		logger: logger,
		mls:    client,
		county: county,
	}
}

// NeighborhoodStatsResult carries stats rows plus the live/fallback
// marker every caller must surface.
type NeighborhoodStatsResult struct {
	Data       []models.NeighborhoodStats
	IsFallback bool
	Source     string
	Message    string
	Err        string
}

// NeighborhoodStats returns active-listing statistics per canonical
// area. Tries the neighborhood dimension first, retries once against
// the area dimension, and substitutes the static estimate table when
// the upstream yields nothing usable. Never returns an empty result.
func (s *Service) NeighborhoodStats(ctx context.Context) NeighborhoodStatsResult {
	for _, dimension := range []string{"neighborhood", "area"} {
		rows, err := s.fetchStatsByDimension(ctx, dimension)
		if err != nil {
			s.logger.WithError(err).Warn("Neighborhood stats fetch failed, using fallback")
			return NeighborhoodStatsResult{
				Data:       config.FallbackNeighborhoods(),
				IsFallback: true,
				Err:        err.Error(),
			}
		}
		if len(rows) > 0 {
			return NeighborhoodStatsResult{Data: rows, Source: sourceLive}
		}
	}

	return NeighborhoodStatsResult{
		Data:       config.FallbackNeighborhoods(),
		IsFallback: true,
		Message:    "Neighborhood breakdown not available from MLS data; showing market estimates",
	}
}

// fetchStatsByDimension pulls active price aggregates for one address
// dimension and, concurrently, sold days-on-market aggregates for the
// same dimension. The DOM fetch is supplementary: losing it degrades
// the rows to zero DOM instead of failing the request.
func (s *Service) fetchStatsByDimension(ctx context.Context, dimension string) ([]models.NeighborhoodStats, error) {
	var (
		wg       sync.WaitGroup
		price    mls.StatisticsResponse
		priceErr error
		dom      mls.StatisticsResponse
		domErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		priceErr = s.mls.Get(ctx, "/listings", map[string]string{
			"county":              s.county,
			"status":              "A",
			"statistics":          "med-listPrice,avg-listPrice",
			"aggregateStatistics": "true",
			"aggregates":          "address." + dimension,
			"listings":            "false",
		}, &price)
	}()
	go func() {
		defer wg.Done()
		domErr = s.mls.Get(ctx, "/listings", map[string]string{
			"county":              s.county,
			"status":              "U",
			"statistics":          "med-daysOnMarket",
			"aggregateStatistics": "true",
			"aggregates":          "address." + dimension,
			"listings":            "false",
		}, &dom)
	}()
	wg.Wait()

	if priceErr != nil {
		return nil, priceErr
	}
	if domErr != nil {
		s.logger.WithError(domErr).Info("Days-on-market fetch failed, continuing without DOM")
	}

	priceAggregates := dimensionRows(price.Statistics.ListPrice, dimension)
	if len(priceAggregates) == 0 {
		return nil, nil
	}

	rows := make([]models.NeighborhoodStats, 0, len(priceAggregates))
	for name, data := range priceAggregates {
		if strings.TrimSpace(name) == "" {
			continue
		}
		rows = append(rows, models.NeighborhoodStats{
			Name:           NormalizeAreaName(name),
			ActiveListings: data.Count,
			MedianPrice:    roundedOrZero(data.Med),
			AvgPrice:       roundedOrZero(data.Avg),
		})
	}

	merged := MergeNeighborhoodStats(rows)
	sort.Slice(merged, func(i, j int) bool { return merged[i].ActiveListings > merged[j].ActiveListings })

	filtered := merged[:0]
	for _, n := range merged {
		if n.ActiveListings >= minSampleSize && strings.TrimSpace(n.Name) != "" {
			filtered = append(filtered, n)
		}
	}

	if domErr == nil {
		applyDaysOnMarket(filtered, dimensionRows(dom.Statistics.DaysOnMarket, dimension))
	}
	return filtered, nil
}

// applyDaysOnMarket fills MedianDaysOnMarket on stats rows from sold
// DOM aggregates, merging raw names that normalize to the same area
// weighted by their own sold counts.
func applyDaysOnMarket(stats []models.NeighborhoodStats, domAggregates map[string]mls.AggregateRow) {
	if len(domAggregates) == 0 {
		return
	}

	domRows := make([]models.NeighborhoodStats, 0, len(domAggregates))
	for name, data := range domAggregates {
		if strings.TrimSpace(name) == "" {
			continue
		}
		domRows = append(domRows, models.NeighborhoodStats{
			Name:               NormalizeAreaName(name),
			ActiveListings:     data.Count,
			MedianDaysOnMarket: roundedOrZero(data.Med),
		})
	}

	domByName := make(map[string]int, len(domRows))
	for _, row := range MergeNeighborhoodStats(domRows) {
		domByName[row.Name] = row.MedianDaysOnMarket
	}
	for i := range stats {
		stats[i].MedianDaysOnMarket = domByName[stats[i].Name]
	}
}

// NeighborhoodSales returns closed-sale rollups per canonical area for
// the given sold-date window. Upstream failures propagate: inventing
// sales figures would mislead.
func (s *Service) NeighborhoodSales(ctx context.Context, start, end time.Time) ([]models.NeighborhoodSales, int, error) {
	for _, dimension := range []string{"neighborhood", "area"} {
		var resp mls.StatisticsResponse
		err := s.mls.Get(ctx, "/listings", map[string]string{
			"county":              s.county,
			"status":              "U",
			"minSoldDate":         start.Format("2006-01-02"),
			"maxSoldDate":         end.Format("2006-01-02"),
			"statistics":          "avg-soldPrice,sum-soldPrice,cnt-closed",
			"aggregateStatistics": "true",
			"aggregates":          "address." + dimension,
			"listings":            "false",
		}, &resp)
		if err != nil {
			return nil, 0, err
		}

		aggregates := dimensionRows(resp.Statistics.SoldPrice, dimension)
		if len(aggregates) == 0 {
			continue
		}

		rows := make([]models.NeighborhoodSales, 0, len(aggregates))
		for name, data := range aggregates {
			if strings.TrimSpace(name) == "" {
				continue
			}
			rows = append(rows, models.NeighborhoodSales{
				Name:         NormalizeAreaName(name),
				SalesCount:   data.Count,
				AvgSalePrice: roundedOrZero(data.Avg),
				TotalVolume:  roundedOrZero(data.Sum),
			})
		}

		merged := MergeNeighborhoodSales(rows)
		sort.Slice(merged, func(i, j int) bool { return merged[i].TotalVolume > merged[j].TotalVolume })

		filtered := merged[:0]
		for _, n := range merged {
			if n.SalesCount >= minSampleSize {
				filtered = append(filtered, n)
			}
		}
		if len(filtered) > 0 {
			return filtered, resp.Count, nil
		}
	}

	return []models.NeighborhoodSales{}, 0, nil
}

// HistoryResult carries the monthly series plus the live/fallback marker.
type HistoryResult struct {
	Data               []models.MonthlyMarketPoint
	IsFallback         bool
	TotalSold          int
	OverallMedianPrice *float64
	Source             string
	Message            string
	Err                string
}

// MarketHistory returns the monthly sold-market series for the trailing
// number of years. Upstream failures or empty data fall back to the
// generated estimate series so charts always render.
func (s *Service) MarketHistory(ctx context.Context, years int) HistoryResult {
	if years <= 0 {
		years = 3
	}
	now := time.Now()
	minSoldDate := now.AddDate(-years, 0, 0)

	var resp mls.StatisticsResponse
	err := s.mls.Get(ctx, "/listings", map[string]string{
		"county":      s.county,
		"status":      "U",
		"minSoldDate": minSoldDate.Format("2006-01-02"),
		"maxSoldDate": now.Format("2006-01-02"),
		"statistics":  "med-soldPrice,avg-soldPrice,med-daysOnMarket,cnt-closed,grp-mth",
		"listings":    "false",
	}, &resp)
	if err != nil {
		s.logger.WithError(err).Warn("Market history fetch failed, using fallback")
		return HistoryResult{
			Data:       config.FallbackHistory(years, now),
			IsFallback: true,
			Err:        err.Error(),
		}
	}

	history := monthlySeries(&resp)
	if len(history) == 0 {
		return HistoryResult{
			Data:       config.FallbackHistory(years, now),
			IsFallback: true,
			Message:    "Historical sold data not available from MLS; showing estimated trends",
		}
	}

	result := HistoryResult{
		Data:      history,
		TotalSold: resp.Count,
		Source:    sourceLive,
	}
	if resp.Statistics.SoldPrice != nil {
		result.OverallMedianPrice = resp.Statistics.SoldPrice.Med
	}
	return result
}

// monthlySeries flattens grp-mth sold statistics into an ordered series.
func monthlySeries(resp *mls.StatisticsResponse) []models.MonthlyMarketPoint {
	sold := resp.Statistics.SoldPrice
	if sold == nil || len(sold.Months) == 0 {
		return nil
	}

	var domMonths map[string]mls.MonthRow
	if resp.Statistics.DaysOnMarket != nil {
		domMonths = resp.Statistics.DaysOnMarket.Months
	}

	history := make([]models.MonthlyMarketPoint, 0, len(sold.Months))
	for monthKey, data := range sold.Months {
		year, monthIndex, ok := parseMonthKey(monthKey)
		if !ok {
			continue
		}

		point := models.MonthlyMarketPoint{
			Month:       monthNames[monthIndex],
			Year:        year,
			MonthKey:    monthKey,
			MedianPrice: roundedOrZero(data.Med),
			AvgPrice:    roundedOrZero(data.Avg),
		}
		if data.Count != nil {
			point.SoldCount = *data.Count
		}
		if dom, ok := domMonths[monthKey]; ok {
			point.MedianDaysOnMarket = roundedOrZero(dom.Med)
		}
		history = append(history, point)
	}

	sort.Slice(history, func(i, j int) bool { return history[i].MonthKey < history[j].MonthKey })
	return history
}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func parseMonthKey(key string) (year, monthIndex int, ok bool) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, m - 1, true
}

// MarketStats fetches the island-wide aggregate snapshot.
func (s *Service) MarketStats(ctx context.Context, location string) (*models.MarketAggregates, error) {
	if location == "" {
		location = s.county + ", MA"
	}

	body := map[string]interface{}{
		"filters": map[string]interface{}{
			"locations": []map[string]interface{}{
				{"keywords": []string{location}},
			},
		},
		"aggregates": map[string]interface{}{
			"statistics": []string{
				"medianListPrice",
				"medianDaysOnMarket",
				"activeListingCount",
				"totalSalesVolume",
			},
		},
		"limit": 0,
	}

	var resp mls.SearchResponse
	if err := s.mls.Post(ctx, "/v2/listings/search", body, &resp); err != nil {
		return nil, err
	}

	aggregates := &models.MarketAggregates{}
	if resp.Aggregates != nil {
		aggregates.ActiveListingCount = resp.Aggregates.ActiveListingCount
		aggregates.MedianListPrice = resp.Aggregates.MedianListPrice
		aggregates.MedianDaysOnMarket = resp.Aggregates.MedianDaysOnMarket
		aggregates.TotalSalesVolume = resp.Aggregates.TotalSalesVolume
	}
	return aggregates, nil
}

// Insights derives narrative statements from the trailing two years of
// history and the current aggregate snapshot. The two fetches run
// concurrently; a stats failure only costs the inventory insight while
// history degrades through its own fallback path.
func (s *Service) Insights(ctx context.Context, now time.Time) []models.Insight {
	var (
		wg       sync.WaitGroup
		history  HistoryResult
		stats    *models.MarketAggregates
		statsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		history = s.MarketHistory(ctx, 2)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = s.MarketStats(ctx, "")
	}()
	wg.Wait()

	var activeCount *int
	if statsErr != nil {
		s.logger.WithError(statsErr).Warn("Market stats fetch failed, skipping inventory insight")
	} else if stats != nil {
		activeCount = stats.ActiveListingCount
	}

	return DeriveInsights(history.Data, activeCount, now)
}

// Price brackets for the active-listing distribution. Tailored to the
// island's luxury market.
var priceBrackets = []struct {
	label string
	min   float64
	max   float64
}{
	{"Entry (< $2M)", 0, 2_000_000},
	{"Core ($2M-$5M)", 2_000_000, 5_000_000},
	{"High-End ($5M-$10M)", 5_000_000, 10_000_000},
	{"Ultra-Luxury ($10M+)", 10_000_000, 0},
}

// PriceDistribution buckets current active list prices into fixed
// brackets. Empty brackets are dropped. Also reports the locally
// computed median list price of the sampled inventory.
func (s *Service) PriceDistribution(ctx context.Context) ([]models.PriceBracket, int, int, error) {
	var resp mls.ListingsResponse
	err := s.mls.Get(ctx, "/listings", map[string]string{
		"county":         s.county,
		"status":         "A",
		"resultsPerPage": "500",
		"fields":         "listPrice,mlsNumber",
	}, &resp)
	if err != nil {
		return nil, 0, 0, err
	}

	prices := make([]float64, 0, len(resp.Listings))
	for _, l := range resp.Listings {
		if l.ListPrice > 0 {
			prices = append(prices, float64(l.ListPrice))
		}
	}
	total := len(prices)

	counts := make([]int, len(priceBrackets))
	for _, price := range prices {
		for i, b := range priceBrackets {
			if price >= b.min && (b.max == 0 || price < b.max) {
				counts[i]++
				break
			}
		}
	}

	distribution := make([]models.PriceBracket, 0, len(priceBrackets))
	for i, b := range priceBrackets {
		if counts[i] == 0 {
			continue
		}
		pct := 0
		if total > 0 {
			pct = int(float64(counts[i])/float64(total)*100 + 0.5)
		}
		distribution = append(distribution, models.PriceBracket{
			Range:      b.label,
			Count:      counts[i],
			Percentage: pct,
		})
	}

	return distribution, total, int(median(prices)), nil
}

// ListingQuery captures caller-supplied search filters. Limit is capped
// at maxListingLimit regardless of what the caller asks for.
type ListingQuery struct {
	Area         string
	MinPrice     int
	MaxPrice     int
	MinBedrooms  int
	PropertyType string
	SortBy       string
	Limit        int
}

const (
	defaultListingLimit = 10
	maxListingLimit     = 50
)

var sortKeys = map[string]string{
	"priceDesc": "listPriceDesc",
	"price":     "listPriceDesc",
	"priceAsc":  "listPriceAsc",
	"newest":    "createdOnDesc",
	"oldest":    "createdOnAsc",
	"bedsDesc":  "bedsDesc",
	"bedrooms":  "bedsDesc",
}

// SearchListings fetches active listings matching the query and reshapes
// them for API and chat-tool consumption. Upstream failures propagate.
func (s *Service) SearchListings(ctx context.Context, q ListingQuery) (int, []models.Listing, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}

	params := map[string]string{
		"county":         s.county,
		"status":         "A",
		"listings":       "true",
		"resultsPerPage": strconv.Itoa(limit),
	}
	if q.Area != "" {
		params["area"] = q.Area
	}
	if q.MinPrice > 0 {
		params["minListPrice"] = strconv.Itoa(q.MinPrice)
	}
	if q.MaxPrice > 0 {
		params["maxListPrice"] = strconv.Itoa(q.MaxPrice)
	}
	if q.MinBedrooms > 0 {
		params["minBeds"] = strconv.Itoa(q.MinBedrooms)
	}
	if q.PropertyType != "" {
		params["propertyType"] = q.PropertyType
	}
	if sortKey, ok := sortKeys[q.SortBy]; ok {
		params["sortBy"] = sortKey
	} else {
		params["sortBy"] = "listPriceDesc"
	}

	var resp mls.ListingsResponse
	if err := s.mls.Get(ctx, "/listings", params, &resp); err != nil {
		return 0, nil, err
	}

	listings := make([]models.Listing, 0, len(resp.Listings))
	for _, record := range resp.Listings {
		listings = append(listings, simplifyListing(record))
	}
	return resp.Count, listings, nil
}

// simplifyListing flattens a raw MLS record into the response shape.
// Days on market is estimated from the list date when the source omits
// it.
func simplifyListing(record mls.ListingRecord) models.Listing {
	parts := make([]string, 0, 3)
	if record.Address.StreetNumber != "" {
		parts = append(parts, record.Address.StreetNumber)
	}
	if record.Address.StreetName != "" {
		parts = append(parts, record.Address.StreetName)
	}
	if record.Address.UnitNumber != "" {
		parts = append(parts, "Unit "+record.Address.UnitNumber)
	}
	address := strings.Join(parts, " ")
	if address == "" {
		address = "Address not available"
	}

	area := record.Address.Area
	if area == "" {
		area = record.Address.Neighborhood
	}
	if area == "" {
		area = "Unknown"
	}

	listing := models.Listing{
		MLSNumber:    record.MLSNumber,
		Address:      address,
		Area:         area,
		ListPrice:    record.ListPrice,
		DaysOnMarket: record.DaysOnMarket,
	}
	if record.Details != nil {
		listing.Bedrooms = record.Details.NumBedrooms
		listing.Bathrooms = record.Details.NumBathrooms
		listing.Sqft = record.Details.Sqft
		listing.PropertyType = record.Details.PropertyType
	}
	if record.Lot != nil {
		listing.LotAcres = record.Lot.Acres
	}
	if record.PhotoCount != nil {
		listing.PhotoCount = *record.PhotoCount
	}
	if listing.DaysOnMarket == nil && record.ListDate != nil {
		if listed, err := time.Parse("2006-01-02", (*record.ListDate)[:min(10, len(*record.ListDate))]); err == nil {
			days := int(time.Since(listed).Hours() / 24)
			if days >= 0 {
				listing.DaysOnMarket = &days
			}
		}
	}
	return listing
}

// dimensionRows picks the aggregate map matching the requested address
// dimension out of a statistic block.
func dimensionRows(stat *mls.Statistic, dimension string) map[string]mls.AggregateRow {
	if stat == nil || stat.Aggregates == nil || stat.Aggregates.Address == nil {
		return nil
	}
	if dimension == "area" {
		return stat.Aggregates.Address.Area
	}
	return stat.Aggregates.Address.Neighborhood
}

func roundedOrZero(v *float64) int {
	if v == nil {
		return 0
	}
	return int(math.Round(*v))
}
