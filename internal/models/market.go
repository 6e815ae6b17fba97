package models

// Listing is a simplified view of one MLS record, shaped for API responses
// and for the AI chat tools.
type Listing struct {
	MLSNumber    string   `json:"mlsNumber"`
	Address      string   `json:"address"`
	Area         string   `json:"area"`
	ListPrice    int      `json:"listPrice"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	Sqft         *string  `json:"sqft"`
	PropertyType *string  `json:"propertyType"`
	LotAcres     *float64 `json:"lotAcres"`
	DaysOnMarket *int     `json:"daysOnMarket"`
	PhotoCount   int      `json:"photoCount"`
}

// NeighborhoodStats is an area-keyed rollup of active listings.
type NeighborhoodStats struct {
	Name               string `json:"name"`
	ActiveListings     int    `json:"activeListings"`
	MedianPrice        int    `json:"medianPrice"`
	AvgPrice           int    `json:"avgPrice"`
	MedianDaysOnMarket int    `json:"medianDaysOnMarket"`
}

// NeighborhoodSales is an area-keyed rollup of closed sales over a date window.
type NeighborhoodSales struct {
	Name         string `json:"name"`
	SalesCount   int    `json:"salesCount"`
	AvgSalePrice int    `json:"avgSalePrice"`
	TotalVolume  int    `json:"totalVolume"`
}

// MonthlyMarketPoint is one calendar month of sold-market statistics.
// MonthKey is "YYYY-MM"; series are kept sorted by it ascending.
type MonthlyMarketPoint struct {
	Month              string `json:"month"`
	Year               int    `json:"year"`
	MonthKey           string `json:"monthKey"`
	MedianPrice        int    `json:"medianPrice"`
	AvgPrice           int    `json:"avgPrice"`
	SoldCount          int    `json:"soldCount"`
	MedianDaysOnMarket int    `json:"medianDaysOnMarket"`
}

// Insight is a derived narrative statement about the market.
type Insight struct {
	Type      string `json:"type"` // "trend" or "anomaly"
	Statement string `json:"statement"`
}

const (
	InsightTrend   = "trend"
	InsightAnomaly = "anomaly"
)

// MarketAggregates is the island-wide snapshot returned by the stats endpoint.
type MarketAggregates struct {
	ActiveListingCount *int     `json:"activeListingCount,omitempty"`
	MedianListPrice    *float64 `json:"medianListPrice,omitempty"`
	MedianDaysOnMarket *float64 `json:"medianDaysOnMarket,omitempty"`
	TotalSalesVolume   *float64 `json:"totalSalesVolume,omitempty"`
}

// PriceBracket is one bucket of the active-listing price distribution.
type PriceBracket struct {
	Range      string `json:"range"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// ChatMessage is one turn of a chat conversation. The caller resends the
// full history each request; nothing is kept server-side.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
