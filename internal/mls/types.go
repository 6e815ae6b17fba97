package mls

// AggregateRow is one dimension bucket inside an aggregated statistics
// response, e.g. one neighborhood's price summary.
type AggregateRow struct {
	Count int      `json:"count"`
	Med   *float64 `json:"med"`
	Avg   *float64 `json:"avg"`
	Sum   *float64 `json:"sum"`
}

// AddressAggregates holds per-dimension rollups keyed by the raw
// neighborhood or area name reported upstream.
type AddressAggregates struct {
	Neighborhood map[string]AggregateRow `json:"neighborhood"`
	Area         map[string]AggregateRow `json:"area"`
}

// MonthRow is one calendar month bucket from a grp-mth grouped statistic.
type MonthRow struct {
	Med   *float64 `json:"med"`
	Avg   *float64 `json:"avg"`
	Count *int     `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// Statistic is one requested statistic block (listPrice, soldPrice or
// daysOnMarket) from the statistics API.
type Statistic struct {
	Med        *float64            `json:"med"`
	Avg        *float64            `json:"avg"`
	Sum        *float64            `json:"sum"`
	Months     map[string]MonthRow `json:"mth"`
	Aggregates *struct {
		Address *AddressAggregates `json:"address"`
	} `json:"aggregates"`
}

// StatisticsResponse is the envelope for statistics-only listing queries
// (listings=false).
type StatisticsResponse struct {
	Count      int `json:"count"`
	Statistics struct {
		ListPrice    *Statistic `json:"listPrice"`
		SoldPrice    *Statistic `json:"soldPrice"`
		DaysOnMarket *Statistic `json:"daysOnMarket"`
	} `json:"statistics"`
}

// ListingRecord is a raw MLS listing as returned by the listings search.
type ListingRecord struct {
	MLSNumber    string  `json:"mlsNumber"`
	Status       string  `json:"status"`
	ListPrice    int     `json:"listPrice"`
	SoldPrice    *int    `json:"soldPrice"`
	SoldDate     *string `json:"soldDate"`
	ListDate     *string `json:"listDate"`
	DaysOnMarket *int    `json:"daysOnMarket"`
	Address      struct {
		StreetNumber string `json:"streetNumber"`
		StreetName   string `json:"streetName"`
		UnitNumber   string `json:"unitNumber"`
		Area         string `json:"area"`
		Neighborhood string `json:"neighborhood"`
		City         string `json:"city"`
		Zip          string `json:"zip"`
	} `json:"address"`
	Details *struct {
		NumBedrooms  *int    `json:"numBedrooms"`
		NumBathrooms *int    `json:"numBathrooms"`
		Sqft         *string `json:"sqft"`
		PropertyType *string `json:"propertyType"`
		Style        *string `json:"style"`
	} `json:"details"`
	Lot *struct {
		Acres      *float64 `json:"acres"`
		SquareFeet *float64 `json:"squareFeet"`
	} `json:"lot"`
	PhotoCount *int `json:"photoCount"`
}

// ListingsResponse is the envelope for listing search queries.
type ListingsResponse struct {
	Count    int             `json:"count"`
	NumPages int             `json:"numPages"`
	Listings []ListingRecord `json:"listings"`
}

// SearchAggregates mirrors the aggregate block of the v2 search endpoint.
type SearchAggregates struct {
	ActiveListingCount *int     `json:"activeListingCount"`
	MedianListPrice    *float64 `json:"medianListPrice"`
	MedianDaysOnMarket *float64 `json:"medianDaysOnMarket"`
	TotalSalesVolume   *float64 `json:"totalSalesVolume"`
}

// SearchResponse is the envelope for the v2 aggregate search endpoint.
type SearchResponse struct {
	Aggregates *SearchAggregates `json:"aggregates"`
}
