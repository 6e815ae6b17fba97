package chat

import (
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
)

const (
	toolNeighborhoodStats = "get_neighborhood_stats"
	toolNeighborhoodSales = "get_neighborhood_sales"
	toolSearchListings    = "search_listings"
)

const systemPrompt = `You are a helpful assistant for Nantucket real estate market data. You have access to live MLS data via tools.

**When to ask clarifying questions**
If the user's request is ambiguous, ask a short clarifying question before calling tools or giving a long answer. Examples of ambiguity:
- "How has price changed over time?" → Unclear: do they want (a) one number per year for the whole island, or (b) a breakdown by area over one period? Ask which they prefer.
- "Average price" over a period → Unclear: island-wide only, or broken down by neighborhood? Ask if unsure.
- "Listings" or "homes" → Could mean active listings (for sale) or sold/closed. Ask if it matters for the answer.
- Vague area ("downtown", "the island") → Confirm you'll use "Town" or "all Nantucket" as appropriate.
- Time period missing ("recent sales") → Ask what period (e.g. last 6 months, 1 year, 5 years).
Ask one short question at a time; once they clarify, use the tools and answer with specific numbers.

Use the tools to answer questions about:
- How many listings are on the market in a given area → use get_neighborhood_stats
- Median or average list price by area → use get_neighborhood_stats
- Average or median price paid (sold prices) over a time period → use get_neighborhood_sales
- Browse or search individual listings → use search_listings with filters (area, price range, bedrooms, property type)
- Newest listings or most recently added → use search_listings with sortBy: "newest"
- Cheapest or lowest priced → use search_listings with sortBy: "priceAsc"
- Most expensive → use search_listings with sortBy: "priceDesc"

Area names in the data: Town, Sconset, Dionis, Naushop, Madaket, Monomoy, Cliff, Brant Point, Surfside, Cisco, Tom Nevers, Mid Island, etc.

When showing listings, include: address, area, price, bedrooms/baths, sqft, property type, and days on market. Format prices with commas (e.g., $2,500,000).

Answer concisely and cite the numbers. If data for a requested area is not found, say so and list available areas.`

// toolDefinitions declares the three callable tools offered to the model.
func toolDefinitions() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name: toolNeighborhoodStats,
			Description: openai.String(
				"Get current active listing counts and list prices (median, average) by neighborhood/area in Nantucket. Use this for questions like 'how many listings in Dionis' or 'what is the median price in Naushop' (for list prices)."),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name: toolNeighborhoodSales,
			Description: openai.String(
				"Get sold transaction data by neighborhood: sales count, median/avg sale price, total volume. Use for 'average price paid' or 'sales in X over the past N months'."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"months": map[string]interface{}{
						"type":        "number",
						"description": "Number of months to look back (e.g. 6 for past 6 months, 12 for past year). Default 12.",
					},
				},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name: toolSearchListings,
			Description: openai.String(
				"Search and browse individual active listings with optional filters and sorting. Returns listing details including address, price, bedrooms, bathrooms, sqft, property type, and days on market. Use for questions like 'show me listings in Sconset', 'what homes are under $2M', 'find 4 bedroom houses', 'newest listings', etc."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"area": map[string]interface{}{
						"type":        "string",
						"description": "Filter by neighborhood/area (e.g., 'Town', 'Sconset', 'Madaket', 'Cliff', 'Surfside'). Leave empty for all areas.",
					},
					"minPrice": map[string]interface{}{
						"type":        "number",
						"description": "Minimum list price filter (e.g., 1000000 for $1M).",
					},
					"maxPrice": map[string]interface{}{
						"type":        "number",
						"description": "Maximum list price filter (e.g., 5000000 for $5M).",
					},
					"bedrooms": map[string]interface{}{
						"type":        "number",
						"description": "Minimum number of bedrooms.",
					},
					"propertyType": map[string]interface{}{
						"type":        "string",
						"description": "Property type filter: 'Single Family', 'Condo', 'Land', 'Multi-Family', etc.",
					},
					"sortBy": map[string]interface{}{
						"type": "string",
						"enum": []string{"priceDesc", "priceAsc", "newest", "oldest", "bedsDesc"},
						"description": "Sort order: 'priceDesc' (highest price first), 'priceAsc' (lowest price first), 'newest' (most recently listed first), 'oldest' (longest on market first), 'bedsDesc' (most bedrooms first). Default is priceDesc.",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Number of listings to return (default 10, max 50).",
					},
				},
			},
		}),
	}
}

// searchArgs are the model-supplied arguments for search_listings.
type searchArgs struct {
	Area         string  `json:"area"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`
	Bedrooms     float64 `json:"bedrooms"`
	PropertyType string  `json:"propertyType"`
	SortBy       string  `json:"sortBy"`
	Limit        float64 `json:"limit"`
}

// salesArgs are the model-supplied arguments for get_neighborhood_sales.
type salesArgs struct {
	Months float64 `json:"months"`
}
