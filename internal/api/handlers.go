package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nantuckethouses/server/internal/chat"
	"nantuckethouses/server/internal/market"
	"nantuckethouses/server/internal/models"
	"nantuckethouses/server/internal/notify"
	"nantuckethouses/server/internal/social"
)

type Handler struct {
	logger    *logrus.Logger
	market    *market.Service
	chat      *chat.Router
	notify    *notify.Service
	publisher *social.Publisher
	siteURL   string
}

// DateRange binds optional sold-date window query parameters.
type DateRange struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// ChatRequest is the body of a chat turn: the full message history.
type ChatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

func NewHandler(logger *logrus.Logger, marketSvc *market.Service, chatRouter *chat.Router, notifySvc *notify.Service, publisher *social.Publisher, siteURL string) *Handler {
	return &Handler{
		logger:    logger,
		market:    marketSvc,
		chat:      chatRouter,
		notify:    notifySvc,
		publisher: publisher,
		siteURL:   siteURL,
	}
}

// GetNeighborhoods returns active-listing statistics per area. Always
// 200: upstream trouble degrades to the flagged estimate table.
func (h *Handler) GetNeighborhoods(c *gin.Context) {
	result := h.market.NeighborhoodStats(c.Request.Context())

	payload := gin.H{
		"data":       result.Data,
		"isFallback": result.IsFallback,
	}
	if result.Source != "" {
		payload["source"] = result.Source
	}
	if result.Message != "" {
		payload["message"] = result.Message
	}
	if result.Err != "" {
		payload["error"] = result.Err
	}
	c.JSON(http.StatusOK, payload)
}

// GetNeighborhoodSales returns closed-sale rollups for a date window.
// Accepts startDate/endDate, or years as a shorthand (default 1).
func (h *Handler) GetNeighborhoodSales(c *gin.Context) {
	var dateRange DateRange
	if err := c.ShouldBindQuery(&dateRange); err != nil {
		h.logger.WithError(err).Error("Failed to parse date range")
	}

	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	if years, err := strconv.Atoi(c.DefaultQuery("years", "1")); err == nil && years > 0 {
		start = end.AddDate(-years, 0, 0)
	}
	if t, err := time.Parse("2006-01-02", dateRange.StartDate); err == nil {
		start = t
	}
	if t, err := time.Parse("2006-01-02", dateRange.EndDate); err == nil {
		end = t
	}

	sales, totalSales, err := h.market.NeighborhoodSales(c.Request.Context(), start, end)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get neighborhood sales")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	payload := gin.H{
		"data":       sales,
		"totalSales": totalSales,
	}
	if len(sales) == 0 {
		payload["message"] = "No neighborhood sales data available"
	} else {
		payload["source"] = "repliers-statistics-api"
	}
	c.JSON(http.StatusOK, payload)
}

// GetMarketHistory returns the monthly sold series. Always 200 with a
// fallback marker, so charts never render empty.
func (h *Handler) GetMarketHistory(c *gin.Context) {
	years, err := strconv.Atoi(c.DefaultQuery("years", "3"))
	if err != nil || years <= 0 {
		years = 3
	}

	result := h.market.MarketHistory(c.Request.Context(), years)

	payload := gin.H{
		"data":       result.Data,
		"isFallback": result.IsFallback,
	}
	if result.Source != "" {
		payload["source"] = result.Source
		payload["totalSold"] = result.TotalSold
		if result.OverallMedianPrice != nil {
			payload["overallMedianPrice"] = *result.OverallMedianPrice
		}
	}
	if result.Message != "" {
		payload["message"] = result.Message
	}
	if result.Err != "" {
		payload["error"] = result.Err
	}
	c.JSON(http.StatusOK, payload)
}

// GetMarketStats returns the island-wide aggregate snapshot. Errors
// surface as 500: there is no honest fallback for a single headline
// number.
func (h *Handler) GetMarketStats(c *gin.Context) {
	location := c.Query("location")

	aggregates, err := h.market.MarketStats(c.Request.Context(), location)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get market stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"aggregates": aggregates}})
}

// GetMarketInsights derives narrative trend and anomaly statements.
func (h *Handler) GetMarketInsights(c *gin.Context) {
	insights := h.market.Insights(c.Request.Context(), time.Now())
	c.JSON(http.StatusOK, gin.H{
		"insights": insights,
		"source":   "repliers",
	})
}

// GetPriceDistribution buckets current list prices into market brackets.
func (h *Handler) GetPriceDistribution(c *gin.Context) {
	distribution, total, medianListPrice, err := h.market.PriceDistribution(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get price distribution")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":            distribution,
		"totalListings":   total,
		"medianListPrice": medianListPrice,
		"source":          "repliers-active-listings",
	})
}

// GetListings searches active listings with optional filters.
func (h *Handler) GetListings(c *gin.Context) {
	query := market.ListingQuery{
		Area:         c.Query("area"),
		PropertyType: c.Query("propertyType"),
		SortBy:       c.DefaultQuery("sortBy", "price"),
	}
	if v, err := strconv.Atoi(c.Query("minPrice")); err == nil {
		query.MinPrice = v
	}
	if v, err := strconv.Atoi(c.Query("maxPrice")); err == nil {
		query.MaxPrice = v
	}
	if v, err := strconv.Atoi(c.Query("bedrooms")); err == nil {
		query.MinBedrooms = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		query.Limit = v
	}

	count, listings, err := h.market.SearchListings(c.Request.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to search listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    count,
		"listings": listings,
		"filters": gin.H{
			"area":         defaultString(query.Area, "all"),
			"minPrice":     query.MinPrice,
			"maxPrice":     query.MaxPrice,
			"bedrooms":     query.MinBedrooms,
			"propertyType": query.PropertyType,
		},
	})
}

// PostChat runs one tool-calling chat turn over the supplied history.
func (h *Handler) PostChat(c *gin.Context) {
	if h.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OPENAI_API_KEY is not configured"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid chat request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must include a messages array"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must include a messages array"})
		return
	}

	reply, err := h.chat.Respond(c.Request.Context(), req.Messages)
	if err != nil {
		h.logger.WithError(err).Error("Chat turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": reply.Content})
}

// PostContact accepts a general inquiry and forwards it by email.
// Delivery failure never loses the lead: the submission is logged and
// the caller told it was received but not delivered.
func (h *Handler) PostContact(c *gin.Context) {
	var form models.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.WithError(err).Error("Invalid contact request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if form.Name == "" || form.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and email are required"})
		return
	}

	if !h.notify.Configured() {
		h.logger.WithField("email", form.Email).Info("Contact received, email delivery not configured")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Form received (email delivery not configured)",
		})
		return
	}

	messageID, err := h.notify.SendContact(c.Request.Context(), form)
	if err != nil {
		h.logger.WithError(err).Error("Failed to deliver contact email")
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"delivered": false,
			"message":   "Form received but notification delivery failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": messageID})
}

// PostBuyLead accepts a structured buyer-intake submission.
func (h *Handler) PostBuyLead(c *gin.Context) {
	var lead models.BuyLead
	if err := c.ShouldBindJSON(&lead); err != nil {
		h.logger.WithError(err).Error("Invalid buy lead request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if lead.FullName == "" || lead.Email == "" || lead.PriceRange == "" || lead.Timeline == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name, email, price range, and timeline are required"})
		return
	}

	if !h.notify.Configured() {
		h.logger.WithField("email", lead.Email).Info("Buy lead received, email delivery not configured")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Lead received (email delivery not configured)",
		})
		return
	}

	messageID, err := h.notify.SendBuyLead(c.Request.Context(), lead)
	if err != nil {
		h.logger.WithError(err).Error("Failed to deliver buy lead email")
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"delivered": false,
			"message":   "Lead received but notification delivery failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": messageID})
}

// buildMarketUpdate fetches stats and insights together, failing fast if
// the stats fetch rejects, then composes the post text.
func (h *Handler) buildMarketUpdate(c *gin.Context) (string, *models.MarketAggregates, []models.Insight, error) {
	g, ctx := errgroup.WithContext(c.Request.Context())

	var (
		aggregates *models.MarketAggregates
		insights   []models.Insight
	)
	g.Go(func() error {
		var err error
		aggregates, err = h.market.MarketStats(ctx, "")
		return err
	})
	g.Go(func() error {
		insights = h.market.Insights(ctx, time.Now())
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", nil, nil, err
	}

	return social.BuildUpdatePost(*aggregates, insights, h.siteURL), aggregates, insights, nil
}

// GetMarketUpdate returns a ready-to-post market update without posting
// it. Useful for preview or manual copy.
func (h *Handler) GetMarketUpdate(c *gin.Context) {
	postText, aggregates, insights, err := h.buildMarketUpdate(c)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build market update")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build market update", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"postText": postText,
		"stats":    aggregates,
		"insights": insights,
	})
}

// PostMarketUpdate builds the update and posts it to the configured Meta
// page. Missing credentials return the text unposted rather than erroring.
func (h *Handler) PostMarketUpdate(c *gin.Context) {
	postText, _, _, err := h.buildMarketUpdate(c)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build market update")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build market update", "details": err.Error()})
		return
	}

	if !h.publisher.Configured() {
		c.JSON(http.StatusOK, gin.H{
			"success":  false,
			"posted":   false,
			"postText": postText,
			"message":  "Meta credentials not configured. Set META_PAGE_ID and META_PAGE_ACCESS_TOKEN to post.",
		})
		return
	}

	postID, err := h.publisher.Publish(c.Request.Context(), postText)
	if err != nil {
		h.logger.WithError(err).Error("Failed to post market update")
		c.JSON(http.StatusBadGateway, gin.H{
			"success":  false,
			"posted":   false,
			"postText": postText,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"posted":   true,
		"postId":   postID,
		"postText": postText,
	})
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
