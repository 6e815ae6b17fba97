package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nantuckethouses/server/internal/models"
)

const metaGraphBase = "https://graph.facebook.com/v21.0"

// ErrNotConfigured is returned when page credentials are missing; the
// built post text is still usable for manual publishing.
var ErrNotConfigured = errors.New("Meta credentials not configured")

// mlsSuffix is trimmed off insight statements before posting; the
// attribution line covers it.
var mlsSuffix = regexp.MustCompile(`(?i),? based on closed sales from the MLS feed\.?$`)

// formatPrice renders a dollar amount in compact social style
// ($3.2M, $850K).
func formatPrice(n float64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("$%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("$%.0fK", n/1_000)
	default:
		return fmt.Sprintf("$%.0f", n)
	}
}

// BuildUpdatePost composes a short, post-ready market update: current
// snapshot, one insight (trend preferred over anomaly), median DOM,
// attribution and site link.
func BuildUpdatePost(aggregates models.MarketAggregates, insights []models.Insight, siteURL string) string {
	var parts []string

	var statsLine []string
	if aggregates.ActiveListingCount != nil {
		plural := "s"
		if *aggregates.ActiveListingCount == 1 {
			plural = ""
		}
		statsLine = append(statsLine, fmt.Sprintf("%d active listing%s on the island", *aggregates.ActiveListingCount, plural))
	}
	if aggregates.MedianListPrice != nil && *aggregates.MedianListPrice > 0 {
		statsLine = append(statsLine, "median list price "+formatPrice(*aggregates.MedianListPrice))
	}
	if len(statsLine) > 0 {
		parts = append(parts, "Nantucket market update: "+strings.Join(statsLine, ", ")+".")
	} else {
		parts = append(parts, "Nantucket market update:")
	}

	if insight := pickInsight(insights); insight != nil {
		sentence := strings.TrimSpace(mlsSuffix.ReplaceAllString(insight.Statement, ""))
		if sentence != "" && !strings.HasSuffix(sentence, ".") {
			sentence += "."
		}
		if sentence != "" {
			parts = append(parts, sentence)
		}
	}

	if aggregates.MedianDaysOnMarket != nil && *aggregates.MedianDaysOnMarket >= 1 {
		parts = append(parts, fmt.Sprintf("Median days on market: %.0f.", *aggregates.MedianDaysOnMarket))
	}

	parts = append(parts, "Data via the MLS feed.")
	if siteURL != "" {
		parts = append(parts, siteURL)
	}

	return strings.Join(parts, " ")
}

// pickInsight prefers the first trend over the first anomaly.
func pickInsight(insights []models.Insight) *models.Insight {
	var anomaly *models.Insight
	for i := range insights {
		switch insights[i].Type {
		case models.InsightTrend:
			return &insights[i]
		case models.InsightAnomaly:
			if anomaly == nil {
				anomaly = &insights[i]
			}
		}
	}
	return anomaly
}

// Publisher posts market updates to a Meta page feed.
type Publisher struct {
	logger      *logrus.Logger
	client      *http.Client
	baseURL     string
	pageID      string
	accessToken string
}

func NewPublisher(logger *logrus.Logger, pageID, accessToken string) *Publisher {
	return &Publisher{
		logger:      logger,
		client:      &http.Client{Timeout: 15 * time.Second},
		baseURL:     metaGraphBase,
		pageID:      pageID,
		accessToken: accessToken,
	}
}

// Configured reports whether page credentials are present.
func (p *Publisher) Configured() bool {
	return p.pageID != "" && p.accessToken != ""
}

type metaPostResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Publish posts the text to the configured page feed and returns the
// Meta post id.
func (p *Publisher) Publish(ctx context.Context, text string) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	form := url.Values{}
	form.Set("message", text)
	form.Set("access_token", p.accessToken)

	endpoint := fmt.Sprintf("%s/%s/feed", p.baseURL, p.pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build Meta request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Meta request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Meta response: %w", err)
	}

	var parsed metaPostResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse Meta response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := "Meta API request failed"
		if parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		p.logger.WithField("status", resp.StatusCode).Error("Meta post rejected")
		return "", errors.New(message)
	}

	return parsed.ID, nil
}
