package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"

	"nantuckethouses/server/internal/models"
)

// Label maps translating form option values into the wording used in
// lead emails.
var priceLabels = map[string]string{
	"2-5":            "$2M – $5M",
	"5-10":           "$5M – $10M",
	"10-plus":        "$10M+",
	"specific-asset": "Specific off-market asset",
}

var timelineLabels = map[string]string{
	"asap":       "ASAP",
	"3-6-months": "Next 3-6 Months",
	"browsing":   "Just Browsing",
}

var lifestyleLabels = map[string]string{
	"waterfront-views": "Waterfront & Water Views",
	"quiet-secluded":   "Quiet & Secluded",
	"active-summer":    "Active Summer",
}

var amenityLabels = map[string]string{
	"private-pool":        "Private Pool",
	"guest-cottage":       "Guest Cottage/Studio",
	"modern-turnkey":      "Modern/Turnkey Design",
	"investment-rental":   "Investment/Rental Potential",
	"conservation-border": "Conservation Land Border",
}

// Service forwards lead submissions to the configured inbox via Resend.
// Delivery is best-effort: an unconfigured or failing provider never
// blocks lead capture, the handler reports delivered=false instead.
type Service struct {
	logger    *logrus.Logger
	client    *resend.Client
	from      string
	recipient string
}

func NewService(logger *logrus.Logger, apiKey, from, recipient string) *Service {
	s := &Service{
		logger:    logger,
		from:      from,
		recipient: recipient,
	}
	if apiKey != "" {
		s.client = resend.NewClient(apiKey)
	}
	return s
}

// Configured reports whether email delivery is available.
func (s *Service) Configured() bool {
	return s.client != nil
}

// SendContact delivers a general inquiry and returns the provider
// message id.
func (s *Service) SendContact(ctx context.Context, form models.ContactForm) (string, error) {
	if s.client == nil {
		return "", errors.New("email delivery is not configured")
	}

	subject := "New Inquiry: " + form.Name
	if form.PropertyType != "" {
		subject += " - " + form.PropertyType
	}

	return s.send(ctx, subject, form.Email, contactText(form), contactHTML(form))
}

// SendBuyLead delivers a structured buyer-intake submission.
func (s *Service) SendBuyLead(ctx context.Context, lead models.BuyLead) (string, error) {
	if s.client == nil {
		return "", errors.New("email delivery is not configured")
	}

	subject := fmt.Sprintf("Buy Lead: %s · %s", lead.FullName, labelOr(priceLabels, lead.PriceRange))

	return s.send(ctx, subject, lead.Email, buyLeadText(lead), buyLeadHTML(lead))
}

func (s *Service) send(ctx context.Context, subject, replyTo, text, html string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{s.recipient},
		ReplyTo: replyTo,
		Subject: subject,
		Text:    text,
		Html:    html,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send lead email: %w", err)
	}

	s.logger.WithField("message_id", sent.Id).Info("Lead email delivered")
	return sent.Id, nil
}

func contactText(form models.ContactForm) string {
	var b strings.Builder
	b.WriteString("New Inquiry from NantucketHouses.com\n\n")
	b.WriteString("Name: " + form.Name + "\n")
	b.WriteString("Email: " + form.Email + "\n")
	if form.Phone != "" {
		b.WriteString("Phone: " + form.Phone + "\n")
	}
	if form.PropertyType != "" {
		b.WriteString("Property Interest: " + form.PropertyType + "\n")
	}
	if form.Timeline != "" {
		b.WriteString("Timeline: " + form.Timeline + "\n")
	}
	if form.Message != "" {
		b.WriteString("\nMessage:\n" + form.Message + "\n")
	}
	b.WriteString("\n---\nSubmitted from: " + sourceOrDefault(form.Source) + "\n")
	b.WriteString(timestamp())
	return b.String()
}

func contactHTML(form models.ContactForm) string {
	var b strings.Builder
	b.WriteString(`<h1>New Inquiry from NantucketHouses.com</h1><table>`)
	writeRow(&b, "Name", form.Name)
	writeRow(&b, "Email", form.Email)
	if form.Phone != "" {
		writeRow(&b, "Phone", form.Phone)
	}
	if form.PropertyType != "" {
		writeRow(&b, "Property Interest", form.PropertyType)
	}
	if form.Timeline != "" {
		writeRow(&b, "Timeline", form.Timeline)
	}
	b.WriteString(`</table>`)
	if form.Message != "" {
		b.WriteString("<h3>Message</h3><p>" + form.Message + "</p>")
	}
	b.WriteString("<p>Submitted from: " + sourceOrDefault(form.Source) + " · " + timestamp() + "</p>")
	return b.String()
}

func buyLeadText(lead models.BuyLead) string {
	var b strings.Builder
	b.WriteString("New Buy Lead — buy.nantuckethouses.com\n\n")
	b.WriteString("Full name: " + lead.FullName + "\n")
	b.WriteString("Email: " + lead.Email + "\n")
	if lead.Phone != "" {
		b.WriteString("Mobile: " + lead.Phone + "\n")
	}
	b.WriteString("Lifestyle (Dream): " + labelList(lifestyleLabels, lead.Lifestyles) + "\n")
	b.WriteString("Must-have amenities: " + labelList(amenityLabels, lead.Amenities) + "\n")
	b.WriteString("Price range: " + labelOr(priceLabels, lead.PriceRange) + "\n")
	b.WriteString("Timeline: " + labelOr(timelineLabels, lead.Timeline) + "\n")
	b.WriteString("Text alerts: " + yesNo(lead.TextAlerts) + "\n")
	b.WriteString("Market strategy call requested: " + yesNo(lead.ScheduleCall) + "\n")
	b.WriteString("\nSource: buy.nantuckethouses.com · " + timestamp())
	return b.String()
}

func buyLeadHTML(lead models.BuyLead) string {
	var b strings.Builder
	b.WriteString(`<h1>New Buy Lead — buy.nantuckethouses.com</h1><table>`)
	writeRow(&b, "Full name", lead.FullName)
	writeRow(&b, "Email", lead.Email)
	if lead.Phone != "" {
		writeRow(&b, "Mobile", lead.Phone)
	}
	writeRow(&b, "Lifestyle (Dream)", labelList(lifestyleLabels, lead.Lifestyles))
	writeRow(&b, "Must-have amenities", labelList(amenityLabels, lead.Amenities))
	writeRow(&b, "Price range", labelOr(priceLabels, lead.PriceRange))
	writeRow(&b, "Timeline", labelOr(timelineLabels, lead.Timeline))
	writeRow(&b, "Text me private listing alerts", yesNo(lead.TextAlerts))
	writeRow(&b, "15-min Market Strategy Call requested", yesNo(lead.ScheduleCall))
	b.WriteString(`</table>`)
	b.WriteString("<p>Source: buy.nantuckethouses.com · " + timestamp() + "</p>")
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString("<tr><td><b>" + label + ":</b></td><td>" + value + "</td></tr>")
}

// labelOr maps a form value through its label table, passing unknown
// values through unchanged.
func labelOr(labels map[string]string, value string) string {
	if label, ok := labels[value]; ok {
		return label
	}
	return value
}

func labelList(labels map[string]string, values []string) string {
	if len(values) == 0 {
		return "—"
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = labelOr(labels, v)
	}
	return strings.Join(out, ", ")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func sourceOrDefault(source string) string {
	if source == "" {
		return "NantucketHouses.com"
	}
	return source
}

func timestamp() string {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Now().UTC().Format("1/2/2006, 3:04:05 PM") + " UTC"
	}
	return time.Now().In(loc).Format("1/2/2006, 3:04:05 PM") + " EST"
}
