package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/sirupsen/logrus"

	"nantuckethouses/server/internal/market"
	"nantuckethouses/server/internal/models"
)

// Router answers market questions by offering the model three tools and
// executing whichever calls it makes against the aggregator. Exactly one
// round of tool calling is supported: request, execute, respond.
type Router struct {
	logger *logrus.Logger
	client openai.Client
	model  string
	market *market.Service
}

func NewRouter(logger *logrus.Logger, client openai.Client, model string, svc *market.Service) *Router {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Router{
		logger: logger,
		client: client,
		model:  model,
		market: svc,
	}
}

// Respond runs one conversational turn over the caller-supplied history.
// Nothing is stored between turns; the caller resends the full history.
func (r *Router) Respond(ctx context.Context, history []models.ChatMessage) (models.ChatMessage, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(r.model),
		Messages: messages,
		Tools:    toolDefinitions(),
	}

	completion, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return models.ChatMessage{}, fmt.Errorf("no response from model")
	}

	assistant := completion.Choices[0].Message
	if len(assistant.ToolCalls) > 0 {
		params.Messages = append(params.Messages, assistant.ToParam())
		for _, tc := range assistant.ToolCalls {
			result, known := r.executeTool(ctx, tc.Function.Name, tc.Function.Arguments)
			if !known {
				// Unknown tool names are ignored rather than errored.
				continue
			}
			params.Messages = append(params.Messages, openai.ToolMessage(result, tc.ID))
		}

		completion, err = r.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return models.ChatMessage{}, fmt.Errorf("follow-up completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return models.ChatMessage{}, fmt.Errorf("no response from model")
		}
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		content = "I couldn't generate a response. Please try again."
	}
	return models.ChatMessage{Role: "assistant", Content: content}, nil
}

// executeTool runs one tool call and renders its result as the JSON
// payload fed back to the model. Execution failures become an error
// payload so the model can explain them; they never abort the turn.
func (r *Router) executeTool(ctx context.Context, name, arguments string) (string, bool) {
	switch name {
	case toolNeighborhoodStats:
		result := r.market.NeighborhoodStats(ctx)
		return marshalToolResult(map[string]interface{}{
			"data":       result.Data,
			"isFallback": result.IsFallback,
			"source":     result.Source,
		}), true

	case toolNeighborhoodSales:
		months := 12
		var args salesArgs
		if err := json.Unmarshal([]byte(arguments), &args); err == nil && args.Months > 0 {
			months = int(args.Months)
		}
		end := time.Now()
		start := end.AddDate(0, -months, 0)

		sales, totalSales, err := r.market.NeighborhoodSales(ctx, start, end)
		if err != nil {
			r.logger.WithError(err).Warn("Neighborhood sales tool failed")
			return marshalToolResult(map[string]string{"error": err.Error()}), true
		}
		return marshalToolResult(map[string]interface{}{
			"data":         sales,
			"totalSales":   totalSales,
			"periodMonths": months,
		}), true

	case toolSearchListings:
		var args searchArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			r.logger.WithError(err).Warn("Bad search_listings arguments")
			return marshalToolResult(map[string]string{"error": "invalid search arguments"}), true
		}

		count, listings, err := r.market.SearchListings(ctx, queryFromArgs(args))
		if err != nil {
			r.logger.WithError(err).Warn("Listing search tool failed")
			return marshalToolResult(map[string]string{"error": err.Error()}), true
		}
		return marshalToolResult(map[string]interface{}{
			"count":    count,
			"listings": listings,
		}), true
	}

	return "", false
}

// queryFromArgs translates model-supplied search arguments into an
// aggregator query, capping the result limit.
func queryFromArgs(args searchArgs) market.ListingQuery {
	limit := int(args.Limit)
	if limit > 50 {
		limit = 50
	}
	return market.ListingQuery{
		Area:         args.Area,
		MinPrice:     int(args.MinPrice),
		MaxPrice:     int(args.MaxPrice),
		MinBedrooms:  int(args.Bedrooms),
		PropertyType: args.PropertyType,
		SortBy:       args.SortBy,
		Limit:        limit,
	}
}

func marshalToolResult(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode tool result"}`
	}
	return string(data)
}
