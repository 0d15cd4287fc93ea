package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/zenbeauty/salon-assistant/internal/catalog"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxToolRounds caps the model -> tool -> model loop per user turn so a
// confused model cannot spin forever.
const maxToolRounds = 8

const fallbackReply = "I'm sorry, I couldn't complete that request. Could you rephrase it?"

// Agent runs the conversational loop: send the user's message plus history
// to Gemini, execute any function calls it asks for, feed the results back,
// and return the final text answer.
type Agent struct {
	client    *genai.Client
	modelName string
	tools     *Tools
	history   History
	catalog   *catalog.Catalog
	loc       *time.Location
	logger    *zap.Logger
}

// NewClient creates the shared Gemini client. The agent and the FAQ
// embedder run over the same connection.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return client, nil
}

func New(client *genai.Client, modelName string, tools *Tools, history History, cat *catalog.Catalog, loc *time.Location, logger *zap.Logger) *Agent {
	return &Agent{
		client:    client,
		modelName: modelName,
		tools:     tools,
		history:   history,
		catalog:   cat,
		loc:       loc,
		logger:    logger,
	}
}

// Chat processes one user turn for the given chat and returns the reply.
func (a *Agent) Chat(ctx context.Context, chatID, text string) (string, error) {
	turnID := uuid.NewString()
	logger := a.logger.With(zap.String("chat_id", chatID), zap.String("turn_id", turnID))

	model := a.client.GenerativeModel(a.modelName)
	model.Tools = a.tools.Declarations()
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(a.systemPrompt())},
	}

	history, err := a.history.Load(ctx, chatID)
	if err != nil {
		// Losing context is recoverable; losing the turn is not.
		logger.Warn("Failed to load chat history", zap.Error(err))
		history = nil
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.tools.Dispatch(ctx, call.Name, call.Args)
			if err != nil {
				logger.Error("Tool dispatch failed", zap.String("tool", call.Name), zap.Error(err))
				result = "The salon system is temporarily unavailable, please try again shortly."
			}

			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"content": result},
			})
		}

		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", fmt.Errorf("send tool results: %w", err)
		}
	}

	answer := responseText(resp)
	if answer == "" {
		logger.Warn("Model produced no final text, using fallback")
		answer = fallbackReply
	}

	if err := a.history.Append(ctx, chatID, text, answer); err != nil {
		logger.Warn("Failed to store chat history", zap.Error(err))
	}

	return answer, nil
}

func (a *Agent) systemPrompt() string {
	now := time.Now().In(a.loc)

	var services []string
	for _, entry := range a.catalog.All() {
		services = append(services, string(entry.Service))
	}

	return fmt.Sprintf(
		"You are a helpful assistant in Zen Beauty Salon, a beauty salon in California (United States).\n"+
			"As reference, today is %s.\n"+
			"The salon offers: %s.\n"+
			"Keep a friendly, professional tone, like a secretary talking with a client. Avoid verbosity.\n"+
			"Considerations:\n"+
			"- Don't assume parameters for tool calls the user did not mention.\n"+
			"- Never force users to write in a particular way, let them write as they want.\n"+
			"- Call only ONE tool at a time.",
		now.Format("2006-01-02 15:04, Monday"),
		strings.Join(services, ", "),
	)
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}

	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}

	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return strings.TrimSpace(b.String())
}
