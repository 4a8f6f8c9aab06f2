package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// OpenAIAdvisor implements Advisor using a chat-completion model.
type OpenAIAdvisor struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIAdvisor creates an advisor backed by the given OpenAI client.
// An empty model defaults to GPT-4o mini.
func NewOpenAIAdvisor(client *openai.Client, model string) *OpenAIAdvisor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAdvisor{
		client: client,
		model:  model,
		log:    logger.WithComponent("advisory-openai"),
	}
}

// Advise sends the candidate invoice and detected findings to the model and
// parses its JSON answer. Any transport or parse failure is returned to the
// caller, who is expected to substitute Degraded(err).
func (a *OpenAIAdvisor) Advise(ctx context.Context, candidate *models.InvoiceRecord, findings []models.Finding) (*Result, error) {
	const op = "Advise"

	invoiceJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal invoice JSON: %w", op, err)
	}
	findingsJSON, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal findings JSON: %w", op, err)
	}

	prompt := fmt.Sprintf(`Analyze this invoice for potential fraud indicators.

Invoice data:
%s

Already detected issues:
%s

Provide:
1. Additional fraud indicators not covered by rules
2. Overall fraud probability (low/medium/high)
3. Recommended action (approve/review/reject)
4. Brief explanation

Respond only with JSON with keys: additional_indicators (array of strings),
fraud_probability, recommended_action, explanation.`, invoiceJSON, findingsJSON)

	a.log.Debug().
		Str("invoice_number", candidate.InvoiceNumber).
		Int("findings", len(findings)).
		Msg("Sending fraud advisory request")

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: advisory request failed: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: no response choices from advisory model", op)
	}

	result, err := ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Debug().
		Str("invoice_number", candidate.InvoiceNumber).
		Str("fraud_probability", string(result.FraudProbability)).
		Str("recommended_action", string(result.RecommendedAction)).
		Msg("Received advisory result")

	return result, nil
}

// ParseResponse parses a model answer into a Result. Answers wrapped in
// markdown code fences are unwrapped first; out-of-range enum values are
// coerced to the safe defaults so downstream code always sees a well-formed
// payload.
func ParseResponse(response string) (*Result, error) {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to parse advisory response as JSON: %w", err)
	}

	if result.AdditionalIndicators == nil {
		result.AdditionalIndicators = []string{}
	}
	if !result.FraudProbability.IsValid() {
		result.FraudProbability = enums.FraudProbabilityUnknown
	}
	if !result.RecommendedAction.IsValid() {
		result.RecommendedAction = enums.ActionReview
	}

	return &result, nil
}
