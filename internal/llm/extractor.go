package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"govreporter/internal/citations"
	"govreporter/internal/logging"
)

// =============================================================================
// METADATA EXTRACTOR
// =============================================================================

const (
	// DefaultModel is the chat model used for extraction.
	DefaultModel = "gpt-4o-mini"

	// extractionTemperature keeps output consistent across runs.
	extractionTemperature = 0.2

	scotusMaxTokens = 2000
	eoMaxTokens     = 1500

	// maxExtractRetries bounds retries on rate limits and transient 5xx.
	maxExtractRetries = 5

	// extractRetryBase is the first retry delay; it doubles per attempt.
	extractRetryBase = time.Second
)

// Extractor generates structured metadata from document text.
type Extractor struct {
	client openai.Client
	model  string
}

// NewExtractor creates a metadata extractor. The API key is required; its
// absence is a construction-time error.
func NewExtractor(apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for metadata extractor")
	}
	if model == "" {
		model = DefaultModel
	}

	logging.LLM("Initializing metadata extractor: model=%s", model)

	return &Extractor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// ExtractSCOTUS extracts metadata from a Supreme Court opinion. When a
// Syllabus was detected it is prepended and the model is told to source
// holding, outcome, and issue from it alone.
func (e *Extractor) ExtractSCOTUS(ctx context.Context, text, syllabus string) (*SCOTUSFields, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "ExtractSCOTUS")
	defer timer.Stop()

	content := text
	instruction := ""
	if syllabus != "" {
		content = "SYLLABUS (USE THIS FOR HOLDING, OUTCOME, AND ISSUE):\n" + syllabus + "\n\nFULL OPINION:\n" + text
		instruction = scotusSyllabusInstruction
	}

	raw, err := e.complete(ctx,
		fmt.Sprintf(scotusSystemPrompt, instruction),
		"Extract metadata from this Supreme Court opinion:\n\n"+content,
		scotusMaxTokens)
	if err != nil {
		return nil, err
	}

	fields, err := parseSCOTUSFields(raw)
	if err != nil {
		return nil, err
	}

	// The recognizer catches citations the model missed; model-found
	// citations keep their position.
	cfr, usc, constitution := citations.ExtractAllStrings(text)
	fields.ConstitutionCited = mergeUnique(fields.ConstitutionCited, constitution)
	fields.FederalStatutesCited = mergeUnique(fields.FederalStatutesCited, usc)
	fields.FederalRegulationsCited = mergeUnique(fields.FederalRegulationsCited, cfr)

	logging.LLMDebug("extracted SCOTUS metadata: %d topics, %d statute citations",
		len(fields.TopicsOrPolicyAreas), len(fields.FederalStatutesCited))
	return fields, nil
}

// ExtractEO extracts metadata from an Executive Order.
func (e *Extractor) ExtractEO(ctx context.Context, text string) (*EOFields, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "ExtractEO")
	defer timer.Stop()

	raw, err := e.complete(ctx, eoSystemPrompt,
		"Extract metadata from this Executive Order:\n\n"+text, eoMaxTokens)
	if err != nil {
		return nil, err
	}

	fields, err := parseEOFields(raw)
	if err != nil {
		return nil, err
	}

	cfr, usc, _ := citations.ExtractAllStrings(text)
	fields.FederalStatutesReferenced = mergeUnique(fields.FederalStatutesReferenced, usc)
	fields.FederalRegulationsReferenced = mergeUnique(fields.FederalRegulationsReferenced, cfr)

	logging.LLMDebug("extracted EO metadata: %d topics, %d agencies",
		len(fields.TopicsOrPolicyAreas), len(fields.AgenciesOrEntities))
	return fields, nil
}

// complete performs one JSON-mode chat completion with retry on rate limits
// and transient 5xx. Other 4xx responses surface immediately.
func (e *Extractor) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(extractionTemperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	var resp *openai.ChatCompletion
	var err error

	delay := extractRetryBase
	for attempt := 1; attempt <= maxExtractRetries; attempt++ {
		resp, err = e.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}
		if !isRetryable(err) || attempt == maxExtractRetries {
			return "", fmt.Errorf("extraction request failed: %w", err)
		}
		logging.LLMDebug("transient extraction failure (attempt %d/%d), retrying in %v: %v",
			attempt, maxExtractRetries, delay, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// isRetryable reports whether an API error is worth retrying: rate limits
// and server-side 5xx. Other 4xx are caller mistakes.
func isRetryable(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}

// mergeUnique appends items from extra that are not already in base,
// preserving order.
func mergeUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}
