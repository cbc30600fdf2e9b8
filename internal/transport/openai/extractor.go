package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain/schema"
	"github.com/veredito/juris/internal/domain/search/constraint"
	"github.com/veredito/juris/internal/usecase/plan"
)

const extractorSystemPrompt = `You translate a user question about indexed legal documents into a search plan.
Respond with a single JSON object, nothing else:
{"semantic_text": "<the semantic search text distilled from the question>",
 "constraints": [{"attribute": "<name>", "operator": "eq|lt|lte|gt|gte", "value": "<value>"}]}
Only use attributes from the list below. Comparison operators (lt, lte, gt, gte)
are only meaningful on integer attributes. When the question implies "before
year Y" use lt with Y; "after year Y" uses gt. Return an empty constraints
array when the question implies no attribute filter.

Attributes:
%s`

// Extractor infers semantic text and attribute constraints from a question
// via an OpenAI-compatible chat endpoint.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewExtractor creates a constraint extractor.
func NewExtractor(cfg ProviderConfig, logger *zap.Logger) *Extractor {
	return &Extractor{client: newClient(cfg), model: cfg.Model, logger: logger}
}

// Extract asks the model for a search plan and parses it. Malformed
// individual constraints are skipped (the planner revalidates everything
// anyway); an unparseable response fails the extraction.
func (e *Extractor) Extract(ctx context.Context, question string, s schema.Schema) (plan.Extraction, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(extractorSystemPrompt, describeAttributes(s)),
			},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return plan.Extraction{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return plan.Extraction{}, fmt.Errorf("empty extraction response")
	}

	return e.parse(resp.Choices[0].Message.Content)
}

type extractionDTO struct {
	SemanticText string `json:"semantic_text"`
	Constraints  []struct {
		Attribute string          `json:"attribute"`
		Operator  string          `json:"operator"`
		Value     json.RawMessage `json:"value"`
	} `json:"constraints"`
}

func (e *Extractor) parse(content string) (plan.Extraction, error) {
	content = stripFences(content)

	var dto extractionDTO
	if err := json.Unmarshal([]byte(content), &dto); err != nil {
		return plan.Extraction{}, fmt.Errorf("parse extraction response: %w", err)
	}

	out := plan.Extraction{SemanticText: strings.TrimSpace(dto.SemanticText)}
	for _, c := range dto.Constraints {
		value := rawToString(c.Value)
		cons, err := constraint.New(c.Attribute, constraint.Operator(c.Operator), value)
		if err != nil {
			e.logger.Warn("skipping malformed extracted constraint",
				zap.String("attribute", c.Attribute),
				zap.String("operator", c.Operator),
				zap.Error(err),
			)
			continue
		}
		out.Constraints = append(out.Constraints, cons)
	}
	return out, nil
}

// describeAttributes renders the schema for the prompt, one attribute per
// line with its type and description.
func describeAttributes(s schema.Schema) string {
	var b strings.Builder
	for _, attr := range s.Attributes() {
		fmt.Fprintf(&b, "- %s (%s): %s", attr.Name(), attr.Type(), attr.Description())
		if len(attr.EnumValues()) > 0 {
			fmt.Fprintf(&b, " Allowed values: %s.", strings.Join(attr.EnumValues(), ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// rawToString accepts both string and numeric JSON values, since models emit
// years either way.
func rawToString(raw json.RawMessage) string {
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	return strings.Trim(string(raw), `"`)
}
