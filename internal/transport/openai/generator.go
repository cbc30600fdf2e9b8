package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/search/result"
)

const generatorSystemPrompt = `You are a legal research assistant answering questions about indexed court
ruling summaries. Answer directly and only from the context passages provided.
Cite sources at the end in the form (document: <pdf_name>, ruling: <num_sumula>,
status: <status_atual>, date: <data_status>). Never invent rulings, numbers, or
dates that are not in the context.`

const noContextInstruction = `No passages in the corpus matched this question. State clearly that the
indexed documents contain no matching material. Do not answer from general
knowledge and do not speculate.`

// Generator synthesizes answers through an OpenAI-compatible chat endpoint.
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator creates an answer generator.
func NewGenerator(cfg ProviderConfig, logger *zap.Logger) *Generator {
	return &Generator{client: newClient(cfg), model: cfg.Model, logger: logger}
}

// Generate produces the final answer. An empty passage slice is the explicit
// no-context marker: the model is instructed to report that nothing matched
// instead of answering from its own knowledge. Token usage is passed through
// when the provider reports it.
func (g *Generator) Generate(
	ctx context.Context, question string, passages []result.Passage,
) (domain.GenerationResult, error) {
	var userPrompt string
	if len(passages) == 0 {
		userPrompt = fmt.Sprintf("Question: %s\n\n%s", question, noContextInstruction)
	} else {
		userPrompt = fmt.Sprintf(
			"Question: %s\n\nContext passages:\n%s\n\nAnswer directly, then list sources.",
			question, formatPassages(passages),
		)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return domain.GenerationResult{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.GenerationResult{}, fmt.Errorf("no answer generated")
	}

	return domain.GenerationResult{
		Answer:           resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		HasUsage:         resp.Usage.TotalTokens > 0,
	}, nil
}

// formatPassages renders retrieved passages with a metadata header line each,
// separated by rulers, so the model can cite sources.
func formatPassages(passages []result.Passage) string {
	parts := make([]string, 0, len(passages))
	for i := range passages {
		p := &passages[i]
		head := fmt.Sprintf("[%s | ruling %s | %s]\nstatus: %s\ndate: %s",
			orUnknown(p.Tag("pdf_name")),
			orUnknown(p.Tag("num_sumula")),
			orUnknown(p.Tag("chunk_type")),
			orUnknown(p.Tag("status_atual")),
			orUnknown(p.Tag("data_status")),
		)
		parts = append(parts, head+"\n\n"+p.Text())
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
