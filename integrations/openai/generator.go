package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	contentDomain "github.com/blogsmith/blogsmith/content/domain"
)

// Config holds the generator settings.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Generator is the content generation adapter backed by the OpenAI API.
type Generator struct {
	client    openai.Client
	model     string
	timeout   time.Duration
	templates ITemplateResolver
}

func NewGenerator(cfg Config, templates ITemplateResolver) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if templates == nil {
		templates = NewStaticTemplateResolver()
	}

	return &Generator{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		timeout:   timeout,
		templates: templates,
	}, nil
}

// GenerateContent produces one article body personalized with the target's
// business context, steered by the plan-tier template family and the user's
// recent published posts as style history.
func (g *Generator) GenerateContent(ctx context.Context, target clientsDomain.PublishingTarget, plan clientsDomain.PlanTier, keywords []string, history []*contentDomain.Post) (string, error) {
	// Rotate templates by day so consecutive posts vary in shape.
	sequence := time.Now().UTC().YearDay()
	template := g.templates.Resolve(plan, sequence)

	logrus.Debugf("[OPENAI] Generating content for %s with template %q", target.UserID, template.Name)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildContentPrompt(target, template, keywords, history)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai content generation: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	body := strings.TrimSpace(completion.Choices[0].Message.Content)
	if body == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return body, nil
}

// GenerateTitle produces a headline for an already generated body.
func (g *Generator) GenerateTitle(ctx context.Context, body string, plan clientsDomain.PlanTier) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	excerpt := body
	if len(excerpt) > 2000 {
		excerpt = excerpt[:2000]
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write compelling, specific blog post headlines. Reply with the headline only, no quotes, no markdown."),
			openai.UserMessage(fmt.Sprintf("Write a headline for this article:\n\n%s", excerpt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai title generation: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	title := strings.TrimSpace(strings.Trim(completion.Choices[0].Message.Content, `"`))
	if title == "" {
		return "", fmt.Errorf("openai returned empty title")
	}
	return title, nil
}

const systemPrompt = "You are a professional content writer producing publish-ready blog articles for small businesses. Write in plain HTML (p, h2, h3, ul, li tags only), no markdown, no preamble."

func buildContentPrompt(target clientsDomain.PublishingTarget, template PromptTemplate, keywords []string, history []*contentDomain.Post) string {
	var b strings.Builder

	b.WriteString(template.Brief)
	b.WriteString("\n\nBusiness context:\n")
	if target.BusinessName != "" {
		fmt.Fprintf(&b, "- Business: %s\n", target.BusinessName)
	}
	if target.IdealClient != "" {
		fmt.Fprintf(&b, "- Ideal client: %s\n", target.IdealClient)
	}
	if target.Promises != "" {
		fmt.Fprintf(&b, "- What the business promises: %s\n", target.Promises)
	}
	if target.Expectations != "" {
		fmt.Fprintf(&b, "- What clients can expect: %s\n", target.Expectations)
	}

	if len(keywords) > 0 {
		fmt.Fprintf(&b, "\nWork these keywords in naturally: %s\n", strings.Join(keywords, ", "))
	}

	if len(history) > 0 {
		b.WriteString("\nRecent article titles already published (avoid repeating these topics):\n")
		for _, post := range history {
			fmt.Fprintf(&b, "- %s\n", post.Title)
		}
	}

	return b.String()
}
