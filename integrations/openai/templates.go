package openai

import (
	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
)

// PromptTemplate is one article brief: the angle and structure the model is
// asked to write with. Template content is configuration, not logic; the
// generator stays agnostic to what the templates say.
type PromptTemplate struct {
	Name  string
	Brief string
}

// ITemplateResolver selects the prompt template for a generation call,
// keyed by plan tier and a rotating sequence number.
type ITemplateResolver interface {
	Resolve(plan clientsDomain.PlanTier, sequence int) PromptTemplate
}

// StaticTemplateResolver serves the built-in template families. Higher
// tiers unlock longer, more structured briefs.
type StaticTemplateResolver struct {
	templates map[clientsDomain.PlanTier][]PromptTemplate
}

func NewStaticTemplateResolver() *StaticTemplateResolver {
	return &StaticTemplateResolver{
		templates: map[clientsDomain.PlanTier][]PromptTemplate{
			clientsDomain.PlanStarter: {
				{Name: "how-to", Brief: "Write a practical how-to article of around 600 words that walks the reader through solving one specific problem they face. Use short paragraphs and a clear step-by-step structure."},
				{Name: "listicle", Brief: "Write a list-style article of around 600 words with 5 to 7 actionable tips. Each tip gets a bold heading and two or three sentences of explanation."},
			},
			clientsDomain.PlanGrowth: {
				{Name: "how-to", Brief: "Write an in-depth how-to article of around 1000 words. Open with the reader's pain point, walk through a numbered solution, and close with a summary of outcomes. Include one real-world example."},
				{Name: "myth-busting", Brief: "Write an article of around 1000 words that debunks 3 to 5 common misconceptions in the business's field. For each myth, state it, explain why people believe it, and correct it."},
				{Name: "case-study", Brief: "Write an article of around 1000 words framed as a before/after story of a typical client. Describe the starting situation, the turning point, and the measurable results."},
			},
			clientsDomain.PlanScale: {
				{Name: "pillar", Brief: "Write a comprehensive pillar article of around 1500 words covering one topic end to end. Use descriptive subheadings, include a short FAQ section at the end, and weave in the business's differentiators naturally."},
				{Name: "thought-leadership", Brief: "Write an opinionated thought-leadership article of around 1500 words taking a clear stance on a trend in the business's industry. Back the stance with reasoning and address the strongest counterargument."},
				{Name: "comparison", Brief: "Write an article of around 1500 words comparing the common approaches to a problem the business's clients face, with an honest pros/cons treatment and a recommendation."},
				{Name: "case-study", Brief: "Write an article of around 1500 words framed as a detailed client journey: context, obstacles, decisions made, and quantified outcomes. Close with three takeaways."},
			},
		},
	}
}

// Resolve returns the template at sequence (mod family size) for the plan.
// Unknown plans fall back to the starter family.
func (r *StaticTemplateResolver) Resolve(plan clientsDomain.PlanTier, sequence int) PromptTemplate {
	family, ok := r.templates[plan]
	if !ok || len(family) == 0 {
		family = r.templates[clientsDomain.PlanStarter]
	}
	if sequence < 0 {
		sequence = -sequence
	}
	return family[sequence%len(family)]
}
