package workflows

import (
	"fmt"

	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
)

// Content stage names.
const (
	StageOutline = "outline"
	StageDraft   = "draft"
	StageSEO     = "seo"
	StageSocial  = "social"
)

// draftExcerpt bounds the article quoted in the social prompt.
const draftExcerpt = 1500

// Content turns a topic into an outline, a streamed article draft, SEO
// recommendations, and social posts.
func Content() *Workflow {
	return &Workflow{
		Name:        "content",
		Title:       "Content Pipeline",
		Description: "Write a blog post with SEO advice and social posts from a topic",
		Usage:       "<topic>",
		MinArgs:     1,
		MaxArgs:     1,
		Input:       fromArgument("topic"),
		Build:       contentStages,
		Titles: map[string]string{
			StageOutline: "Generating Outline",
			StageDraft:   "Writing Full Draft",
			StageSEO:     "SEO Optimization",
			StageSocial:  "Generating Social Media Posts",
		},
		Footer: []string{
			"All outputs generated successfully!",
			"Copy the draft, apply the SEO recommendations, and distribute via social media.",
		},
	}
}

func contentStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		textStage(opts, StageOutline, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2000, fmt.Sprintf(outlinePrompt, in.Text())), nil
		}),
		streamStage(opts, StageDraft, []string{StageOutline}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 4000, fmt.Sprintf(draftPrompt, in.Text(), deps.Text(StageOutline))), nil
		}),
		textStage(opts, StageSEO, []string{StageDraft}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2000, fmt.Sprintf(seoPrompt, in.Text(), deps.Text(StageDraft))), nil
		}),
		textStage(opts, StageSocial, []string{StageDraft}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2000, fmt.Sprintf(socialPrompt, in.Text(), excerpt(draftExcerpt, deps.Text(StageDraft)))), nil
		}),
	}
}

const outlinePrompt = `Create a comprehensive outline for a blog post about: "%s"

The outline should:
- Have an engaging title
- Include 5-7 main sections with H2 headings
- Include 2-3 subsections (H3) under each main section
- Include an introduction and conclusion
- Focus on actionable, practical content
- Be optimized for reader engagement

Format as a clean, hierarchical outline with clear numbering.`

const draftPrompt = `Write a complete blog post based on this outline:

TOPIC: %s

OUTLINE:
%s

Requirements:
- Write in a conversational, engaging tone
- Include specific examples and actionable tips
- Use short paragraphs (2-3 sentences max)
- Include transitions between sections
- Target length: 1500-2000 words
- Use markdown formatting (headers, lists, bold, etc.)
- Make it valuable and practical

Write the complete article now:`

const seoPrompt = `Analyze this blog post and provide SEO recommendations:

TOPIC: %s

ARTICLE:
%s

Provide:
1. Optimized meta title (60 chars max)
2. Optimized meta description (155 chars max)
3. 5 primary keywords to target
4. 5 secondary keywords (LSI/related terms)
5. Suggested URL slug
6. 3 specific content improvements for better SEO

Format your response clearly with headers for each section.`

const socialPrompt = `Based on this article, create social media posts for distribution:

TOPIC: %s

ARTICLE EXCERPT:
%s

Generate:
1. Twitter/X thread (5-7 tweets, numbered, engaging hooks)
2. LinkedIn post (professional tone, 150-200 words)
3. Reddit post (title + body, conversational, community-focused)
4. Hacker News title (compelling, HN-style)

Make each post platform-appropriate and engaging. Include relevant hashtags where appropriate.`
