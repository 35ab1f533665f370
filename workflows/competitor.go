package workflows

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/report"
	"github.com/kbukum/llmflow/source"
	"github.com/kbukum/llmflow/structured"
)

// Competitor stage names.
const (
	StageExtract     = "extract"
	StageCompare     = "compare"
	StageSWOT        = "swot"
	StagePositioning = "positioning"
)

// Competitor input parameters.
const (
	ParamURL     = "url"
	ParamProduct = "product"
)

// swotExcerpt bounds the SWOT analysis quoted in the positioning prompt.
const swotExcerpt = 2000

// CompetitorSchema is the structured profile extracted from a
// competitor's page. Unknown values are "Not visible on page".
var CompetitorSchema = structured.Fields(
	structured.Required("company_name", structured.String),
	structured.Required("tagline", structured.String),
	structured.Required("target_audience", structured.String),
	structured.Required("key_features", structured.StringList),
	structured.OneOf("pricing_model", "freemium", "subscription", "one-time", "enterprise", "unclear"),
	structured.Required("pricing_tiers", structured.StringList),
	structured.Required("unique_selling_points", structured.StringList),
	structured.Required("tech_stack_visible", structured.StringList),
	structured.Required("customer_segments", structured.StringList),
	structured.Required("positioning", structured.String),
	structured.Required("content_strategy", structured.String),
	structured.Required("call_to_action", structured.String),
)

// Competitor fetches a competitor's page and produces a comparison, a
// SWOT analysis, and a positioning strategy for the given product.
func Competitor() *Workflow {
	return &Workflow{
		Name:        "competitor",
		Title:       "Competitor Analysis",
		Description: "Compare a competitor's website against your product",
		Usage:       "<competitor-url> <your-product>",
		MinArgs:     2,
		MaxArgs:     2,
		Input:       competitorInput,
		Build:       competitorStages,
		Titles: map[string]string{
			StageExtract:     "Extracting Key Information",
			StageCompare:     "Product Comparison",
			StageSWOT:        "SWOT Analysis",
			StagePositioning: "Positioning Strategy",
		},
		Status: func(run *pipeline.Run) []report.Field {
			return []report.Field{{Label: "Competitor", Value: value(run, StageExtract, "company_name", "Unknown")}}
		},
		Footer: []string{
			"Next steps:",
			"1. Review the SWOT analysis for strategic insights",
			"2. Implement positioning strategy recommendations",
			"3. Prioritize product development based on competitive gaps",
		},
	}
}

func competitorInput(ctx context.Context, src *source.Loader, args []string) (pipeline.Input, error) {
	url, product := args[0], strings.TrimSpace(args[1])
	if product == "" {
		return pipeline.Input{}, apperrors.EmptyContent(ParamProduct)
	}
	doc, err := src.URL(ctx, url)
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.NewInput(doc.Text, doc.Source, map[string]string{
		ParamURL:     url,
		ParamProduct: product,
	}), nil
}

func competitorStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.NewStructuredStage(stageConfig(opts, StageExtract, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2000, fmt.Sprintf(extractPrompt, in.Param(ParamURL), in.Text())), nil
		}), CompetitorSchema),
		streamStage(opts, StageCompare, []string{StageExtract}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 3000, fmt.Sprintf(comparePrompt, deps.Record(StageExtract).JSON(), in.Param(ParamProduct))), nil
		}),
		streamStage(opts, StageSWOT, []string{StageExtract, StageCompare}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 3000, fmt.Sprintf(swotPrompt,
				in.Param(ParamProduct), deps.Record(StageExtract).JSON(), deps.Text(StageCompare))), nil
		}),
		textStage(opts, StagePositioning, []string{StageExtract, StageSWOT}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2500, fmt.Sprintf(positioningPrompt,
				in.Param(ParamProduct), deps.Record(StageExtract).JSON(), excerpt(swotExcerpt, deps.Text(StageSWOT)))), nil
		}),
	}
}

const extractPrompt = `Analyze this competitor's website and extract key information:

URL: %s

WEBPAGE CONTENT:
%s

Extract and provide a JSON response with:
{
  "company_name": "name",
  "tagline": "their main value proposition",
  "target_audience": "who they serve",
  "key_features": ["feature 1", "feature 2", "feature 3"],
  "pricing_model": "freemium|subscription|one-time|enterprise|unclear",
  "pricing_tiers": ["tier info if visible"],
  "unique_selling_points": ["USP 1", "USP 2"],
  "tech_stack_visible": ["technologies mentioned"],
  "customer_segments": ["segment 1", "segment 2"],
  "positioning": "how they position themselves in market",
  "content_strategy": "blog|docs|tutorials|case-studies|etc",
  "call_to_action": "primary CTA on page"
}

If information is not available, use "Not visible on page".
Only output valid JSON, no other text.`

const comparePrompt = `Compare this competitor to our product:

COMPETITOR:
%s

OUR PRODUCT: %s

Provide a detailed comparison covering:

## Feature Comparison
- Features they have that we don't
- Features we have that they don't
- Features we both have (compare implementation/approach)

## Pricing Comparison
- How their pricing compares to ours
- Value proposition differences
- Which pricing model might be more attractive to customers

## Positioning Comparison
- How they position vs how we position
- Target audience overlap and differences
- Messaging differences

## User Experience
- What they do well in UX/UI
- What we do better
- Opportunities for us to learn from them

Keep it objective and actionable.`

const swotPrompt = `Based on this competitive analysis, generate a SWOT analysis for our product (%s):

COMPETITOR INFO:
%s

COMPARISON:
%s

Generate a comprehensive SWOT analysis:

## Strengths
What we do better than this competitor (3-5 points)

## Weaknesses
Where we fall short compared to them (3-5 points)

## Opportunities
Market opportunities based on their gaps or our differentiators (3-5 points)

## Threats
Competitive threats they pose or market risks (3-5 points)

For each point, be specific and actionable. Include concrete examples where possible.

Then add:

## Strategic Recommendations
Top 3 immediate actions we should take based on this analysis.

Format clearly with headers and bullet points.`

const positioningPrompt = `Based on this competitive intelligence, suggest positioning strategies for %s:

COMPETITOR:
%s

SWOT ANALYSIS:
%s

Provide:

## Differentiation Strategy
How should we differentiate from this competitor?

## Messaging Recommendations
- Key messages to emphasize
- What to avoid saying
- Unique angles to explore

## Target Market Strategy
- Should we compete head-to-head or find a niche?
- Which customer segments should we focus on?
- Where do we have the strongest competitive advantage?

## Product Development Priorities
Based on this analysis, what features/improvements should be prioritized?

## Marketing & Sales Strategy
- How to position against this competitor in sales conversations
- Marketing channels where we might have an advantage
- Content strategy to highlight our strengths

Keep it strategic and actionable.`
