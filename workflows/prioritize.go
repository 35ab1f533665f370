package workflows

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/source"
)

// StageRICE is the single prioritization stage.
const StageRICE = "rice"

// Product context parameters read from the features document.
var productContext = []struct{ key, label string }{
	{"stage", "Stage"},
	{"monthly_users", "Monthly users"},
	{"team_size", "Team size"},
	{"focus", "Current focus"},
}

// FeatureRequest is one entry of a features document.
type FeatureRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FeaturesDocument is the JSON input of the prioritize workflow.
type FeaturesDocument struct {
	Features []FeatureRequest `json:"features"`
	Context  map[string]any   `json:"context"`
}

// Prioritize scores feature requests with the RICE framework.
func Prioritize() *Workflow {
	return &Workflow{
		Name:        "prioritize",
		Title:       "Feature Prioritization",
		Description: "Score feature requests from a JSON document with RICE",
		Usage:       "<features.json>",
		MinArgs:     1,
		MaxArgs:     1,
		Input:       featuresInput,
		Build:       prioritizeStages,
		Titles:      map[string]string{StageRICE: "RICE Analysis"},
	}
}

// featuresInput turns a features document into one line per feature plus
// the product context as parameters.
func featuresInput(ctx context.Context, src *source.Loader, args []string) (pipeline.Input, error) {
	doc, err := src.Load(ctx, args[0])
	if err != nil {
		return pipeline.Input{}, err
	}
	var features FeaturesDocument
	if err := doc.Decode(&features); err != nil {
		return pipeline.Input{}, err
	}
	if len(features.Features) == 0 {
		return pipeline.Input{}, apperrors.EmptyContent(doc.Source).WithDetail("reason", "no features listed")
	}

	lines := make([]string, len(features.Features))
	for i, f := range features.Features {
		desc := f.Description
		if desc == "" {
			desc = "No description"
		}
		lines[i] = fmt.Sprintf("- %s: %s", f.Name, desc)
	}

	params := make(map[string]string, len(productContext))
	for _, c := range productContext {
		if v, ok := features.Context[c.key]; ok && v != nil {
			params[c.key] = fmt.Sprint(v)
		}
	}
	return pipeline.NewInput(strings.Join(lines, "\n"), doc.Source, params), nil
}

func prioritizeStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		textStage(opts, StageRICE, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			var b strings.Builder
			for _, c := range productContext {
				fmt.Fprintf(&b, "- %s: %s\n", c.label, orDefault(in.Param(c.key), "Not specified"))
			}
			return request(opts, 2048, fmt.Sprintf(ricePrompt, b.String(), in.Text())), nil
		}),
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

const ricePrompt = `You are a product manager analyzing feature requests for prioritization.

Product context:
%s
Feature requests:
%s

Task:
1. Score each feature using RICE framework:
   - Reach: How many users affected? (1-10)
   - Impact: Value per user? (0.25/0.5/1/2/3)
   - Confidence: How sure are we? (50%%/80%%/100%%)
   - Effort: Person-months (estimate)
   - RICE Score = (Reach × Impact × Confidence) / Effort

2. Rank features by RICE score (highest first)

3. For top 3 features, provide:
   - Why it ranks high
   - Key risks/assumptions
   - Quick win vs. strategic bet?

4. Recommend: Ship now, Ship next quarter, or Backlog

Format as markdown table + analysis.`
