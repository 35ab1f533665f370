package workflows

import (
	"context"
	"fmt"

	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/source"
)

// StageReview is the single quick review stage.
const StageReview = "review"

// QuickReview reviews the staged changes of the current repository, or
// one commit, in a single call.
func QuickReview() *Workflow {
	return &Workflow{
		Name:        "quickreview",
		Title:       "Quick Code Review",
		Description: "Review staged git changes, or a commit, in one pass",
		Usage:       "[commit]",
		MinArgs:     0,
		MaxArgs:     1,
		Input:       gitDiffInput,
		Build:       quickReviewStages,
		Titles:      map[string]string{StageReview: "AI Code Review"},

		EmptyMessage: "No changes to review.",
	}
}

func gitDiffInput(ctx context.Context, src *source.Loader, args []string) (pipeline.Input, error) {
	var commit string
	if len(args) > 0 {
		commit = args[0]
	}
	doc, err := src.GitDiff(ctx, commit)
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.NewInput(doc.Text, doc.Source, nil), nil
}

func quickReviewStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		textStage(opts, StageReview, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2048, fmt.Sprintf(quickReviewPrompt, in.Text())), nil
		}),
	}
}

const quickReviewPrompt = "You are a senior software engineer performing a code review. Analyze this git diff:\n\n" +
	"```diff\n%s\n```\n\n" + `Review checklist:
1. **Bugs & Logic Errors**: Any obvious bugs, off-by-one errors, null pointer risks?
2. **Security**: SQL injection, XSS, auth bypasses, secrets in code?
3. **Performance**: N+1 queries, unnecessary loops, memory leaks?
4. **Readability**: Confusing variable names, missing comments on complex logic?
5. **Error Handling**: Missing error checks, unhandled edge cases?
6. **Testing**: Does this need tests? What edge cases are uncovered?

Format:
- If no issues: "✅ LGTM - No critical issues found."
- If issues found: List each issue with severity (🔴 Critical, 🟡 Warning, 🔵 Suggestion) and line reference.

Be specific. Reference actual code from the diff.`
