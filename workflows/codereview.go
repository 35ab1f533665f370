package workflows

import (
	"fmt"

	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/report"
	"github.com/kbukum/llmflow/structured"
)

// Code review stage names.
const (
	StageAnalysis    = "analysis"
	StageBugs        = "bugs"
	StageSecurity    = "security"
	StagePerformance = "performance"
	StageSummary     = "summary"
)

// reviewExcerpt bounds each review narration quoted in the summary prompt.
const reviewExcerpt = 1000

// lowMediumHigh is shared by complexity and risk.
var lowMediumHigh = []string{"low", "medium", "high"}

// AnalysisSchema is the structured diff summary produced by the first
// code review stage.
var AnalysisSchema = structured.Fields(
	structured.Required("files_changed", structured.Number),
	structured.Required("lines_added", structured.Number),
	structured.Required("lines_removed", structured.Number),
	structured.Required("languages", structured.StringList),
	structured.OneOf("change_type", "feature", "bugfix", "refactor", "docs", "test", "config", "other"),
	structured.OneOf("complexity", lowMediumHigh...),
	structured.OneOf("risk_level", lowMediumHigh...),
	structured.Required("summary", structured.String),
	structured.ListOf("files", structured.Fields(
		structured.Required("path", structured.String),
		structured.Required("change_summary", structured.String),
	)),
)

// CodeReview reviews a diff for bugs, security, and performance, then
// writes a merge recommendation.
func CodeReview() *Workflow {
	return &Workflow{
		Name:        "codereview",
		Title:       "Automated Code Review",
		Description: "Review a diff for bugs, security and performance issues",
		Usage:       "<diff-file|->",
		MinArgs:     1,
		MaxArgs:     1,
		Input:       fromReference,
		Build:       codeReviewStages,
		Titles: map[string]string{
			StageAnalysis:    "Diff Analysis",
			StageBugs:        "Bug Detection",
			StageSecurity:    "Security Analysis",
			StagePerformance: "Performance Review",
			StageSummary:     "Review Summary",
		},
		Status: CodeReviewStatus,
		Footer: []string{"Review complete. See detailed findings above."},
	}
}

// CodeReviewStatus reports the analysed risk level and complexity.
func CodeReviewStatus(run *pipeline.Run) []report.Field {
	return []report.Field{
		{Label: "Risk Level", Value: report.Upper(run, StageAnalysis, "risk_level")},
		{Label: "Complexity", Value: report.Upper(run, StageAnalysis, "complexity")},
	}
}

func codeReviewStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.NewStructuredStage(stageConfig(opts, StageAnalysis, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 2000, fmt.Sprintf(analysisPrompt, in.Text())), nil
		}), AnalysisSchema),
		textStage(opts, StageBugs, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 3000, fmt.Sprintf(bugsPrompt, in.Text())), nil
		}),
		textStage(opts, StageSecurity, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 3000, fmt.Sprintf(securityPrompt, in.Text())), nil
		}),
		textStage(opts, StagePerformance, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 3000, fmt.Sprintf(performancePrompt, in.Text())), nil
		}),
		textStage(opts, StageSummary, []string{StageAnalysis, StageBugs, StageSecurity, StagePerformance},
			func(_ pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
				return request(opts, 1500, fmt.Sprintf(reviewSummaryPrompt,
					deps.Record(StageAnalysis).JSON(),
					excerpt(reviewExcerpt, deps.Text(StageBugs)),
					excerpt(reviewExcerpt, deps.Text(StageSecurity)),
					excerpt(reviewExcerpt, deps.Text(StagePerformance)),
				)), nil
			}),
	}
}

const analysisPrompt = `Analyze this git diff and provide a structured summary:

DIFF:
%s

Provide a JSON response with:
{
  "files_changed": number,
  "lines_added": number,
  "lines_removed": number,
  "languages": ["list", "of", "languages"],
  "change_type": "feature|bugfix|refactor|docs|test|config|other",
  "complexity": "low|medium|high",
  "risk_level": "low|medium|high",
  "summary": "one-sentence description of changes",
  "files": [
    {"path": "file.js", "change_summary": "what changed in this file"}
  ]
}

Only output valid JSON, no other text.`

const bugsPrompt = `Review this code diff for potential bugs:

DIFF:
%s

Identify:
1. **Logical Errors**: Off-by-one errors, incorrect conditionals, wrong operators
2. **Null/Undefined Issues**: Missing null checks, potential undefined access
3. **Edge Cases**: Unhandled edge cases, boundary conditions
4. **Error Handling**: Missing error checks, unhandled failures
5. **Type Issues**: Type mismatches, incorrect type assumptions
6. **Race Conditions**: Concurrency issues, unsynchronized shared state

For each issue found, provide:
- File and line reference
- Severity (critical|high|medium|low)
- Description of the bug
- Suggested fix

If no bugs found, say "No bugs detected" and explain why the code looks safe.

Format clearly with headers and bullet points.`

const securityPrompt = `Review this code diff for security vulnerabilities:

DIFF:
%s

Check for:
1. **Injection Attacks**: SQL injection, XSS, command injection
2. **Authentication/Authorization**: Missing auth checks, privilege escalation
3. **Data Exposure**: Sensitive data in logs, insecure storage
4. **Cryptography**: Weak algorithms, hardcoded secrets, poor key management
5. **Input Validation**: Missing validation, insufficient sanitization
6. **API Security**: Missing rate limiting, insecure endpoints
7. **Dependencies**: Known vulnerable packages

For each issue found, provide:
- File and line reference
- Severity (critical|high|medium|low)
- Vulnerability type (OWASP category if applicable)
- Attack vector
- Recommended fix

If no security issues found, say "No security vulnerabilities detected" and explain the security posture.

Format clearly with headers and bullet points.`

const performancePrompt = `Review this code diff for performance issues:

DIFF:
%s

Check for:
1. **Algorithmic Complexity**: O(n²) where O(n) possible, nested loops
2. **Database Queries**: N+1 queries, missing indexes, inefficient joins
3. **Memory Usage**: Memory leaks, excessive allocations, large object retention
4. **Network Calls**: Unnecessary requests, missing caching, no connection pooling
5. **Rendering**: Unnecessary re-renders, missing memoization
6. **Bundle Size**: Large dependencies, unused code
7. **Resource Management**: Missing cleanup, unclosed connections

For each issue found, provide:
- File and line reference
- Impact (high|medium|low)
- Performance problem
- Suggested optimization

If performance looks good, say "No performance issues detected" and note positive patterns.

Format clearly with headers and bullet points.`

const reviewSummaryPrompt = `Based on this code review, provide a final summary and recommendation:

DIFF ANALYSIS:
%s

BUGS FOUND:
%s

SECURITY ISSUES:
%s

PERFORMANCE ISSUES:
%s

Provide:
1. **Overall Assessment**: APPROVED | APPROVED_WITH_COMMENTS | CHANGES_REQUESTED | BLOCKED
2. **Summary**: 2-3 sentence overview of the changes and review
3. **Critical Issues**: List any blocking issues (if any)
4. **Recommendations**: Top 3 actions before merging (if any)
5. **Positive Notes**: What was done well in this change

Keep it concise and actionable.`
